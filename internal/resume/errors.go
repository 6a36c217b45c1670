package resume

import "errors"

var (
	ErrQuotaExceeded   = errors.New("daily resume analysis limit reached")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnsupportedFile = errors.New("unsupported file type, please upload a PDF, DOCX or TXT file")
	ErrUnreadableFile  = errors.New("could not read text from the file")
	ErrNotAResume      = errors.New("the uploaded file does not appear to be a professional resume or CV")
	ErrRateLimited     = errors.New("the reviewer is busy, please try again shortly")
	ErrUnavailable     = errors.New("the reviewer is unavailable")
)
