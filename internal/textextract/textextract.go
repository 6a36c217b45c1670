package textextract

import "errors"

const (
	MimePlainText = "text/plain"
	MimePDF       = "application/pdf"
	MimeDOCX      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeDOC       = "application/msword"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrNoText          = errors.New("no extractable text")
)

type Extractor interface {
	// Extract returns the document text and the MIME type it was read as.
	Extract(filename, mimeType string, data []byte) (text string, detectedMime string, err error)
}
