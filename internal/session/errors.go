package session

import "errors"

var (
	ErrRateLimited   = errors.New("the interviewer is busy, please try again shortly")
	ErrUnavailable   = errors.New("the interviewer is unavailable")
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("interview session not found")
	ErrQuotaExceeded = errors.New("daily quota reached")
)
