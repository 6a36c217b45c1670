package transcriber

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("speech transcription is not configured")

type Transcriber interface {
	// Transcribe converts one recorded answer into text. An empty language
	// selects the transcriber's default.
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
}
