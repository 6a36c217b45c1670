package storage

import (
	"context"
	"errors"
)

type PutObjectInput struct {
	Key         string
	ContentType string
	Body        []byte
}

type ObjectStorage interface {
	PutObject(ctx context.Context, input PutObjectInput) error
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// ErrNotConfigured is returned when no bucket credentials were provided.
var ErrNotConfigured = errors.New("object storage not configured")
