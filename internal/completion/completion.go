package completion

import (
	"context"
	"errors"
)

var (
	ErrRateLimited = errors.New("completion rate limited")
	ErrUnavailable = errors.New("completion unavailable")
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role    Role
	Content string
}

// Completer performs exactly one model call. Implementations classify their
// failures as ErrRateLimited or ErrUnavailable and never retry internally.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, turns []Turn) (string, error)
}

// Embedder is optional; only providers with an embeddings endpoint offer it.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ErrEmbeddingsUnsupported is returned by Embedder implementations whose
// provider has no embeddings endpoint configured.
var ErrEmbeddingsUnsupported = errors.New("embeddings not supported by provider")
