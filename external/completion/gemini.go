package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/foxseedlab/mensetsu/internal/completion"
	"google.golang.org/genai"
)

// Gemini rejects conversations that do not open with a user turn.
const geminiOpeningTurn = "Please begin the interview."

type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
}

type GeminiCompleter struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewGeminiCompleter(ctx context.Context, cfg GeminiConfig) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiCompleter{client: client, model: cfg.Model, temperature: cfg.Temperature}, nil
}

func (c *GeminiCompleter) Complete(ctx context.Context, systemPrompt string, turns []completion.Turn) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, geminiContents(turns), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(c.temperature),
	})
	if err != nil {
		return "", classifyGeminiError(err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty gemini response", completion.ErrUnavailable)
	}
	return text, nil
}

func (c *GeminiCompleter) Embed(context.Context, []string) ([][]float32, error) {
	return nil, completion.ErrEmbeddingsUnsupported
}

// geminiContents maps turns onto Gemini roles. Consecutive turns with the
// same role are merged since the API expects them to alternate.
func geminiContents(turns []completion.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns)+1)
	if len(turns) == 0 || turns[0].Role != completion.RoleUser {
		contents = append(contents, genai.NewContentFromText(geminiOpeningTurn, genai.RoleUser))
	}
	for _, t := range turns {
		role := genai.RoleUser
		if t.Role == completion.RoleAssistant {
			role = genai.RoleModel
		}
		if n := len(contents); n > 0 && contents[n-1].Role == string(role) {
			contents[n-1].Parts = append(contents[n-1].Parts, genai.NewPartFromText(t.Content))
			continue
		}
		contents = append(contents, genai.NewContentFromText(t.Content, genai.Role(role)))
	}
	return contents
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", completion.ErrRateLimited, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", completion.ErrRateLimited, err)
	}
	return fmt.Errorf("%w: %w", completion.ErrUnavailable, err)
}
