package completion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/foxseedlab/mensetsu/internal/completion"
	"github.com/foxseedlab/mensetsu/internal/config"
	"github.com/samber/do/v2"
)

// provider is the single adapter instance serving both ports.
type provider interface {
	completion.Completer
	completion.Embedder
}

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (provider, error) {
		cfg := do.MustInvoke[*config.Config](i)
		slog.Info("completion provider selected", "provider", cfg.CompletionProvider)
		switch cfg.CompletionProvider {
		case config.CompletionProviderOpenAI:
			return NewOpenAICompleter(OpenAIConfig{
				APIKey:         cfg.OpenAIAPIKey,
				BaseURL:        cfg.OpenAIBaseURL,
				ChatModel:      cfg.OpenAIChatModel,
				EmbeddingModel: cfg.OpenAIEmbeddingModel,
				Temperature:    cfg.CompletionTemperature,
			}), nil
		case config.CompletionProviderGemini:
			return NewGeminiCompleter(context.Background(), GeminiConfig{
				APIKey:      cfg.GeminiAPIKey,
				Model:       cfg.GeminiModel,
				Temperature: cfg.CompletionTemperature,
			})
		case config.CompletionProviderOffline:
			return NewOfflineCompleter(), nil
		default:
			return nil, fmt.Errorf("unsupported completion provider %q", cfg.CompletionProvider)
		}
	})
	do.Provide(injector, func(i do.Injector) (completion.Completer, error) {
		return do.MustInvoke[provider](i), nil
	})
	do.Provide(injector, func(i do.Injector) (completion.Embedder, error) {
		return do.MustInvoke[provider](i), nil
	})
}
