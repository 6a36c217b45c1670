package session

import (
	"github.com/foxseedlab/mensetsu/internal/completion"
	"github.com/foxseedlab/mensetsu/internal/config"
	"github.com/foxseedlab/mensetsu/internal/discord"
	"github.com/foxseedlab/mensetsu/internal/events"
	"github.com/foxseedlab/mensetsu/internal/quota"
	"github.com/foxseedlab/mensetsu/internal/repository"
	"github.com/foxseedlab/mensetsu/internal/transcriber"
	"github.com/foxseedlab/mensetsu/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		limiter := do.MustInvoke[quota.Limiter](i)
		completer := do.MustInvoke[completion.Completer](i)
		stt := do.MustInvoke[transcriber.Transcriber](i)
		wh := do.MustInvoke[webhook.Sender](i)
		pub := do.MustInvoke[events.Publisher](i)
		alerts := do.MustInvoke[discord.Alerter](i)
		return NewManager(cfg, repo, limiter, completer, stt, wh, pub, alerts), nil
	})
}
