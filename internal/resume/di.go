package resume

import (
	"github.com/foxseedlab/mensetsu/internal/completion"
	"github.com/foxseedlab/mensetsu/internal/config"
	"github.com/foxseedlab/mensetsu/internal/discord"
	"github.com/foxseedlab/mensetsu/internal/guidelines"
	"github.com/foxseedlab/mensetsu/internal/quota"
	"github.com/foxseedlab/mensetsu/internal/repository"
	"github.com/foxseedlab/mensetsu/internal/storage"
	"github.com/foxseedlab/mensetsu/internal/textextract"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		limiter := do.MustInvoke[quota.Limiter](i)
		extractor := do.MustInvoke[textextract.Extractor](i)
		completer := do.MustInvoke[completion.Completer](i)
		index := do.MustInvoke[*guidelines.Index](i)
		objects := do.MustInvoke[storage.ObjectStorage](i)
		alerts := do.MustInvoke[discord.Alerter](i)
		return NewService(cfg, repo, limiter, extractor, completer, index, objects, alerts), nil
	})
}
