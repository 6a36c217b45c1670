package guidelines

import (
	"github.com/foxseedlab/mensetsu/internal/completion"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Index, error) {
		embedder := do.MustInvoke[completion.Embedder](i)
		return NewIndex(embedder), nil
	})
}
