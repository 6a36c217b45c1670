package textextract

import (
	"github.com/foxseedlab/mensetsu/internal/textextract"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (textextract.Extractor, error) {
		return NewDocumentExtractor(), nil
	})
}
