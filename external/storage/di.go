package storage

import (
	"context"

	"github.com/foxseedlab/mensetsu/internal/config"
	"github.com/foxseedlab/mensetsu/internal/storage"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (storage.ObjectStorage, error) {
		c := do.MustInvoke[*config.Config](i)
		if !c.ObjectStorageEnabled() {
			return DisabledStorage{}, nil
		}
		return NewR2Storage(context.Background(), R2Config{
			AccountID: c.R2AccountID,
			Bucket:    c.R2Bucket,
			AccessKey: c.R2AccessKey,
			SecretKey: c.R2SecretKey,
		})
	})
}
