package httpserver

import (
	"github.com/foxseedlab/mensetsu/internal/config"
	"github.com/foxseedlab/mensetsu/internal/resume"
	"github.com/foxseedlab/mensetsu/internal/session"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		interviews := do.MustInvoke[*session.Manager](i)
		resumes := do.MustInvoke[*resume.Service](i)
		return NewServer(cfg, interviews, resumes), nil
	})
}
