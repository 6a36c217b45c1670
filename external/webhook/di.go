package webhook

import (
	"github.com/foxseedlab/mensetsu/internal/config"
	"github.com/foxseedlab/mensetsu/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (webhook.Sender, error) {
		c := do.MustInvoke[*config.Config](i)
		if !c.ResultWebhookEnabled() {
			return DisabledSender{}, nil
		}
		return NewHTTPSender(Config{
			URL:         c.ResultWebhookURL,
			Secret:      c.ResultWebhookSecret,
			Timeout:     c.ResultWebhookTimeout,
			MaxAttempts: c.ResultWebhookMaxAttempts,
		}), nil
	})
}
