package events

import (
	"github.com/foxseedlab/mensetsu/internal/config"
	"github.com/foxseedlab/mensetsu/internal/events"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (events.Publisher, error) {
		c := do.MustInvoke[*config.Config](i)
		if c.RabbitMQURL == "" {
			return DisabledPublisher{}, nil
		}
		return NewAMQPPublisher(c.RabbitMQURL, c.SessionEventsExchange), nil
	})
}
