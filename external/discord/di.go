package discord

import (
	"github.com/foxseedlab/mensetsu/internal/config"
	discordpkg "github.com/foxseedlab/mensetsu/internal/discord"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (discordpkg.Alerter, error) {
		c := do.MustInvoke[*config.Config](i)
		if !c.DiscordAlertsEnabled() {
			return DisabledAlerter{}, nil
		}
		return NewAlerter(c.DiscordToken, c.DiscordAlertChannelID)
	})
}
