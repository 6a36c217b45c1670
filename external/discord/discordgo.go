package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	discordpkg "github.com/foxseedlab/mensetsu/internal/discord"
)

const maxMessageRunes = 2000

// Alerter posts to a single staff channel over the REST API. It never opens a
// gateway connection.
type Alerter struct {
	session   *discordgo.Session
	channelID string
}

func NewAlerter(token, channelID string) (discordpkg.Alerter, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return newAlerterWithSession(s, channelID), nil
}

func newAlerterWithSession(s *discordgo.Session, channelID string) *Alerter {
	return &Alerter{session: s, channelID: channelID}
}

func (a *Alerter) SendAlert(ctx context.Context, content string) error {
	_, err := a.session.ChannelMessageSend(a.channelID, truncateRunes(content, maxMessageRunes), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send discord alert: %w", err)
	}
	return nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

// DisabledAlerter drops alerts when no staff channel is configured.
type DisabledAlerter struct{}

func (DisabledAlerter) SendAlert(_ context.Context, content string) error {
	slog.Debug("staff alert dropped; discord is not configured", "content", content)
	return nil
}
