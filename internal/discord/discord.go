package discord

import "context"

// Alerter posts operational notices to the staff channel.
type Alerter interface {
	SendAlert(ctx context.Context, content string) error
}
