// Package alertchannel implements the SMTP/Teams/Webhook alert
// dispatchers. Grounded on
// internal/modules/notification_channel/sender.go's
// NotificationChannelProvider interface.
package alertchannel

import (
	"context"

	"schnooty-agent/internal/shared"
)

// Sender dispatches an AlertPayload through one channel kind. body is the
// channel-specific parameters taken from the Alert's Body map.
type Sender interface {
	Send(ctx context.Context, body map[string]any, payload shared.AlertPayload) error
}
