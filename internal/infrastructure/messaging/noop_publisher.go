package messaging

import (
	"context"
	"log/slog"

	"eventgate/internal/bootstrap/logging"
	"eventgate/internal/ports"
)

// NoopPublisher drops events. It is used when no broker is configured.
type NoopPublisher struct{}

var _ ports.Publisher = NoopPublisher{}

func (NoopPublisher) Publish(ctx context.Context, eventType string, _ any) error {
	if ctx == nil {
		return nil
	}
	logging.Debug(ctx, "event not published, no broker configured", slog.String("type", eventType))
	return nil
}
