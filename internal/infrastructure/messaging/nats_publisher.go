package messaging

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"eventgate/internal/bootstrap/logging"
	"eventgate/internal/errs"
	"eventgate/internal/ports"
)

const connectTimeout = 5 * time.Second

type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	now    func() time.Time
}

var _ ports.Publisher = (*NATSPublisher)(nil)

// NewNATSPublisher connects to url. The connection reconnects on its own;
// Close drains pending messages.
func NewNATSPublisher(ctx context.Context, url string, prefix string) (*NATSPublisher, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("nats url is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "infrastructure.messaging"))
	conn, err := nats.Connect(
		url,
		nats.Name("eventgate"),
		nats.Timeout(connectTimeout),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logging.Warn(logCtx, "nats disconnected", slog.Any("err", errs.Loggable(err)))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logging.Info(logCtx, "nats reconnected", slog.String("url", c.ConnectedUrlRedacted()))
		}),
	)
	if err != nil {
		return nil, errs.Wrapf(err, "connect nats %s", url)
	}

	logging.Info(logCtx, "nats connected", slog.String("url", conn.ConnectedUrlRedacted()))
	return &NATSPublisher{conn: conn, prefix: prefix, now: time.Now}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if p == nil || p.conn == nil {
		return errors.New("nats publisher is not connected")
	}

	env, err := newEnvelope(eventType, payload, p.now())
	if err != nil {
		return err
	}
	data, err := env.encode()
	if err != nil {
		return err
	}

	subject := Subject(p.prefix, env.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		return errs.Wrapf(err, "publish %s", subject)
	}
	return nil
}

func (p *NATSPublisher) Close(ctx context.Context) error {
	if p == nil || p.conn == nil {
		return nil
	}
	flushCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := p.conn.FlushWithContext(flushCtx); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		logging.Warn(ctx, "nats flush failed", slog.Any("err", errs.Loggable(err)))
	}
	if err := p.conn.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return errs.Wrap(err, "drain nats connection")
	}
	return nil
}
