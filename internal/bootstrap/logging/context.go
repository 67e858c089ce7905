package logging

import (
	"context"
	"log/slog"
)

// state is what a context carries for logging: the logger and the attributes
// every line written through it gets.
type state struct {
	logger *slog.Logger
	attrs  []slog.Attr
}

type stateKey struct{}

func stateOf(ctx context.Context) state {
	if ctx == nil {
		return state{}
	}
	s, _ := ctx.Value(stateKey{}).(state)
	return s
}

func withState(ctx context.Context, s state) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, stateKey{}, s)
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	s := stateOf(ctx)
	s.logger = logger
	return withState(ctx, s)
}

// WithAttrs adds attrs to every later line. A key already present is replaced
// in place, so the newest component or id wins.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if len(attrs) == 0 {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	s := stateOf(ctx)
	s.attrs = mergeAttrs(s.attrs, attrs)
	return withState(ctx, s)
}

// WithRequestID tags every later line with the transport request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return WithAttrs(ctx)
	}
	return WithAttrs(ctx, slog.String("request_id", requestID))
}

// WithEvent tags every later line with the event and, when known, the participant.
func WithEvent(ctx context.Context, eventID uint64, participantID uint64) context.Context {
	if participantID == 0 {
		return WithAttrs(ctx, slog.Uint64("event_id", eventID))
	}
	return WithAttrs(ctx, slog.Uint64("event_id", eventID), slog.Uint64("participant_id", participantID))
}

func Logger(ctx context.Context) *slog.Logger {
	if l := stateOf(ctx).logger; l != nil {
		return l
	}
	return fallback()
}

// Attrs returns a copy of the attributes carried by ctx.
func Attrs(ctx context.Context) []slog.Attr {
	attrs := stateOf(ctx).attrs
	if len(attrs) == 0 {
		return nil
	}
	return append([]slog.Attr(nil), attrs...)
}

func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	write(ctx, slog.LevelDebug, msg, attrs)
}

func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	write(ctx, slog.LevelInfo, msg, attrs)
}

func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	write(ctx, slog.LevelWarn, msg, attrs)
}

func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	write(ctx, slog.LevelError, msg, attrs)
}

func write(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := Logger(ctx)
	if !logger.Enabled(ctx, level) {
		return
	}
	logger.LogAttrs(ctx, level, msg, mergeAttrs(stateOf(ctx).attrs, attrs)...)
}

func mergeAttrs(base []slog.Attr, extra []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(base)+len(extra))
	out = append(out, base...)
	for _, attr := range extra {
		replaced := false
		if attr.Key != "" {
			for i := range out {
				if out[i].Key == attr.Key {
					out[i] = attr
					replaced = true
					break
				}
			}
		}
		if !replaced {
			out = append(out, attr)
		}
	}
	return out
}
