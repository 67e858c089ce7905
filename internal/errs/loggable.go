package errs

import (
	"errors"
	"log/slog"
)

type loggable struct{ err error }

// Loggable renders err as a group with its message, kind, unwrap chain and,
// when one was captured, its stack.
// Usage: slog.Any("err", errs.Loggable(err))
func Loggable(err error) slog.LogValuer { return loggable{err: err} }

func (l loggable) LogValue() slog.Value {
	if l.err == nil {
		return slog.GroupValue()
	}
	attrs := []slog.Attr{
		slog.String("message", l.err.Error()),
		slog.String("kind", string(KindOf(l.err))),
		slog.Any("chain", ErrorChainStrings(l.err)),
	}
	var se *StackError
	if errors.As(l.err, &se) {
		attrs = append(attrs, slog.Any("stack", se.Frames()))
	}
	return slog.GroupValue(attrs...)
}
