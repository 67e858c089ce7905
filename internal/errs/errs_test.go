package errs

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

type kindedErr struct{}

func (kindedErr) Error() string { return "kinded" }
func (kindedErr) Kind() Kind    { return Kind("not_found") }

func TestKindOfWalksChain(t *testing.T) {
	err := Wrap(Wrapf(kindedErr{}, "load event %d", 7), "evaluate")
	if got := KindOf(err); got != Kind("not_found") {
		t.Fatalf("KindOf() = %q", got)
	}
	if !IsKind(err, Kind("not_found")) || IsKind(nil, KindInternal) {
		t.Fatalf("IsKind() mismatch")
	}
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Fatalf("KindOf(plain) = %q", got)
	}
	if got := KindOf(nil); got != "" {
		t.Fatalf("KindOf(nil) = %q", got)
	}
}

func TestWrapfKeepsChain(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(Wrapf(base, "open %s", "db"), "start")

	if !errors.Is(err, base) {
		t.Fatalf("expected base error in chain")
	}
	if err.Error() != "start: open db: boom" {
		t.Fatalf("Error() = %q", err.Error())
	}
	chain := ErrorChainStrings(err)
	if len(chain) != 3 || chain[2] != "boom" {
		t.Fatalf("chain = %#v", chain)
	}
	if Wrap(nil, "x") != nil || Wrapf(nil, "x %d", 1) != nil {
		t.Fatalf("wrapping nil should stay nil")
	}
}

func TestLoggableWritesKindAndChain(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("failed", slog.Any("err", Loggable(Wrap(kindedErr{}, "join"))))

	line := buf.String()
	for _, want := range []string{"err.message=\"join: kinded\"", "err.kind=not_found", "err.chain="} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line %q missing %q", line, want)
		}
	}
}

func TestWithStackCapturesOnce(t *testing.T) {
	if WithStack(nil) != nil {
		t.Fatalf("WithStack(nil) should stay nil")
	}

	base := errors.New("disk full")
	err := WithStack(base)
	var se *StackError
	if !errors.As(err, &se) || !errors.Is(err, base) {
		t.Fatalf("WithStack() = %#v", err)
	}
	if err.Error() != "disk full" {
		t.Fatalf("Error() = %q", err.Error())
	}
	frames := se.Frames()
	if len(frames) == 0 || !strings.Contains(frames[0], "TestWithStackCapturesOnce") {
		t.Fatalf("frames = %v", frames)
	}

	wrapped := Wrap(err, "insert")
	if again := WithStack(wrapped); again != wrapped {
		t.Fatalf("WithStack() captured a second stack")
	}

	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Error("failed", slog.Any("err", Loggable(wrapped)))
	if !strings.Contains(buf.String(), "err.stack=") {
		t.Fatalf("log line missing stack: %s", buf.String())
	}
}
