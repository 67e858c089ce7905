package errs

import (
	"errors"
	"fmt"
	"runtime"
)

const maxStackDepth = 32

// StackError carries the call stack captured where the error entered the
// engine's boundary.
type StackError struct {
	err error
	pcs []uintptr
}

// WithStack records the caller's stack once. Errors that already carry one are
// returned unchanged.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	var se *StackError
	if errors.As(err, &se) {
		return err
	}
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(2, pcs)
	return &StackError{err: err, pcs: pcs[:n]}
}

func (e *StackError) Error() string { return e.err.Error() }
func (e *StackError) Unwrap() error { return e.err }

// Frames renders the stack as "function file:line", innermost first.
func (e *StackError) Frames() []string {
	frames := runtime.CallersFrames(e.pcs)
	out := make([]string, 0, len(e.pcs))
	for {
		f, more := frames.Next()
		out = append(out, fmt.Sprintf("%s %s:%d", f.Function, f.File, f.Line))
		if !more {
			break
		}
	}
	return out
}
