package errs

import "errors"

// Kind classifies an error for callers that act on it, such as picking an
// HTTP status or a log level.
type Kind string

// KindInternal is reported for any error that does not carry a kind.
const KindInternal Kind = "internal"

// Kinded is implemented by errors that carry a kind.
type Kinded interface {
	error
	Kind() Kind
}

// KindOf returns the kind of the outermost Kinded error in the chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var k Kinded
	if !errors.As(err, &k) {
		return KindInternal
	}
	return k.Kind()
}

// IsKind reports whether err classifies as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
