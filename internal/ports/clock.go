package ports

import "time"

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Identity is the caller as established by the transport layer.
type Identity struct {
	UserID uint64
}

func (i Identity) Anonymous() bool { return i.UserID == 0 }
