package ports

import (
	"context"
	"time"
)

// Cache holds bookkeeping keys such as the last submission per participant and
// the last reminder batch per event. The engine never reads its own state back
// from it, so a failing cache only costs a warning.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set stores value under key. A non-positive ttl keeps it until deleted.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
