// internal/cache/cache.go
package cache

import (
	"context"
	"time"
)

// Store holds serialized snapshots and reports between refreshes.
// Implementations must be safe for concurrent use. A miss is
// (nil, false, nil); a non-nil error means the backend itself failed,
// which callers treat as a miss worth a log line.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Noop satisfies Store while caching nothing. Used when caching is
// disabled by configuration.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Noop) Delete(context.Context, string) error { return nil }
