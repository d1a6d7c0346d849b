package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRejected is returned when a backend declines to store an entry
var ErrRejected = errors.New("cache rejected the entry")

// Cache is the key-value connector shared by every request. Implementations
// must be safe for concurrent use.
type Cache interface {
	// Set stores value under key for ttl
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns the value for key; ok is false when the key is absent or expired
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Ping(ctx context.Context) error
	Close() error
	// Backend names the implementation, for logs and health output
	Backend() string
}

// Config selects and configures a backend
type Config struct {
	// Backend is "redis" or "memory"
	Backend string
	// URL is the redis:// connection URL for the redis backend
	URL string
	// Memory backend sizing, zero values pick defaults
	NumCounters int64
	MaxCost     int64
	BufferItems int64
}

// New creates the configured backend and verifies it is reachable
func New(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Backend {
	case "", "redis":
		return NewRedis(ctx, cfg.URL)
	case "memory":
		return NewMemory(cfg)
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.Backend)
	}
}
