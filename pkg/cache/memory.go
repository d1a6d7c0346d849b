package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Memory is an in-process Cache backed by ristretto. It is used when no Redis
// server is configured and in tests.
type Memory struct {
	store *ristretto.Cache
}

// NewMemory creates an in-process cache
func NewMemory(cfg Config) (*Memory, error) {
	rc, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        int64OrDefault(cfg.NumCounters, 1e5),
		MaxCost:            int64OrDefault(cfg.MaxCost, 64<<20),
		BufferItems:        int64OrDefault(cfg.BufferItems, 64),
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Memory{store: rc}, nil
}

// Set stores value under key. It waits for the write buffer to drain so the
// entry is visible to the next Get.
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if !m.store.SetWithTTL(key, value, int64(len(value))+1, ttl) {
		return ErrRejected
	}
	m.store.Wait()
	if _, ok := m.store.Get(key); !ok {
		return ErrRejected
	}
	return nil
}

// Get returns the value stored under key
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.store.Get(key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	return s, ok, nil
}

// Ping always succeeds
func (m *Memory) Ping(context.Context) error {
	return nil
}

// Close stops ristretto's background goroutines
func (m *Memory) Close() error {
	m.store.Close()
	return nil
}

// Backend returns "memory"
func (m *Memory) Backend() string {
	return "memory"
}

func int64OrDefault(v, def int64) int64 {
	if v <= 0 {
		return def
	}
	return v
}
