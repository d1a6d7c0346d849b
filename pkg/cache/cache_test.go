package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	m, err := NewMemory(Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestMemorySetGet(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", 300*time.Second))

	value, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)
}

func TestMemoryOverwrite(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "first", time.Minute))
	require.NoError(t, m.Set(ctx, "k", "second", time.Minute))

	value, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", value)
}

func TestMemoryMiss(t *testing.T) {
	m := newTestMemory(t)

	value, ok, err := m.Get(context.Background(), "never-set")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestMemoryExpiry(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "short", "lived", 200*time.Millisecond))
	time.Sleep(400 * time.Millisecond)

	_, ok, err := m.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryBackend(t *testing.T) {
	m := newTestMemory(t)
	assert.Equal(t, "memory", m.Backend())
	assert.NoError(t, m.Ping(context.Background()))
}

func TestNewSelectsBackend(t *testing.T) {
	c, err := New(context.Background(), Config{Backend: "memory"})
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "memory", c.Backend())

	_, err = New(context.Background(), Config{Backend: "memcached"})
	assert.Error(t, err)
}

func TestNewRedisInvalidURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestRedisUnreachable(t *testing.T) {
	r := NewRedisFromClient(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	}))
	defer r.Close()

	ctx := context.Background()
	assert.Equal(t, "redis", r.Backend())
	assert.Error(t, r.Ping(ctx))
	assert.Error(t, r.Set(ctx, "k", "v", time.Minute))

	value, ok, err := r.Get(ctx, "k")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestRedisRoundTrip(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set, skipping redis integration test")
	}

	ctx := context.Background()
	r, err := NewRedis(ctx, url)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Set(ctx, "mcp-dev-server:test", "v", 30*time.Second))
	value, ok, err := r.Get(ctx, "mcp-dev-server:test")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)

	_, ok, err = r.Get(ctx, "mcp-dev-server:missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
