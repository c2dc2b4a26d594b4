package cache

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDisabledCache(t *testing.T) {
	c := New(nil, "test", 0, discardLogger())
	ctx := context.Background()

	assert.False(t, c.Enabled())
	c.Set(ctx, "k", []byte("v"))
	_, hit := c.Get(ctx, "k")
	assert.False(t, hit)
	assert.NoError(t, c.Invalidate(ctx))

	key, err := c.Key(ctx, "GET", "/api/colleges")
	require.NoError(t, err)
	assert.Contains(t, key, "test:0:")
}

func TestNewClient_NoAddrMeansDisabled(t *testing.T) {
	rdb, err := NewClient(context.Background(), Options{})
	assert.NoError(t, err)
	assert.Nil(t, rdb)
}

func TestKey_StableAndDistinct(t *testing.T) {
	c := New(nil, "p", time.Second, discardLogger())
	ctx := context.Background()

	a1, _ := c.Key(ctx, "GET", "/api/colleges", "q=ma")
	a2, _ := c.Key(ctx, "GET", "/api/colleges", "q=ma")
	b, _ := c.Key(ctx, "GET", "/api/colleges", "q=mb")
	assert.Equal(t, a1, a2)
	assert.NotEqual(t, a1, b)
}

// The remaining tests need a real server: REDIS_TEST_ADDR=localhost:6379.
func newTestCache(t *testing.T) *Cache {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rdb, err := NewClient(context.Background(), Options{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	return New(rdb, "test:"+xid.New().String(), time.Minute, discardLogger())
}

func TestRedis_SetGetInvalidate(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	key, err := c.Key(ctx, "GET", "/api/colleges")
	require.NoError(t, err)

	c.Set(ctx, key, []byte("payload"))
	got, hit := c.Get(ctx, key)
	require.True(t, hit)
	assert.Equal(t, "payload", string(got))

	require.NoError(t, c.Invalidate(ctx))
	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)

	fresh, err := c.Key(ctx, "GET", "/api/colleges")
	require.NoError(t, err)
	assert.NotEqual(t, key, fresh)
	_, hit = c.Get(ctx, fresh)
	assert.False(t, hit)
}
