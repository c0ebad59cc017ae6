package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T) (*ReportCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewReportCache(client, time.Minute), srv
}

func TestReportCacheRoundTrip(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()

	_, ok := c.Get(ctx, "pkg-1")
	require.False(t, ok)

	payload := []byte(`{"scope_key":"BF2-2025-06"}`)
	c.Set(ctx, "pkg-1", payload)

	got, ok := c.Get(ctx, "pkg-1")
	require.True(t, ok)
	require.Equal(t, payload, got)
}

func TestReportCacheInvalidate(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()

	c.Set(ctx, "pkg-1", []byte("stale"))
	c.Invalidate(ctx, "pkg-1")

	_, ok := c.Get(ctx, "pkg-1")
	require.False(t, ok)
}

func TestReportCacheExpiry(t *testing.T) {
	c, srv := testCache(t)
	ctx := context.Background()

	c.Set(ctx, "pkg-1", []byte("payload"))
	srv.FastForward(2 * time.Minute)

	_, ok := c.Get(ctx, "pkg-1")
	require.False(t, ok)
}

func TestReportCacheNilSafe(t *testing.T) {
	var c *ReportCache
	ctx := context.Background()

	_, ok := c.Get(ctx, "pkg-1")
	require.False(t, ok)
	c.Set(ctx, "pkg-1", []byte("x"))
	c.Invalidate(ctx, "pkg-1")
}
