package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReportCache memoises serialized decision artifacts so repeated dashboard
// fetches skip postgres. Best-effort: every failure degrades to a miss.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache constructs a ReportCache.
func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

func reportKey(packageID string) string {
	return "feedlot_ap:report:" + packageID
}

// Get returns the cached payload for a package id.
func (c *ReportCache) Get(ctx context.Context, packageID string) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, reportKey(packageID)).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

// Set stores a payload for a package id.
func (c *ReportCache) Set(ctx context.Context, packageID string, payload []byte) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Set(ctx, reportKey(packageID), payload, c.ttl).Err()
}

// Invalidate drops the cached payload after a package is reprocessed.
func (c *ReportCache) Invalidate(ctx context.Context, packageID string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, reportKey(packageID)).Err()
}
