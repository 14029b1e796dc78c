package cache

import (
	"context"
	"fmt"
	"time"

	"stockgravity/database"
)

// Key patterns for cached dashboard responses.
const (
	poolKeyPattern    = "pool:list:%s:%.0f:%d"
	poolInvalidateAll = "pool:list:*"
)

// PoolCache caches pool listings keyed by their filter. Entries are
// invalidated whenever a lifecycle transition or scoring run changes the
// pool.
type PoolCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewPoolCache creates a pool cache with the given TTL.
func NewPoolCache(redis *RedisClient, ttl time.Duration) *PoolCache {
	return &PoolCache{redis: redis, ttl: ttl}
}

// CachedPool is a cached listing with the time it was read from the store,
// so the dashboard can show how fresh a cached response is.
type CachedPool struct {
	Entries  []database.StockPool `json:"entries"`
	CachedAt time.Time            `json:"cached_at"`
}

func poolKey(filter database.PoolFilter) string {
	status := filter.Status
	if status == "" {
		status = "all"
	}
	return fmt.Sprintf(poolKeyPattern, status, filter.MinScore, filter.Limit)
}

// Get returns the cached listing for a filter, or false on a miss.
func (c *PoolCache) Get(ctx context.Context, filter database.PoolFilter) (*CachedPool, bool) {
	var cached CachedPool
	hit, err := c.redis.Get(ctx, poolKey(filter), &cached)
	if err != nil || !hit {
		return nil, false
	}
	return &cached, true
}

// Put stores a listing for a filter.
func (c *PoolCache) Put(ctx context.Context, filter database.PoolFilter, entries []database.StockPool) {
	_ = c.redis.Set(ctx, poolKey(filter), CachedPool{
		Entries:  entries,
		CachedAt: time.Now(),
	}, c.ttl)
}

// Invalidate drops every cached listing.
func (c *PoolCache) Invalidate(ctx context.Context) {
	_ = c.redis.Delete(ctx, poolInvalidateAll)
}
