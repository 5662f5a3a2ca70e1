package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatsCache stores serialized plan-stats responses keyed by period. The
// data already lags real time by the pipeline latency, so a short TTL costs
// nothing in freshness while absorbing the dashboard's polling.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &StatsCache{client: client, ttl: ttl}
}

// Get returns the cached payload for the period, if present. Redis errors
// are treated as misses; the caller recomputes.
func (c *StatsCache) Get(ctx context.Context, period string) ([]byte, bool) {
	if c == nil || c.client == nil || period == "" {
		return nil, false
	}
	data, err := c.client.Get(ctx, c.prefixed(period)).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores the payload for the period. Failures are ignored.
func (c *StatsCache) Set(ctx context.Context, period string, value []byte) {
	if c == nil || c.client == nil || period == "" || len(value) == 0 {
		return
	}
	c.client.Set(ctx, c.prefixed(period), value, c.ttl)
}

func (c *StatsCache) prefixed(period string) string {
	return "planstats:" + period
}
