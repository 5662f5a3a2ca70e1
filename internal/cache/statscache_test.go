package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T, ttl time.Duration) (*StatsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStatsCache(client, ttl), mr
}

func TestStatsCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "24h"); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	payload := []byte(`{"period":"24h"}`)
	c.Set(ctx, "24h", payload)

	got, ok := c.Get(ctx, "24h")
	if !ok {
		t.Fatal("expected hit after set")
	}
	if string(got) != string(payload) {
		t.Errorf("payload: %s", got)
	}

	// Keys are per period.
	if _, ok := c.Get(ctx, "7d"); ok {
		t.Error("different period should miss")
	}
}

func TestStatsCacheExpiry(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	c.Set(ctx, "6h", []byte("x"))
	mr.FastForward(2 * time.Minute)

	if _, ok := c.Get(ctx, "6h"); ok {
		t.Error("entry should have expired")
	}
}

func TestStatsCacheNilSafety(t *testing.T) {
	var c *StatsCache
	ctx := context.Background()
	c.Set(ctx, "24h", []byte("x"))
	if _, ok := c.Get(ctx, "24h"); ok {
		t.Error("nil cache should miss")
	}

	empty := NewStatsCache(nil, 0)
	empty.Set(ctx, "", nil)
	if _, ok := empty.Get(ctx, ""); ok {
		t.Error("empty key should miss")
	}
}
