package services

import (
	"context"
	"testing"
	"time"

	"github.com/desertthunder/pinmap/internal/shared"
	"github.com/redis/go-redis/v9"
)

func TestRedisPlaceCache(t *testing.T) {
	t.Run("Key Prefix", func(t *testing.T) {
		if got := redisKey("eiffel tower"); got != "pinmap:place:eiffel tower" {
			t.Errorf("unexpected key %q", got)
		}
	})

	t.Run("From Config", func(t *testing.T) {
		cfg := shared.CacheConfig{RedisAddr: "127.0.0.1:6379", RedisDB: 2, TTL: "1h"}
		c := NewRedisPlaceCacheFromConfig(cfg)
		defer c.Close()

		if c.ttl != time.Hour {
			t.Errorf("expected ttl 1h, got %v", c.ttl)
		}
		if opts := c.client.Options(); opts.Addr != "127.0.0.1:6379" || opts.DB != 2 {
			t.Errorf("unexpected options %s db %d", opts.Addr, opts.DB)
		}
	})

	t.Run("Unreachable Server Returns Errors", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 100 * time.Millisecond,
			MaxRetries:  -1,
		})
		c := NewRedisPlaceCache(client, time.Minute)
		defer c.Close()

		ctx := context.Background()
		if _, ok, err := c.Get(ctx, "k"); err == nil || ok {
			t.Errorf("expected error from unreachable redis, got ok=%v err=%v", ok, err)
		}
		if err := c.Put(ctx, "k", []byte("{}")); err == nil {
			t.Error("expected error from unreachable redis")
		}
		if err := c.Ping(ctx); err == nil {
			t.Error("expected ping to fail")
		}
	})
}
