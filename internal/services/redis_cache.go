package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/pinmap/internal/shared"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "pinmap:place:"

// RedisPlaceCache is a [PlaceCache] backed by redis with a per-entry TTL.
type RedisPlaceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPlaceCache wraps client. A zero ttl keeps entries forever.
func NewRedisPlaceCache(client *redis.Client, ttl time.Duration) *RedisPlaceCache {
	return &RedisPlaceCache{client: client, ttl: ttl}
}

// NewRedisPlaceCacheFromConfig connects to the redis server named in the cache section.
func NewRedisPlaceCacheFromConfig(cfg shared.CacheConfig) *RedisPlaceCache {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	return NewRedisPlaceCache(client, cfg.TTLDuration())
}

func redisKey(key string) string {
	return redisKeyPrefix + key
}

// Get returns the cached payload for key. A missing key is not an error.
func (c *RedisPlaceCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := c.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return payload, true, nil
}

// Put stores payload under key with the configured TTL.
func (c *RedisPlaceCache) Put(ctx context.Context, key string, payload []byte) error {
	if err := c.client.Set(ctx, redisKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping checks the connection.
func (c *RedisPlaceCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (c *RedisPlaceCache) Close() error {
	return c.client.Close()
}
