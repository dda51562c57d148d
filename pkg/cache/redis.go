package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
)

const backendRedis = "redis"

// RedisCache stores entries in Redis with native key expiration
type RedisCache struct {
	client *redis.Client
	opts   options
	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisCache wraps an existing Redis client
func NewRedisCache(client *redis.Client, opts ...Option) *RedisCache {
	return &RedisCache{
		client: client,
		opts:   applyOptions(opts),
	}
}

func (c *RedisCache) key(key string) string {
	return c.opts.prefix + key
}

// Get returns the value for key or ErrCacheMiss
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.misses.Add(1)
		c.opts.recordMiss(backendRedis)
		return nil, ErrCacheMiss
	}
	if err != nil {
		c.opts.recordError(backendRedis, "get")
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	c.hits.Add(1)
	c.opts.recordHit(backendRedis)
	return data, nil
}

// Set stores value for ttl; a non-positive ttl means no expiration
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	if ttl < 0 {
		ttl = 0
	}

	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		c.opts.recordError(backendRedis, "set")
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete removes key
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}

	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		c.opts.recordError(backendRedis, "delete")
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Stats returns hit and miss counts observed by this process
func (c *RedisCache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	return Stats{
		Hits:    hits,
		Misses:  misses,
		HitRate: hitRate(hits, misses),
	}
}
