package persistence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the minimal caching contract used by the dashboard service.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	DeleteByPrefix(ctx context.Context, prefix string)
}

// redisCache implements Cache on top of go-redis. Cache errors are treated
// as misses so a Redis outage never breaks dashboard reads.
type redisCache struct {
	client *redis.Client
}

// NewCache builds a Redis-backed cache.
func NewCache(r *Redis) Cache {
	return &redisCache{client: r.Client}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c.client == nil {
		return nil, false
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if c.client == nil {
		return
	}
	_ = c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) DeleteByPrefix(ctx context.Context, prefix string) {
	if c.client == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		_ = c.client.Del(ctx, keys...).Err()
	}
}
