package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/taskhub/internal/redisclient"
)

type RedisCache struct {
	client *redisclient.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewRedis(client *redisclient.Client, ttl time.Duration, log *slog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &RedisCache{client: client, ttl: ttl, log: log}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, ok, err := c.client.Get(ctx, key)
	if err != nil {
		c.log.WarnContext(ctx, "cache_get_failed", "key", key, "err", err)
		return nil, false
	}
	return b, ok
}

func (c *RedisCache) Set(ctx context.Context, key string, val []byte) {
	if err := c.client.Set(ctx, key, val, c.ttl); err != nil {
		c.log.WarnContext(ctx, "cache_set_failed", "key", key, "err", err)
	}
}

func (c *RedisCache) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key); err != nil {
		c.log.WarnContext(ctx, "cache_delete_failed", "key", key, "err", err)
	}
}
