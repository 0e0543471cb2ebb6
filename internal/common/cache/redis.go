// internal/common/cache/redis.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travel-concierge/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache miss")

// RedisClient wraps the Redis client used for completion caching.
type RedisClient struct {
	Client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis creates a Redis-backed cache from config.
func NewRedis(cfg config.CacheConfig) *RedisClient {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	return Wrap(rdb, time.Duration(cfg.TTL)*time.Second, cfg.Prefix)
}

// Wrap adapts an existing client, mostly for tests against miniredis.
func Wrap(rdb *redis.Client, ttl time.Duration, prefix string) *RedisClient {
	return &RedisClient{Client: rdb, ttl: ttl, prefix: prefix}
}

// Ping tests the Redis connection.
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// Get returns the cached bytes for key or ErrMiss.
func (c *RedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.Client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return val, err
}

// Set stores value under key with the configured TTL.
func (c *RedisClient) Set(ctx context.Context, key string, value []byte) error {
	return c.Client.Set(ctx, c.prefix+key, value, c.ttl).Err()
}

// Del deletes one or more keys.
func (c *RedisClient) Del(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = c.prefix + k
	}
	return c.Client.Del(ctx, prefixed...).Err()
}
