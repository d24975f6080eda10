// Package cache wraps Redis for short-lived state: pending sign-up codes,
// handle-verification windows and rate-limit counters.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a key does not exist or has expired
var ErrCacheMiss = errors.New("cache miss")

// Options configures the Redis connection
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Cache is a thin Redis client with JSON helpers
type Cache struct {
	client *redis.Client
}

// New creates a cache around an existing client
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Connect dials Redis and verifies the connection
func Connect(ctx context.Context, opts Options) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	return New(client), nil
}

// Close releases the underlying connection pool
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks that Redis is reachable
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get returns the raw value stored at key
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}
	return data, nil
}

// Set stores value at key for ttl
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys. Missing keys are not an error.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// GetJSON decodes the JSON value at key into dst
func (c *Cache) GetJSON(ctx context.Context, key string, dst interface{}) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("cache decode %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v as JSON and stores it at key for ttl
func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return c.Set(ctx, key, data, ttl)
}

// TTL returns the remaining lifetime of key
func (c *Cache) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := c.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("cache ttl %s: %w", key, err)
	}
	// -2: key does not exist
	if ttl == -2 {
		return 0, ErrCacheMiss
	}
	return ttl, nil
}

// Incr increments the counter at key, starting a window of length window on
// the first hit. It returns the new count and the time left in the window.
func (c *Cache) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	var incr *redis.IntCmd
	var pttl *redis.DurationCmd

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		pttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("cache incr %s: %w", key, err)
	}

	remaining := pttl.Val()
	if remaining < 0 {
		remaining = window
	}
	return incr.Val(), remaining, nil
}
