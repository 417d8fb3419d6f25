package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by a Backend when the key does not exist.
var ErrMiss = errors.New("cache miss")

// Backend is the key-value store behind the thread cache.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, ttl time.Duration, value []byte) error
}

// NewRedisClient parses a redis:// or rediss:// URL and verifies the
// connection with a PING.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisBackend implements Backend with go-redis. Expiry is enforced by Redis.
type RedisBackend struct {
	client redis.Cmdable
}

// NewRedisBackend wraps a redis client.
func NewRedisBackend(client redis.Cmdable) *RedisBackend {
	return &RedisBackend{client: client}
}

// Get returns the stored bytes or ErrMiss.
func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// SetWithTTL stores value under key for ttl (SETEX).
func (b *RedisBackend) SetWithTTL(ctx context.Context, key string, ttl time.Duration, value []byte) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}
