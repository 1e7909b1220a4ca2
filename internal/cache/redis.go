// Package cache keeps the teller session cookie in Redis so a signed-in
// session survives client restarts.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultKeyPrefix namespaces persisted session cookies.
	DefaultKeyPrefix = "teller:session:"
	// DefaultSessionTTL is how long an idle persisted session survives.
	DefaultSessionTTL = 24 * time.Hour
)

// Cache stores session cookies per API host and profile.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Option customizes a Cache.
type Option func(*Cache)

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *Cache) { c.prefix = prefix }
}

// WithSessionTTL overrides DefaultSessionTTL. Non-positive values are ignored.
func WithSessionTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// New connects to redisURL and verifies the connection.
func New(ctx context.Context, redisURL string, opts ...Option) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// One interactive client issues at most one command at a time.
	opt.PoolSize = 2
	opt.MinIdleConns = 0
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return NewWithClient(client, opts...), nil
}

// NewWithClient wraps an existing Redis client. The Cache owns it from then
// on and closes it in Close.
func NewWithClient(client *redis.Client, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		prefix: DefaultKeyPrefix,
		ttl:    DefaultSessionTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
