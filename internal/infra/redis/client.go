// Package redis guards the submitting account so only one loader signs with
// it at a time.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultLockTTL = 30 * time.Second

// Client wraps Redis operations for the loader.
type Client struct {
	rdb     *redis.Client
	lockTTL time.Duration
}

// Config holds Redis connection configuration. An empty URL disables the
// account lock.
type Config struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

// Enabled reports whether a Redis URL is configured.
func (c Config) Enabled() bool {
	return c.URL != ""
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Client{rdb: rdb, lockTTL: ttl}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
