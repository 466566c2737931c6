// Package redis connects the application record cache.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"docverify/internal/platform/config"
)

// Client is the cache connection. It embeds the go-redis client so stores
// can take *redis.Client directly.
type Client struct {
	*redis.Client
}

// New connects to cfg.URL and pings it. An empty URL means caching is off and
// yields a nil client and nil error.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	applyPool(opts, cfg)

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Client{Client: client}, nil
}

// applyPool overrides URL-derived settings with non-zero config values.
func applyPool(opts *redis.Options, cfg config.RedisConfig) {
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
}

// Health pings the server; it backs the /healthz redis check.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
