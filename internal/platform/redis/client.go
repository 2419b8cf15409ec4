package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"kycdesk/internal/platform/config"
	"kycdesk/pkg/platform/sentinel"
)

// Client is a connected go-redis client plus the key prefix records are
// namespaced under.
type Client struct {
	*redis.Client
	Prefix string
}

// Open dials Redis and verifies the connection before returning.
func Open(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("REDIS_URL is required for the redis store")
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	c := &Client{Client: redis.NewClient(opts), Prefix: cfg.KeyPrefix}
	if err := c.Health(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// Health reports sentinel.ErrUnavailable when Redis does not answer PING.
func (c *Client) Health(ctx context.Context) error {
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}
