// Package redis keeps rejected legacy payloads in Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDialTimeout = 5 * time.Second

// Config holds Redis connection configuration. Password, PoolSize and
// DialTimeout override what the URL carries.
type Config struct {
	URL         string        `yaml:"url"`
	Password    string        `yaml:"password"`
	PoolSize    int           `yaml:"pool_size"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

func (cfg Config) options() (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.DialTimeout = defaultDialTimeout
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	return opts, nil
}

// Client is the Redis connection behind the reject store.
type Client struct {
	rdb  *redis.Client
	addr string
}

// NewClient connects and PINGs within the dial timeout. The connection is
// released when the PING fails.
func NewClient(cfg Config) (*Client, error) {
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}

	c := &Client{rdb: redis.NewClient(opts), addr: opts.Addr}

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()
	if err := c.Health(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", c.addr, err)
	}
	return c, nil
}

// Addr returns the host:port the client talks to.
func (c *Client) Addr() string { return c.addr }

// Health PINGs the server.
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
