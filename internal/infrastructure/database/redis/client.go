// Package redis wraps the go-redis client used for the template-list cache
// and usage counters.
package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/config"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
)

const pingTimeout = 3 * time.Second

// Client wraps the standalone redis client with one-shot close.
type Client struct {
	rdb    *redis.Client
	logger logging.Logger
	once   sync.Once
}

// NewClient connects and verifies the redis instance.
func NewClient(cfg config.RedisConfig, logger logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.Default()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, errors.Wrap(err, errors.CodeServiceUnavailable, "redis connection failed")
	}

	logger.Info("connected to redis", logging.String("addr", cfg.Addr))
	return &Client{rdb: rdb, logger: logger}, nil
}

// NewClientWithRedis wraps an existing go-redis client (for testing).
func NewClientWithRedis(rdb *redis.Client, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Client{rdb: rdb, logger: logger}
}

// Raw returns the underlying go-redis client.
func (c *Client) Raw() *redis.Client {
	return c.rdb
}

// HealthCheck pings redis.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, errors.CodeServiceUnavailable, "redis health check failed")
	}
	return nil
}

// Close releases the connection pool exactly once.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		err = c.rdb.Close()
		c.logger.Info("closed redis client")
	})
	return err
}
