// Package postgres manages the PostgreSQL connection pool and schema
// migrations.
package postgres

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/config"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
)

const connectTimeout = 5 * time.Second

// Connection wraps the pgx pool with health checking and one-shot close.
type Connection struct {
	pool   *pgxpool.Pool
	cfg    config.DatabaseConfig
	logger logging.Logger
	once   sync.Once
}

// NewConnection establishes and verifies the pool.
func NewConnection(ctx context.Context, cfg config.DatabaseConfig, logger logging.Logger) (*Connection, error) {
	if logger == nil {
		logger = logging.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(BuildDSN(cfg))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "parse database config")
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeServiceUnavailable, "open database pool")
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, errors.CodeServiceUnavailable, "database connection failed")
	}

	logger.Info("connected to PostgreSQL",
		logging.String("host", cfg.Host),
		logging.Int("port", cfg.Port),
		logging.String("database", cfg.DBName),
	)
	return &Connection{pool: pool, cfg: cfg, logger: logger}, nil
}

// Pool returns the underlying pgx pool.
func (c *Connection) Pool() *pgxpool.Pool {
	return c.pool
}

// HealthCheck pings the database and warns on high pool saturation.
func (c *Connection) HealthCheck(ctx context.Context) error {
	if err := c.pool.Ping(ctx); err != nil {
		return errors.Wrap(err, errors.CodeServiceUnavailable, "database health check failed")
	}
	stats := c.pool.Stat()
	if max := stats.MaxConns(); max > 0 {
		usage := float64(stats.AcquiredConns()) / float64(max)
		if usage > 0.8 {
			c.logger.Warn("high database pool usage",
				logging.Int("acquired", int(stats.AcquiredConns())),
				logging.Int("max", int(max)),
				logging.Float64("usage", usage),
			)
		}
	}
	return nil
}

// Close releases the pool exactly once.
func (c *Connection) Close() {
	c.once.Do(func() {
		c.pool.Close()
		c.logger.Info("closed PostgreSQL pool")
	})
}

// BuildDSN constructs the connection URL for both the pool and the migrator.
func BuildDSN(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   cfg.DBName,
	}
	q := u.Query()
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	q.Set("sslmode", sslMode)
	u.RawQuery = q.Encode()
	return u.String()
}
