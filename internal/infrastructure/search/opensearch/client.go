// Package opensearch backs the refined-response keyword pre-filter.  Commits
// are indexed as small documents and similarity retrieval asks the index for
// candidate IDs before lexical scoring runs; everything here is optional and
// the application layer degrades to a repository scan when the cluster is
// unreachable.
package opensearch

import (
	"context"
	"crypto/tls"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/config"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
)

const healthCheckInterval = 30 * time.Second

// Client manages the OpenSearch connection and its background health probe.
type Client struct {
	client  *opensearch.Client
	cfg     config.OpenSearchConfig
	logger  logging.Logger
	healthy atomic.Bool
	cancel  context.CancelFunc
}

// NewClient connects to the cluster and verifies connectivity before
// returning.
func NewClient(cfg config.OpenSearchConfig, logger logging.Logger) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.InvalidParam("opensearch requires at least one address")
	}
	if logger == nil {
		logger = logging.Default()
	}

	transport := &http.Transport{MaxIdleConnsPerHost: 10}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	osClient, err := opensearch.NewClient(opensearch.Config{
		Addresses:     cfg.Addresses,
		Username:      cfg.User,
		Password:      cfg.Password,
		MaxRetries:    3,
		RetryBackoff:  func(int) time.Duration { return 100 * time.Millisecond },
		RetryOnStatus: []int{429, 502, 503, 504},
		Transport:     transport,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create opensearch client")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{client: osClient, cfg: cfg, logger: logger.Named("opensearch"), cancel: cancel}

	if err := c.Ping(ctx); err != nil {
		cancel()
		return nil, errors.Wrap(err, errors.CodeServiceUnavailable, "opensearch unreachable")
	}
	go c.runHealthCheck(ctx)

	return c, nil
}

// newClientWithRaw wraps an existing opensearch client (for testing).
func newClientWithRaw(raw *opensearch.Client, cfg config.OpenSearchConfig, logger logging.Logger) *Client {
	c := &Client{client: raw, cfg: cfg, logger: logger, cancel: func() {}}
	c.healthy.Store(true)
	return c
}

// Ping probes the cluster and records the outcome.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	if err != nil {
		c.healthy.Store(false)
		return err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		c.healthy.Store(false)
		return errors.New(errors.CodeServiceUnavailable, "opensearch ping returned error status")
	}
	c.healthy.Store(true)
	return nil
}

// IsHealthy reports the last probe outcome.
func (c *Client) IsHealthy() bool { return c.healthy.Load() }

// Raw exposes the underlying client for request execution.
func (c *Client) Raw() *opensearch.Client { return c.client }

// Close stops the health probe.
func (c *Client) Close() error {
	c.cancel()
	c.logger.Info("closed opensearch client")
	return nil
}

func (c *Client) runHealthCheck(ctx context.Context) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prev := c.healthy.Load()
			err := c.Ping(ctx)
			if prev && !c.healthy.Load() {
				c.logger.Warn("opensearch became unhealthy", logging.Err(err))
			} else if !prev && c.healthy.Load() {
				c.logger.Info("opensearch recovered")
			}
		}
	}
}
