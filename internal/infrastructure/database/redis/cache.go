package redis

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
)

// ErrCacheMiss is returned by Get for absent keys.
var ErrCacheMiss = errors.New(errors.CodeNotFound, "cache miss")

// Cache is the JSON-over-redis cache used for hot template lists, plus the
// plain counters used for usage telemetry.
type Cache struct {
	client     *Client
	prefix     string
	defaultTTL time.Duration
	logger     logging.Logger
	group      singleflight.Group
}

// NewCache builds a Cache.  prefix namespaces all keys; defaultTTL applies
// when Set is called with ttl 0.
func NewCache(client *Client, prefix string, defaultTTL time.Duration, logger logging.Logger) *Cache {
	if logger == nil {
		logger = logging.Default()
	}
	if prefix == "" {
		prefix = "chatbuddy:"
	}
	return &Cache{
		client:     client,
		prefix:     prefix,
		defaultTTL: defaultTTL,
		logger:     logger.Named("cache"),
	}
}

// buildKey namespaces a key, avoiding double prefixes.
func (c *Cache) buildKey(key string) string {
	if strings.HasPrefix(key, c.prefix) {
		return key
	}
	return c.prefix + key
}

// Get unmarshals the cached JSON value into dest.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	data, err := c.client.Raw().Get(ctx, c.buildKey(key)).Bytes()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		return errors.Wrap(err, errors.CodeServiceUnavailable, "cache get")
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Wrap(err, errors.CodeSerialization, "decode cached value")
	}
	return nil
}

// Set stores value as JSON with the given ttl (0 means the default).
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.CodeSerialization, "encode cache value")
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.client.Raw().Set(ctx, c.buildKey(key), data, ttl).Err(); err != nil {
		return errors.Wrap(err, errors.CodeServiceUnavailable, "cache set")
	}
	return nil
}

// Delete removes keys.  Missing keys are not an error.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.buildKey(k)
	}
	if err := c.client.Raw().Del(ctx, full...).Err(); err != nil {
		return errors.Wrap(err, errors.CodeServiceUnavailable, "cache delete")
	}
	return nil
}

// GetOrSet returns the cached value, or loads it once per key (concurrent
// callers share the same flight) and caches the result.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest any, ttl time.Duration, loader func(ctx context.Context) (any, error)) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	} else if !errors.IsCode(err, errors.CodeNotFound) {
		c.logger.Warn("cache read failed, loading directly", logging.Err(err))
	}

	value, err, _ := c.group.Do(c.buildKey(key), func() (any, error) {
		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Set(ctx, key, v, ttl); err != nil {
			// A failed write only costs the next caller a reload.
			c.logger.Warn("cache write failed", logging.Err(err))
		}
		return v, nil
	})
	if err != nil {
		return err
	}

	// Round-trip through JSON so every caller gets the same shape regardless
	// of whether the value came from redis or the loader.
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.CodeSerialization, "encode loaded value")
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Wrap(err, errors.CodeSerialization, "decode loaded value")
	}
	return nil
}

// IncrUsage bumps a per-template usage counter and returns the new value.
func (c *Cache) IncrUsage(ctx context.Context, templateID string) (int64, error) {
	n, err := c.client.Raw().Incr(ctx, c.buildKey("usage:"+templateID)).Result()
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeServiceUnavailable, "increment usage counter")
	}
	return n, nil
}

// UsageCount reads a per-template usage counter; absent counters read 0.
func (c *Cache) UsageCount(ctx context.Context, templateID string) (int64, error) {
	n, err := c.client.Raw().Get(ctx, c.buildKey("usage:"+templateID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeServiceUnavailable, "read usage counter")
	}
	return n, nil
}
