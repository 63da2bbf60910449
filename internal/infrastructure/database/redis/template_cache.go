package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/template"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/prometheus"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

const templateCacheName = "templates"

// TemplateRepo decorates a template.Repository with a read-through redis
// cache for the list-heavy paths.  Invalidation is generational: every write
// for an owner bumps a counter baked into that owner's read keys, so stale
// entries simply age out under the TTL instead of being swept.
type TemplateRepo struct {
	inner   template.Repository
	cache   *Cache
	metrics *prometheus.Metrics // nil disables hit/miss counters
	ttl     time.Duration
	logger  logging.Logger
}

// NewCachedTemplateRepo wraps inner with the cache.  ttl 0 falls back to the
// cache default.
func NewCachedTemplateRepo(inner template.Repository, cache *Cache, metrics *prometheus.Metrics, ttl time.Duration, logger logging.Logger) *TemplateRepo {
	if logger == nil {
		logger = logging.Default()
	}
	return &TemplateRepo{
		inner:   inner,
		cache:   cache,
		metrics: metrics,
		ttl:     ttl,
		logger:  logger.Named("template_cache"),
	}
}

// ownerGen reads the owner's invalidation generation; any read failure
// degrades to generation 0, which only costs a cache miss.
func (r *TemplateRepo) ownerGen(ctx context.Context, owner common.OwnerID) int64 {
	gen, err := r.cache.client.Raw().Get(ctx, r.cache.buildKey("templates:gen:"+string(owner))).Int64()
	if err == redis.Nil {
		return 0
	}
	if err != nil {
		r.logger.Warn("read cache generation failed", logging.Err(err))
		return 0
	}
	return gen
}

// bumpGen advances the owner's generation, orphaning all cached reads.
func (r *TemplateRepo) bumpGen(ctx context.Context, owner common.OwnerID) {
	if err := r.cache.client.Raw().Incr(ctx, r.cache.buildKey("templates:gen:"+string(owner))).Err(); err != nil {
		r.logger.Warn("bump cache generation failed", logging.Err(err))
	}
}

func (r *TemplateRepo) listKey(owner common.OwnerID, gen int64, f template.ListFilter) string {
	return fmt.Sprintf("templates:list:%s:%d:%s:%s:%t:%d:%d",
		owner, gen, f.Category, f.ClientType, f.OrderByUsage, f.Limit, f.Offset)
}

func (r *TemplateRepo) observe(hit bool) {
	if r.metrics == nil {
		return
	}
	if hit {
		r.metrics.CacheHitsTotal.WithLabelValues(templateCacheName).Inc()
	} else {
		r.metrics.CacheMissesTotal.WithLabelValues(templateCacheName).Inc()
	}
}

// ListByOwner serves the owner's template list from cache when fresh.
func (r *TemplateRepo) ListByOwner(ctx context.Context, owner common.OwnerID, f template.ListFilter) ([]*template.Template, error) {
	key := r.listKey(owner, r.ownerGen(ctx, owner), f)

	var cached []*template.Template
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		r.observe(true)
		return cached, nil
	}
	r.observe(false)

	ts, err := r.inner.ListByOwner(ctx, owner, f)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, key, ts, r.ttl); err != nil {
		r.logger.Warn("cache template list failed", logging.Err(err))
	}
	return ts, nil
}

// ListCurated caches the shared starter library under a single key; the
// library changes by deployment, not by request, so TTL expiry is enough.
func (r *TemplateRepo) ListCurated(ctx context.Context, limit int) ([]*template.Template, error) {
	key := fmt.Sprintf("templates:curated:%d", limit)

	var cached []*template.Template
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		r.observe(true)
		return cached, nil
	}
	r.observe(false)

	ts, err := r.inner.ListCurated(ctx, limit)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, key, ts, r.ttl); err != nil {
		r.logger.Warn("cache curated list failed", logging.Err(err))
	}
	return ts, nil
}

// Create invalidates the owner's cached reads after the write lands.
func (r *TemplateRepo) Create(ctx context.Context, t *template.Template) error {
	if err := r.inner.Create(ctx, t); err != nil {
		return err
	}
	r.bumpGen(ctx, t.OwnerID)
	return nil
}

func (r *TemplateRepo) Update(ctx context.Context, t *template.Template) error {
	if err := r.inner.Update(ctx, t); err != nil {
		return err
	}
	r.bumpGen(ctx, t.OwnerID)
	return nil
}

func (r *TemplateRepo) Delete(ctx context.Context, owner common.OwnerID, id common.ID) error {
	if err := r.inner.Delete(ctx, owner, id); err != nil {
		return err
	}
	r.bumpGen(ctx, owner)
	return nil
}

func (r *TemplateRepo) CreateBatch(ctx context.Context, ts []*template.Template) error {
	if err := r.inner.CreateBatch(ctx, ts); err != nil {
		return err
	}
	if len(ts) > 0 {
		r.bumpGen(ctx, ts[0].OwnerID)
	}
	return nil
}

// IncrementUsage passes through without invalidation; usage-ordered lists
// catch up when their TTL expires, which is fine for telemetry.
func (r *TemplateRepo) IncrementUsage(ctx context.Context, owner common.OwnerID, id common.ID) error {
	return r.inner.IncrementUsage(ctx, owner, id)
}

// GetByID and GetCurated go straight to the store: single-row reads are
// cheap and the match path needs fresh success ratings.
func (r *TemplateRepo) GetByID(ctx context.Context, owner common.OwnerID, id common.ID) (*template.Template, error) {
	return r.inner.GetByID(ctx, owner, id)
}

func (r *TemplateRepo) GetCurated(ctx context.Context, id common.ID) (*template.Template, error) {
	return r.inner.GetCurated(ctx, id)
}
