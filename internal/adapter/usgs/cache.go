package usgs

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/quake-feed/internal/domain"
	"github.com/couchcryptid/quake-feed/internal/observability"
)

// Source is the upstream the cache decorates.
type Source interface {
	FetchEvents(ctx context.Context, q domain.Query) ([]domain.Feature, error)
	FetchEvent(ctx context.Context, id string) (domain.Feature, error)
}

// CachedSource wraps a Source with an in-memory LRU for detail lookups.
// List queries always go upstream.
type CachedSource struct {
	inner   Source
	cache   *lru.Cache[string, domain.Feature]
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator holding at most maxEntries
// reviewed events.
func NewCachedSource(inner Source, maxEntries int, metrics *observability.Metrics) (*CachedSource, error) {
	cache, err := lru.NewWithEvict(maxEntries, func(string, domain.Feature) {
		metrics.DetailCache.WithLabelValues("evict").Inc()
	})
	if err != nil {
		return nil, fmt.Errorf("detail cache: %w", err)
	}
	return &CachedSource{inner: inner, cache: cache, metrics: metrics}, nil
}

func (c *CachedSource) FetchEvents(ctx context.Context, q domain.Query) ([]domain.Feature, error) {
	return c.inner.FetchEvents(ctx, q)
}

func (c *CachedSource) FetchEvent(ctx context.Context, id string) (domain.Feature, error) {
	if f, ok := c.cache.Get(id); ok {
		c.metrics.DetailCache.WithLabelValues("hit").Inc()
		return f, nil
	}
	c.metrics.DetailCache.WithLabelValues("miss").Inc()

	f, err := c.inner.FetchEvent(ctx, id)
	if err != nil {
		return f, err
	}
	// Automatic solutions are revised upstream; only reviewed ones are final.
	if f.Status == "reviewed" {
		c.cache.Add(id, f)
	}
	return f, nil
}

// Len reports how many events are cached.
func (c *CachedSource) Len() int {
	return c.cache.Len()
}
