package mapbox

import (
	"context"
	"fmt"

	"github.com/couchcryptid/quake-explorer/internal/domain"
	"github.com/couchcryptid/quake-explorer/internal/lru"
	"github.com/couchcryptid/quake-explorer/internal/observability"
)

// CachedResolver wraps a RegionResolver with an in-memory LRU cache keyed by
// coordinates rounded to four decimal places (about 11 m).
type CachedResolver struct {
	inner   domain.RegionResolver
	cache   *lru.Cache[string, domain.RegionResult]
	metrics *observability.Metrics
}

// NewCachedResolver creates a cache decorator around a resolver.
func NewCachedResolver(inner domain.RegionResolver, maxEntries int, metrics *observability.Metrics) *CachedResolver {
	return &CachedResolver{
		inner:   inner,
		cache:   lru.New[string, domain.RegionResult](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedResolver) ResolveRegion(ctx context.Context, lat, lon float64) (domain.RegionResult, error) {
	key := fmt.Sprintf("%.4f,%.4f", lat, lon)
	if result, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := c.inner.ResolveRegion(ctx, lat, lon)
	if err != nil {
		return result, err
	}
	// Only cache non-empty results so "not found" responses can be retried.
	if result.Province != "" || result.Area != "" {
		c.cache.Put(key, result)
	}
	return result, nil
}
