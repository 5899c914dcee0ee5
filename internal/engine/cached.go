package engine

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/roxby/tubesearch/internal/metrics"
)

// Default mapping cache parameters.
const (
	DefaultMappingCacheSize = 64
	DefaultMappingCacheTTL  = 5 * time.Minute
)

// CachedMappings is a Gateway decorator that memoizes GetMapping replies.
// Entries are dropped when the index is created or deleted through this gateway.
type CachedMappings struct {
	Gateway
	cache *expirable.LRU[string, Mapping]
}

// NewCachedMappings wraps a gateway with a bounded, expiring mapping cache.
// Non-positive size or ttl select the defaults.
func NewCachedMappings(inner Gateway, size int, ttl time.Duration) *CachedMappings {
	if size <= 0 {
		size = DefaultMappingCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultMappingCacheTTL
	}
	return &CachedMappings{
		Gateway: inner,
		cache:   expirable.NewLRU[string, Mapping](size, nil, ttl),
	}
}

// GetMapping returns the cached mapping or fetches and caches it.
func (c *CachedMappings) GetMapping(ctx context.Context, name string) (Mapping, error) {
	if m, ok := c.cache.Get(name); ok {
		metrics.MappingCacheTotal.WithLabelValues("hit").Inc()
		return m, nil
	}
	metrics.MappingCacheTotal.WithLabelValues("miss").Inc()

	m, err := c.Gateway.GetMapping(ctx, name)
	if err != nil {
		return Mapping{}, err //nolint:wrapcheck // decorator is transparent
	}
	c.cache.Add(name, m)
	return m, nil
}

// CreateIndex creates the index and invalidates its cached mapping.
func (c *CachedMappings) CreateIndex(ctx context.Context, name string, spec IndexSpec) error {
	c.cache.Remove(name)
	return c.Gateway.CreateIndex(ctx, name, spec) //nolint:wrapcheck // decorator is transparent
}

// DeleteIndex deletes the index and invalidates its cached mapping.
func (c *CachedMappings) DeleteIndex(ctx context.Context, name string) error {
	c.cache.Remove(name)
	return c.Gateway.DeleteIndex(ctx, name) //nolint:wrapcheck // decorator is transparent
}
