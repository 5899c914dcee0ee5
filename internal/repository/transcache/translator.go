// Package transcache caches translations in a key-value store.
package transcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/roxby/tubesearch/internal/kv"
	"github.com/roxby/tubesearch/internal/translate"
)

const cacheKeyPrefix = "trans:"

// DefaultTTL keeps a cached translation for a week.
const DefaultTTL = 7 * 24 * time.Hour

// store is the consumer interface for the translation cache.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedTranslator caches translations in a key-value store.
type CachedTranslator struct {
	inner      translate.Translator
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner translate.Translator,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedTranslator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedTranslator{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Translate returns a cached translation or calls the inner translator.
// Cache failures are logged and never fail the call.
func (c *CachedTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	key := CacheKey(text, target)

	if out, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return out, nil
	}

	c.incCache("miss")

	out, err := c.inner.Translate(ctx, text, target)
	if err != nil {
		return "", fmt.Errorf("translate text: %w", err)
	}

	if err := c.store.Set(ctx, key, []byte(out), c.ttl); err != nil {
		c.logger.Warn("Failed to cache translation", zap.String("key", key), zap.Error(err))
	}
	return out, nil
}

// CacheKey is trans:<target>:<sha256 of the trimmed, lowercased text>.
func CacheKey(text, target string) string {
	h := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(text))))
	return cacheKeyPrefix + strings.ToLower(target) + ":" + hex.EncodeToString(h[:])
}

func (c *CachedTranslator) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedTranslator) getFromCache(ctx context.Context, key string) (string, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached translation", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	if len(data) == 0 {
		return "", false
	}
	return string(data), true
}
