// Package embcache decorates an Embedder with an in-process cache, so
// re-indexing an unchanged page or repeating a query does not cost provider
// tokens.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/dgraph-io/ristretto"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
)

// CachedEmbedder caches embeddings keyed by a content hash.
type CachedEmbedder struct {
	inner      domain.Embedder
	cache      *ristretto.Cache
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator sized for maxEntries embeddings.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed
// explicitly.
func New(
	inner domain.Embedder,
	maxEntries int64,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) (*CachedEmbedder, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &CachedEmbedder{
		inner:      inner,
		cache:      cache,
		cacheTotal: cacheTotal,
		logger:     logger,
	}, nil
}

// Embed returns a cached embedding or calls the inner embedder.
// Cache hit: TotalTokens = 0 (no real tokens consumed).
// Cache miss: full EmbeddingResult from inner.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := cacheKey(text)

	if v, ok := c.cache.Get(key); ok {
		if vec, ok := v.([]float32); ok {
			c.incCache("hit")
			return domain.EmbeddingResult{Embedding: vec}, nil
		}
	}

	c.incCache("miss")

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	if !c.cache.Set(key, result.Embedding, 1) {
		c.logger.Debug("Embedding cache rejected entry", zap.String("key", key))
	}
	return result, nil
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (c *CachedEmbedder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
