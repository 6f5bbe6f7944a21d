package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"

	"NewsBrief/internal/metrics"
	"NewsBrief/internal/ports"
)

// EmbeddingCache is a read-through cache of keyword vectors per user.
// Concurrent misses on the same key may both compute and write; the write
// is idempotent.
type EmbeddingCache struct {
	cache    ports.CacheStore
	embedder ports.Embedder
	ttl      time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewEmbeddingCache constructs an Embedder that caches vectors for ttl.
func NewEmbeddingCache(cache ports.CacheStore, embedder ports.Embedder, ttl time.Duration, m *metrics.Metrics, logger *slog.Logger) *EmbeddingCache {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &EmbeddingCache{
		cache:    cache,
		embedder: embedder,
		ttl:      ttl,
		metrics:  m,
		logger:   logger.With("component", "embedding_cache"),
	}
}

// EmbeddingKey is the cache key of a user's keyword vector.
func EmbeddingKey(userID, keyword string) string {
	return fmt.Sprintf("user:%s:keyword_embedding:%s", userID, keyword)
}

// Get returns the cached vector or computes and stores a fresh one. Cache
// faults degrade to a provider call.
func (c *EmbeddingCache) Get(ctx context.Context, userID, keyword string) ([]float32, error) {
	key := EmbeddingKey(userID, keyword)

	raw, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
	}
	if ok {
		var vector []float32
		if err := json.Unmarshal(raw, &vector); err == nil && len(vector) > 0 {
			c.metrics.EmbeddingLookup(true)
			return vector, nil
		}
		c.logger.Warn("discarding corrupt cache entry", "key", key)
	}
	c.metrics.EmbeddingLookup(false)

	vector, err := c.embedder.Embed(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("embed keyword %q: %w", keyword, err)
	}

	encoded, err := json.Marshal(vector)
	if err != nil {
		return nil, fmt.Errorf("encode embedding: %w", err)
	}
	if err := c.cache.Set(ctx, key, encoded, c.ttl); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return vector, nil
}
