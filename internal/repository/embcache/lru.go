package embcache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sofialex/pravex/internal/domain"
)

const defaultLRUSize = 4096

// LRUEmbedder caches embeddings in a fixed-size in-process LRU. Serves the
// memory cache driver, where no external store is configured.
type LRUEmbedder struct {
	inner      domain.Embedder
	cache      *lru.Cache[string, []float32]
	model      string
	cacheTotal *prometheus.CounterVec
}

// NewLRU creates an in-process caching decorator. Non-positive size falls
// back to the default capacity.
func NewLRU(inner domain.Embedder, size int, model string, cacheTotal *prometheus.CounterVec) (*LRUEmbedder, error) {
	if size <= 0 {
		size = defaultLRUSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &LRUEmbedder{inner: inner, cache: cache, model: model, cacheTotal: cacheTotal}, nil
}

// Embed returns a cached embedding or calls the inner embedder. As with the
// KV decorator, hits report zero token usage.
func (l *LRUEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := cacheKey(l.model, text)

	if vec, ok := l.cache.Get(key); ok {
		l.incCache("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	l.incCache("miss")

	result, err := l.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	l.cache.Add(key, result.Embedding)
	return result, nil
}

// Len reports the number of cached entries.
func (l *LRUEmbedder) Len() int { return l.cache.Len() }

func (l *LRUEmbedder) incCache(result string) {
	if l.cacheTotal != nil {
		l.cacheTotal.WithLabelValues(result).Inc()
	}
}
