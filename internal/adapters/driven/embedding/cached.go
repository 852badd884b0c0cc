package embedding

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/legallink/lexindex/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*cached)(nil)

// CacheConfig holds embedding cache configuration.
type CacheConfig struct {
	// MaxEntries bounds the number of cached vectors.
	MaxEntries int

	// TTL expires entries after this duration. Zero means no expiry.
	TTL time.Duration
}

// DefaultCache sizes the cache for repeated searches over a working
// set of queries plus incremental rebuild overlap.
var DefaultCache = CacheConfig{MaxEntries: 4096, TTL: time.Hour}

// Cached wraps an embedding service with an in-process LRU cache.
// Watch mode rebuilds the whole index on every change, so unchanged
// passages re-embed constantly without it.
func Cached(next driven.EmbeddingService, cfg CacheConfig) driven.EmbeddingService {
	if next == nil {
		return nil
	}
	if cfg.MaxEntries <= 0 {
		cfg = DefaultCache
	}
	return &cached{
		next:  next,
		cache: expirable.NewLRU[string, []float32](cfg.MaxEntries, nil, cfg.TTL),
	}
}

type cached struct {
	next  driven.EmbeddingService
	cache *expirable.LRU[string, []float32]
}

func (c *cached) key(text string) string {
	return c.next.ModelName() + "\x00" + text
}

// Embed returns the cached vector when available, otherwise embeds
// through the backend and stores the result.
func (c *cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)
	if vec, ok := c.cache.Get(key); ok {
		return cloneVector(vec), nil
	}
	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, cloneVector(vec))
	return vec, nil
}

// EmbedBatch serves cache hits locally and forwards only the misses to
// the backend in a single batch.
func (c *cached) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		if vec, ok := c.cache.Get(c.key(text)); ok {
			results[i] = cloneVector(vec)
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return results, nil
	}

	embedded, err := c.next.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, vec := range embedded {
		i := missIdx[j]
		results[i] = vec
		c.cache.Add(c.key(texts[i]), cloneVector(vec))
	}
	return results, nil
}

// Dimensions returns the embedding vector size.
func (c *cached) Dimensions() int {
	return c.next.Dimensions()
}

// ModelName returns the name of the embedding model being used.
func (c *cached) ModelName() string {
	return c.next.ModelName()
}

// Ping delegates to the backend.
func (c *cached) Ping(ctx context.Context) error {
	return c.next.Ping(ctx)
}

// Close releases resources.
func (c *cached) Close() error {
	c.cache.Purge()
	return c.next.Close()
}

// cloneVector copies a vector so callers cannot mutate cached entries.
func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
