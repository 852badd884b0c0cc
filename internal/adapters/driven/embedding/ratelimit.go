package embedding

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/legallink/lexindex/internal/core/ports/driven"
)

// Ensure the decorator implements the interface.
var _ driven.EmbeddingService = (*rateLimited)(nil)

// RateLimitConfig holds rate limiting configuration for a backend.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64

	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultRateLimit keeps bulk rebuilds well below typical embedding
// API quotas.
var DefaultRateLimit = RateLimitConfig{RequestsPerSecond: 10.0, BurstSize: 20}

// RateLimited wraps an embedding service with a token-bucket rate
// limiter. Rebuilds embed entire corpora; without this, a large docs
// folder turns into a burst of hundreds of API calls.
func RateLimited(next driven.EmbeddingService, cfg RateLimitConfig) driven.EmbeddingService {
	if next == nil {
		return nil
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg = DefaultRateLimit
	}
	return &rateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

type rateLimited struct {
	next    driven.EmbeddingService
	limiter *rate.Limiter
}

// Embed waits for a token, then delegates.
func (r *rateLimited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.Embed(ctx, text)
}

// EmbedBatch waits for one token per text, then delegates. Backends
// without a native batch endpoint fan a batch out into one request per
// text, so per-text charging never undercounts; tokens are taken one
// at a time because a batch may exceed the bucket's burst size.
func (r *rateLimited) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	for range texts {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return r.next.EmbedBatch(ctx, texts)
}

// Dimensions returns the embedding vector size.
func (r *rateLimited) Dimensions() int {
	return r.next.Dimensions()
}

// ModelName returns the name of the embedding model being used.
func (r *rateLimited) ModelName() string {
	return r.next.ModelName()
}

// Ping delegates without consuming a token.
func (r *rateLimited) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

// Close releases resources.
func (r *rateLimited) Close() error {
	return r.next.Close()
}
