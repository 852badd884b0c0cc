package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Note: This is separate from VectorIndex which stores and searches vectors.
// EmbeddingService generates vectors; VectorIndex stores them.
//
// For a fixed model version the output is a pure function of the input
// text: identical text produces an identical vector (modulo floating-point
// reproducibility of the underlying model).
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Decorators adding caching or rate limiting over another service
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	// An unreachable backend yields domain.ErrBackendUnavailable.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, order-preserving
	// and 1:1 with the input. More efficient than calling Embed in a loop.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	// This is fixed per model and must match the vector index.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	// Used at startup to verify connectivity before committing to a build.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
