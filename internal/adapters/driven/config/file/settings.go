// Package file loads lexindex settings from a TOML file.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/legallink/lexindex/internal/core/domain"
)

// Default settings values.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	DefaultProvider     = "ollama"
	DefaultModel        = "nomic-embed-text"
	DefaultIndexFile    = "index.db"
)

// Settings is the on-disk configuration for lexindex.
type Settings struct {
	// Docs is the directory scanned for documents.
	Docs string `toml:"docs"`

	// IndexPath is where the persisted index artifact lives.
	IndexPath string `toml:"index_path"`

	// Chunking controls how documents are split into passages.
	Chunking ChunkingSettings `toml:"chunking"`

	// Search controls retrieval defaults.
	Search SearchSettings `toml:"search"`

	// Embedding configures the embedding backend.
	Embedding EmbeddingSettings `toml:"embedding"`
}

// ChunkingSettings controls passage splitting.
type ChunkingSettings struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// SearchSettings controls retrieval defaults.
type SearchSettings struct {
	TopK      int     `toml:"top_k"`
	Threshold float64 `toml:"threshold"`
}

// EmbeddingSettings configures the embedding backend.
type EmbeddingSettings struct {
	Provider   string `toml:"provider"`
	Model      string `toml:"model"`
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	Dimensions int    `toml:"dimensions"`
}

// DefaultSettings returns settings with every field at its default.
func DefaultSettings() Settings {
	return Settings{
		Docs:      "docs",
		IndexPath: DefaultIndexFile,
		Chunking:  ChunkingSettings{Size: DefaultChunkSize, Overlap: DefaultChunkOverlap},
		Search:    SearchSettings{TopK: domain.DefaultTopK, Threshold: domain.DefaultThreshold},
		Embedding: EmbeddingSettings{Provider: DefaultProvider, Model: DefaultModel},
	}
}

// Load reads settings from the TOML file at path, filling unset fields
// with defaults and validating the result. An empty path loads pure
// defaults; a missing file at an explicit path is an error.
func Load(path string) (Settings, error) {
	settings := DefaultSettings()
	if path == "" {
		return settings, settings.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("%w: parsing %s: %w", domain.ErrInvalidConfig, path, err)
	}

	// Relative paths in the file resolve against the file's directory.
	base := filepath.Dir(path)
	if settings.Docs != "" && !filepath.IsAbs(settings.Docs) {
		settings.Docs = filepath.Join(base, settings.Docs)
	}
	if settings.IndexPath != "" && !filepath.IsAbs(settings.IndexPath) {
		settings.IndexPath = filepath.Join(base, settings.IndexPath)
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// Validate reports the first invalid setting. Validation failures are
// fatal at startup; a misconfigured chunker or backend must never
// produce a half-correct index.
func (s *Settings) Validate() error {
	if s.Docs == "" {
		return fmt.Errorf("%w: docs directory must be set", domain.ErrInvalidConfig)
	}
	if s.IndexPath == "" {
		return fmt.Errorf("%w: index_path must be set", domain.ErrInvalidConfig)
	}
	if s.Chunking.Size <= 0 {
		return fmt.Errorf("%w: chunking.size must be positive, got %d", domain.ErrInvalidConfig, s.Chunking.Size)
	}
	if s.Chunking.Overlap < 0 {
		return fmt.Errorf("%w: chunking.overlap must not be negative, got %d", domain.ErrInvalidConfig, s.Chunking.Overlap)
	}
	if s.Chunking.Overlap >= s.Chunking.Size {
		return fmt.Errorf("%w: chunking.overlap (%d) must be smaller than chunking.size (%d)",
			domain.ErrInvalidConfig, s.Chunking.Overlap, s.Chunking.Size)
	}
	if s.Search.TopK < domain.MinTopK || s.Search.TopK > domain.MaxTopK {
		return fmt.Errorf("%w: search.top_k must be between %d and %d, got %d",
			domain.ErrInvalidConfig, domain.MinTopK, domain.MaxTopK, s.Search.TopK)
	}
	if s.Search.Threshold < 0 || s.Search.Threshold > 1 {
		return fmt.Errorf("%w: search.threshold must be between 0 and 1, got %g",
			domain.ErrInvalidConfig, s.Search.Threshold)
	}

	provider := domain.AIProvider(s.Embedding.Provider)
	if !provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidConfig, s.Embedding.Provider)
	}
	if s.Embedding.Model == "" {
		return fmt.Errorf("%w: embedding.model must be set", domain.ErrInvalidConfig)
	}
	if provider == domain.AIProviderOpenAI && s.Embedding.APIKey == "" {
		return fmt.Errorf("%w: embedding.api_key is required for openai", domain.ErrInvalidConfig)
	}
	return nil
}

// DomainEmbedding converts the file representation into the domain
// form consumed by the service factory.
func (s *Settings) DomainEmbedding() *domain.EmbeddingSettings {
	return &domain.EmbeddingSettings{
		Provider:   domain.AIProvider(s.Embedding.Provider),
		Model:      s.Embedding.Model,
		BaseURL:    s.Embedding.BaseURL,
		APIKey:     s.Embedding.APIKey,
		Dimensions: s.Embedding.Dimensions,
	}
}
