// Package cli implements the lexindex command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/legallink/lexindex/internal/adapters/driven/ai"
	configfile "github.com/legallink/lexindex/internal/adapters/driven/config/file"
	"github.com/legallink/lexindex/internal/adapters/driven/storage/sqlite"
	"github.com/legallink/lexindex/internal/adapters/driven/vector/flat"
	"github.com/legallink/lexindex/internal/connectors/filesystem"
	"github.com/legallink/lexindex/internal/core/domain"
	"github.com/legallink/lexindex/internal/core/ports/driven"
	"github.com/legallink/lexindex/internal/core/ports/driving"
	"github.com/legallink/lexindex/internal/core/services"
	"github.com/legallink/lexindex/internal/logger"
	"github.com/legallink/lexindex/internal/normalisers"
	"github.com/legallink/lexindex/internal/normalisers/markdown"
	"github.com/legallink/lexindex/internal/normalisers/pdf"
	"github.com/legallink/lexindex/internal/normalisers/plaintext"
	"github.com/legallink/lexindex/internal/postprocessors"
	"github.com/legallink/lexindex/internal/postprocessors/chunker"
)

// version is set at build time via ldflags.
var version = "dev"

// Wired services. Populated by initApp on first use; tests inject
// mocks directly.
var (
	retrievalService driving.RetrievalService
	indexBuilder     driving.IndexBuilder
	docsConnector    driven.Connector
	indexHandle      *services.IndexHandle
	indexStore       driven.IndexStore
	embeddingService driven.EmbeddingService
)

var (
	configPath string
	docsDir    string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "lexindex",
	Short: "Semantic retrieval over a folder of legal documents",
	Long: `lexindex builds a vector index over a folder of documents and answers
semantic search queries against it. Documents are chunked into
overlapping passages, embedded, and searched by Euclidean distance.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.toml (default ~/.lexindex/config.toml)")
	rootCmd.PersistentFlags().StringVar(&docsDir, "docs", "", "documents folder (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with the given context, so
// Ctrl-C cancels in-flight rebuilds and searches.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion overrides the build-time version string.
func SetVersion(v string) {
	version = v
}

// resolveConfigPath returns the explicit --config path, or the default
// ~/.lexindex/config.toml if it exists, or empty for pure defaults.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, ".lexindex", "config.toml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// initApp wires the full stack from configuration. Idempotent: wiring
// already present (injected by tests or a prior command) is kept.
func initApp() error {
	if retrievalService != nil && indexBuilder != nil {
		return nil
	}

	settings, err := configfile.Load(resolveConfigPath())
	if err != nil {
		return err
	}
	if docsDir != "" {
		settings.Docs = docsDir
	}

	embedder, err := ai.CreateAndValidateEmbeddingService(settings.DomainEmbedding())
	if err != nil {
		return err
	}
	embeddingService = embedder

	store, err := sqlite.NewIndexStore(settings.IndexPath)
	if err != nil {
		return err
	}
	indexStore = store

	registry := normalisers.NewRegistry()
	registry.Register(plaintext.New())
	registry.Register(markdown.New())
	registry.Register(pdf.New())

	split, err := chunker.New(
		chunker.WithChunkSize(settings.Chunking.Size),
		chunker.WithOverlap(settings.Chunking.Overlap),
	)
	if err != nil {
		return err
	}

	docsConnector = filesystem.New("docs", settings.Docs)
	indexHandle = services.NewIndexHandle()

	indexBuilder = services.NewBuildService(
		docsConnector,
		registry,
		postprocessors.NewPipeline(split),
		embedder,
		store,
		indexHandle,
		func(dimensions int) (driven.VectorIndex, error) { return flat.New(dimensions) },
	)
	retrievalService = services.NewRetrievalService(indexHandle, embedder)
	searchDefaults = domain.SearchOptions{
		TopK:      settings.Search.TopK,
		Threshold: settings.Search.Threshold,
	}
	return nil
}

// loadPersistedIndex restores the saved index into the handle. Called
// by read paths; a missing artifact is reported as the index not being
// ready, while corrupt or mismatched artifacts surface as themselves.
func loadPersistedIndex(ctx context.Context) error {
	if indexHandle == nil || indexStore == nil {
		return nil
	}
	if _, ok := indexHandle.Get(); ok {
		return nil
	}

	expectDims := 0
	if embeddingService != nil {
		expectDims = embeddingService.Dimensions()
	}
	snapshot, err := indexStore.Load(ctx, expectDims)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: run 'lexindex index' first", domain.ErrIndexNotReady)
		}
		return fmt.Errorf("loading index from %s: %w", indexStore.Path(), err)
	}

	index, err := flat.FromSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("loading index from %s: %w", indexStore.Path(), err)
	}
	indexHandle.Swap(index)
	logger.Debug("Loaded index: %d passages, %d dimensions", index.Len(), index.Dimensions())
	return nil
}
