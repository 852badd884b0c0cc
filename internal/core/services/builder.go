package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/legallink/lexindex/internal/core/domain"
	"github.com/legallink/lexindex/internal/core/ports/driven"
	"github.com/legallink/lexindex/internal/core/ports/driving"
	"github.com/legallink/lexindex/internal/logger"
)

// Ensure BuildService implements the interface.
var _ driving.IndexBuilder = (*BuildService)(nil)

// IndexFactory creates an empty vector index for the given dimensions.
// Injected so the service stays free of adapter imports.
type IndexFactory func(dimensions int) (driven.VectorIndex, error)

// embedBatchSize bounds how many passages go to the backend per call.
const embedBatchSize = 32

// BuildService rebuilds the vector index from scratch: scan, normalise,
// chunk, embed, persist, swap. There is no incremental path; a change
// to any document means a full rebuild. At most one rebuild runs at a
// time, and the served index is only replaced after the new one has
// been persisted.
type BuildService struct {
	connector        driven.Connector
	normalisers      driven.NormaliserRegistry
	pipeline         driven.PostProcessorPipeline
	embeddingService driven.EmbeddingService
	store            driven.IndexStore
	handle           *IndexHandle
	newIndex         IndexFactory

	buildMu   sync.Mutex
	running   atomic.Bool
	processed atomic.Int64
}

// NewBuildService creates an index build service.
func NewBuildService(
	connector driven.Connector,
	normalisers driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	embeddingService driven.EmbeddingService,
	store driven.IndexStore,
	handle *IndexHandle,
	newIndex IndexFactory,
) *BuildService {
	return &BuildService{
		connector:        connector,
		normalisers:      normalisers,
		pipeline:         pipeline,
		embeddingService: embeddingService,
		store:            store,
		handle:           handle,
		newIndex:         newIndex,
	}
}

// Status reports whether a rebuild is in flight.
func (s *BuildService) Status() driving.BuildStatus {
	return driving.BuildStatus{
		Running:            s.running.Load(),
		DocumentsProcessed: int(s.processed.Load()),
	}
}

// Rebuild performs a full rebuild of the index.
func (s *BuildService) Rebuild(ctx context.Context) (*domain.BuildReport, error) {
	if !s.buildMu.TryLock() {
		return nil, fmt.Errorf("%w: another rebuild is running", domain.ErrBuildInProgress)
	}
	defer s.buildMu.Unlock()

	// Scope the scan to this rebuild so an early abort stops the
	// connector's producer goroutine instead of leaving it blocked.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.running.Store(true)
	s.processed.Store(0)
	defer s.running.Store(false)

	start := time.Now()
	logger.Section("Index Rebuild")

	if err := s.connector.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validating source: %w", err)
	}

	report := &domain.BuildReport{}
	entries, err := s.collect(ctx, report)
	if err != nil {
		return nil, err
	}

	index, err := s.newIndex(s.embeddingService.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}
	if err := index.Build(entries); err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}

	snapshot := &driven.IndexSnapshot{
		Model:      s.embeddingService.ModelName(),
		Dimensions: s.embeddingService.Dimensions(),
		Passages:   make([]domain.Passage, len(entries)),
		Vectors:    make([][]float32, len(entries)),
	}
	for i, entry := range entries {
		snapshot.Passages[i] = entry.Passage
		snapshot.Vectors[i] = entry.Vector
	}
	if err := s.store.Save(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("persisting index: %w", err)
	}

	// The old index keeps serving until this point.
	s.handle.Swap(index)

	report.PassagesIndexed = len(entries)
	report.Duration = time.Since(start)
	logger.Info("Rebuild complete: %d documents, %d passages, %d skipped in %s",
		report.DocumentsProcessed, report.PassagesIndexed, len(report.Skipped), report.Duration.Round(time.Millisecond))
	return report, nil
}

// collect drains the connector, normalises and chunks each document,
// and embeds the passages in batches.
func (s *BuildService) collect(ctx context.Context, report *domain.BuildReport) ([]driven.IndexEntry, error) {
	docsCh, errsCh := s.connector.FullScan(ctx)

	var entries []driven.IndexEntry
	var pending []domain.Passage

	flush := func() error {
		for len(pending) > 0 {
			batch := pending
			if len(batch) > embedBatchSize {
				batch = batch[:embedBatchSize]
			}
			texts := make([]string, len(batch))
			for i, p := range batch {
				texts[i] = p.Content
			}
			vectors, err := s.embeddingService.EmbedBatch(ctx, texts)
			if err != nil {
				return fmt.Errorf("embedding passages: %w", err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("embedding backend returned %d vectors for %d passages", len(vectors), len(batch))
			}
			for i, p := range batch {
				entries = append(entries, driven.IndexEntry{Passage: p, Vector: vectors[i]})
			}
			pending = pending[len(batch):]
		}
		return nil
	}

	for docsCh != nil || errsCh != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case raw, ok := <-docsCh:
			if !ok {
				docsCh = nil
				continue
			}
			passages, skip := s.processDocument(ctx, &raw)
			if skip != nil {
				report.Skipped = append(report.Skipped, *skip)
				logger.Debug("Skipping %s: %s", skip.URI, skip.Reason)
				continue
			}
			pending = append(pending, passages...)
			report.DocumentsProcessed++
			s.processed.Add(1)
			if len(pending) >= embedBatchSize {
				if err := flush(); err != nil {
					return nil, err
				}
			}

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			var scanErr *driven.ScanError
			if errors.As(err, &scanErr) {
				report.Skipped = append(report.Skipped, domain.SkippedDocument{
					URI:    scanErr.URI,
					Reason: scanErr.Err.Error(),
				})
				logger.Debug("Skipping %s: %v", scanErr.URI, scanErr.Err)
				continue
			}
			return nil, fmt.Errorf("scanning documents: %w", err)
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}
	return entries, nil
}

// processDocument normalises and chunks one document. A non-nil skip
// means the document is excluded from the build but the build goes on.
func (s *BuildService) processDocument(ctx context.Context, raw *domain.RawDocument) ([]domain.Passage, *domain.SkippedDocument) {
	result, err := s.normalisers.Normalise(ctx, raw)
	if err != nil {
		return nil, &domain.SkippedDocument{URI: raw.URI, Reason: skipReason(err)}
	}

	passages, err := s.pipeline.Process(ctx, &result.Document)
	if err != nil {
		return nil, &domain.SkippedDocument{URI: raw.URI, Reason: "chunking failed: " + err.Error()}
	}
	if len(passages) == 0 {
		return nil, &domain.SkippedDocument{URI: raw.URI, Reason: "document is empty"}
	}
	return passages, nil
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnsupportedType):
		return "unsupported document type"
	case errors.Is(err, domain.ErrDocumentUnreadable):
		return "document unreadable: " + err.Error()
	default:
		return err.Error()
	}
}
