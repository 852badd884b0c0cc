package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/legallink/lexindex/internal/core/domain"
	"github.com/legallink/lexindex/internal/core/ports/driven"
	"github.com/legallink/lexindex/internal/core/ports/driving"
	"github.com/legallink/lexindex/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService answers queries against the index currently held by
// the handle. Scoring is 1/(1+distance); the threshold filters on that
// score, and the index's ascending distance order is preserved, never
// re-sorted.
//
// Options are taken literally: every out-of-range k or threshold is
// rejected, never clamped or defaulted. Callers resolve their own
// defaults before searching.
type RetrievalService struct {
	handle           *IndexHandle
	embeddingService driven.EmbeddingService
}

// NewRetrievalService creates a retrieval service.
func NewRetrievalService(handle *IndexHandle, embeddingService driven.EmbeddingService) *RetrievalService {
	return &RetrievalService{
		handle:           handle,
		embeddingService: embeddingService,
	}
}

// Search embeds the query, fetches the nearest passages, and filters
// by similarity score.
func (s *RetrievalService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidInput)
	}

	topK := opts.TopK
	if topK < domain.MinTopK || topK > domain.MaxTopK {
		return nil, fmt.Errorf("%w: k must be between %d and %d, got %d",
			domain.ErrInvalidInput, domain.MinTopK, domain.MaxTopK, topK)
	}

	threshold := opts.Threshold
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: threshold must be between 0 and 1, got %g",
			domain.ErrInvalidInput, threshold)
	}

	index, ok := s.handle.Get()
	if !ok || index.Len() == 0 {
		return nil, fmt.Errorf("%w: run 'lexindex index' first", domain.ErrIndexNotReady)
	}

	logger.Debug("Search: query=%q k=%d threshold=%g index_size=%d", query, topK, threshold, index.Len())

	queryVector, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := index.Search(ctx, queryVector, topK)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	response := &domain.SearchResponse{
		TotalCandidates: len(hits),
		Results:         []domain.SearchResult{},
	}
	for _, hit := range hits {
		score := domain.SimilarityFromDistance(hit.Distance)
		if score < threshold {
			continue
		}
		passage, ok := index.Passage(hit.ID)
		if !ok {
			// Ids come from the same index snapshot; a miss means a bug.
			logger.Warn("Search: index returned unknown passage id %d", hit.ID)
			continue
		}
		response.Results = append(response.Results, domain.SearchResult{
			Content: passage.Content,
			Source:  passage.Source,
			Score:   score,
		})
	}

	logger.Debug("Search: %d candidates, %d passed threshold", response.TotalCandidates, response.FilteredCount())
	return response, nil
}
