package driving

import (
	"context"

	"github.com/legallink/lexindex/internal/core/domain"
)

// RetrievalService answers retrieval queries against the current index.
type RetrievalService interface {
	// Search embeds the query, fetches the top-k nearest passages,
	// converts distances to similarity scores, and filters by the
	// threshold. Out-of-range options yield domain.ErrInvalidInput;
	// an absent or empty index yields domain.ErrIndexNotReady.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error)
}
