package domain

// Default search parameter bounds. The retriever rejects values outside
// the configured bounds rather than clamping them, so callers tuning
// relevance get predictable behaviour.
const (
	// DefaultTopK is the number of candidates fetched when the caller
	// does not specify k.
	DefaultTopK = 4

	// MinTopK is the smallest permitted k.
	MinTopK = 1

	// MaxTopK is the largest permitted k.
	MaxTopK = 20

	// DefaultThreshold is the minimum similarity score a passage must
	// reach to be returned when the caller does not specify one.
	DefaultThreshold = 0.5
)

// SearchOptions configures a retrieval query.
type SearchOptions struct {
	// TopK is the number of nearest passages to fetch from the index
	// before threshold filtering.
	TopK int

	// Threshold is the minimum similarity score in [0,1] a passage
	// must reach to be included in the results.
	Threshold float64
}

// SearchResult represents a single retrieved passage.
type SearchResult struct {
	// Content is the passage text.
	Content string `json:"content"`

	// Source identifies the document the passage came from.
	Source string `json:"source"`

	// Score is the similarity score in [0,1], 1.0 meaning identical.
	Score float64 `json:"similarity_score"`
}

// SearchResponse is the full outcome of a retrieval query.
// TotalCandidates counts the nearest neighbours examined before
// threshold filtering, so callers can report "found N, M passed".
type SearchResponse struct {
	// TotalCandidates is the number of passages returned by the
	// nearest-neighbour search (k, or fewer if the index is smaller).
	TotalCandidates int `json:"total_candidates"`

	// Results holds the passages that passed the threshold, in
	// ascending distance order as returned by the index.
	Results []SearchResult `json:"results"`
}

// FilteredCount returns the number of results that passed the threshold.
func (r *SearchResponse) FilteredCount() int {
	return len(r.Results)
}

// SimilarityFromDistance converts a distance to a similarity score via
// 1/(1+distance). Distance 0 maps to 1.0 (identical); the score
// approaches 0 as distance grows. This formula, not cosine similarity,
// is the scoring contract for the whole engine.
func SimilarityFromDistance(distance float64) float64 {
	return 1.0 / (1.0 + distance)
}
