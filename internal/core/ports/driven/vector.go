package driven

import (
	"context"

	"github.com/legallink/lexindex/internal/core/domain"
)

// VectorIndex stores passage vectors and provides nearest-neighbour
// search by distance. It owns all passage metadata needed to
// reconstruct search results.
//
// Mutation is full-rebuild only: Build replaces the entire contents.
// There is no incremental upsert path.
type VectorIndex interface {
	// Build replaces any existing contents with exactly the given
	// entries. All vectors must share the index's dimensions;
	// a mismatch yields domain.ErrDimensionMismatch.
	Build(entries []IndexEntry) error

	// Search returns up to k nearest entries to the query vector in
	// ascending distance order (closest first). Ties preserve
	// insertion order. An empty index returns an empty slice, not an
	// error. A query of the wrong dimensions yields
	// domain.ErrDimensionMismatch.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Passage returns the passage metadata for an internal id from a
	// prior Search, and false if the id is unknown.
	Passage(id int) (domain.Passage, bool)

	// Len returns the number of entries in the index.
	Len() int

	// Dimensions returns the vector size the index was built for.
	Dimensions() int
}

// IndexEntry pairs a passage with its embedding for Build.
type IndexEntry struct {
	// Passage is the retrieval unit and its metadata.
	Passage domain.Passage

	// Vector is the passage's embedding.
	Vector []float32
}

// VectorHit represents a nearest-neighbour search result.
type VectorHit struct {
	// ID is the internal id of the matched entry, assigned by
	// insertion order at build time.
	ID int

	// Distance is the Euclidean distance to the query vector.
	Distance float64
}
