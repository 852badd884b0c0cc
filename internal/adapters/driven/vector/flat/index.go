// Package flat implements a brute-force vector index with exact
// Euclidean nearest-neighbour search. Linear scan is the right trade
// at this corpus scale: a few thousand passages search in well under a
// millisecond, with none of the recall loss of approximate structures.
package flat

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/legallink/lexindex/internal/core/domain"
	"github.com/legallink/lexindex/internal/core/ports/driven"
)

var _ driven.VectorIndex = (*Index)(nil)

// Index is an in-memory exact nearest-neighbour index. Safe for
// concurrent use; Build takes the write lock, searches share the read
// lock.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	vectors    [][]float32
	passages   []domain.Passage
}

// New creates an empty index for vectors of the given size.
func New(dimensions int) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: index dimensions must be positive, got %d", domain.ErrInvalidConfig, dimensions)
	}
	return &Index{dimensions: dimensions}, nil
}

// Build replaces the index contents with exactly the given entries.
// Internal ids are assigned by position in entries.
func (idx *Index) Build(entries []driven.IndexEntry) error {
	vectors := make([][]float32, len(entries))
	passages := make([]domain.Passage, len(entries))
	for i, entry := range entries {
		if len(entry.Vector) != idx.dimensions {
			return fmt.Errorf("%w: entry %d has %d dimensions, index expects %d",
				domain.ErrDimensionMismatch, i, len(entry.Vector), idx.dimensions)
		}
		vec := make([]float32, idx.dimensions)
		copy(vec, entry.Vector)
		vectors[i] = vec
		passages[i] = entry.Passage
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.vectors = vectors
	idx.passages = passages
	return nil
}

// Search scans every stored vector and returns the k nearest in
// ascending distance order. Ties keep insertion order.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != idx.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index expects %d",
			domain.ErrDimensionMismatch, len(query), idx.dimensions)
	}
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hits := make([]driven.VectorHit, len(idx.vectors))
	for i, vec := range idx.vectors {
		hits[i] = driven.VectorHit{ID: i, Distance: euclidean(query, vec)}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Distance < hits[b].Distance
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k:k], nil
}

// Passage returns the passage for an internal id from a prior Search.
func (idx *Index) Passage(id int) (domain.Passage, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if id < 0 || id >= len(idx.passages) {
		return domain.Passage{}, false
	}
	return idx.passages[id], true
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Dimensions returns the vector size the index was built for.
func (idx *Index) Dimensions() int {
	return idx.dimensions
}

// Snapshot copies the index contents into a persistable form.
func (idx *Index) Snapshot(model string) *driven.IndexSnapshot {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	snap := &driven.IndexSnapshot{
		Model:      model,
		Dimensions: idx.dimensions,
		Passages:   make([]domain.Passage, len(idx.passages)),
		Vectors:    make([][]float32, len(idx.vectors)),
	}
	copy(snap.Passages, idx.passages)
	for i, vec := range idx.vectors {
		v := make([]float32, len(vec))
		copy(v, vec)
		snap.Vectors[i] = v
	}
	return snap
}

// FromSnapshot builds an index from a persisted snapshot.
func FromSnapshot(snap *driven.IndexSnapshot) (*Index, error) {
	idx, err := New(snap.Dimensions)
	if err != nil {
		return nil, err
	}
	if len(snap.Passages) != len(snap.Vectors) {
		return nil, fmt.Errorf("%w: %d passages but %d vectors",
			domain.ErrIndexCorrupt, len(snap.Passages), len(snap.Vectors))
	}

	entries := make([]driven.IndexEntry, len(snap.Vectors))
	for i := range snap.Vectors {
		entries[i] = driven.IndexEntry{Passage: snap.Passages[i], Vector: snap.Vectors[i]}
	}
	if err := idx.Build(entries); err != nil {
		return nil, err
	}
	return idx, nil
}

// euclidean computes the Euclidean distance between two equal-length
// vectors in float64 to avoid accumulating float32 rounding error.
func euclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
