package driven

import (
	"context"

	"github.com/legallink/lexindex/internal/core/domain"
)

// IndexStore persists index snapshots to durable storage and restores
// them at process start. The builder is the only writer; the retriever
// and startup code only read.
type IndexStore interface {
	// Save persists the snapshot, atomically replacing any prior
	// artifact: the write goes to a temporary location first and is
	// swapped in whole, so a crash mid-write never leaves a
	// half-written index behind.
	Save(ctx context.Context, snapshot *IndexSnapshot) error

	// Load restores the most recently saved snapshot.
	// Returns domain.ErrNotFound if nothing has been persisted,
	// domain.ErrIndexCorrupt if the artifact cannot be decoded, and
	// domain.ErrDimensionMismatch if expectDims > 0 and the stored
	// dimensions differ.
	Load(ctx context.Context, expectDims int) (*IndexSnapshot, error)

	// Path returns the artifact's storage location.
	Path() string
}

// IndexSnapshot is the persisted form of a vector index: its vectors,
// their insertion order, and the passage side-table.
type IndexSnapshot struct {
	// Model names the embedding model the vectors were produced with.
	Model string

	// Dimensions is the vector size; constant across the snapshot.
	Dimensions int

	// Passages holds the side-table, index-aligned with Vectors.
	Passages []domain.Passage

	// Vectors holds one embedding per passage.
	Vectors [][]float32
}
