package driving

import (
	"context"

	"github.com/legallink/lexindex/internal/core/domain"
)

// IndexBuilder rebuilds the vector index from the document source.
type IndexBuilder interface {
	// Rebuild enumerates the full document set, chunks and embeds it,
	// persists the new index atomically, and swaps it in. At most one
	// rebuild runs at a time; a concurrent call yields
	// domain.ErrBuildInProgress. Cancellation via ctx takes effect at
	// document granularity and leaves the previous index untouched.
	Rebuild(ctx context.Context) (*domain.BuildReport, error)

	// Status reports whether a rebuild is currently running.
	Status() BuildStatus
}

// BuildStatus describes the builder's current state.
type BuildStatus struct {
	// Running is true while a rebuild is in flight.
	Running bool

	// DocumentsProcessed counts documents completed so far in the
	// current rebuild, or in the last one if none is running.
	DocumentsProcessed int
}
