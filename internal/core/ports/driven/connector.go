package driven

import (
	"context"

	"github.com/legallink/lexindex/internal/core/domain"
)

// Connector enumerates documents from a data source. The core never
// assumes a filesystem, only an enumerable, readable document set.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// SourceID returns the configured source ID.
	SourceID() string

	// Validate checks the connector is properly configured.
	// For the filesystem connector this checks the path exists and is
	// readable. Returns nil if ready to scan.
	Validate(ctx context.Context) error

	// FullScan enumerates all documents from the source. Per-document
	// read failures are sent on the error channel without aborting
	// enumeration; both channels are closed when the scan completes.
	FullScan(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// Watch reports source changes until ctx is cancelled. Each value
	// on the channel signals that the document set may have changed
	// and a rebuild is warranted.
	Watch(ctx context.Context) (<-chan struct{}, error)

	// Close releases resources.
	Close() error
}

// ScanError carries a per-document failure from FullScan. It wraps the
// underlying cause so the builder can record the skip and continue.
type ScanError struct {
	// URI identifies the document that failed.
	URI string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	return e.URI + ": " + e.Err.Error()
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *ScanError) Unwrap() error {
	return e.Err
}
