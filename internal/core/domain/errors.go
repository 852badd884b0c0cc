package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// The index store returns it when no artifact has been persisted yet.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or out-of-range caller input,
	// such as a k or threshold outside the configured bounds. Rejected
	// before any work is done.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates an invalid configuration combination,
	// such as a chunk overlap greater than or equal to the chunk size.
	// Fatal at startup.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedType indicates no normaliser handles the document's
	// MIME type. Per-document, recorded as a skip during a build.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrDocumentUnreadable indicates a document's bytes could not be
	// read or parsed. Per-document, non-fatal to the overall build.
	ErrDocumentUnreadable = errors.New("document unreadable")

	// ErrBackendUnavailable indicates the embedding backend is
	// unreachable. Surfaced to the caller as a retryable failure;
	// callers must never substitute zero vectors.
	ErrBackendUnavailable = errors.New("embedding backend unavailable")

	// ErrIndexNotReady indicates a search was attempted before any
	// index was built or loaded. Distinct from an empty result set.
	ErrIndexNotReady = errors.New("index not ready")

	// ErrIndexCorrupt indicates a persisted index artifact could not be
	// decoded. The load attempt fails and the index stays absent.
	ErrIndexCorrupt = errors.New("index corrupt")

	// ErrDimensionMismatch indicates a vector's dimensions do not match
	// the index, typically a persisted index built with a different
	// embedding model. Detected and rejected, never silently corrupted.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrBuildInProgress indicates a rebuild is already running.
	// Rebuilds are serialised; concurrent requests are rejected.
	ErrBuildInProgress = errors.New("index build in progress")
)
