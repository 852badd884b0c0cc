package domain

import "time"

// Document represents a source document after normalisation.
// It is the canonical representation the chunker operates on.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URI is the original location (file path, upload reference).
	URI string

	// Title is the human-readable title, typically the file name.
	Title string

	// Content is the full text content after normalisation.
	// This is the complete document text before chunking.
	Content string

	// ContentType is the MIME type of the original bytes.
	ContentType string

	// IngestedAt is when the document was read from its source.
	IngestedAt time.Time
}

// Passage represents the unit of retrieval cut from a document.
// Documents are split into overlapping fixed-size passages; the
// vector index stores one embedding per passage.
type Passage struct {
	// ID is the unique identifier for the passage.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Source is the parent document's URI, carried so search
	// results can name their origin without a document lookup.
	Source string

	// Content is the text content of this passage.
	Content string

	// Position is the ordinal position within the document.
	Position int
}

// BuildReport summarises an index rebuild.
type BuildReport struct {
	// DocumentsProcessed is the number of documents chunked and embedded.
	DocumentsProcessed int

	// PassagesIndexed is the total number of passages in the new index.
	PassagesIndexed int

	// Skipped lists documents that could not be indexed, with reasons.
	// Skips are non-fatal; the rest of the corpus still indexes.
	Skipped []SkippedDocument

	// Duration is the wall-clock time of the rebuild.
	Duration time.Duration
}

// SkippedDocument records a document excluded from a build.
type SkippedDocument struct {
	// URI identifies the document that was skipped.
	URI string

	// Reason is a human-readable explanation (unreadable, empty,
	// unsupported type).
	Reason string
}
