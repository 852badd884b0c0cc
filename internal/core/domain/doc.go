// Package domain defines the core business entities for lexindex.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawDocument: Opaque bytes from a connector
//   - Document: A normalised source document
//   - Passage: The unit of retrieval cut from a document
//   - SearchResult / SearchResponse: Query-time output
//   - BuildReport: Outcome of an index rebuild
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
