// Package driving defines the interfaces that callers use to drive the core.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// Core services implement them; the CLI (and any future surface) calls them.
//
//   - RetrievalService: query-time passage retrieval
//   - IndexBuilder: full index rebuilds
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driving
