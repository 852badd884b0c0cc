// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - Connector: Enumerates raw documents from a source
//   - Normaliser / NormaliserRegistry: Turn raw bytes into document text
//   - PostProcessor / PostProcessorPipeline: Cut documents into passages
//   - EmbeddingService: Generates vector embeddings
//   - VectorIndex: Stores passage vectors and searches by distance
//   - IndexStore: Persists and restores index snapshots
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
