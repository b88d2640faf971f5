// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - IndexProvider: Builds and queries per-scope similarity indexes
//   - DocumentStore: Source document and chunk persistence
//   - Normaliser: Transforms raw uploads into text documents
//   - NormaliserRegistry: Selects the appropriate normaliser
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - WebSearcher: Live web search. Without it, web evidence is empty with
//     an "unconfigured" reason; chat turns still complete.
//   - EmbeddingService: Generates vector embeddings. Without it, index
//     builds fail and document evidence is empty.
//   - LLMService: Classification degrades to the default decision without
//     it; answer synthesis is the one operation that truly requires it.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
