// Package domain defines the core business entities for answercore.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Scope: An isolated retrieval namespace (tenant or conversation)
//   - SourceDocument: An uploaded artifact belonging to one scope
//   - Document: A normalised document with extracted text content
//   - Chunk: An embeddable unit within a document
//   - Snippet: A retrieved, provenance-tagged unit of evidence
//   - Bundle: The merged, ordered, capped evidence passed to synthesis
//   - Decision: The router's choice of evidence source(s)
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
