package domain

import "time"

// Document represents a normalised document with extracted text.
// It is the canonical representation after normalisation, before chunking.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Scope is the namespace this document belongs to.
	Scope Scope

	// SourceID links to the SourceDocument that produced it.
	SourceID string

	// URI is the original location (file path, URL, etc).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full text content after normalisation.
	Content string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// Chunk represents an embeddable unit within a document.
// Documents are split into chunks before indexing so retrieval can return
// passages rather than whole files.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Page is the 1-based page number when the source format has pages,
	// zero otherwise. Used for snippet locators.
	Page int

	// Embedding is the vector representation used by the index provider.
	Embedding []float32
}
