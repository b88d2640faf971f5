package driven

import (
	"context"

	"github.com/evidentlabs/answercore/internal/core/domain"
)

// Normaliser transforms uploaded artifacts into text documents.
// Each normaliser handles specific MIME types (e.g., plain text, Markdown).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Type-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise transforms an upload into a document with extracted text.
	Normalise(ctx context.Context, upload *Upload) (*domain.Document, error)
}

// Upload is the raw input to normalisation: the artifact's bytes together
// with its ingestion metadata.
type Upload struct {
	// Scope is the namespace the artifact belongs to.
	Scope domain.Scope

	// SourceID links to the SourceDocument record.
	SourceID string

	// Name is the original file name.
	Name string

	// MIMEType is the declared content type.
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// NormaliserRegistry selects the appropriate normaliser for an upload.
// It maintains a priority-ordered list of normalisers and dispatches
// based on MIME type.
type NormaliserRegistry interface {
	// Normalise transforms an upload using the best matching normaliser.
	Normalise(ctx context.Context, upload *Upload) (*domain.Document, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedMIMETypes returns all MIME types that can be normalised.
	SupportedMIMETypes() []string
}
