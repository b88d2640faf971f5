package driven

import (
	"context"

	"github.com/evidentlabs/answercore/internal/core/domain"
)

// DocumentStore persists source documents, normalised documents and chunks,
// partitioned by scope. Backed by SQLite for metadata storage.
//
// It is also the "persisted-document storage" collaborator of the retrieval
// core: ListChunks supplies the full replacement set for an index rebuild.
type DocumentStore interface {
	// SaveSource stores an uploaded artifact's metadata.
	SaveSource(ctx context.Context, src *domain.SourceDocument) error

	// GetSource retrieves an uploaded artifact's metadata by ID.
	GetSource(ctx context.Context, scope domain.Scope, id string) (*domain.SourceDocument, error)

	// ListSources returns all uploaded artifacts for a scope.
	ListSources(ctx context.Context, scope domain.Scope) ([]domain.SourceDocument, error)

	// DeleteSource removes an uploaded artifact and everything derived
	// from it (documents and chunks).
	DeleteSource(ctx context.Context, scope domain.Scope, id string) error

	// SaveDocument stores or updates a normalised document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores chunks for a document, replacing existing ones.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns all normalised documents for a scope.
	ListDocuments(ctx context.Context, scope domain.Scope) ([]domain.Document, error)

	// ListChunks returns every chunk in a scope, ordered by document and
	// position. This is the full replacement set used by index rebuilds.
	ListChunks(ctx context.Context, scope domain.Scope) ([]domain.Chunk, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error
}
