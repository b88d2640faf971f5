package driving

import (
	"context"

	"github.com/evidentlabs/answercore/internal/core/domain"
)

// IngestService manages a scope's document set and keeps its index current.
type IngestService interface {
	// Ingest reads an uploaded file, normalises and chunks it, persists
	// its metadata, and rebuilds the scope's index. Returns
	// domain.ErrIndexBuild when the file yields no embeddable content and
	// domain.ErrRebuildInProgress when the scope is already rebuilding.
	Ingest(ctx context.Context, scope domain.Scope, path, contentType string) (*domain.SourceDocument, error)

	// Remove deletes an uploaded document and rebuilds the scope's index
	// from the remaining set. Removing the last document deletes the
	// persisted index entirely.
	Remove(ctx context.Context, scope domain.Scope, sourceID string) error

	// Rebuild rebuilds the scope's index from its current document set.
	// Used when an external content-change event is observed.
	Rebuild(ctx context.Context, scope domain.Scope) error

	// ListSources returns the scope's uploaded documents.
	ListSources(ctx context.Context, scope domain.Scope) ([]domain.SourceDocument, error)
}
