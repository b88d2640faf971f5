package driven

import (
	"context"

	"github.com/evidentlabs/answercore/internal/core/domain"
)

// IndexProvider builds, persists and queries per-scope similarity indexes.
// The provider is opaque to the core: how documents are embedded and how
// nearest-neighbour search works is entirely its concern.
//
// Implementations may include:
//   - bbolt-backed local index with brute-force cosine search
//   - external vector databases
type IndexProvider interface {
	// Build creates and persists an index for the scope from the given
	// entries, replacing any previous index for that scope in full.
	// Entries carry no embeddings; the provider embeds them itself.
	Build(ctx context.Context, scope domain.Scope, entries []IndexEntry) error

	// Query returns the k entries nearest to the query text, most
	// relevant first.
	Query(ctx context.Context, scope domain.Scope, text string, k int) ([]IndexHit, error)

	// Exists reports whether a persisted index exists for the scope.
	Exists(ctx context.Context, scope domain.Scope) (bool, error)

	// Delete removes the persisted index for the scope, if any.
	Delete(ctx context.Context, scope domain.Scope) error

	// Close releases resources.
	Close() error
}

// IndexEntry is one embeddable unit handed to Build.
type IndexEntry struct {
	// ChunkID identifies the chunk this entry was produced from.
	ChunkID string

	// Source is the display name of the originating document.
	Source string

	// Page is the 1-based page number, zero when pageless.
	Page int

	// Content is the text to embed and index.
	Content string
}

// IndexHit is a similarity search result.
type IndexHit struct {
	// ChunkID identifies the matched chunk.
	ChunkID string

	// Source is the display name of the originating document.
	Source string

	// Page is the 1-based page number, zero when pageless.
	Page int

	// Content is the matched text.
	Content string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
