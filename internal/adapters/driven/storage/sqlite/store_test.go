package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evidentlabs/answercore/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store
}

// saveTestSource creates a source to satisfy foreign key constraints.
func saveTestSource(t *testing.T, store *Store, scope domain.Scope, id string) {
	t.Helper()
	err := store.SaveSource(context.Background(), &domain.SourceDocument{
		ID:          id,
		Scope:       scope,
		Name:        id + ".txt",
		Path:        "/uploads/" + id + ".txt",
		ContentType: "text/plain",
		Size:        42,
	})
	require.NoError(t, err)
}

// saveTestDocument creates a document to satisfy foreign key constraints.
func saveTestDocument(t *testing.T, store *Store, scope domain.Scope, docID, sourceID string) {
	t.Helper()
	err := store.SaveDocument(context.Background(), &domain.Document{
		ID:       docID,
		Scope:    scope,
		SourceID: sourceID,
		URI:      docID + ".txt",
		Title:    "Document " + docID,
		Content:  "content of " + docID,
	})
	require.NoError(t, err)
}

func TestNewStore_Success(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	dbPath := filepath.Join(tempDir, "metadata.db")
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)

	assert.NoError(t, store.db.Ping())
}

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestStore_SaveAndGetSource(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	uploaded := time.Now().UTC().Truncate(time.Second)
	src := &domain.SourceDocument{
		ID:          "src-1",
		Scope:       "tenant-a",
		Name:        "report.pdf",
		Path:        "/uploads/tenant-a/report.pdf",
		ContentType: "application/pdf",
		Size:        2048,
		UploadedAt:  uploaded,
	}
	require.NoError(t, store.SaveSource(ctx, src))

	got, err := store.GetSource(ctx, "tenant-a", "src-1")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", got.Name)
	assert.Equal(t, domain.Scope("tenant-a"), got.Scope)
	assert.Equal(t, int64(2048), got.Size)
	assert.Equal(t, uploaded, got.UploadedAt.UTC())
}

func TestStore_GetSource_WrongScope(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	saveTestSource(t, store, "tenant-a", "src-1")

	_, err := store.GetSource(ctx, "tenant-b", "src-1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestStore_ListSources_OrderedByName(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSource(ctx, &domain.SourceDocument{ID: "s1", Scope: "a", Name: "zebra.txt"}))
	require.NoError(t, store.SaveSource(ctx, &domain.SourceDocument{ID: "s2", Scope: "a", Name: "alpha.txt"}))
	require.NoError(t, store.SaveSource(ctx, &domain.SourceDocument{ID: "s3", Scope: "b", Name: "other.txt"}))

	sources, err := store.ListSources(ctx, "a")
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "alpha.txt", sources[0].Name)
	assert.Equal(t, "zebra.txt", sources[1].Name)
}

func TestStore_DeleteSource_CascadesToDocumentsAndChunks(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	saveTestSource(t, store, "a", "src-1")
	saveTestDocument(t, store, "a", "doc-1", "src-1")
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "c1", DocumentID: "doc-1", Content: "hello", Position: 0},
		{ID: "c2", DocumentID: "doc-1", Content: "world", Position: 1},
	}))

	require.NoError(t, store.DeleteSource(ctx, "a", "src-1"))

	_, err := store.GetSource(ctx, "a", "src-1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	docs, err := store.ListDocuments(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, docs)

	chunks, err := store.ListChunks(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestStore_DeleteSource_UnknownID(t *testing.T) {
	store := setupTestStore(t)

	err := store.DeleteSource(context.Background(), "a", "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestStore_SaveAndGetDocument(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	saveTestSource(t, store, "a", "src-1")

	doc := &domain.Document{
		ID:       "doc-1",
		Scope:    "a",
		SourceID: "src-1",
		URI:      "notes.md",
		Title:    "Notes",
		Content:  "# Notes\nbody",
		Metadata: map[string]any{"mime_type": "text/markdown"},
	}
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Notes", got.Title)
	assert.Equal(t, domain.Scope("a"), got.Scope)
	assert.Equal(t, "text/markdown", got.Metadata["mime_type"])
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStore_GetDocument_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetDocument(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestStore_SaveChunks_ReplacesPreviousSet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	saveTestSource(t, store, "a", "src-1")
	saveTestDocument(t, store, "a", "doc-1", "src-1")

	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "c1", DocumentID: "doc-1", Content: "old one", Position: 0},
		{ID: "c2", DocumentID: "doc-1", Content: "old two", Position: 1},
		{ID: "c3", DocumentID: "doc-1", Content: "old three", Position: 2},
	}))

	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "c4", DocumentID: "doc-1", Content: "new one", Position: 0},
	}))

	chunks, err := store.ListChunks(ctx, "a")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "c4", chunks[0].ID)
	assert.Equal(t, "new one", chunks[0].Content)
}

func TestStore_SaveChunks_EmbeddingRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	saveTestSource(t, store, "a", "src-1")
	saveTestDocument(t, store, "a", "doc-1", "src-1")

	embedding := []float32{0.25, -1.5, 3.75}
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "c1", DocumentID: "doc-1", Content: "vec", Position: 0, Page: 3, Embedding: embedding},
	}))

	chunks, err := store.ListChunks(ctx, "a")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, embedding, chunks[0].Embedding)
	assert.Equal(t, 3, chunks[0].Page)
}

func TestStore_ListChunks_OrderedByDocumentAndPosition(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	saveTestSource(t, store, "a", "src-1")
	saveTestDocument(t, store, "a", "doc-a", "src-1")
	saveTestDocument(t, store, "a", "doc-b", "src-1")

	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "b1", DocumentID: "doc-b", Position: 1},
		{ID: "b0", DocumentID: "doc-b", Position: 0},
	}))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "a0", DocumentID: "doc-a", Position: 0},
	}))

	chunks, err := store.ListChunks(ctx, "a")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "a0", chunks[0].ID)
	assert.Equal(t, "b0", chunks[1].ID)
	assert.Equal(t, "b1", chunks[2].ID)
}

func TestStore_ListChunks_ScopeIsolation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	saveTestSource(t, store, "a", "src-a")
	saveTestSource(t, store, "b", "src-b")
	saveTestDocument(t, store, "a", "doc-a", "src-a")
	saveTestDocument(t, store, "b", "doc-b", "src-b")
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "ca", DocumentID: "doc-a", Position: 0},
	}))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "cb", DocumentID: "doc-b", Position: 0},
	}))

	chunks, err := store.ListChunks(ctx, "a")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "ca", chunks[0].ID)
}

func TestStore_DeleteDocument_RemovesChunks(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	saveTestSource(t, store, "a", "src-1")
	saveTestDocument(t, store, "a", "doc-1", "src-1")
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "c1", DocumentID: "doc-1", Position: 0},
	}))

	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	chunks, err := store.ListChunks(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	tempDir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.SaveSource(ctx, &domain.SourceDocument{ID: "s1", Scope: "a", Name: "kept.txt"}))
	require.NoError(t, store.Close())

	reopened, err := NewStore(tempDir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetSource(ctx, "a", "s1")
	require.NoError(t, err)
	assert.Equal(t, "kept.txt", got.Name)
}
