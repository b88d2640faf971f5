package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evidentlabs/answercore/internal/adapters/driven/storage/memory"
	"github.com/evidentlabs/answercore/internal/core/domain"
	"github.com/evidentlabs/answercore/internal/normalisers"
	"github.com/evidentlabs/answercore/internal/normalisers/markdown"
	"github.com/evidentlabs/answercore/internal/normalisers/plaintext"
	"github.com/evidentlabs/answercore/internal/postprocessors"
	"github.com/evidentlabs/answercore/internal/postprocessors/chunker"
)

// newIngestFixture wires an ingest service against in-memory collaborators
// and a temp upload directory.
func newIngestFixture(t *testing.T) (*IngestService, *memory.DocumentStore, *mockIndexProvider, string) {
	t.Helper()

	store := memory.NewDocumentStore()
	provider := newMockIndexProvider()
	cache := NewIndexCache(provider)
	registry := normalisers.NewRegistry()
	registry.Register(plaintext.New())
	registry.Register(markdown.New())
	pipeline := postprocessors.NewPipeline(chunker.New(chunker.WithChunkSize(100), chunker.WithOverlap(20)))
	uploads := t.TempDir()

	svc := NewIngestService(store, registry, pipeline, cache, provider, uploads)
	return svc, store, provider, uploads
}

func writeUpload(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestIngest_Success(t *testing.T) {
	svc, store, provider, _ := newIngestFixture(t)
	ctx := context.Background()

	path := writeUpload(t, t.TempDir(), "report.txt", "Revenue was $4M in Q1.")

	src, err := svc.Ingest(ctx, "alice", path, "")

	require.NoError(t, err)
	assert.NotEmpty(t, src.ID)
	assert.Equal(t, "report.txt", src.Name)
	assert.Equal(t, "text/plain", src.ContentType)
	assert.FileExists(t, src.Path)

	// Metadata persisted.
	sources, err := store.ListSources(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, sources, 1)

	chunks, err := store.ListChunks(ctx, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)

	// Index rebuilt with the scope's chunks.
	assert.Equal(t, 1, provider.builds())
	assert.True(t, provider.hasIndex("alice"))
}

func TestIngest_InfersContentTypeFromExtension(t *testing.T) {
	svc, store, _, _ := newIngestFixture(t)
	ctx := context.Background()

	path := writeUpload(t, t.TempDir(), "notes.md", "# Notes\n\nSome content here.")

	src, err := svc.Ingest(ctx, "alice", path, "")

	require.NoError(t, err)
	assert.Equal(t, "text/markdown", src.ContentType)

	docs, err := store.ListDocuments(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Notes", docs[0].Title)
}

func TestIngest_UnsupportedExtension(t *testing.T) {
	svc, _, _, _ := newIngestFixture(t)

	path := writeUpload(t, t.TempDir(), "binary.exe", "MZ")

	_, err := svc.Ingest(context.Background(), "alice", path, "")

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestIngest_EmptyContentLeavesNoMetadata(t *testing.T) {
	svc, store, _, uploads := newIngestFixture(t)
	ctx := context.Background()

	path := writeUpload(t, t.TempDir(), "empty.txt", "")

	_, err := svc.Ingest(ctx, "alice", path, "")

	require.ErrorIs(t, err, domain.ErrIndexBuild)

	sources, err := store.ListSources(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, sources)

	// Stored artifact cleaned up as well.
	entries, err := os.ReadDir(filepath.Join(uploads, "alice"))
	if err == nil {
		assert.Empty(t, entries)
	}
}

func TestIngest_InvalidScope(t *testing.T) {
	svc, _, _, _ := newIngestFixture(t)

	_, err := svc.Ingest(context.Background(), "", "/tmp/whatever.txt", "text/plain")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngest_MissingFile(t *testing.T) {
	svc, _, _, _ := newIngestFixture(t)

	_, err := svc.Ingest(context.Background(), "alice", "/nonexistent/file.txt", "text/plain")

	assert.Error(t, err)
}

func TestRemove_LastDocumentClearsIndex(t *testing.T) {
	svc, _, provider, _ := newIngestFixture(t)
	ctx := context.Background()

	path := writeUpload(t, t.TempDir(), "report.txt", "Revenue was $4M in Q1.")
	src, err := svc.Ingest(ctx, "alice", path, "")
	require.NoError(t, err)
	require.True(t, provider.hasIndex("alice"))

	err = svc.Remove(ctx, "alice", src.ID)

	require.NoError(t, err)
	assert.False(t, provider.hasIndex("alice"), "index should be deleted when the last document goes")
	assert.NoFileExists(t, src.Path)
}

func TestRemove_RemainingDocumentsRebuild(t *testing.T) {
	svc, store, provider, _ := newIngestFixture(t)
	ctx := context.Background()

	dir := t.TempDir()
	first, err := svc.Ingest(ctx, "alice", writeUpload(t, dir, "a.txt", "First document content."), "")
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, "alice", writeUpload(t, dir, "b.txt", "Second document content."), "")
	require.NoError(t, err)

	buildsBefore := provider.builds()
	err = svc.Remove(ctx, "alice", first.ID)

	require.NoError(t, err)
	assert.True(t, provider.hasIndex("alice"))
	assert.Equal(t, buildsBefore+1, provider.builds())

	sources, err := store.ListSources(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "b.txt", sources[0].Name)
}

func TestRemove_UnknownSource(t *testing.T) {
	svc, _, _, _ := newIngestFixture(t)

	err := svc.Remove(context.Background(), "alice", "nonexistent")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRebuild_EmptyScopeClearsWithoutError(t *testing.T) {
	svc, _, provider, _ := newIngestFixture(t)

	err := svc.Rebuild(context.Background(), "alice")

	require.NoError(t, err)
	assert.False(t, provider.hasIndex("alice"))
}

func TestListSources_ScopeIsolation(t *testing.T) {
	svc, _, _, _ := newIngestFixture(t)
	ctx := context.Background()

	dir := t.TempDir()
	_, err := svc.Ingest(ctx, "alice", writeUpload(t, dir, "a.txt", "Alice's document."), "")
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, "bob", writeUpload(t, dir, "b.txt", "Bob's document."), "")
	require.NoError(t, err)

	aliceSources, err := svc.ListSources(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, aliceSources, 1)
	assert.Equal(t, "a.txt", aliceSources[0].Name)
}
