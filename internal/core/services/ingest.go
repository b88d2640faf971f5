package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/evidentlabs/answercore/internal/core/domain"
	"github.com/evidentlabs/answercore/internal/core/ports/driven"
	"github.com/evidentlabs/answercore/internal/core/ports/driving"
	"github.com/evidentlabs/answercore/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// mimeByExtension maps accepted upload extensions to MIME types when the
// caller declares none.
var mimeByExtension = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".json": "application/json",
	".html": "text/html",
}

// IngestService manages each scope's document set: it stores uploads,
// normalises and chunks them, and keeps the scope's index in step with the
// persisted documents.
type IngestService struct {
	docStore    driven.DocumentStore
	registry    driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
	cache       *IndexCache
	provider    driven.IndexProvider
	uploadsRoot string
}

// NewIngestService creates an ingest service. uploadsRoot is where stored
// artifacts live, one subdirectory per scope.
func NewIngestService(
	docStore driven.DocumentStore,
	registry driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	cache *IndexCache,
	provider driven.IndexProvider,
	uploadsRoot string,
) *IngestService {
	return &IngestService{
		docStore:    docStore,
		registry:    registry,
		pipeline:    pipeline,
		cache:       cache,
		provider:    provider,
		uploadsRoot: uploadsRoot,
	}
}

// Ingest reads the file at path, stores it under the scope's upload
// directory, normalises and chunks it, persists the results, and rebuilds
// the scope's index from the full replacement set. A file with no
// extractable text fails with domain.ErrIndexBuild and leaves no metadata
// behind.
func (s *IngestService) Ingest(
	ctx context.Context, scope domain.Scope, path, contentType string,
) (*domain.SourceDocument, error) {
	if !scope.Valid() {
		return nil, fmt.Errorf("ingest: %w", domain.ErrInvalidInput)
	}

	contentType, err := resolveContentType(path, contentType)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	logger.Section("Ingest")
	logger.Info("Ingesting %s into scope %q (%d bytes)", filepath.Base(path), scope, len(content))

	src := &domain.SourceDocument{
		ID:          uuid.New().String(),
		Scope:       scope,
		Name:        filepath.Base(path),
		ContentType: contentType,
		Size:        int64(len(content)),
		UploadedAt:  time.Now(),
	}

	stored, err := s.storeArtifact(scope, src.ID, src.Name, content)
	if err != nil {
		return nil, err
	}
	src.Path = stored

	doc, chunks, err := s.normalise(ctx, src, content)
	if err != nil {
		s.discardArtifact(stored)
		return nil, err
	}

	if err := s.docStore.SaveSource(ctx, src); err != nil {
		s.discardArtifact(stored)
		return nil, fmt.Errorf("save source: %w", err)
	}
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		s.rollback(ctx, scope, src.ID, stored)
		return nil, fmt.Errorf("save document: %w", err)
	}
	if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
		s.rollback(ctx, scope, src.ID, stored)
		return nil, fmt.Errorf("save chunks: %w", err)
	}

	if err := s.rebuildScope(ctx, scope); err != nil {
		return nil, err
	}

	logger.Info("Ingested %s: %d chunk(s)", src.Name, len(chunks))
	return src, nil
}

// Remove deletes an uploaded document and rebuilds the scope's index from
// the remaining documents. Removing the last document deletes the
// persisted index and invalidates the cached handle.
func (s *IngestService) Remove(ctx context.Context, scope domain.Scope, sourceID string) error {
	if !scope.Valid() {
		return fmt.Errorf("remove: %w", domain.ErrInvalidInput)
	}

	src, err := s.docStore.GetSource(ctx, scope, sourceID)
	if err != nil {
		return fmt.Errorf("get source: %w", err)
	}

	if err := s.docStore.DeleteSource(ctx, scope, sourceID); err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	s.discardArtifact(src.Path)

	logger.Info("Removed %s from scope %q", src.Name, scope)
	return s.Rebuild(ctx, scope)
}

// Rebuild rebuilds the scope's index from its current document set. An
// empty document set clears the index instead: the persisted index is
// deleted and the cached handle invalidated, so subsequent lookups see "no
// index" rather than stale evidence.
func (s *IngestService) Rebuild(ctx context.Context, scope domain.Scope) error {
	if !scope.Valid() {
		return fmt.Errorf("rebuild: %w", domain.ErrInvalidInput)
	}

	entries, err := s.collectEntries(ctx, scope)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		if err := s.provider.Delete(ctx, scope); err != nil {
			return fmt.Errorf("delete index for scope %q: %w", scope, err)
		}
		s.cache.Invalidate(scope)
		logger.Info("Scope %q has no documents left; index cleared", scope)
		return nil
	}

	if _, err := s.cache.Rebuild(ctx, scope, entries); err != nil {
		return err
	}
	return nil
}

// ListSources returns the scope's uploaded documents.
func (s *IngestService) ListSources(ctx context.Context, scope domain.Scope) ([]domain.SourceDocument, error) {
	if !scope.Valid() {
		return nil, fmt.Errorf("list sources: %w", domain.ErrInvalidInput)
	}
	return s.docStore.ListSources(ctx, scope)
}

// normalise extracts text and chunks from the upload. Content that yields
// no chunks is an ingestion failure (domain.ErrIndexBuild).
func (s *IngestService) normalise(
	ctx context.Context, src *domain.SourceDocument, content []byte,
) (*domain.Document, []domain.Chunk, error) {
	doc, err := s.registry.Normalise(ctx, &driven.Upload{
		Scope:    src.Scope,
		SourceID: src.ID,
		Name:     src.Name,
		MIMEType: src.ContentType,
		Content:  content,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("normalise %s: %w", src.Name, err)
	}

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, nil, fmt.Errorf("chunk %s: %w", src.Name, err)
	}
	if len(chunks) == 0 {
		return nil, nil, fmt.Errorf("%s: no embeddable content: %w", src.Name, domain.ErrIndexBuild)
	}
	return doc, chunks, nil
}

// collectEntries assembles the full replacement set for a scope rebuild.
func (s *IngestService) collectEntries(ctx context.Context, scope domain.Scope) ([]driven.IndexEntry, error) {
	docs, err := s.docStore.ListDocuments(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	titles := make(map[string]string, len(docs))
	for _, d := range docs {
		titles[d.ID] = d.Title
	}

	chunks, err := s.docStore.ListChunks(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}

	entries := make([]driven.IndexEntry, 0, len(chunks))
	for _, c := range chunks {
		entries = append(entries, driven.IndexEntry{
			ChunkID: c.ID,
			Source:  titles[c.DocumentID],
			Page:    c.Page,
			Content: c.Content,
		})
	}
	return entries, nil
}

// storeArtifact copies the upload bytes into the scope's upload directory.
func (s *IngestService) storeArtifact(scope domain.Scope, id, name string, content []byte) (string, error) {
	dir := filepath.Join(s.uploadsRoot, scope.String())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	dest := filepath.Join(dir, id+filepath.Ext(name))
	if err := os.WriteFile(dest, content, 0o600); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return dest, nil
}

// discardArtifact removes a stored upload, best effort.
func (s *IngestService) discardArtifact(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("Could not remove stored upload %s: %v", path, err)
	}
}

// rollback undoes a partially persisted ingest.
func (s *IngestService) rollback(ctx context.Context, scope domain.Scope, sourceID, stored string) {
	if err := s.docStore.DeleteSource(ctx, scope, sourceID); err != nil {
		logger.Warn("Rollback of source %s failed: %v", sourceID, err)
	}
	s.discardArtifact(stored)
}

// rebuildScope rebuilds after a successful ingest. The fresh document is
// already persisted, so a failed build (or a concurrent rebuild) leaves
// metadata intact and the index one generation behind; the caller can
// retry with Rebuild.
func (s *IngestService) rebuildScope(ctx context.Context, scope domain.Scope) error {
	entries, err := s.collectEntries(ctx, scope)
	if err != nil {
		return err
	}
	if _, err := s.cache.Rebuild(ctx, scope, entries); err != nil {
		return err
	}
	return nil
}

// resolveContentType validates the upload type, inferring it from the file
// extension when the caller declares none.
func resolveContentType(path, declared string) (string, error) {
	if declared != "" {
		return declared, nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	if mime, ok := mimeByExtension[ext]; ok {
		return mime, nil
	}
	return "", fmt.Errorf("%s: %w", ext, domain.ErrUnsupportedType)
}
