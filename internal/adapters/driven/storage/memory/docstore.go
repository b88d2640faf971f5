package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/evidentlabs/answercore/internal/core/domain"
	"github.com/evidentlabs/answercore/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Useful for tests and for running without a database file.
type DocumentStore struct {
	mu        sync.RWMutex
	sources   map[string]domain.SourceDocument
	documents map[string]domain.Document
	chunks    map[string][]domain.Chunk
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		sources:   make(map[string]domain.SourceDocument),
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
	}
}

// SaveSource stores or updates an uploaded artifact's metadata.
func (s *DocumentStore) SaveSource(_ context.Context, src *domain.SourceDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[src.ID] = *src
	return nil
}

// GetSource retrieves an uploaded artifact's metadata by ID.
func (s *DocumentStore) GetSource(_ context.Context, scope domain.Scope, id string) (*domain.SourceDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[id]
	if !ok || src.Scope != scope {
		return nil, domain.ErrNotFound
	}
	return &src, nil
}

// ListSources returns all uploaded artifacts for a scope, ordered by name.
func (s *DocumentStore) ListSources(_ context.Context, scope domain.Scope) ([]domain.SourceDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.SourceDocument
	for id := range s.sources {
		src := s.sources[id]
		if src.Scope == scope {
			result = append(result, src)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// DeleteSource removes an uploaded artifact and everything derived from it.
func (s *DocumentStore) DeleteSource(_ context.Context, scope domain.Scope, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.sources[id]
	if !ok || src.Scope != scope {
		return domain.ErrNotFound
	}
	delete(s.sources, id)
	for docID := range s.documents {
		if s.documents[docID].SourceID == id {
			delete(s.documents, docID)
			delete(s.chunks, docID)
		}
	}
	return nil
}

// SaveDocument stores or updates a normalised document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// SaveChunks stores chunks for a document, replacing existing ones.
func (s *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docID := chunks[0].DocumentID
	s.chunks[docID] = append([]domain.Chunk(nil), chunks...)
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListDocuments returns all normalised documents for a scope.
func (s *DocumentStore) ListDocuments(_ context.Context, scope domain.Scope) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Document
	for id := range s.documents {
		doc := s.documents[id]
		if doc.Scope == scope {
			result = append(result, doc)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ListChunks returns every chunk in a scope, ordered by document and position.
func (s *DocumentStore) ListChunks(_ context.Context, scope domain.Scope) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var docIDs []string
	for id := range s.documents {
		if s.documents[id].Scope == scope {
			docIDs = append(docIDs, id)
		}
	}
	sort.Strings(docIDs)
	var result []domain.Chunk
	for _, id := range docIDs {
		result = append(result, s.chunks[id]...)
	}
	return result, nil
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	delete(s.chunks, id)
	return nil
}
