package plaintext

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/evidentlabs/answercore/internal/core/domain"
	"github.com/evidentlabs/answercore/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"text/html",
		"application/json",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise converts an upload to a document. The Content field carries
// the full text; chunking is handled by the PostProcessor pipeline.
func (n *Normaliser) Normalise(_ context.Context, upload *driven.Upload) (*domain.Document, error) {
	if upload == nil {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	doc := &domain.Document{
		ID:        uuid.New().String(),
		Scope:     upload.Scope,
		SourceID:  upload.SourceID,
		URI:       upload.Name,
		Title:     extractTitle(upload.Name),
		Content:   string(upload.Content),
		Metadata:  map[string]any{"mime_type": upload.MIMEType},
		CreatedAt: now,
		UpdatedAt: now,
	}
	return doc, nil
}

// extractTitle derives a human-readable title from a file name.
func extractTitle(name string) string {
	base := filepath.Base(name)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return base
}
