package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evidentlabs/answercore/internal/core/domain"
	"github.com/evidentlabs/answercore/internal/core/ports/driven"
	"github.com/evidentlabs/answercore/internal/normalisers/markdown"
	"github.com/evidentlabs/answercore/internal/normalisers/plaintext"
)

// fakeNormaliser claims one MIME type at a configurable priority.
type fakeNormaliser struct {
	mimeTypes []string
	priority  int
	label     string
}

func (f *fakeNormaliser) SupportedMIMETypes() []string { return f.mimeTypes }

func (f *fakeNormaliser) Priority() int { return f.priority }

func (f *fakeNormaliser) Normalise(_ context.Context, upload *driven.Upload) (*domain.Document, error) {
	return &domain.Document{
		ID:       f.label,
		Scope:    upload.Scope,
		SourceID: upload.SourceID,
		Content:  string(upload.Content),
	}, nil
}

func TestRegistry_Normalise_UnsupportedType(t *testing.T) {
	registry := NewRegistry()
	registry.Register(plaintext.New())

	_, err := registry.Normalise(context.Background(), &driven.Upload{
		Scope:    "alice",
		MIMEType: "application/pdf",
		Content:  []byte("%PDF-"),
	})

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestRegistry_Normalise_NilUpload(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Normalise(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegistry_Normalise_PriorityWins(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&fakeNormaliser{mimeTypes: []string{"text/plain"}, priority: 5, label: "fallback"})
	registry.Register(&fakeNormaliser{mimeTypes: []string{"text/plain"}, priority: 50, label: "specific"})

	doc, err := registry.Normalise(context.Background(), &driven.Upload{
		Scope:    "alice",
		MIMEType: "text/plain",
		Content:  []byte("hello"),
	})

	require.NoError(t, err)
	assert.Equal(t, "specific", doc.ID)
}

func TestRegistry_Normalise_DispatchesByMIMEType(t *testing.T) {
	registry := NewRegistry()
	registry.Register(plaintext.New())
	registry.Register(markdown.New())

	doc, err := registry.Normalise(context.Background(), &driven.Upload{
		Scope:    "alice",
		SourceID: "src-1",
		Name:     "notes.md",
		MIMEType: "text/markdown",
		Content:  []byte("# Quarterly Notes\n\nRevenue was **$4M**."),
	})

	require.NoError(t, err)
	assert.Equal(t, "Quarterly Notes", doc.Title)
	assert.NotContains(t, doc.Content, "**")
}

func TestRegistry_SupportedMIMETypes(t *testing.T) {
	registry := NewRegistry()
	registry.Register(plaintext.New())
	registry.Register(markdown.New())

	types := registry.SupportedMIMETypes()

	assert.Contains(t, types, "text/plain")
	assert.Contains(t, types, "text/markdown")
	// Deduplicated and sorted.
	assert.IsIncreasing(t, types)
}
