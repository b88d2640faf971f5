package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evidentlabs/answercore/internal/core/domain"
	"github.com/evidentlabs/answercore/internal/core/ports/driven"
)

// mockWebSearcher implements driven.WebSearcher for testing.
type mockWebSearcher struct {
	available bool
	results   []driven.WebResult
	searchErr error
}

func (m *mockWebSearcher) Search(_ context.Context, _ string, limit int) ([]driven.WebResult, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if limit < len(m.results) {
		return m.results[:limit], nil
	}
	return m.results, nil
}

func (m *mockWebSearcher) Available() bool { return m.available }

func (m *mockWebSearcher) Close() error { return nil }

func TestDocumentEvidence_NoIndex(t *testing.T) {
	cache := NewIndexCache(newMockIndexProvider())
	source := NewDocumentEvidence(cache)

	snippets, reason, err := source.Fetch(context.Background(), "s1", "anything", 4)

	require.NoError(t, err)
	assert.Empty(t, snippets)
	assert.Equal(t, ReasonNoIndex, reason)
}

func TestDocumentEvidence_MapsHits(t *testing.T) {
	provider := newMockIndexProvider()
	provider.persisted["s1"] = testEntries()
	provider.hits["s1"] = []driven.IndexHit{
		{ChunkID: "c1", Source: "report.pdf", Page: 1, Content: "Revenue was $4M in Q1", Similarity: 0.91},
		{ChunkID: "c2", Source: "report.pdf", Page: 2, Content: "Costs fell 10%", Similarity: 0.74},
	}
	source := NewDocumentEvidence(NewIndexCache(provider))

	snippets, reason, err := source.Fetch(context.Background(), "s1", "Q1 revenue", 4)

	require.NoError(t, err)
	assert.Empty(t, reason)
	require.Len(t, snippets, 2)

	assert.Equal(t, domain.OriginDocument, snippets[0].Origin)
	assert.Equal(t, "report.pdf", snippets[0].Source)
	assert.Equal(t, "p1", snippets[0].Locator)
	assert.Equal(t, "report.pdf#p1", snippets[0].Ref())
	assert.Contains(t, snippets[0].Text, "$4M")
	assert.Equal(t, 0, snippets[0].Rank)
	assert.Equal(t, 1, snippets[1].Rank)
}

func TestDocumentEvidence_DeduplicatesChunks(t *testing.T) {
	provider := newMockIndexProvider()
	provider.persisted["s1"] = testEntries()
	provider.hits["s1"] = []driven.IndexHit{
		{ChunkID: "c1", Source: "report.pdf", Page: 1, Content: "first", Similarity: 0.9},
		{ChunkID: "c1", Source: "report.pdf", Page: 1, Content: "first", Similarity: 0.85},
		{ChunkID: "c2", Source: "report.pdf", Page: 1, Content: "same page, different chunk", Similarity: 0.8},
		{ChunkID: "c3", Source: "notes.txt", Content: "kept", Similarity: 0.7},
	}
	source := NewDocumentEvidence(NewIndexCache(provider))

	snippets, _, err := source.Fetch(context.Background(), "s1", "q", 6)

	require.NoError(t, err)
	require.Len(t, snippets, 3)
	assert.Equal(t, "report.pdf#p1", snippets[0].Ref())
	assert.Equal(t, "report.pdf#p1", snippets[1].Ref())
	assert.Equal(t, "notes.txt", snippets[2].Ref())
}

func TestDocumentEvidence_PagelessChunksAllSurvive(t *testing.T) {
	provider := newMockIndexProvider()
	provider.persisted["s1"] = testEntries()
	provider.hits["s1"] = []driven.IndexHit{
		{ChunkID: "c1", Source: "notes.md", Content: "intro", Similarity: 0.9},
		{ChunkID: "c2", Source: "notes.md", Content: "body", Similarity: 0.8},
		{ChunkID: "c3", Source: "notes.md", Content: "outro", Similarity: 0.7},
	}
	source := NewDocumentEvidence(NewIndexCache(provider))

	snippets, _, err := source.Fetch(context.Background(), "s1", "q", 6)

	require.NoError(t, err)
	require.Len(t, snippets, 3)
	for _, s := range snippets {
		assert.Equal(t, "notes.md", s.Ref())
	}
}

func TestDocumentEvidence_CapsSnippetText(t *testing.T) {
	provider := newMockIndexProvider()
	provider.persisted["s1"] = testEntries()
	provider.hits["s1"] = []driven.IndexHit{
		{ChunkID: "c1", Source: "big.txt", Content: strings.Repeat("a", 5000), Similarity: 0.9},
	}
	source := NewDocumentEvidence(NewIndexCache(provider))

	snippets, _, err := source.Fetch(context.Background(), "s1", "q", 4)

	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Len(t, snippets[0].Text, SnippetTextLimit)
}

func TestDocumentEvidence_QueryFailureIsSoft(t *testing.T) {
	provider := newMockIndexProvider()
	provider.persisted["s1"] = testEntries()
	provider.queryErr = errors.New("timeout")
	source := NewDocumentEvidence(NewIndexCache(provider))

	snippets, reason, err := source.Fetch(context.Background(), "s1", "q", 4)

	require.NoError(t, err)
	assert.Empty(t, snippets)
	assert.Equal(t, ReasonIndexFailed, reason)
}

func TestDocumentEvidence_InvalidScope(t *testing.T) {
	source := NewDocumentEvidence(NewIndexCache(newMockIndexProvider()))

	_, _, err := source.Fetch(context.Background(), "", "q", 4)

	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWebEvidence_NilSearcher(t *testing.T) {
	source := NewWebEvidence(nil)

	snippets, reason, err := source.Fetch(context.Background(), "s1", "q", 3)

	require.NoError(t, err)
	assert.Empty(t, snippets)
	assert.Equal(t, ReasonWebUnconfigured, reason)
}

func TestWebEvidence_Unconfigured(t *testing.T) {
	source := NewWebEvidence(&mockWebSearcher{available: false})

	snippets, reason, err := source.Fetch(context.Background(), "s1", "q", 3)

	require.NoError(t, err)
	assert.Empty(t, snippets)
	assert.Equal(t, ReasonWebUnconfigured, reason)
}

func TestWebEvidence_MapsResults(t *testing.T) {
	source := NewWebEvidence(&mockWebSearcher{
		available: true,
		results: []driven.WebResult{
			{Title: "AAPL today", URL: "https://example.com/aapl", Content: "Apple rose 2%", Score: 0.88},
		},
	})

	snippets, reason, err := source.Fetch(context.Background(), "s1", "AAPL price", 3)

	require.NoError(t, err)
	assert.Empty(t, reason)
	require.Len(t, snippets, 1)
	assert.Equal(t, domain.OriginWeb, snippets[0].Origin)
	assert.Equal(t, "https://example.com/aapl", snippets[0].Source)
	assert.Equal(t, "AAPL today", snippets[0].Title)
	assert.Empty(t, snippets[0].Locator)
}

func TestWebEvidence_TransientFailureIsSoft(t *testing.T) {
	source := NewWebEvidence(&mockWebSearcher{available: true, searchErr: errors.New("429 rate limited")})

	snippets, reason, err := source.Fetch(context.Background(), "s1", "q", 3)

	require.NoError(t, err)
	assert.Empty(t, snippets)
	assert.Equal(t, ReasonWebFailed, reason)
}

func TestTruncate_UTF8Boundary(t *testing.T) {
	// 3-byte runes: a cut at an arbitrary byte offset must not split one.
	s := strings.Repeat("€", 400) // 1200 bytes
	out := truncate(s, 800)

	assert.LessOrEqual(t, len(out), 800)
	assert.True(t, strings.HasSuffix(out, "€"))
	assert.Equal(t, 0, len(out)%3)
}
