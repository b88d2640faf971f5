package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/evidentlabs/answercore/internal/core/domain"
	"github.com/evidentlabs/answercore/internal/core/ports/driven"
	"github.com/evidentlabs/answercore/internal/logger"
)

// SnippetTextLimit caps the text length of a single snippet to bound the
// prompt the synthesizer receives.
const SnippetTextLimit = 800

// Degradation reasons attached to empty evidence results. These are
// internal diagnostics, never user-facing errors.
const (
	// ReasonNoIndex means the scope has no persisted index: no documents
	// were ever ingested, or they were all removed.
	ReasonNoIndex = "no index"

	// ReasonIndexFailed means the index exists but querying it failed.
	ReasonIndexFailed = "index query failed"

	// ReasonWebUnconfigured means no web-search credential is available.
	ReasonWebUnconfigured = "web search unconfigured"

	// ReasonWebFailed means the web search call failed transiently
	// (timeout, rate limit, provider outage).
	ReasonWebFailed = "web search failed"
)

// EvidenceSource is the common capability of the two evidence adapters.
// Fetch never fails on provider faults: absence of evidence degrades to an
// empty snippet list with a reason, so a chat turn can always proceed.
// A non-nil error indicates caller misuse (e.g., an invalid scope), not a
// provider condition.
type EvidenceSource interface {
	// Origin identifies the tag this source stamps on its snippets.
	Origin() domain.Origin

	// Fetch returns up to limit snippets for the query, most relevant
	// first. When the result is empty, reason says why.
	Fetch(ctx context.Context, scope domain.Scope, query string, limit int) (snippets []domain.Snippet, reason string, err error)
}

// Compile-time interface checks.
var (
	_ EvidenceSource = (*DocumentEvidence)(nil)
	_ EvidenceSource = (*WebEvidence)(nil)
)

// DocumentEvidence retrieves evidence from the scope's document index via
// the IndexCache.
type DocumentEvidence struct {
	cache *IndexCache
}

// NewDocumentEvidence creates a document evidence source.
func NewDocumentEvidence(cache *IndexCache) *DocumentEvidence {
	return &DocumentEvidence{cache: cache}
}

// Origin returns domain.OriginDocument.
func (e *DocumentEvidence) Origin() domain.Origin { return domain.OriginDocument }

// Fetch queries the scope's index for the top limit chunks. A scope with no
// index yields an empty list with ReasonNoIndex - that is an ordinary
// outcome, not an error. Duplicate chunks are dropped and snippet text is
// capped at SnippetTextLimit. Distinct chunks from the same source and page
// both survive; a pageless source often contributes several.
func (e *DocumentEvidence) Fetch(
	ctx context.Context, scope domain.Scope, query string, limit int,
) ([]domain.Snippet, string, error) {
	if !scope.Valid() {
		return nil, "", fmt.Errorf("document evidence: %w", domain.ErrInvalidInput)
	}

	handle, err := e.cache.Get(ctx, scope)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug("Document evidence: no index for scope %q", scope)
			return []domain.Snippet{}, ReasonNoIndex, nil
		}
		// Probe failures are soft: the turn proceeds without documents.
		logger.Warn("Document evidence: index lookup failed for scope %q: %v", scope, err)
		return []domain.Snippet{}, ReasonIndexFailed, nil
	}

	hits, err := handle.Query(ctx, query, limit)
	if err != nil {
		logger.Warn("Document evidence: query failed for scope %q: %v", scope, err)
		return []domain.Snippet{}, ReasonIndexFailed, nil
	}

	seen := make(map[string]bool, len(hits))
	snippets := make([]domain.Snippet, 0, len(hits))
	for _, hit := range hits {
		snippet := domain.Snippet{
			Origin:  domain.OriginDocument,
			Source:  hit.Source,
			Locator: pageLocator(hit.Page),
			Text:    truncate(hit.Content, SnippetTextLimit),
			Rank:    len(snippets),
			Score:   hit.Similarity,
		}
		// Dedupe on chunk identity, not (source, locator): pageless
		// sources share an empty locator across many distinct chunks.
		key := hit.ChunkID
		if key == "" {
			key = snippet.Ref()
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		snippets = append(snippets, snippet)
		if len(snippets) >= limit {
			break
		}
	}

	logger.Debug("Document evidence: %d snippet(s) for scope %q", len(snippets), scope)
	return snippets, "", nil
}

// WebEvidence retrieves evidence from the external web-search collaborator.
type WebEvidence struct {
	searcher driven.WebSearcher
}

// NewWebEvidence creates a web evidence source. The searcher may be nil;
// fetches then degrade to empty results with ReasonWebUnconfigured.
func NewWebEvidence(searcher driven.WebSearcher) *WebEvidence {
	return &WebEvidence{searcher: searcher}
}

// Origin returns domain.OriginWeb.
func (e *WebEvidence) Origin() domain.Origin { return domain.OriginWeb }

// Fetch runs a web search for the query. A missing credential and transient
// provider errors both degrade to an empty result with a reason; they never
// fail the chat turn.
func (e *WebEvidence) Fetch(
	ctx context.Context, _ domain.Scope, query string, limit int,
) ([]domain.Snippet, string, error) {
	if e.searcher == nil || !e.searcher.Available() {
		logger.Debug("Web evidence: searcher unconfigured")
		return []domain.Snippet{}, ReasonWebUnconfigured, nil
	}

	results, err := e.searcher.Search(ctx, query, limit)
	if err != nil {
		logger.Warn("Web evidence: search failed: %v", err)
		return []domain.Snippet{}, ReasonWebFailed, nil
	}

	snippets := make([]domain.Snippet, 0, len(results))
	for _, r := range results {
		snippets = append(snippets, domain.Snippet{
			Origin: domain.OriginWeb,
			Source: r.URL,
			Title:  r.Title,
			Text:   truncate(r.Content, SnippetTextLimit),
			Rank:   len(snippets),
			Score:  r.Score,
		})
		if len(snippets) >= limit {
			break
		}
	}

	logger.Debug("Web evidence: %d snippet(s)", len(snippets))
	return snippets, "", nil
}

// pageLocator renders a 1-based page number as a locator, empty for
// pageless sources.
func pageLocator(page int) string {
	if page <= 0 {
		return ""
	}
	return fmt.Sprintf("p%d", page)
}

// truncate caps s at limit bytes without splitting a UTF-8 sequence.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}
