package driven

import "context"

// WebSearcher queries an external web-search collaborator.
// This is an optional service - when nil or unconfigured, web evidence
// degrades to empty results and chat turns still complete.
type WebSearcher interface {
	// Search returns up to limit ranked results for the query.
	Search(ctx context.Context, query string, limit int) ([]WebResult, error)

	// Available reports whether the collaborator is configured
	// (typically: a credential is present). Callers must check this
	// before treating an empty result as meaningful.
	Available() bool

	// Close releases resources.
	Close() error
}

// WebResult is a single ranked web search result.
type WebResult struct {
	// Title is the result page title.
	Title string

	// URL is the result location.
	URL string

	// Content is the extract returned by the search provider.
	Content string

	// Score is the provider-reported relevance score.
	Score float64
}
