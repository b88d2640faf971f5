package domain

// Decision is the router's classification of which evidence source(s) to
// consult for a query.
type Decision string

// Available routing decisions.
const (
	// DecisionDocument consults only the scope's document index.
	// This is also the safe default when classification fails.
	DecisionDocument Decision = "document"

	// DecisionWeb consults only live web search.
	DecisionWeb Decision = "web"

	// DecisionBoth consults both sources concurrently.
	DecisionBoth Decision = "both"
)

// IsValid returns true if the decision is recognised.
func (d Decision) IsValid() bool {
	switch d {
	case DecisionDocument, DecisionWeb, DecisionBoth:
		return true
	default:
		return false
	}
}

// WantsDocuments returns true if document evidence should be fetched.
func (d Decision) WantsDocuments() bool {
	return d == DecisionDocument || d == DecisionBoth
}

// WantsWeb returns true if web evidence should be fetched.
func (d Decision) WantsWeb() bool {
	return d == DecisionWeb || d == DecisionBoth
}

// String returns the string representation.
func (d Decision) String() string {
	return string(d)
}

// Description returns a human-readable description of the decision.
func (d Decision) Description() string {
	switch d {
	case DecisionDocument:
		return "Document index only"
	case DecisionWeb:
		return "Web search only"
	case DecisionBoth:
		return "Document index + web search"
	default:
		return "Unknown"
	}
}

// Origin tags a snippet with the evidence source that produced it.
type Origin string

// Snippet origins.
const (
	// OriginDocument marks evidence retrieved from the scope's index.
	OriginDocument Origin = "document"

	// OriginWeb marks evidence retrieved from live web search.
	OriginWeb Origin = "web"
)

// Snippet is a unit of retrieved text with provenance. Snippets are produced
// fresh per query and never persisted by the core.
type Snippet struct {
	// Origin identifies the evidence source.
	Origin Origin

	// Source is the document name or URL the text came from.
	Source string

	// Locator narrows the position within the source ("p3" for a page,
	// empty when the source has no meaningful locator).
	Locator string

	// Title is the human-readable title, when the source provides one.
	Title string

	// Text is the retrieved content, capped by the producing adapter.
	Text string

	// Rank is the adapter-internal relevance rank, 0 = most relevant.
	Rank int

	// Score is the provider-reported relevance score, when available.
	Score float64
}

// Ref returns the provenance reference for citations: "source#locator"
// or just the source when no locator is set.
func (s Snippet) Ref() string {
	if s.Locator == "" {
		return s.Source
	}
	return s.Source + "#" + s.Locator
}

// Bundle is the ordered evidence handed to answer synthesis, together with
// the routing decision that produced it. Consumed once, never stored.
type Bundle struct {
	// Decision is the routing choice that assembled this bundle.
	Decision Decision

	// Snippets is the merged, capped evidence. Document-tagged snippets
	// precede web-tagged snippets; adapter-internal order is preserved.
	Snippets []Snippet

	// Reasons records why an invoked adapter contributed nothing
	// ("no index", "web search unconfigured", "timeout"). Internal
	// diagnostics only; never shown to end users as an error.
	Reasons []string
}

// Empty reports whether no evidence was gathered. The synthesizer must
// render this as an explicit admission of missing context.
func (b Bundle) Empty() bool {
	return len(b.Snippets) == 0
}

// CountByOrigin returns how many snippets carry the given origin tag.
func (b Bundle) CountByOrigin(origin Origin) int {
	n := 0
	for _, s := range b.Snippets {
		if s.Origin == origin {
			n++
		}
	}
	return n
}
