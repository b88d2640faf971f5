package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/evidentlabs/answercore/internal/core/domain"
	"github.com/evidentlabs/answercore/internal/core/ports/driven"
	"github.com/evidentlabs/answercore/internal/core/ports/driving"
	"github.com/evidentlabs/answercore/internal/logger"
)

// Ensure Router implements the inbound port.
var _ driving.ChatService = (*Router)(nil)

// Default evidence sizing.
const (
	// DefaultPerSourceLimit is how many snippets each adapter is asked for.
	DefaultPerSourceLimit = 4

	// DefaultBundleBudget caps the total snippets handed to synthesis.
	DefaultBundleBudget = 6
)

// routeState is a phase of the routing state machine.
type routeState int

// The four logical states of a routed query. Classifying is initial,
// Merged is terminal.
const (
	stateClassifying routeState = iota
	stateDocumentOnly
	stateWebOnly
	stateBoth
	stateMerged
)

// Router decides which evidence source(s) to consult for a query, gathers
// their snippets, merges them into a bounded bundle, and hands the bundle
// to answer synthesis. Routers are stateless per call and safe for
// concurrent use.
type Router struct {
	llm            driven.LLMService
	docs           EvidenceSource
	web            EvidenceSource
	perSourceLimit int
	bundleBudget   int
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithPerSourceLimit sets how many snippets each adapter is asked for.
func WithPerSourceLimit(n int) RouterOption {
	return func(r *Router) {
		if n > 0 {
			r.perSourceLimit = n
		}
	}
}

// WithBundleBudget caps the total snippets in a merged bundle.
func WithBundleBudget(n int) RouterOption {
	return func(r *Router) {
		if n > 0 {
			r.bundleBudget = n
		}
	}
}

// NewRouter creates a decision router. The LLM service is used for both
// classification and synthesis; it may be nil, in which case every query
// routes to the default decision and Answer fails with
// domain.ErrSynthesisUnavailable.
func NewRouter(llm driven.LLMService, docs, web EvidenceSource, opts ...RouterOption) *Router {
	r := &Router{
		llm:            llm,
		docs:           docs,
		web:            web,
		perSourceLimit: DefaultPerSourceLimit,
		bundleBudget:   DefaultBundleBudget,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Answer is the single inbound operation: classify the query, gather
// evidence, merge, synthesize. Classification and adapter failures degrade
// in place; only a synthesis failure is returned, wrapped in
// domain.ErrSynthesisUnavailable.
func (r *Router) Answer(ctx context.Context, scope domain.Scope, query string) (*driving.Answer, error) {
	if !scope.Valid() {
		return nil, fmt.Errorf("answer: %w", domain.ErrInvalidInput)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("answer: empty query: %w", domain.ErrInvalidInput)
	}

	logger.Section("Query Routing")
	logger.Debug("Scope: %q, query: %q", scope, query)

	bundle := r.route(ctx, scope, query)

	text, err := r.synthesize(ctx, query, bundle)
	if err != nil {
		return nil, err
	}

	return &driving.Answer{Text: text, Bundle: bundle}, nil
}

// route drives the state machine from Classifying to Merged and returns
// the merged bundle. It never fails: every fault on the way degrades to
// less (or no) evidence.
func (r *Router) route(ctx context.Context, scope domain.Scope, query string) domain.Bundle {
	var (
		state        = stateClassifying
		decision     domain.Decision
		docSnippets  []domain.Snippet
		webSnippets  []domain.Snippet
		reasons      []string
	)

	for state != stateMerged {
		switch state {
		case stateClassifying:
			var reason string
			decision, reason = r.classify(ctx, query)
			if reason != "" {
				reasons = append(reasons, reason)
			}
			switch decision {
			case domain.DecisionWeb:
				state = stateWebOnly
			case domain.DecisionBoth:
				state = stateBoth
			default:
				state = stateDocumentOnly
			}

		case stateDocumentOnly:
			docSnippets, reasons = r.fetch(ctx, r.docs, scope, query, reasons)
			state = stateMerged

		case stateWebOnly:
			webSnippets, reasons = r.fetch(ctx, r.web, scope, query, reasons)
			state = stateMerged

		case stateBoth:
			// Both legs run concurrently and each tolerates its own
			// failure; the merge waits for both.
			var wg sync.WaitGroup
			var docReasons, webReasons []string
			wg.Add(2)
			go func() {
				defer wg.Done()
				docSnippets, docReasons = r.fetch(ctx, r.docs, scope, query, nil)
			}()
			go func() {
				defer wg.Done()
				webSnippets, webReasons = r.fetch(ctx, r.web, scope, query, nil)
			}()
			wg.Wait()
			reasons = append(reasons, docReasons...)
			reasons = append(reasons, webReasons...)
			state = stateMerged
		}
	}

	return r.merge(decision, docSnippets, webSnippets, reasons)
}

// classify asks the LLM to label the query. Any classifier error, parse
// failure, or out-of-vocabulary label yields the default decision
// (DecisionDocument) with a reason; classification never fails a turn.
func (r *Router) classify(ctx context.Context, query string) (domain.Decision, string) {
	if r.llm == nil {
		logger.Debug("Classifier unavailable, defaulting to %s", domain.DecisionDocument)
		return domain.DecisionDocument, "classifier unavailable"
	}

	raw, err := r.llm.ClassifyQuery(ctx, query)
	if err != nil {
		logger.Warn("Classification failed: %v (defaulting to %s)", err, domain.DecisionDocument)
		return domain.DecisionDocument, "classification failed"
	}

	decision := parseDecision(raw)
	if !decision.IsValid() {
		logger.Warn("Classifier returned %q (defaulting to %s)", raw, domain.DecisionDocument)
		return domain.DecisionDocument, "classifier output unparseable"
	}

	logger.Info("Decision: %s", decision.Description())
	return decision, ""
}

// fetch runs one evidence adapter and folds its degradation reason into
// the running list. Adapter faults never propagate.
func (r *Router) fetch(
	ctx context.Context, source EvidenceSource, scope domain.Scope, query string, reasons []string,
) ([]domain.Snippet, []string) {
	snippets, reason, err := source.Fetch(ctx, scope, query, r.perSourceLimit)
	if err != nil {
		logger.Warn("Evidence fetch (%s) rejected: %v", source.Origin(), err)
		return nil, append(reasons, string(source.Origin())+" evidence unavailable")
	}
	if reason != "" {
		reasons = append(reasons, reason)
	}
	return snippets, reasons
}

// merge concatenates the snippets with document-tagged evidence first,
// preserving each adapter's internal relevance order, capped at the bundle
// budget. An empty bundle is still valid; Bundle.Empty marks "no context
// available" for the synthesizer.
func (r *Router) merge(
	decision domain.Decision, docSnippets, webSnippets []domain.Snippet, reasons []string,
) domain.Bundle {
	snippets := make([]domain.Snippet, 0, len(docSnippets)+len(webSnippets))
	snippets = append(snippets, docSnippets...)
	snippets = append(snippets, webSnippets...)
	if len(snippets) > r.bundleBudget {
		snippets = snippets[:r.bundleBudget]
	}

	logger.Debug("Merged bundle: %d snippet(s), decision=%s", len(snippets), decision)
	return domain.Bundle{Decision: decision, Snippets: snippets, Reasons: reasons}
}

// synthesize turns the bundle into prose. This is the only fatal edge of a
// chat turn: an unreachable synthesizer surfaces as
// domain.ErrSynthesisUnavailable.
func (r *Router) synthesize(ctx context.Context, query string, bundle domain.Bundle) (string, error) {
	if r.llm == nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSynthesisUnavailable, domain.ErrLLMUnavailable)
	}

	text, err := r.llm.Synthesize(ctx, query, renderContext(bundle))
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSynthesisUnavailable, err)
	}
	return strings.TrimSpace(text), nil
}

// parseDecision maps raw classifier output onto a Decision. It tolerates
// case, whitespace and trailing punctuation but nothing looser - anything
// else is for the caller to default.
func parseDecision(raw string) domain.Decision {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	cleaned = strings.Trim(cleaned, `."'`)
	switch cleaned {
	case "document", "documents":
		return domain.DecisionDocument
	case "web":
		return domain.DecisionWeb
	case "both":
		return domain.DecisionBoth
	default:
		return domain.Decision("")
	}
}

// renderContext formats the bundle as the evidence context for synthesis.
// Document evidence is grouped before web evidence, each snippet carrying
// its provenance reference. An empty bundle renders empty; the synthesis
// prompt turns that into an explicit no-context admission.
func renderContext(bundle domain.Bundle) string {
	if bundle.Empty() {
		return ""
	}

	var b strings.Builder
	if n := bundle.CountByOrigin(domain.OriginDocument); n > 0 {
		b.WriteString("DOCUMENT CONTEXT:\n")
		for _, s := range bundle.Snippets {
			if s.Origin != domain.OriginDocument {
				continue
			}
			fmt.Fprintf(&b, "[SOURCE: %s]\n%s\n\n", s.Ref(), s.Text)
		}
	}
	if n := bundle.CountByOrigin(domain.OriginWeb); n > 0 {
		b.WriteString("WEB SEARCH RESULTS:\n")
		for _, s := range bundle.Snippets {
			if s.Origin != domain.OriginWeb {
				continue
			}
			title := s.Title
			if title == "" {
				title = s.Source
			}
			fmt.Fprintf(&b, "SOURCE: %s (%s)\n%s\n\n", title, s.Source, s.Text)
		}
	}
	return strings.TrimSpace(b.String())
}
