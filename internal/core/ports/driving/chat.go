package driving

import (
	"context"

	"github.com/evidentlabs/answercore/internal/core/domain"
)

// ChatService answers a query for a scope. This is the single inbound
// operation the boundary layer calls.
type ChatService interface {
	// Answer classifies the query, gathers evidence from the relevant
	// source(s), and synthesizes an answer. Evidence absence degrades
	// gracefully; only synthesis failure returns an error
	// (domain.ErrSynthesisUnavailable).
	Answer(ctx context.Context, scope domain.Scope, query string) (*Answer, error)
}

// Answer is a completed chat turn: the synthesized text plus the evidence
// bundle that produced it. The caller owns persistence and presentation.
type Answer struct {
	// Text is the synthesized answer.
	Text string

	// Bundle is the evidence the synthesizer received, including the
	// routing decision and any degradation reasons.
	Bundle domain.Bundle
}
