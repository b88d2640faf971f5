package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
//
// Soft conditions (missing index, unconfigured web search, classifier
// failure) are deliberately NOT errors: they travel as reason strings on
// otherwise valid results and degrade in place.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// For IndexCache.Get it means no persisted index exists for the scope;
	// callers must treat it as "no document evidence available".
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown document content type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrIndexBuild indicates a rebuild could not produce a usable index:
	// no embeddable content, or the index provider failed during the build.
	// Surfaced to the ingestion caller, never to a chat turn.
	ErrIndexBuild = errors.New("index build failed")

	// ErrRebuildInProgress indicates a rebuild was requested for a scope
	// that is already rebuilding. The caller may retry.
	ErrRebuildInProgress = errors.New("rebuild in progress")

	// ErrSynthesisUnavailable indicates the answer generation call itself
	// could not be completed. This is the only condition that fails a
	// chat turn.
	ErrSynthesisUnavailable = errors.New("answer synthesis unavailable")

	// ErrLLMUnavailable indicates no LLM service is configured.
	// Classification degrades to the default decision without it;
	// synthesis cannot run at all.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Index builds and document evidence are disabled.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrWebSearchUnavailable indicates the web search collaborator has no
	// credential configured. Web evidence degrades to empty results.
	ErrWebSearchUnavailable = errors.New("web search unavailable")
)
