package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return an error
	// so callers can fall back to their built-in defaults.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptClassify labels a query as document, web, or both.
	// The prompt template expects a %s placeholder for the query.
	PromptClassify = "classify"

	// PromptSynthesize produces the final answer from evidence context.
	// The prompt template expects %s (query) and %s (context) placeholders.
	PromptSynthesize = "synthesize"
)

// PromptStoreAware is an optional interface for services that can use
// custom prompts. Services implementing it can have their templates
// customised by injecting a PromptStore after construction.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable
	// prompts. If not set, the service should use hardcoded defaults.
	SetPromptStore(store PromptStore)
}
