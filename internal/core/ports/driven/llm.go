package driven

import "context"

// LLMService provides language model operations for query routing and
// answer synthesis.
//
// Classification failures are always recoverable (the router falls back to
// its default decision); synthesis failure is the one fatal condition of a
// chat turn.
//
// Implementations may include:
//   - OpenAI (GPT-4o family)
//   - Ollama (local models)
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ClassifyQuery labels a query for evidence routing. It returns the
	// raw model output; the router owns validation and defaulting, so
	// implementations must not guess when the model answers off-script.
	ClassifyQuery(ctx context.Context, query string) (string, error)

	// Synthesize produces an answer to the query from the given evidence
	// context. An empty context string means "no evidence available" and
	// the prompt must instruct the model to say so rather than invent.
	Synthesize(ctx context.Context, query, context string) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
