package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evidentlabs/answercore/internal/core/ports/driven"
)

// stubLLM implements the Ping/ModelName slice of driven.LLMService.
type stubLLM struct {
	model   string
	pingErr error
}

func (s *stubLLM) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	return "", nil
}

func (s *stubLLM) ClassifyQuery(_ context.Context, _ string) (string, error) { return "", nil }

func (s *stubLLM) Synthesize(_ context.Context, _, _ string) (string, error) { return "", nil }

func (s *stubLLM) ModelName() string { return s.model }

func (s *stubLLM) Ping(_ context.Context) error { return s.pingErr }

func (s *stubLLM) Close() error { return nil }

// stubEmbedder implements the Ping/ModelName/Dimensions slice of
// driven.EmbeddingService.
type stubEmbedder struct {
	model      string
	dimensions int
	pingErr    error
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) { return nil, nil }

func (s *stubEmbedder) EmbedBatch(_ context.Context, _ []string) ([][]float32, error) {
	return nil, nil
}

func (s *stubEmbedder) Dimensions() int { return s.dimensions }

func (s *stubEmbedder) ModelName() string { return s.model }

func (s *stubEmbedder) Ping(_ context.Context) error { return s.pingErr }

func (s *stubEmbedder) Close() error { return nil }

func withAIServices(t *testing.T, llm driven.LLMService, embedder driven.EmbeddingService) {
	t.Helper()
	origLLM, origEmbed := llmService, embeddingSvc
	llmService = llm
	embeddingSvc = embedder
	t.Cleanup(func() {
		llmService = origLLM
		embeddingSvc = origEmbed
	})
}

func TestDoctorCmd_AllHealthy(t *testing.T) {
	withAIServices(t,
		&stubLLM{model: "gpt-4o-mini"},
		&stubEmbedder{model: "text-embedding-3-small", dimensions: 1536},
	)

	out, err := runCommand(t, "doctor")

	require.NoError(t, err)
	assert.Contains(t, out, "gpt-4o-mini - ok")
	assert.Contains(t, out, "text-embedding-3-small (1536 dimensions) - ok")
	assert.Contains(t, out, "All checks passed.")
}

func TestDoctorCmd_UnreachableLLM(t *testing.T) {
	withAIServices(t,
		&stubLLM{model: "llama3.2", pingErr: errors.New("connection refused")},
		&stubEmbedder{model: "nomic-embed-text", dimensions: 768},
	)

	out, err := runCommand(t, "doctor")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 check(s) failed")
	assert.Contains(t, out, "connection refused")
	assert.Contains(t, out, "nomic-embed-text (768 dimensions) - ok")
}

func TestDoctorCmd_NothingConfigured(t *testing.T) {
	withAIServices(t, nil, nil)

	out, err := runCommand(t, "doctor")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 check(s) failed")
	assert.Contains(t, out, "LLM:       not configured")
	assert.Contains(t, out, "Embedding: not configured")
}
