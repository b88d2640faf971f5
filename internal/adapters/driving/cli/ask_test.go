package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evidentlabs/answercore/internal/core/domain"
	"github.com/evidentlabs/answercore/internal/core/ports/driving"
)

// stubChatService returns a canned answer and records the call.
type stubChatService struct {
	answer    *driving.Answer
	err       error
	lastScope domain.Scope
	lastQuery string
}

func (s *stubChatService) Answer(_ context.Context, scope domain.Scope, query string) (*driving.Answer, error) {
	s.lastScope = scope
	s.lastQuery = query
	if s.err != nil {
		return nil, s.err
	}
	return s.answer, nil
}

// runCommand executes the root command with args and captures output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

// withChatService swaps the package-level chat service for the test.
func withChatService(t *testing.T, svc driving.ChatService) {
	t.Helper()
	original := chatService
	chatService = svc
	t.Cleanup(func() { chatService = original })
}

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask [query]", askCmd.Use)
}

func TestAskCmd_NoService(t *testing.T) {
	withChatService(t, nil)

	_, err := runCommand(t, "ask", "anything")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat service not configured")
}

func TestAskCmd_PrintsAnswerAndSources(t *testing.T) {
	stub := &stubChatService{
		answer: &driving.Answer{
			Text: "Revenue grew 12% year over year.",
			Bundle: domain.Bundle{
				Decision: domain.DecisionDocument,
				Snippets: []domain.Snippet{
					{Origin: domain.OriginDocument, Source: "report.pdf", Locator: "p3", Text: "revenue"},
				},
			},
		},
	}
	withChatService(t, stub)

	out, err := runCommand(t, "ask", "how did revenue do?", "--scope", "finance")

	require.NoError(t, err)
	assert.Equal(t, domain.Scope("finance"), stub.lastScope)
	assert.Equal(t, "how did revenue do?", stub.lastQuery)
	assert.Contains(t, out, "Revenue grew 12% year over year.")
	assert.Contains(t, out, "report.pdf#p3")
}

func TestAskCmd_JSONOutput(t *testing.T) {
	stub := &stubChatService{
		answer: &driving.Answer{
			Text: "Answer text.",
			Bundle: domain.Bundle{
				Decision: domain.DecisionBoth,
				Snippets: []domain.Snippet{
					{Origin: domain.OriginWeb, Source: "https://example.com", Text: "web"},
				},
				Reasons: []string{"no index"},
			},
		},
	}
	withChatService(t, stub)

	out, err := runCommand(t, "ask", "q", "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"answer": "Answer text."`)
	assert.Contains(t, out, `"decision": "both"`)
	assert.Contains(t, out, `"https://example.com"`)
	assert.Contains(t, out, `"no index"`)
}

func TestAskCmd_SynthesisFailure(t *testing.T) {
	stub := &stubChatService{err: domain.ErrSynthesisUnavailable}
	withChatService(t, stub)

	_, err := runCommand(t, "ask", "q")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSynthesisUnavailable)
}
