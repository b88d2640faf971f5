package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evidentlabs/answercore/internal/core/domain"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestClient_Available(t *testing.T) {
	assert.False(t, New(Config{}).Available())
	assert.True(t, New(Config{APIKey: "tvly-test"}).Available())
}

func TestClient_Search_NoAPIKey(t *testing.T) {
	client := New(Config{})

	_, err := client.Search(context.Background(), "anything", 4)

	require.ErrorIs(t, err, domain.ErrWebSearchUnavailable)
	assert.Contains(t, err.Error(), "no API key")
}

func TestClient_Search_Success(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-test", r.Header.Get("Authorization"))

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "AAPL stock price", req.Query)
		assert.Equal(t, 4, req.MaxResults)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "Apple Inc (AAPL)", "url": "https://example.com/aapl", "content": "AAPL rose 2%", "score": 0.97},
				{"title": "Market news", "url": "https://example.com/news", "content": "Markets rallied", "score": 0.71},
			},
		})
	})

	client := New(Config{APIKey: "tvly-test", BaseURL: server.URL})

	results, err := client.Search(context.Background(), "AAPL stock price", 4)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Apple Inc (AAPL)", results[0].Title)
	assert.Equal(t, "https://example.com/aapl", results[0].URL)
	assert.Equal(t, "AAPL rose 2%", results[0].Content)
	assert.InDelta(t, 0.97, results[0].Score, 1e-9)
}

func TestClient_Search_TruncatesToLimit(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "a", "url": "https://a", "content": "a"},
				{"title": "b", "url": "https://b", "content": "b"},
				{"title": "c", "url": "https://c", "content": "c"},
			},
		})
	})

	client := New(Config{APIKey: "tvly-test", BaseURL: server.URL})

	results, err := client.Search(context.Background(), "q", 2)

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestClient_Search_RateLimited(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"detail": "rate limit exceeded"}`))
	})

	client := New(Config{APIKey: "tvly-test", BaseURL: server.URL})

	_, err := client.Search(context.Background(), "q", 4)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestClient_Search_ServerError(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	client := New(Config{APIKey: "tvly-test", BaseURL: server.URL})

	_, err := client.Search(context.Background(), "q", 4)

	assert.Error(t, err)
}

func TestClient_Search_ContextCancelled(t *testing.T) {
	client := New(Config{APIKey: "tvly-test"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Search(ctx, "q", 4)

	assert.Error(t, err)
}

func TestClient_Search_EmptyResults(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
	})

	client := New(Config{APIKey: "tvly-test", BaseURL: server.URL})

	results, err := client.Search(context.Background(), "q", 4)

	require.NoError(t, err)
	assert.Empty(t, results)
}
