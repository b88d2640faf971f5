// Package tavily provides a web search adapter using the Tavily API.
//
// The adapter is deliberately forgiving: a missing API key makes it
// unavailable rather than broken, and callers are expected to treat search
// failures as degraded evidence, not fatal errors.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/evidentlabs/answercore/internal/core/domain"
	"github.com/evidentlabs/answercore/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.WebSearcher = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.tavily.com"
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is requests per second against the API.
	DefaultRateLimit = rate.Limit(5)
	DefaultRateBurst = 10
)

// Config holds configuration for the Tavily client.
type Config struct {
	// APIKey is the Tavily API key. Empty means the searcher reports
	// itself unavailable.
	APIKey string

	// BaseURL is the API base URL (default: https://api.tavily.com).
	BaseURL string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// RateLimit throttles outgoing requests (default: 5/s, burst 10).
	RateLimit rate.Limit
	RateBurst int
}

// Client provides web search using the Tavily API.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
}

// searchRequest is the Tavily /search request format.
type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

// searchResponse is the Tavily /search response format.
type searchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// New creates a Tavily client. An empty API key is allowed; the client is
// then permanently unavailable and Search fails until reconfigured.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = DefaultRateBurst
	}

	return &Client{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		limiter: rate.NewLimiter(cfg.RateLimit, cfg.RateBurst),
	}
}

// Available reports whether an API key is configured.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

// Search returns up to limit ranked results for the query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]driven.WebResult, error) {
	if !c.Available() {
		return nil, fmt.Errorf("tavily: no API key configured: %w", domain.ErrWebSearchUnavailable)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("tavily: rate limit wait: %w", err)
	}

	jsonBody, err := json.Marshal(searchRequest{Query: query, MaxResults: limit})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/search",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily error (status %d): %s", resp.StatusCode, string(body))
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	results := make([]driven.WebResult, 0, len(searchResp.Results))
	for _, r := range searchResp.Results {
		results = append(results, driven.WebResult{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
			Score:   r.Score,
		})
	}
	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}

// Close releases resources.
func (c *Client) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
