// Package websearch implements subagent.WebSearcher against a
// configurable HTTP search API, so the planner's web_search tool has a
// real backend instead of only an interface to mock in tests.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Backend calls a JSON search API of the form GET <Endpoint>?q=<query>,
// expecting a response shaped like {"results": [{"title": "...", "url":
// "...", "snippet": "..."}, ...]}. Most hosted search APIs (or a local
// indexer placed behind the same contract) fit this shape directly.
type Backend struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
	Limit    int
}

// NewBackend builds a Backend with a default http.Client and result
// limit; timeouts are enforced via the context passed to Search.
func NewBackend(endpoint, apiKey string) *Backend {
	return &Backend{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Client:   &http.Client{},
		Limit:    5,
	}
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	} `json:"results"`
}

// Search issues the HTTP request and flattens each hit into a single
// "title — url — snippet" line for the calling tool to pass straight
// into a model message.
func (b *Backend) Search(ctx context.Context, query string) ([]string, error) {
	u, err := url.Parse(b.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("websearch: invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websearch: building request: %w", err)
	}
	if b.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.APIKey)
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("websearch: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("websearch: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("websearch: status %d: %s", resp.StatusCode, raw)
	}

	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("websearch: decoding response: %w", err)
	}

	limit := b.Limit
	if limit <= 0 || limit > len(parsed.Results) {
		limit = len(parsed.Results)
	}
	out := make([]string, 0, limit)
	for _, r := range parsed.Results[:limit] {
		out = append(out, fmt.Sprintf("%s — %s — %s", r.Title, r.URL, r.Snippet))
	}
	return out, nil
}
