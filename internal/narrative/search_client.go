package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/wallet-analyzer/internal/errors"
)

// SearchClient implements LookupService against a web-search HTTP endpoint.
type SearchClient struct {
	baseURL string
	client  *http.Client
}

// NewSearchClient creates a client. Returns nil when no URL is configured.
func NewSearchClient(baseURL string) *SearchClient {
	if baseURL == "" {
		return nil
	}
	return &SearchClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		URL     string `json:"url"`
	} `json:"results"`
}

// Search runs one query and returns up to five result snippets.
func (c *SearchClient) Search(ctx context.Context, query string) ([]ResultSnippet, error) {
	endpoint := fmt.Sprintf("%s?q=%s", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewNarrativeError("failed to build search request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.NewNarrativeError("search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewNarrativeError(
			fmt.Sprintf("search endpoint returned status %d", resp.StatusCode), nil)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewNarrativeError("failed to decode search response", err)
	}

	snippets := make([]ResultSnippet, 0, len(parsed.Results))
	for i, r := range parsed.Results {
		if i >= 5 {
			break
		}
		snippets = append(snippets, ResultSnippet{Title: r.Title, Snippet: r.Snippet, URL: r.URL})
	}
	return snippets, nil
}
