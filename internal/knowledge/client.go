package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 60 * time.Second

// Client queries the knowledge retrieval service. The service owns the
// index; this client only sends a query string and receives an ordered list
// of text snippets, possibly empty.
type Client struct {
	httpClient *http.Client
	searchURL  string
}

// NewClient creates a retrieval client for the given search endpoint.
func NewClient(searchURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		searchURL:  searchURL,
	}
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResponse struct {
	Snippets []string `json:"snippets"`
}

// Search returns the snippets matching the query, most relevant first. A
// zero-length result is valid and not an error.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	body, err := json.Marshal(searchRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("knowledge: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.searchURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("knowledge: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("knowledge: search request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("knowledge: status %d from %s", resp.StatusCode, c.searchURL)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("knowledge: decoding response: %w", err)
	}
	return decoded.Snippets, nil
}
