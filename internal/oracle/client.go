package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrUnavailable covers transport failures, timeouts and non-2xx
	// responses from the oracle. Callers skip the message and retry on a
	// later cycle.
	ErrUnavailable = errors.New("oracle: unavailable")

	// ErrBadResponse covers responses that are 2xx but not decodable per
	// the oracle contract. This is a hard error, never silently defaulted.
	ErrBadResponse = errors.New("oracle: malformed response")
)

const defaultTimeout = 60 * time.Second

// Client calls the classification and generation oracles over HTTP. Both
// speak small JSON contracts; the per-request timeout bounds how long a
// single unresponsive oracle call can stall a batch.
type Client struct {
	httpClient  *http.Client
	classifyURL string
	draftURL    string
}

// NewClient creates an oracle client for the given endpoints. A timeout of
// zero or less falls back to 60 seconds.
func NewClient(classifyURL, draftURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		classifyURL: classifyURL,
		draftURL:    draftURL,
	}
}

type classifyRequest struct {
	Content string `json:"content"`
	Sender  string `json:"sender"`
}

type classifyResponse struct {
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

type draftRequest struct {
	Content string `json:"content"`
	Context string `json:"context"`
}

type draftResponse struct {
	Text string `json:"text"`
}

// Classify asks the classification oracle for a category and a reason. The
// raw category string is returned unvalidated; enum enforcement belongs to
// the workflow engine.
func (c *Client) Classify(ctx context.Context, content, sender string) (string, string, error) {
	var resp classifyResponse
	err := c.post(ctx, c.classifyURL, classifyRequest{Content: content, Sender: sender}, &resp)
	if err != nil {
		return "", "", err
	}
	return resp.Category, resp.Reason, nil
}

// Draft asks the generation oracle for reply text given the message content
// and retrieved background context.
func (c *Client) Draft(ctx context.Context, content, contextInfo string) (string, error) {
	var resp draftResponse
	err := c.post(ctx, c.draftURL, draftRequest{Content: content, Context: contextInfo}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (c *Client) post(ctx context.Context, url string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("oracle: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("oracle: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d from %s", ErrUnavailable, resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}
