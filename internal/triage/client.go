package triage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Moka-cat/AI-Email-Agent/internal/models"
)

const defaultTimeout = 60 * time.Second

// Result is the triage outcome for one message. Draft is empty unless the
// workflow took the drafting route and produced content.
type Result struct {
	EmailID        string
	Classification string
	Reason         string
	Draft          string
}

// Client dispatches messages to the process-email service. A failure here is
// always a per-message failure: the poller logs it and moves on, leaving the
// message unseen so a later cycle retries it.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// NewClient creates a triage client for the given process-email endpoint.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
	}
}

type processRequest struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Sender  string `json:"sender"`
	Body    string `json:"body"`
}

type processResponse struct {
	EmailID        string  `json:"email_id"`
	Classification string  `json:"classification"`
	Reason         string  `json:"reason"`
	Draft          *string `json:"draft"`
}

// Process runs one email through the triage workflow service.
func (c *Client) Process(ctx context.Context, email *models.Email) (*Result, error) {
	payload := processRequest{
		ID:      strconv.FormatUint(uint64(email.UID), 10),
		Subject: email.Subject,
		Sender:  email.From,
		Body:    email.BodyText,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("triage: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("triage: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("triage: request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("triage: status %d for UID %d", resp.StatusCode, email.UID)
	}

	var decoded processResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("triage: decoding response: %w", err)
	}

	result := &Result{
		EmailID:        decoded.EmailID,
		Classification: decoded.Classification,
		Reason:         decoded.Reason,
	}
	if decoded.Draft != nil {
		result.Draft = *decoded.Draft
	}
	return result, nil
}
