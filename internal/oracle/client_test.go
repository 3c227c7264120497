package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req classifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Content != "You won $1M!" || req.Sender != "scammer@bad.com" {
			t.Errorf("unexpected request: %+v", req)
		}
		_ = json.NewEncoder(w).Encode(classifyResponse{Category: "spam", Reason: "phishing keywords"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, time.Second)
	category, reason, err := c.Classify(context.Background(), "You won $1M!", "scammer@bad.com")
	if err != nil {
		t.Fatalf("Classify() error: %v", err)
	}
	if category != "spam" || reason != "phishing keywords" {
		t.Errorf("Classify() = (%q, %q), want (spam, phishing keywords)", category, reason)
	}
}

func TestClassifyServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, time.Second)
	_, _, err := c.Classify(context.Background(), "hello", "someone")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Classify() error = %v, want ErrUnavailable", err)
	}
}

func TestClassifyUnreachableIsUnavailable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1/classify", "http://127.0.0.1:1/draft", 100*time.Millisecond)
	_, _, err := c.Classify(context.Background(), "hello", "someone")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Classify() error = %v, want ErrUnavailable", err)
	}
}

func TestClassifyMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, time.Second)
	_, _, err := c.Classify(context.Background(), "hello", "someone")
	if !errors.Is(err, ErrBadResponse) {
		t.Errorf("Classify() error = %v, want ErrBadResponse", err)
	}
}

func TestDraft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req draftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Context != "budget is 50k" {
			t.Errorf("draft request context = %q, want retrieval result", req.Context)
		}
		_ = json.NewEncoder(w).Encode(draftResponse{Text: "Ok, noted."})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, time.Second)
	text, err := c.Draft(context.Background(), "Budget?", "budget is 50k")
	if err != nil {
		t.Fatalf("Draft() error: %v", err)
	}
	if text != "Ok, noted." {
		t.Errorf("Draft() = %q, want %q", text, "Ok, noted.")
	}
}
