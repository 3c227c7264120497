package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type stubClassifier struct {
	category string
	reason   string
	err      error
	calls    int
}

func (s *stubClassifier) Classify(_ context.Context, _, _ string) (string, string, error) {
	s.calls++
	return s.category, s.reason, s.err
}

type stubRetriever struct {
	snippets []string
	err      error
	calls    int
	gotQuery string
}

func (s *stubRetriever) Search(_ context.Context, query string) ([]string, error) {
	s.calls++
	s.gotQuery = query
	return s.snippets, s.err
}

type stubGenerator struct {
	reply      string
	err        error
	calls      int
	gotContext string
}

func (s *stubGenerator) Draft(_ context.Context, _, contextInfo string) (string, error) {
	s.calls++
	s.gotContext = contextInfo
	return s.reply, s.err
}

func TestRunSpamTerminatesAfterClassify(t *testing.T) {
	classifier := &stubClassifier{category: "spam", reason: "Detected phishing keywords"}
	retriever := &stubRetriever{}
	generator := &stubGenerator{}
	engine := NewEngine(classifier, retriever, generator)

	state, err := engine.Run(context.Background(), "You won $1M!", "scammer@bad.com")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if state.Classification != CategorySpam {
		t.Errorf("Classification = %q, want %q", state.Classification, CategorySpam)
	}
	if !strings.Contains(state.Reason, "phishing") {
		t.Errorf("Reason = %q, want it to mention phishing", state.Reason)
	}
	if state.RetrievedContext != nil {
		t.Errorf("RetrievedContext = %q, want absent", *state.RetrievedContext)
	}
	if state.DraftReply != nil {
		t.Errorf("DraftReply = %q, want absent", *state.DraftReply)
	}
	if retriever.calls != 0 || generator.calls != 0 {
		t.Errorf("retriever called %d times, generator %d times, want 0 and 0",
			retriever.calls, generator.calls)
	}
}

func TestRunInfoTerminatesAfterClassify(t *testing.T) {
	classifier := &stubClassifier{category: "info", reason: "Weekly newsletter"}
	retriever := &stubRetriever{}
	generator := &stubGenerator{}
	engine := NewEngine(classifier, retriever, generator)

	state, err := engine.Run(context.Background(), "This week in Go", "news@example.com")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if state.Classification != CategoryInfo {
		t.Errorf("Classification = %q, want %q", state.Classification, CategoryInfo)
	}
	if state.RetrievedContext != nil || state.DraftReply != nil {
		t.Error("expected retrieval and drafting to be skipped for info")
	}
}

func TestRunReplyNeededTakesFullRoute(t *testing.T) {
	classifier := &stubClassifier{category: "reply_needed", reason: "Question from colleague"}
	retriever := &stubRetriever{snippets: []string{"budget is 50k"}}
	generator := &stubGenerator{reply: "Ok, noted."}
	engine := NewEngine(classifier, retriever, generator)

	state, err := engine.Run(context.Background(), "Budget?", "boss")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if state.Classification != CategoryReplyNeeded {
		t.Errorf("Classification = %q, want %q", state.Classification, CategoryReplyNeeded)
	}
	if state.RetrievedContext == nil || *state.RetrievedContext != "budget is 50k" {
		t.Errorf("RetrievedContext = %v, want %q", state.RetrievedContext, "budget is 50k")
	}
	if state.DraftReply == nil || *state.DraftReply != "Ok, noted." {
		t.Errorf("DraftReply = %v, want %q", state.DraftReply, "Ok, noted.")
	}
	if generator.gotContext != "budget is 50k" {
		t.Errorf("generator received context %q, want %q", generator.gotContext, "budget is 50k")
	}
}

func TestRunUnknownCategoryFailsFast(t *testing.T) {
	classifier := &stubClassifier{category: "urgent", reason: "sounds important"}
	retriever := &stubRetriever{}
	engine := NewEngine(classifier, retriever, &stubGenerator{})

	_, err := engine.Run(context.Background(), "hello", "someone")
	if err == nil {
		t.Fatal("Run() succeeded on out-of-enum category, want error")
	}

	var contractErr *ContractError
	if !errors.As(err, &contractErr) {
		t.Fatalf("Run() error = %v, want *ContractError", err)
	}
	if retriever.calls != 0 {
		t.Errorf("retriever called %d times after contract violation, want 0", retriever.calls)
	}
}

func TestRunEmptyReasonFails(t *testing.T) {
	classifier := &stubClassifier{category: "spam", reason: "   "}
	engine := NewEngine(classifier, &stubRetriever{}, &stubGenerator{})

	_, err := engine.Run(context.Background(), "hello", "someone")

	var contractErr *ContractError
	if !errors.As(err, &contractErr) {
		t.Fatalf("Run() error = %v, want *ContractError for empty reason", err)
	}
}

func TestRunOracleErrorPropagates(t *testing.T) {
	oracleErr := errors.New("connection refused")
	classifier := &stubClassifier{err: oracleErr}
	engine := NewEngine(classifier, &stubRetriever{}, &stubGenerator{})

	_, err := engine.Run(context.Background(), "hello", "someone")
	if !errors.Is(err, oracleErr) {
		t.Fatalf("Run() error = %v, want wrapped %v", err, oracleErr)
	}
}

func TestRunEmptyRetrievalYieldsSentinel(t *testing.T) {
	classifier := &stubClassifier{category: "reply_needed", reason: "needs an answer"}
	retriever := &stubRetriever{snippets: nil}
	generator := &stubGenerator{reply: "Will get back to you."}
	engine := NewEngine(classifier, retriever, generator)

	state, err := engine.Run(context.Background(), "Any update?", "client@example.com")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if state.RetrievedContext == nil || *state.RetrievedContext != noInfoFound {
		t.Errorf("RetrievedContext = %v, want sentinel %q", state.RetrievedContext, noInfoFound)
	}
	if generator.gotContext != noInfoFound {
		t.Errorf("generator received context %q, want sentinel %q", generator.gotContext, noInfoFound)
	}
	if state.DraftReply == nil || *state.DraftReply != "Will get back to you." {
		t.Errorf("DraftReply = %v, want draft despite empty retrieval", state.DraftReply)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	newEngine := func() *Engine {
		return NewEngine(
			&stubClassifier{category: "reply_needed", reason: "Question from colleague"},
			&stubRetriever{snippets: []string{"budget is 50k", "deadline is Friday"}},
			&stubGenerator{reply: "Ok, noted."},
		)
	}

	first, err := newEngine().Run(context.Background(), "Budget?", "boss")
	if err != nil {
		t.Fatalf("first Run() error: %v", err)
	}
	second, err := newEngine().Run(context.Background(), "Budget?", "boss")
	if err != nil {
		t.Fatalf("second Run() error: %v", err)
	}

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("states differ between identical runs (-first +second):\n%s", diff)
	}
}

func TestDraftWithoutContextUsesPlaceholder(t *testing.T) {
	generator := &stubGenerator{reply: "Sure."}
	engine := NewEngine(&stubClassifier{}, &stubRetriever{}, generator)

	state := &State{EmailContent: "hello", Sender: "someone"}
	if err := engine.draft(context.Background(), state); err != nil {
		t.Fatalf("draft() error: %v", err)
	}

	if generator.gotContext != noContext {
		t.Errorf("generator received context %q, want placeholder %q", generator.gotContext, noContext)
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		sender   string
		content  string
		expected string
	}{
		{
			name:     "Short body kept whole",
			sender:   "boss",
			content:  "Budget?",
			expected: "boss Budget?",
		},
		{
			name:     "Long body truncated to 50 runes",
			sender:   "a@b.com",
			content:  strings.Repeat("x", 80),
			expected: "a@b.com " + strings.Repeat("x", 50),
		},
		{
			name:     "Multibyte body truncated on rune boundary",
			sender:   "a@b.com",
			content:  strings.Repeat("é", 60),
			expected: "a@b.com " + strings.Repeat("é", 50),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildQuery(tt.sender, tt.content); got != tt.expected {
				t.Errorf("buildQuery() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		raw     string
		want    Category
		wantErr bool
	}{
		{raw: "spam", want: CategorySpam},
		{raw: "info", want: CategoryInfo},
		{raw: "reply_needed", want: CategoryReplyNeeded},
		{raw: "urgent", wantErr: true},
		{raw: "", wantErr: true},
		{raw: "Spam", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseCategory(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCategory(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseCategory(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
