package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/Moka-cat/AI-Email-Agent/internal/logging"
)

const (
	// queryPrefixLen bounds how much of the message body feeds the retrieval
	// query, keeping queries short and deterministic.
	queryPrefixLen = 50

	// noInfoFound is the sentinel context for an empty retrieval result.
	noInfoFound = "No info found."

	// noContext substitutes for a missing retrieval result if the draft step
	// is ever reached out of order.
	noContext = "No context"
)

// Classifier assigns a category and a human-readable reason to a message.
type Classifier interface {
	Classify(ctx context.Context, content, sender string) (category, reason string, err error)
}

// Retriever returns background snippets for a query, most relevant first.
// An empty result is valid.
type Retriever interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// Generator drafts a reply to a message given retrieved background context.
type Generator interface {
	Draft(ctx context.Context, content, contextInfo string) (string, error)
}

// Engine routes one message through classify → [retrieve → draft]. Messages
// classified spam or info terminate right after classification; only
// reply_needed takes the retrieval and drafting steps. The engine performs
// no mailbox side effects and, given deterministic collaborators, is a pure
// function of its input.
type Engine struct {
	classifier Classifier
	retriever  Retriever
	generator  Generator
}

// NewEngine creates a workflow engine from its injected collaborators.
func NewEngine(classifier Classifier, retriever Retriever, generator Generator) *Engine {
	return &Engine{
		classifier: classifier,
		retriever:  retriever,
		generator:  generator,
	}
}

// Run executes the workflow for one message. Oracle failures propagate to
// the caller untouched; retry policy belongs to the polling loop, where a
// transient failure skips one message instead of stalling the batch.
func (e *Engine) Run(ctx context.Context, content, sender string) (*State, error) {
	state := &State{
		EmailContent: content,
		Sender:       sender,
	}

	if err := e.classify(ctx, state); err != nil {
		return nil, err
	}

	switch state.Classification {
	case CategorySpam, CategoryInfo:
		return state, nil
	case CategoryReplyNeeded:
		// fall through to retrieval and drafting
	default:
		return nil, &ContractError{Field: "category", Value: string(state.Classification)}
	}

	if err := e.retrieve(ctx, state); err != nil {
		return nil, err
	}
	if err := e.draft(ctx, state); err != nil {
		return nil, err
	}

	return state, nil
}

func (e *Engine) classify(ctx context.Context, state *State) error {
	rawCategory, reason, err := e.classifier.Classify(ctx, state.EmailContent, state.Sender)
	if err != nil {
		return fmt.Errorf("classify step: %w", err)
	}

	category, err := ParseCategory(rawCategory)
	if err != nil {
		return err
	}
	if strings.TrimSpace(reason) == "" {
		return &ContractError{Field: "reason", Value: reason}
	}

	state.Classification = category
	state.Reason = reason

	logging.Log.WithField("category", string(category)).Debug("Message classified")
	return nil
}

func (e *Engine) retrieve(ctx context.Context, state *State) error {
	query := buildQuery(state.Sender, state.EmailContent)

	snippets, err := e.retriever.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("retrieve step: %w", err)
	}

	retrieved := noInfoFound
	if len(snippets) > 0 {
		retrieved = strings.Join(snippets, "\n")
	}

	state.RetrievedContext = &retrieved
	return nil
}

func (e *Engine) draft(ctx context.Context, state *State) error {
	contextInfo := noContext
	if state.RetrievedContext != nil {
		contextInfo = *state.RetrievedContext
	}

	reply, err := e.generator.Draft(ctx, state.EmailContent, contextInfo)
	if err != nil {
		return fmt.Errorf("draft step: %w", err)
	}

	state.DraftReply = &reply
	return nil
}

// buildQuery combines the sender with a bounded, rune-safe prefix of the
// message body.
func buildQuery(sender, content string) string {
	prefix := content
	if runes := []rune(content); len(runes) > queryPrefixLen {
		prefix = string(runes[:queryPrefixLen])
	}
	return sender + " " + prefix
}
