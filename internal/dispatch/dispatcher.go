package dispatch

import (
	"errors"
	"fmt"
	"time"

	"github.com/Moka-cat/AI-Email-Agent/internal/agent"
	imapadapter "github.com/Moka-cat/AI-Email-Agent/internal/imap"
	"github.com/Moka-cat/AI-Email-Agent/internal/logging"
	"github.com/Moka-cat/AI-Email-Agent/internal/models"
	"github.com/Moka-cat/AI-Email-Agent/internal/triage"

	goimap "github.com/emersion/go-imap"
)

// Action is a concrete mailbox side effect derived from a triage outcome.
type Action string

const (
	ActionMarkSeen    Action = "mark_seen"
	ActionMoveToTrash Action = "move_to_trash"
	ActionSaveDraft   Action = "save_draft"
)

// Dispatcher turns a completed triage result into mailbox actions. The
// mark-seen action always runs before any destructive one: a crash in
// between leaves a message merely seen, which a human can re-inspect,
// instead of moved-or-drafted but unseen, which a later cycle would process
// again and duplicate.
type Dispatcher struct {
	trashFolder  string
	draftsFolder string
	fromAddress  string

	now func() time.Time
}

// New creates a Dispatcher for the given special folders and sender address.
func New(trashFolder, draftsFolder, fromAddress string) *Dispatcher {
	return &Dispatcher{
		trashFolder:  trashFolder,
		draftsFolder: draftsFolder,
		fromAddress:  fromAddress,
		now:          time.Now,
	}
}

// Apply executes the actions for one triaged message against the session.
// Category → actions mapping:
//
//	spam          mark_seen, move_to_trash
//	info          mark_seen
//	reply_needed  mark_seen, and save_draft when a non-empty draft exists
//
// An unknown category fails before any action runs. Move and append
// failures are logged and do not fail the message; only a mark-seen failure
// does, since the message would otherwise be reprocessed forever.
func (d *Dispatcher) Apply(session imapadapter.Session, result *triage.Result, email *models.Email) ([]Action, error) {
	category, err := agent.ParseCategory(result.Classification)
	if err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}

	locallog := logging.Log.WithField("trace_id", email.TraceID)

	if err := session.MarkSeen(email.UID); err != nil {
		return nil, fmt.Errorf("dispatch: marking UID %d seen: %w", email.UID, err)
	}
	applied := []Action{ActionMarkSeen}

	switch category {
	case agent.CategorySpam:
		if err := session.Move(email.UID, d.trashFolder); err != nil {
			if errors.Is(err, imapadapter.ErrFolderNotFound) {
				locallog.Warnf("Trash folder %q missing, leaving UID %d in place: %v", d.trashFolder, email.UID, err)
			} else {
				locallog.Errorf("Error moving UID %d to trash: %v", email.UID, err)
			}
			return applied, nil
		}
		applied = append(applied, ActionMoveToTrash)
		locallog.Infof("Moved UID %d to %q", email.UID, d.trashFolder)

	case agent.CategoryInfo:
		// seen is all an informational message needs

	case agent.CategoryReplyNeeded:
		if result.Draft == "" {
			locallog.Infof("UID %d needs a reply but no draft was produced", email.UID)
			return applied, nil
		}
		if err := d.saveDraft(session, result.Draft, email); err != nil {
			// The draft text is in the log line so it can be recovered by
			// hand; losing it entirely would defeat the whole run.
			locallog.WithField("draft", result.Draft).
				Errorf("Error saving draft for UID %d to %q: %v", email.UID, d.draftsFolder, err)
			return applied, nil
		}
		applied = append(applied, ActionSaveDraft)
		locallog.Infof("Saved draft reply for UID %d to %q", email.UID, d.draftsFolder)
	}

	return applied, nil
}

func (d *Dispatcher) saveDraft(session imapadapter.Session, draft string, email *models.Email) error {
	body, err := buildDraft(d.fromAddress, email.From, email.Subject, draft, d.now())
	if err != nil {
		return fmt.Errorf("building draft message: %w", err)
	}

	return session.Append(d.draftsFolder, body, []string{goimap.SeenFlag}, d.now())
}
