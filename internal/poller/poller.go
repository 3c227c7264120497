package poller

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Moka-cat/AI-Email-Agent/internal/dispatch"
	imapadapter "github.com/Moka-cat/AI-Email-Agent/internal/imap"
	"github.com/Moka-cat/AI-Email-Agent/internal/logging"
	"github.com/Moka-cat/AI-Email-Agent/internal/mailparse"
	"github.com/Moka-cat/AI-Email-Agent/internal/models"
	"github.com/Moka-cat/AI-Email-Agent/internal/triage"
)

const (
	// authBackoff is the extra wait after a login rejection. Hammering a
	// server with bad credentials only earns a lockout.
	authBackoff = 5 * time.Minute

	maxConnBackoff = 30 * time.Minute
)

// Triager runs one message through the triage workflow.
type Triager interface {
	Process(ctx context.Context, email *models.Email) (*triage.Result, error)
}

// Dispatcher applies the mailbox actions for one triaged message.
type Dispatcher interface {
	Apply(session imapadapter.Session, result *triage.Result, email *models.Email) ([]dispatch.Action, error)
}

// Poller repeatedly opens a mail store session, lists a bounded batch of
// unseen messages, and runs each one through triage and dispatch. Failures
// never escalate: a message failure skips to the next message, a session
// failure skips to the next cycle, and the loop itself only stops when its
// context is cancelled.
type Poller struct {
	cfg        *models.Config
	newSession func() imapadapter.Session
	triager    Triager
	dispatcher Dispatcher

	connFailures atomic.Int32
}

// New creates a Poller. newSession is invoked once per cycle; the resulting
// session is closed on every exit path of that cycle.
func New(cfg *models.Config, newSession func() imapadapter.Session, triager Triager, dispatcher Dispatcher) *Poller {
	return &Poller{
		cfg:        cfg,
		newSession: newSession,
		triager:    triager,
		dispatcher: dispatcher,
	}
}

// Run polls until ctx is cancelled. It returns the context's error.
func (p *Poller) Run(ctx context.Context) error {
	logging.Log.Infof("Mail poller started, checking every %s (batch limit %d)",
		p.cfg.Email.PollInterval, p.cfg.Email.BatchLimit)

	for {
		extra := p.cycle(ctx)
		if err := wait(ctx, p.cfg.Email.PollInterval+extra); err != nil {
			logging.Log.Info("Mail poller stopping")
			return err
		}
	}
}

// RunCycles runs exactly n polling cycles without the inter-cycle sleep.
func (p *Poller) RunCycles(ctx context.Context, n int) {
	for i := 0; i < n; i++ {
		p.cycle(ctx)
	}
}

// cycle performs one poll. It returns extra sleep to add before the next
// cycle, used to back off after connection or authentication failures.
func (p *Poller) cycle(ctx context.Context) (extra time.Duration) {
	// The loop's availability outweighs any single cycle's failure; an
	// unexpected panic is logged and the next cycle proceeds.
	defer func() {
		if r := recover(); r != nil {
			logging.Log.Errorf("Unexpected error in polling cycle, will retry: %v", r)
		}
	}()

	session := p.newSession()

	if err := session.Connect(p.cfg.Email.Imap); err != nil {
		return p.handleConnectFailure(err)
	}
	defer func() {
		_ = session.Close()
	}()

	p.connFailures.Store(0)

	if err := session.Login(p.cfg.Email.Login, p.cfg.Email.Password); err != nil {
		logging.Log.Errorf("Login error, backing off %s: %v", authBackoff, err)
		return authBackoff
	}

	if err := session.SelectMailbox(p.cfg.Email.MailBox); err != nil {
		logging.Log.Errorf("Folder selection error: %v", err)
		return 0
	}

	uids, err := session.ListUnseenUIDs(p.cfg.Email.BatchLimit)
	if err != nil {
		logging.Log.Errorf("Error listing unseen messages, will retry next cycle: %v", err)
		return 0
	}

	if len(uids) == 0 {
		logging.Log.Debug("No new emails")
		return 0
	}

	processed := 0
	for _, uid := range uids {
		if ctx.Err() != nil {
			logging.Log.Infof("Shutdown requested, %d of %d messages processed", processed, len(uids))
			return 0
		}

		if err := p.processMessage(ctx, session, uid); err != nil {
			// The seen flag is untouched, so a later cycle retries this one.
			logging.Log.Errorf("Error processing message UID %d: %v", uid, err)
			continue
		}
		processed++
	}

	logging.Log.Infof("Batch finished, processed %d of %d messages", processed, len(uids))
	return 0
}

func (p *Poller) processMessage(ctx context.Context, session imapadapter.Session, uid uint32) error {
	msg, err := session.FetchMessage(uid)
	if err != nil {
		return err
	}

	email, err := mailparse.Parse(msg)
	if err != nil {
		return fmt.Errorf("parsing message: %w", err)
	}

	locallog := logging.Log.WithField("trace_id", email.TraceID)
	locallog.Infof("Processing UID %d: %q from %s", uid, truncate(email.Subject, 30), email.From)

	result, err := p.triager.Process(ctx, email)
	if err != nil {
		return fmt.Errorf("triage: %w", err)
	}

	actions, err := p.dispatcher.Apply(session, result, email)
	if err != nil {
		return err
	}

	locallog.WithField("category", result.Classification).
		Infof("UID %d handled, actions: %v", uid, actions)
	return nil
}

// handleConnectFailure counts consecutive connection failures and returns an
// exponential extra delay once they persist, capped at maxConnBackoff.
func (p *Poller) handleConnectFailure(err error) time.Duration {
	failures := p.connFailures.Add(1)
	logging.Log.Errorf("IMAP connection error: %v", err)

	if failures < 5 {
		return 0
	}

	base := 5 * time.Minute
	maxSteps := int32(10)

	n := failures - 5
	if n > maxSteps {
		n = maxSteps
	}

	backoff := base * time.Duration(1<<n)
	if backoff > maxConnBackoff {
		backoff = maxConnBackoff
	}

	logging.Log.Warnf("IMAP connection failed %d times, waiting %s before next attempt", failures, backoff)
	return backoff
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
