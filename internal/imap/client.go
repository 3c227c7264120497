package imap

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

type StandardSession struct {
	client  *client.Client
	timeout time.Duration
}

// NewStandardSession creates a new StandardSession with a default timeout of 30 seconds for IMAP operations
func NewStandardSession() *StandardSession {
	return &StandardSession{
		timeout: 30 * time.Second,
	}
}

// Connect establishes a secure connection to the IMAP server using TLS. It returns an error if the connection fails.
func (s *StandardSession) Connect(server string) error {
	cl, err := client.DialTLS(server, nil)
	if err != nil {
		return fmt.Errorf("IMAP connection error: %w", err)
	}
	s.client = cl
	return nil
}

// Login authenticates the user with the IMAP server using the provided username and password. It returns an error if authentication fails or if there is no active connection.
func (s *StandardSession) Login(user, password string) error {
	if s.client == nil {
		return ErrNotConnected
	}
	return s.client.Login(user, password)
}

// SelectMailbox selects the specified mailbox (e.g., "INBOX") for subsequent operations. It returns an error if the mailbox cannot be selected or if there is no active connection.
func (s *StandardSession) SelectMailbox(name string) error {
	if s.client == nil {
		return ErrNotConnected
	}
	_, err := s.client.Select(name, false)
	return err
}

// ListUnseenUIDs retrieves the UIDs of unseen messages in the selected
// mailbox, truncated to at most limit entries. Bounding the batch keeps a
// single cycle short enough that the server does not expire the session on
// accounts with many unseen messages; the remainder is picked up by later
// cycles. A limit of zero or less means no bound.
func (s *StandardSession) ListUnseenUIDs(limit int) ([]uint32, error) {
	if s.client == nil {
		return nil, ErrNotConnected
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}

	uids, err := s.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("error searching for unseen messages: %w", err)
	}

	if limit > 0 && len(uids) > limit {
		uids = uids[:limit]
	}

	return uids, nil
}

// FetchMessage retrieves the full message for the given UID, including the
// raw body section and internal date. It returns an error if the fetch fails,
// if there is no active connection, or if the server returns no message.
func (s *StandardSession) FetchMessage(uid uint32) (*imap.Message, error) {
	if s.client == nil {
		return nil, ErrNotConnected
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchInternalDate, imap.FetchUid}

	prevTimeout := s.client.Timeout
	s.client.Timeout = s.timeout
	defer func() { s.client.Timeout = prevTimeout }()

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)

	go func() {
		done <- s.client.UidFetch(seqSet, items, messages)
	}()

	var msg *imap.Message
	for m := range messages {
		msg = m
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("error fetching message UID %d: %w", uid, err)
	}

	if msg == nil {
		return nil, fmt.Errorf("no message retrieved for UID %d", uid)
	}

	return msg, nil
}

// MarkSeen marks the message with the specified UID as seen (read) on the IMAP server. It returns an error if the store operation fails or if there is no active connection.
func (s *StandardSession) MarkSeen(uid uint32) error {
	if s.client == nil {
		return ErrNotConnected
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag}

	return s.client.UidStore(seqSet, item, flags, nil)
}

// Move moves the message with the specified UID to the named folder. A
// missing target folder is reported as ErrFolderNotFound so callers can
// treat it as non-fatal.
func (s *StandardSession) Move(uid uint32, folder string) error {
	if s.client == nil {
		return ErrNotConnected
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	if err := s.client.UidMove(seqSet, folder); err != nil {
		if isFolderNotFound(err) {
			return fmt.Errorf("%w: %q", ErrFolderNotFound, folder)
		}
		return fmt.Errorf("error moving message UID %d to %q: %w", uid, folder, err)
	}
	return nil
}

// Append appends a raw message to the named folder with the given flags and
// internal date. Used to save generated reply drafts into the drafts folder.
func (s *StandardSession) Append(folder string, body []byte, flags []string, date time.Time) error {
	if s.client == nil {
		return ErrNotConnected
	}

	if err := s.client.Append(folder, flags, date, bytes.NewBuffer(body)); err != nil {
		if isFolderNotFound(err) {
			return fmt.Errorf("%w: %q", ErrFolderNotFound, folder)
		}
		return fmt.Errorf("error appending message to %q: %w", folder, err)
	}
	return nil
}

// Close logs out from the IMAP server and closes the connection. It returns an error if the logout operation fails. If there is no active connection, it simply returns nil.
func (s *StandardSession) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Logout()
}

// Servers signal a missing mailbox with a TRYCREATE response code or a
// "no such mailbox" style text; there is no structured error for it in the
// protocol, so match on the response text.
func isFolderNotFound(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "trycreate") ||
		strings.Contains(text, "no such mailbox") ||
		strings.Contains(text, "mailbox does not exist") ||
		strings.Contains(text, "unknown mailbox")
}
