package imap

import (
	"errors"
	"time"

	"github.com/emersion/go-imap"
)

var (
	// ErrNotConnected is returned when an operation is attempted before Connect succeeded.
	ErrNotConnected = errors.New("imap: not connected")

	// ErrFolderNotFound is returned by Move and Append when the target
	// folder does not exist on the server.
	ErrFolderNotFound = errors.New("imap: folder not found")
)

// Session is one authenticated connection to the mail store, scoped to a
// single polling cycle. It is not safe for concurrent use; the poller
// serializes all calls.
type Session interface {
	Connect(server string) error
	Login(user, password string) error
	SelectMailbox(name string) error
	ListUnseenUIDs(limit int) ([]uint32, error)
	FetchMessage(uid uint32) (*imap.Message, error)
	MarkSeen(uid uint32) error
	Move(uid uint32, folder string) error
	Append(folder string, body []byte, flags []string, date time.Time) error
	Close() error
}
