package dispatch

import (
	"bytes"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
)

const (
	replyPrefix = "Re: "

	// fallbackRecipient fills the To header when the original sender could
	// not be parsed; the draft is still worth keeping for a human to fix up.
	fallbackRecipient = "unknown"
)

// buildDraft assembles the reply draft as a single-part text/plain message.
// Drafts are append-only: reprocessing a message after a crash may produce a
// duplicate draft, which is accepted over risking a lost one.
func buildDraft(from, to, subject, body string, date time.Time) ([]byte, error) {
	if to == "" {
		to = fallbackRecipient
	}

	var h mail.Header
	h.SetDate(date)
	h.SetSubject(replyPrefix + subject)
	h.SetAddressList("To", []*mail.Address{{Address: to}})
	if from != "" {
		h.SetAddressList("From", []*mail.Address{{Address: from}})
	}
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(w, body); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
