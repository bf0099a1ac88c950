// Package mailer delivers transactional mail. ZeptoMail is the production
// transport; LogMailer stands in when no API token is configured.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"coffeereg/pkg/platform/privacy"
)

// Attachment is a file sent with a message.
type Attachment struct {
	Name     string
	MimeType string
	Content  []byte
}

// Message is a single HTML mail to one recipient.
type Message struct {
	To          string
	ToName      string
	Subject     string
	HTML        string
	Attachments []Attachment
}

func (m *Message) validate() error {
	if m.To == "" || m.Subject == "" || m.HTML == "" {
		return fmt.Errorf("mailer: to, subject and html body are required")
	}
	return nil
}

// Error is a rejection reported by the mail API.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("mail api status=%d code=%s: %s", e.StatusCode, e.Code, e.Message)
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (l *LogMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Name)
	}
	l.logger.InfoContext(ctx, "mail not sent, no mail transport configured",
		"to", privacy.MaskEmail(msg.To),
		"subject", msg.Subject,
		"attachments", names,
	)
	return nil
}
