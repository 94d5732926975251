// Package notify delivers change notifications for committed changelog
// entries.
//
// The engine hands the notifier a raw store.Entry; all human-readable
// formatting lives here. Delivery failures are reported to the caller but
// the run orchestrator deliberately does not fail a run over them - the
// change is already durably committed by the time notification happens.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/roach88/listwatch/internal/store"
)

// SMTPOptions configures mail delivery.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	// SourceURL is the publisher page, linked in the message footer.
	SourceURL string
}

// Configured reports whether the options carry enough to deliver mail.
func (o SMTPOptions) Configured() bool {
	return o.Host != "" && o.Username != "" && o.Password != "" && len(o.To) > 0
}

// Mailer sends change summaries over SMTP with STARTTLS.
type Mailer struct {
	opts SMTPOptions

	// send is swapped out in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailer creates a Mailer. Callers should check SMTPOptions.Configured
// first and skip attaching a notifier when mail is not set up.
func NewMailer(opts SMTPOptions) *Mailer {
	if opts.From == "" {
		opts.From = opts.Username
	}
	return &Mailer{opts: opts, send: smtp.SendMail}
}

// Notify implements run.Notifier: render the entry and deliver it.
func (m *Mailer) Notify(ctx context.Context, entry store.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := m.message(entry)
	addr := fmt.Sprintf("%s:%d", m.opts.Host, m.opts.Port)
	auth := smtp.PlainAuth("", m.opts.Username, m.opts.Password, m.opts.Host)

	if err := m.send(addr, auth, m.opts.From, m.opts.To, msg); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

// message assembles the full RFC 5322 message with an HTML body.
func (m *Mailer) message(entry store.Entry) []byte {
	subject := fmt.Sprintf("Zmiana na liście sankcyjnej - %s", entry.Timestamp.UTC().Format("2006-01-02"))

	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", m.opts.From)
	fmt.Fprintf(&sb, "To: %s\r\n", strings.Join(m.opts.To, ", "))
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(RenderHTML(entry, m.opts.SourceURL))
	return []byte(sb.String())
}
