// Package mailer delivers transactional mail: verification links and password
// reset tokens.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"mingle/internal/config"
	"mingle/internal/observability"
)

// Mailer sends a plain-text message to a single recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// New picks the SMTP mailer when a host is configured, otherwise a
// log-only mailer for local development.
func New(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		return &LogMailer{}
	}
	return &SMTPMailer{
		addr:     cfg.SMTPHost + ":" + cfg.SMTPPort,
		host:     cfg.SMTPHost,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
	}
}

// SMTPMailer delivers mail over SMTP with PLAIN auth.
type SMTPMailer struct {
	addr     string
	host     string
	username string
	password string
	from     string
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	err := smtp.SendMail(m.addr, auth, m.from, []string{to}, []byte(msg.String()))
	if err != nil {
		observability.MailSends.WithLabelValues("failure").Inc()
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	observability.MailSends.WithLabelValues("success").Inc()
	return nil
}

// LogMailer writes the message to the log instead of sending it.
type LogMailer struct{}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	slog.InfoContext(ctx, "mail (log only)", "to", to, "subject", subject, "body", body)
	observability.MailSends.WithLabelValues("logged").Inc()
	return nil
}
