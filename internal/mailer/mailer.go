// Package mailer delivers transactional email (one-time codes) over SMTP.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Message is a multipart text/html email
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends a message
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Config holds SMTP settings
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP sends mail through an SMTP relay with PLAIN auth
type SMTP struct {
	cfg  Config
	send sendFunc
}

// NewSMTP creates an SMTP mailer
func NewSMTP(cfg Config) *SMTP {
	return &SMTP{cfg: cfg, send: smtp.SendMail}
}

// Send delivers msg. The context only short-circuits before dialing;
// net/smtp has no cancellation of its own.
func (m *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, []string{msg.To}, m.build(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

const boundary = "pclub-alternative"

func (m *SMTP) build(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", m.cfg.FromName, m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.Text + "\r\n")

	if msg.HTML != "" {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		b.WriteString(msg.HTML + "\r\n")
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}

// Log writes messages to the logger instead of sending them.
// Used in development when no SMTP credentials are configured.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a logging mailer
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Send(ctx context.Context, msg Message) error {
	l.logger.InfoContext(ctx, "mail not sent (no SMTP credentials)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Text,
	)
	return nil
}
