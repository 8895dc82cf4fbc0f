package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/eventshow/eventshow/config"
)

// Mailer sends plain-text notification emails.
type Mailer interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	from string
	host string
	port int
	auth smtp.Auth
}

func NewSMTPMailer(cfg *config.EmailConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		from: cfg.From,
		host: cfg.Host,
		port: cfg.Port,
		auth: auth,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	if !strings.Contains(to, "@") {
		return fmt.Errorf("malformed recipient: %s", to)
	}

	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	if err := smtp.SendMail(addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

// NoopMailer drops messages, used when email delivery is disabled.
type NoopMailer struct{}

func (NoopMailer) Send(to, subject, body string) error { return nil }
