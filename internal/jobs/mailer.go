package jobs

import (
	"fmt"

	"afrimart/internal/config"

	"gopkg.in/gomail.v2"
)

// Mailer dispatches a rendered email. The SMTP provider is responsible for
// delivery idempotency; jobs are processed at-least-once.
type Mailer interface {
	Send(to string, email Email) error
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer builds a Mailer over the configured SMTP transport.
func NewSMTPMailer(cfg *config.SMTPConfig) Mailer {
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *smtpMailer) Send(to string, email Email) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/html", email.Body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
