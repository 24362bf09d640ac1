package notify

import (
	"context"

	"gopkg.in/gomail.v2"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends plain text mail through an SMTP relay.
type SMTPMailer struct {
	From   string
	dialer dialer
}

// NewSMTPMailer creates a mailer for the given relay.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		From:   from,
		dialer: gomail.NewDialer(host, port, username, password),
	}
}

// SendMail delivers one message. gomail has no context support, so a
// cancelled ctx only stops the wait, not the SMTP session.
func (m *SMTPMailer) SendMail(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(msg) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
