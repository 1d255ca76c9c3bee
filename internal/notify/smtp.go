package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// smtpSender is satisfied by *gomail.Dialer.
type smtpSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPTransport delivers messages through an SMTP relay.
type SMTPTransport struct {
	sender   smtpSender
	from     string
	fromName string
}

// NewSMTPTransport dials host:port with the given credentials for each send.
func NewSMTPTransport(host string, port int, username, password, from, fromName string) *SMTPTransport {
	return &SMTPTransport{
		sender:   gomail.NewDialer(host, port, username, password),
		from:     from,
		fromName: fromName,
	}
}

// Send delivers msg. gomail has no context support, so cancellation is only
// honoured before dialing.
func (s *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.sender.DialAndSend(s.build(msg)); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	return nil
}

func (s *SMTPTransport) build(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	return m
}
