package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tbourn/go-signup-gate/internal/domain"
	"github.com/tbourn/go-signup-gate/internal/services"
)

// ErrNoRecipients is returned when an email has nobody to go to.
var ErrNoRecipients = errors.New("notify: no recipients")

// Transport delivers a rendered Message.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer implements services.Notifier on top of a Transport.
type Mailer struct {
	Transport Transport
	// Admins receive new-request alerts.
	Admins []string
	// Product names the service in subjects and bodies.
	Product string
}

var _ services.Notifier = (*Mailer)(nil)

// NewMailer returns a Mailer; blank admin addresses are dropped.
func NewMailer(t Transport, product string, admins []string) *Mailer {
	clean := make([]string, 0, len(admins))
	for _, a := range admins {
		if a = strings.TrimSpace(a); a != "" {
			clean = append(clean, a)
		}
	}
	if product == "" {
		product = "our service"
	}
	return &Mailer{Transport: t, Admins: clean, Product: product}
}

// NotifyAdmins sends the review alert for a new request.
func (m *Mailer) NotifyAdmins(ctx context.Context, alert services.AdminAlert) error {
	if len(m.Admins) == 0 {
		return ErrNoRecipients
	}
	rec := alert.Signup
	view := alertView{
		Product:    m.Product,
		Name:       rec.DisplayName(),
		Email:      rec.Email,
		IP:         deref(rec.IPAddress),
		Device:     SummarizeUserAgent(deref(rec.UserAgent)),
		Created:    rec.CreatedAt.UTC().Format(time.RFC1123),
		ApproveURL: alert.ApproveURL,
		RejectURL:  alert.RejectURL,
	}
	text, html, err := render(alertText, alertHTML, view)
	if err != nil {
		return err
	}
	return m.Transport.Send(ctx, Message{
		To:      m.Admins,
		Subject: "New signup request: " + rec.DisplayName(),
		Text:    text,
		HTML:    html,
	})
}

// SendActivation emails the activation link to an approved user.
func (m *Mailer) SendActivation(ctx context.Context, rec domain.Signup, link string) error {
	text, html, err := render(activationText, activationHTML, userView{
		Product: m.Product,
		Greet:   greeting(rec.Name),
		Link:    link,
	})
	if err != nil {
		return err
	}
	return m.Transport.Send(ctx, Message{
		To:      []string{rec.Email},
		Subject: "Your " + m.Product + " account is ready",
		Text:    text,
		HTML:    html,
	})
}

// SendRejection sends the generic rejection email. It never carries a reason.
func (m *Mailer) SendRejection(ctx context.Context, rec domain.Signup) error {
	text, html, err := render(rejectionText, rejectionHTML, userView{
		Product: m.Product,
		Greet:   greeting(rec.Name),
	})
	if err != nil {
		return err
	}
	return m.Transport.Send(ctx, Message{
		To:      []string{rec.Email},
		Subject: "Your " + m.Product + " signup request",
		Text:    text,
		HTML:    html,
	})
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
