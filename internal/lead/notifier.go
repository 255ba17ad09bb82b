package lead

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/evcraddock/biens/internal/email"
)

// ErrUndelivered is returned when no notifier accepted a lead.
var ErrUndelivered = errors.New("lead not delivered")

// Notifier delivers a lead to the agency.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, l *Lead) error
}

// MailNotifier emails leads to the agency mailbox.
type MailNotifier struct {
	smtp    email.SMTPConfig
	to      []string
	devMode bool
	send    func(email.SMTPConfig, email.Message) error
}

// NewMailNotifier creates a notifier that mails leads to the given
// addresses. In dev mode, messages are logged instead of sent.
func NewMailNotifier(cfg email.SMTPConfig, to []string, devMode bool) *MailNotifier {
	return &MailNotifier{smtp: cfg, to: to, devMode: devMode, send: email.Send}
}

// Name implements Notifier.
func (m *MailNotifier) Name() string { return "mail" }

// Notify implements Notifier.
func (m *MailNotifier) Notify(_ context.Context, l *Lead) error {
	msg := email.Message{
		To:      m.to,
		ReplyTo: l.ReplyTo,
		Subject: l.Subject,
		Body:    l.Body,
	}

	if m.devMode {
		slog.Info("lead email (dev mode, not sent)",
			"kind", l.Kind,
			"to", m.to,
			"subject", l.Subject,
			"reply_to", l.ReplyTo,
		)
		return nil
	}

	if len(m.to) == 0 {
		return fmt.Errorf("no agency address configured")
	}
	if err := m.send(m.smtp, msg); err != nil {
		return fmt.Errorf("mailing %s lead: %w", l.Kind, err)
	}
	return nil
}

// Relay hands each lead to every notifier.
type Relay struct {
	notifiers []Notifier
}

// NewRelay creates a relay over the given notifiers.
func NewRelay(notifiers ...Notifier) *Relay {
	return &Relay{notifiers: notifiers}
}

// Dispatch delivers l through all notifiers. It succeeds if at least one
// notifier accepted the lead; failures of the others are logged.
func (r *Relay) Dispatch(ctx context.Context, l *Lead) error {
	if len(r.notifiers) == 0 {
		return fmt.Errorf("%w: no notifiers configured", ErrUndelivered)
	}

	var errs []error
	for _, n := range r.notifiers {
		if err := n.Notify(ctx, l); err != nil {
			slog.Error("lead notification failed", "notifier", n.Name(), "kind", l.Kind, "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) == len(r.notifiers) {
		return fmt.Errorf("%w: %w", ErrUndelivered, errors.Join(errs...))
	}
	return nil
}
