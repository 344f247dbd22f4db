// Package mailx sends transactional email (verification and password
// reset links) through Resend, or logs it when no API key is configured.
package mailx

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"

	"github.com/aussiebroadwan/explorer/pkg/slogx"
)

// DefaultFrom is used when no sender address is configured.
const DefaultFrom = "VNLF App Explorer <noreply@vietnamlinuxfamily.net>"

// Message is a rendered email.
type Message struct {
	Template Template
	To       string
	Subject  string
	HTML     string
	Text     string
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Resend delivers through the Resend HTTP API.
type Resend struct {
	client *resend.Client
	from   string
}

var _ Sender = (*Resend)(nil)

func NewResend(apiKey, from string) *Resend {
	if from == "" {
		from = DefaultFrom
	}
	return &Resend{client: resend.NewClient(apiKey), from: from}
}

func (r *Resend) Send(ctx context.Context, msg Message) error {
	sent, err := r.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    r.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("mailx: resend %s: %w", msg.Template, err)
	}

	slogx.FromContext(ctx).Debug("email sent", "template", msg.Template, "resend_id", sent.Id)
	return nil
}

// Log drops messages after logging them. It stands in for Resend in local
// development.
type Log struct {
	Logger *slog.Logger
}

var _ Sender = Log{}

func (l Log) Send(ctx context.Context, msg Message) error {
	logger := l.Logger
	if logger == nil {
		logger = slogx.FromContext(ctx)
	}
	logger.Info("email skipped, no RESEND_API_KEY",
		"template", msg.Template,
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}

// Observer is told about every delivery attempt.
type Observer interface {
	EmailSent(template string, err error)
}

type observed struct {
	Sender
	obs Observer
}

// Observe wraps s so every Send outcome is reported to obs.
func Observe(s Sender, obs Observer) Sender {
	if obs == nil {
		return s
	}
	return observed{Sender: s, obs: obs}
}

func (o observed) Send(ctx context.Context, msg Message) error {
	err := o.Sender.Send(ctx, msg)
	o.obs.EmailSent(string(msg.Template), err)
	return err
}
