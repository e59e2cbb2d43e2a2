package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender logs emails instead of sending them. Used in ENV=local.
type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.logger.InfoContext(ctx, "confirmation email (local dev)", "to", to, "subject", subject, "body", body)
	return nil
}

// ResendSender sends emails via the Resend API. Used in staging/production.
type ResendSender struct {
	client *resend.Client
	from   string
}

func (s *ResendSender) Send(ctx context.Context, to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}
	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// NewSender returns a LogSender for ENV=local, ResendSender otherwise.
func NewSender(env, apiKey, from string, logger *slog.Logger) Sender {
	if env == "local" {
		return &LogSender{logger: logger.With("component", "email")}
	}
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

var confirmTmpl = template.Must(template.New("confirm").Parse(
	`<p>Thanks for subscribing to {{.Blog}}!</p>` +
		`<p>Please confirm your subscription (the link expires in {{.ExpiresIn}}):</p>` +
		`<p><a href="{{.Link}}">{{.Link}}</a></p>` +
		`<p>If you did not request this, ignore this email and you will not be subscribed.</p>`,
))

// Confirmation renders the double opt-in email.
func Confirmation(blog, link, expiresIn string) (subject, body string, err error) {
	var buf bytes.Buffer
	data := struct{ Blog, Link, ExpiresIn string }{blog, link, expiresIn}
	if err := confirmTmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render confirmation: %w", err)
	}
	return "Confirm your subscription to " + blog, buf.String(), nil
}
