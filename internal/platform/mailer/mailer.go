package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/go-mail/mail/v2"
	"github.com/rs/zerolog/log"
)

//go:embed templates
var templateFS embed.FS

var notificationTmpl = template.Must(template.ParseFS(templateFS, "templates/notification.tmpl"))

const sendAttempts = 3

// Message is the data rendered into the notification template.
type Message struct {
	To       string
	Username string
	Subject  string
	Body     string
}

// Sender delivers one rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPMailer struct {
	dialer *mail.Dialer
	sender string
}

func NewSMTP(host string, port int, username, password, sender string) *SMTPMailer {
	return &SMTPMailer{
		dialer: mail.NewDialer(host, port, username, password),
		sender: sender,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	rendered, err := Render(msg)
	if err != nil {
		return err
	}

	for i := 0; i < sendAttempts; i++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = m.dialer.DialAndSend(rendered.message(m.sender))
		if err == nil {
			return nil
		}
		log.Warn().Err(err).Int("attempt", i+1).Str("to", msg.To).Msg("email send failed")
	}
	return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
}

// Rendered holds the three template outputs.
type Rendered struct {
	To, Subject, Plain, HTML string
}

func (r Rendered) message(from string) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("To", r.To)
	m.SetHeader("From", from)
	m.SetHeader("Subject", r.Subject)
	m.SetBody("text/plain", r.Plain)
	m.AddAlternative("text/html", r.HTML)
	return m
}

func Render(msg Message) (Rendered, error) {
	var subject, plain, html bytes.Buffer
	if err := notificationTmpl.ExecuteTemplate(&subject, "subject", msg); err != nil {
		return Rendered{}, fmt.Errorf("failed to render subject: %w", err)
	}
	if err := notificationTmpl.ExecuteTemplate(&plain, "plainBody", msg); err != nil {
		return Rendered{}, fmt.Errorf("failed to render plain body: %w", err)
	}
	if err := notificationTmpl.ExecuteTemplate(&html, "htmlBody", msg); err != nil {
		return Rendered{}, fmt.Errorf("failed to render html body: %w", err)
	}
	return Rendered{To: msg.To, Subject: subject.String(), Plain: plain.String(), HTML: html.String()}, nil
}

// LogMailer only logs. It is used when no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	if _, err := Render(msg); err != nil {
		return err
	}
	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("email not sent, SMTP is not configured")
	return nil
}
