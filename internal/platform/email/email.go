package email

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	mail "github.com/go-mail/mail/v2"

	"talenthub/internal/domain/emails"
	"talenthub/internal/platform/config"
)

type noopMailer struct{}

func (noopMailer) Send(ctx context.Context, from, to, subject, body string) error {
	return nil
}

type smtpMailer struct {
	dialer *mail.Dialer
}

// New returns an SMTP mailer, or a mailer that drops everything when email
// is disabled.
func New(cfg config.Config) emails.Mailer {
	if !cfg.EmailEnabled || cfg.SMTPHost == "" {
		return noopMailer{}
	}
	d := mail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	d.Timeout = 10 * time.Second
	d.StartTLSPolicy = mail.OpportunisticStartTLS
	if cfg.SMTPUseTLS {
		d.StartTLSPolicy = mail.MandatoryStartTLS
	}
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.SMTPHost,
		InsecureSkipVerify: cfg.SMTPSkipVerify,
	}
	return &smtpMailer{dialer: d}
}

func (s *smtpMailer) Send(ctx context.Context, from, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.dialer.DialAndSend(buildMessage(from, to, subject, body))
}

func buildMessage(from, to, subject, body string) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	if looksLikeHTML(body) {
		m.SetBody("text/html", body)
	} else {
		m.SetBody("text/plain", body)
	}
	return m
}

func looksLikeHTML(body string) bool {
	trimmed := strings.TrimSpace(strings.ToLower(body))
	return strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") || strings.Contains(trimmed, "</p>")
}
