// Package mailer sends transactional email to the platform admin.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"linkmart/internal/config"
)

// Notifier delivers a plain-text message to the admin mailbox.
type Notifier interface {
	NotifyAdmin(ctx context.Context, subject, body string) error
}

func New(cfg *config.MailConfig) Notifier {
	if !cfg.Enabled || cfg.Host == "" || cfg.AdminEmail == "" {
		return Nop{}
	}
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail}
}

type Nop struct{}

func (Nop) NotifyAdmin(context.Context, string, string) error { return nil }

type SMTPNotifier struct {
	cfg  *config.MailConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (n *SMTPNotifier) NotifyAdmin(ctx context.Context, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	from := n.cfg.Username
	if from == "" {
		from = n.cfg.AdminEmail
	}
	msg := buildMessage(from, n.cfg.AdminEmail, subject, body)

	done := make(chan error, 1)
	go func() {
		done <- n.send(addr, auth, from, []string{n.cfg.AdminEmail}, msg)
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send admin mail: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + strings.ReplaceAll(subject, "\n", " ") + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
