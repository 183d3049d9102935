package worker

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/arunvm123/bookstore/config"
	"github.com/arunvm123/bookstore/model"
	"go.uber.org/zap"
)

// Mailer delivers a rendered e-mail
type Mailer interface {
	Send(ctx context.Context, email *model.EmailTemplate) error
}

// NewMailer returns an SMTP mailer when a host is configured and a logging
// mailer otherwise
func NewMailer(cfg config.Email, log *zap.Logger) Mailer {
	if cfg.SMTPHost == "" {
		return NewLogMailer(log)
	}
	return NewSMTPMailer(cfg)
}

// LogMailer writes e-mails to the log instead of sending them
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, email *model.EmailTemplate) error {
	m.log.Info("Mock email sent",
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
		zap.String("body", email.Body),
	)
	return nil
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPMailer struct {
	addr     string
	auth     smtp.Auth
	from     string
	fromName string
	send     sendMailFunc
}

func NewSMTPMailer(cfg config.Email) *SMTPMailer {
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return &SMTPMailer{
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		auth:     auth,
		from:     cfg.FromEmail,
		fromName: cfg.FromName,
		send:     smtp.SendMail,
	}
}

func (m *SMTPMailer) Send(_ context.Context, email *model.EmailTemplate) error {
	if err := m.send(m.addr, m.auth, m.from, []string{email.To}, m.message(email)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", email.To, err)
	}
	return nil
}

func (m *SMTPMailer) message(email *model.EmailTemplate) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", m.fromName, m.from)
	fmt.Fprintf(&b, "To: %s\r\n", email.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", email.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(email.Body, "\n", "\r\n"))
	return []byte(b.String())
}
