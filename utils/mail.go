package utils

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Mail is a rendered multipart email.
type Mail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

// MailSender delivers a rendered Mail.
type MailSender interface {
	Send(ctx context.Context, m Mail) error
}

type SMTPSettings struct {
	Host     string
	Port     string
	Username string
	Password string
	FromName string
}

// SMTPMailer sends through net/smtp; without credentials it only logs the message.
type SMTPMailer struct {
	settings SMTPSettings
	log      *zap.Logger
}

func NewSMTPMailer(settings SMTPSettings, log *zap.Logger) *SMTPMailer {
	return &SMTPMailer{settings: settings, log: log}
}

func (m *SMTPMailer) configured() bool {
	s := m.settings
	return s.Host != "" && s.Port != "" && s.Username != "" && s.Password != ""
}

func (m *SMTPMailer) Send(ctx context.Context, mail Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.configured() {
		m.log.Info("[MOCK EMAIL]", zap.String("to", MaskEmail(mail.To)), zap.String("subject", mail.Subject))
		return nil
	}

	s := m.settings
	from := fmt.Sprintf("%s <%s>", s.FromName, s.Username)
	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	addr := fmt.Sprintf("%s:%s", s.Host, s.Port)

	if err := smtp.SendMail(addr, auth, s.Username, []string{mail.To}, BuildMIME(from, mail)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", MaskEmail(mail.To), err)
	}
	m.log.Info("email sent", zap.String("to", MaskEmail(mail.To)), zap.String("subject", mail.Subject))
	return nil
}

const mimeBoundary = "----=_HOSTEL_EMAIL_BOUNDARY"

// BuildMIME renders a multipart/alternative message with text and HTML parts.
func BuildMIME(from string, mail Mail) []byte {
	headerSafe := func(s string) string {
		return strings.NewReplacer("\r", " ", "\n", " ").Replace(strings.TrimSpace(s))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", headerSafe(from)))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", headerSafe(mail.To)))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", headerSafe(mail.Subject)))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", mimeBoundary))

	sb.WriteString(fmt.Sprintf("--%s\r\n", mimeBoundary))
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	sb.WriteString(mail.Text + "\r\n")

	sb.WriteString(fmt.Sprintf("--%s\r\n", mimeBoundary))
	sb.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	sb.WriteString(mail.HTML + "\r\n")

	sb.WriteString(fmt.Sprintf("--%s--\r\n", mimeBoundary))
	return []byte(sb.String())
}
