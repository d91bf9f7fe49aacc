package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/studyhub/studyhub-api/internal/config"
)

var (
	//go:embed templates/*.html
	emailTemplates embed.FS

	confirmTemplate  = template.Must(template.New("deletion_confirm.html").ParseFS(emailTemplates, "templates/deletion_confirm.html"))
	reminderTemplate = template.Must(template.New("deletion_reminder.html").ParseFS(emailTemplates, "templates/deletion_reminder.html"))
)

// Mailer sends a rendered HTML message. The SMTP client is the production
// implementation; tests swap in Capture.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

var active Mailer = &noop{}

func Use(m Mailer) {
	active = m
}

func Send(to, subject, htmlBody string) error {
	return active.Send(to, subject, htmlBody)
}

type noop struct{}

func (n *noop) Send(to, subject, htmlBody string) error { return nil }

type SMTPClient struct {
	cfg *config.Config
}

func NewSMTPClient(cfg *config.Config) *SMTPClient {
	return &SMTPClient{cfg: cfg}
}

func (s *SMTPClient) Send(to, subject, htmlBody string) error {
	if s.cfg.SMTPHost == "" {
		return fmt.Errorf("smtp host is not configured")
	}

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.cfg.SMTPFrom, to, subject, htmlBody,
	)

	if s.cfg.SMTPUsername == "" && s.cfg.SMTPPassword == "" {
		return smtp.SendMail(addr, nil, s.cfg.SMTPFrom, []string{to}, []byte(msg))
	}

	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	return smtp.SendMail(addr, auth, s.cfg.SMTPFrom, []string{to}, []byte(msg))
}

type ConfirmEmailData struct {
	Name       string
	ConfirmURL string
	ExpiresAt  time.Time
}

type ReminderEmailData struct {
	Name        string
	ScheduledAt time.Time
	CancelURL   string
}

// RenderDeletionConfirm renders the "confirm your deletion request" email.
func RenderDeletionConfirm(data ConfirmEmailData) (string, error) {
	var buf bytes.Buffer
	if err := confirmTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render deletion confirm template: %w", err)
	}
	return buf.String(), nil
}

// RenderDeletionReminder renders the pre-deletion reminder. Pure: no
// network, no persistence.
func RenderDeletionReminder(data ReminderEmailData) (string, error) {
	var buf bytes.Buffer
	if err := reminderTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render deletion reminder template: %w", err)
	}
	return buf.String(), nil
}
