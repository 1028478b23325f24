package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/config"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxRetries = 3

// Transport hands a rendered message to a mail server
type Transport interface {
	Send(ctx context.Context, msg *gomail.Message) error
}

// EmailService renders and sends notification emails
type EmailService interface {
	SendAlert(ctx context.Context, to string, data AlertEmailData) error
	SendDigest(ctx context.Context, to string, data DigestEmailData) error
}

type emailServiceImpl struct {
	cfg       config.SMTPConfig
	transport Transport
	templates *template.Template
	backoff   time.Duration
}

// NewEmailService creates an email service that delivers over SMTP
func NewEmailService(cfg config.SMTPConfig) (EmailService, error) {
	var transport Transport
	if cfg.Host != "" {
		transport = &smtpTransport{dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)}
	}
	return NewEmailServiceWithTransport(cfg, transport)
}

// NewEmailServiceWithTransport creates an email service on top of an arbitrary
// transport. A nil transport turns sends into logged no-ops.
func NewEmailServiceWithTransport(cfg config.SMTPConfig, transport Transport) (EmailService, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &emailServiceImpl{
		cfg:       cfg,
		transport: transport,
		templates: tmpl,
		backoff:   time.Second,
	}, nil
}

// AlertEmailData feeds alert.html
type AlertEmailData struct {
	Title      string
	Message    string
	Category   string
	Priority   string
	Escalation bool
	Test       bool
	Details    map[string]interface{}
	SentAt     string
}

// SendAlert sends a single notification email
func (s *emailServiceImpl) SendAlert(ctx context.Context, to string, data AlertEmailData) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "alert.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	subject := data.Title
	switch {
	case data.Test:
		subject = "[Test] " + subject
	case data.Escalation:
		subject = "[Escalated] " + subject
	}
	return s.sendHTML(ctx, to, subject, body.String())
}

// DigestEmailData feeds digest.html
type DigestEmailData struct {
	Frequency string
	Sections  []DigestSectionData
	Total     int
}

type DigestSectionData struct {
	Category string
	Items    []DigestItemData
}

type DigestItemData struct {
	Title   string
	Message string
	At      string
}

// SendDigest sends one email covering every batched item of a window
func (s *emailServiceImpl) SendDigest(ctx context.Context, to string, data DigestEmailData) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "digest.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	subject := fmt.Sprintf("Your %s AI Cost Guardian digest (%d updates)", data.Frequency, data.Total)
	return s.sendHTML(ctx, to, subject, body.String())
}

func (s *emailServiceImpl) sendHTML(ctx context.Context, to, subject, htmlBody string) error {
	// Skip sending if SMTP is not configured
	if s.transport == nil {
		slog.Warn("SMTP not configured, skipping email send", "to", to, "subject", subject)
		return nil
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.From, s.cfg.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := s.transport.Send(ctx, m)
		if err == nil {
			slog.Info("Email sent successfully", "to", to, "subject", subject, "attempt", attempt)
			return nil
		}

		lastErr = err
		slog.Error("Failed to send email",
			"to", to,
			"subject", subject,
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)

		// Wait before retrying (exponential backoff: 1s, 2s, 4s)
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return fmt.Errorf("email send cancelled after %d attempts: %w", attempt, lastErr)
			case <-time.After(s.backoff << (attempt - 1)):
			}
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}

type smtpTransport struct {
	dialer *gomail.Dialer
}

// Send dials per message. gomail has no context support, so ctx is only
// checked before dialing.
func (t *smtpTransport) Send(ctx context.Context, msg *gomail.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.dialer.DialAndSend(msg)
}
