// Package mail provides outbound email delivery for OTP verification codes.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strings"

	"colloquy/internal/middleware"
)

// Mailer delivers a single HTML email. Registration depends on delivery:
// implementations must return an error on failure rather than retrying or
// deferring, so the caller can abort the request.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPMailer sends mail through a plain-auth SMTP relay.
type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// NewSMTPMailer constructs an SMTPMailer from the given coordinates.
func NewSMTPMailer(host, port, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
	}
}

// Send delivers the message synchronously. A failed dispatch is the
// caller's problem: registration aborts when the OTP cannot be sent.
func (m *SMTPMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	auth := smtp.PlainAuth("", m.Username, m.Password, m.Host)
	addr := fmt.Sprintf("%s:%s", m.Host, m.Port)

	msg := BuildMessage(m.From, to, subject, htmlBody)
	if err := smtp.SendMail(addr, auth, m.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// BuildMessage assembles a single-recipient HTML mail message.
func BuildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("From: Colloquy <" + from + ">\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

// LogMailer logs messages instead of sending them. Used in development
// when no SMTP relay is configured.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	middleware.Logger.InfoContext(ctx, "mail delivery skipped (no SMTP configured)",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", htmlBody),
	)
	return nil
}

var otpTemplate = template.Must(template.New("otp").Parse(
	`<p>Hi there,</p>
<p>Your Colloquy verification code is:<br><strong>{{.Code}}</strong></p>
<p>It is valid for the next {{.Minutes}} minutes. Please return to the app and enter your code.</p>`))

// RenderOTPEmail renders the verification email body for the given code.
func RenderOTPEmail(code string, minutes int) (string, error) {
	var buf bytes.Buffer
	err := otpTemplate.Execute(&buf, map[string]any{
		"Code":    code,
		"Minutes": minutes,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render OTP email: %w", err)
	}
	return buf.String(), nil
}
