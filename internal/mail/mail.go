package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/startera/internal/config"
	"github.com/startera/internal/domain"
)

const verificationSubject = "Start ERA - Doğrulama Kodunuz"

// SendFunc matches smtp.SendMail
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers verification codes through an SMTP relay.
// smtp.SendMail upgrades to STARTTLS when the server offers it.
type SMTPMailer struct {
	cfg    config.MailConfig
	send   SendFunc
	logger *slog.Logger
}

// NewSMTPMailer creates a mailer for the configured relay
func NewSMTPMailer(cfg config.MailConfig, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail, logger: logger}
}

// SendVerificationCode e-mails the one-time code to the user
func (m *SMTPMailer) SendVerificationCode(ctx context.Context, email, code string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Server, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Server)
	msg := buildMessage(m.cfg.Username, email, code)

	if err := m.send(addr, auth, m.cfg.Username, []string{email}, msg); err != nil {
		m.logger.ErrorContext(ctx, "failed to send verification mail", "email", email, "server", m.cfg.Server, "error", err)
		return fmt.Errorf("failed to send verification mail: %w", err)
	}
	m.logger.InfoContext(ctx, "verification mail sent", "email", email)
	return nil
}

func buildMessage(from, to, code string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", verificationSubject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString("Merhaba,\r\n\r\n")
	fmt.Fprintf(&b, "Start ERA hesabınızı doğrulamak için kodunuz: %s\r\n", code)
	return []byte(b.String())
}

// LogMailer only logs the code; used when no SMTP credentials are configured
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a log-only mailer
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendVerificationCode logs the code instead of sending it
func (m *LogMailer) SendVerificationCode(ctx context.Context, email, code string) error {
	m.logger.WarnContext(ctx, "mail not configured, verification code logged only", "email", email, "code", code)
	return nil
}

// New picks the SMTP mailer when credentials are present
func New(cfg config.MailConfig, logger *slog.Logger) domain.Mailer {
	if cfg.Enabled() {
		return NewSMTPMailer(cfg, logger)
	}
	return NewLogMailer(logger)
}
