// Package notify renders and delivers the order emails.
package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Sender delivers one HTML message. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends through an authenticated STARTTLS SMTP server.
type SMTPSender struct {
	cfg    SMTPConfig
	logger *zap.Logger
}

func NewSMTPSender(cfg SMTPConfig, logger *zap.Logger) *SMTPSender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPSender{cfg: cfg, logger: logger}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("invalid sender %q: %w", s.cfg.From, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	s.logger.Info("📤 sending email", zap.String("to", to), zap.String("subject", subject))
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogSender only logs messages. Used when SMTP is not configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to, subject, htmlBody string) error {
	s.logger.Info("email not sent, SMTP disabled",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(htmlBody)),
	)
	return nil
}

// Message is a delivered email, as captured by RecordingSender.
type Message struct {
	To      string
	Subject string
	Body    string
}

// RecordingSender keeps every message in memory. Err, when set, is returned
// from Send instead of recording.
type RecordingSender struct {
	mu       sync.Mutex
	messages []Message
	Err      error
}

func (s *RecordingSender) Send(_ context.Context, to, subject, htmlBody string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.messages = append(s.messages, Message{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (s *RecordingSender) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}
