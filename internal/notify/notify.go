// Package notify delivers one-time codes out of band over SMS and email.
package notify

import (
	"context"
	"fmt"

	"github.com/labstack/gommon/log"
)

// SMSSender delivers a text message to a phone number in E.164 form.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// EmailSender delivers a multipart email.
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is a single email with plain text and HTML bodies.
type EmailMessage struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// LogSender writes messages to the logger instead of delivering them.
// It stands in for both channels when provider credentials are absent.
type LogSender struct {
	logger *log.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *log.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// SendSMS logs the message.
func (s *LogSender) SendSMS(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	s.logger.Infoj(log.JSON{"channel": "sms", "to": to, "body": body})
	return nil
}

// SendEmail logs the message.
func (s *LogSender) SendEmail(ctx context.Context, msg EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	s.logger.Infoj(log.JSON{"channel": "email", "to": msg.To, "subject": msg.Subject, "body": msg.Text})
	return nil
}
