package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/votetripling/ambassador-api/internal/logger"
)

// ErrNoRecipients is returned when an email has nobody to go to
var ErrNoRecipients = errors.New("no recipients")

// Notifier sends outbound messages to triplers, ambassadors and admins
//
//go:generate mockgen -source=notifier.go -destination=../mocks/notifier.go -package=mocks -mock_names=Notifier=MockNotifier,SMSSender=MockSMSSender,EmailSender=MockEmailSender
type Notifier interface {
	// SendSMS sends a text message to an E.164 phone number
	SendSMS(ctx context.Context, to string, body string) error
	// SendEmail sends an HTML email
	SendEmail(ctx context.Context, recipients []string, subject string, htmlBody string) error
}

// SMSSender is a provider capable of delivering text messages
type SMSSender interface {
	SendSMS(ctx context.Context, to string, body string) error
}

// EmailSender is a provider capable of delivering email
type EmailSender interface {
	SendEmail(ctx context.Context, recipients []string, subject string, htmlBody string) error
}

type notifier struct {
	sms   SMSSender
	email EmailSender
}

// New combines an SMS and an email provider into a Notifier
func New(sms SMSSender, email EmailSender) Notifier {
	return &notifier{sms: sms, email: email}
}

func (n *notifier) SendSMS(ctx context.Context, to string, body string) error {
	if err := n.sms.SendSMS(ctx, to, body); err != nil {
		return fmt.Errorf("failed to send sms: %w", err)
	}
	return nil
}

func (n *notifier) SendEmail(ctx context.Context, recipients []string, subject string, htmlBody string) error {
	if len(recipients) == 0 {
		return ErrNoRecipients
	}
	if err := n.email.SendEmail(ctx, recipients, subject, htmlBody); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them.
// It backs local development when no provider credentials are configured.
type LogSender struct{}

// NewLogSender creates a sender that only logs
func NewLogSender() *LogSender {
	return &LogSender{}
}

func (LogSender) SendSMS(ctx context.Context, to string, body string) error {
	logger.InfoCtx(ctx, "SMS not delivered, no provider configured",
		zap.String("to", to),
		zap.String("body", body))
	return nil
}

func (LogSender) SendEmail(ctx context.Context, recipients []string, subject string, _ string) error {
	logger.InfoCtx(ctx, "Email not delivered, no provider configured",
		zap.Strings("recipients", recipients),
		zap.String("subject", subject))
	return nil
}
