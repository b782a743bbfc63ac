package communication

import (
	"context"

	"github.com/neurondb/NeuronFlow/internal/engine"
	"github.com/neurondb/NeuronFlow/internal/logging"
)

// LogSender writes messages to the log instead of delivering them
type LogSender struct {
	logger *logging.Logger
}

// NewLogSender creates a log-only sender
func NewLogSender(logger *logging.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Provider returns the provider name
func (l *LogSender) Provider() string { return ProviderLog }

// SendEmail logs the email
func (l *LogSender) SendEmail(ctx context.Context, msg engine.EmailPayload) error {
	l.logger.Info("Email not delivered (log provider)", map[string]interface{}{
		"to":      msg.To,
		"subject": msg.Subject,
	})
	return ctx.Err()
}

// SendSMS logs the SMS
func (l *LogSender) SendSMS(ctx context.Context, msg engine.SmsPayload) error {
	l.logger.Info("SMS not delivered (log provider)", map[string]interface{}{
		"to":     msg.To,
		"length": len(msg.Body),
	})
	return ctx.Err()
}
