package communication

import (
	"context"

	"github.com/neurondb/NeuronFlow/internal/engine"
)

// Provider names
const (
	ProviderSMTP    = "SMTP"
	ProviderWebhook = "Webhook"
	ProviderLog     = "Log"
)

// EmailSender delivers SendEmail action payloads
type EmailSender interface {
	SendEmail(ctx context.Context, msg engine.EmailPayload) error
	Provider() string
}

// SMSSender delivers SendSms action payloads
type SMSSender interface {
	SendSMS(ctx context.Context, msg engine.SmsPayload) error
	Provider() string
}
