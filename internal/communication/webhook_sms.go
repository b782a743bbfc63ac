package communication

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/neurondb/NeuronFlow/internal/engine"
)

// WebhookSMSSender posts SMS payloads to an HTTP gateway
type WebhookSMSSender struct {
	url    string
	token  string
	client *http.Client
}

// NewWebhookSMSSender creates a webhook SMS sender
func NewWebhookSMSSender(url, token string, client *http.Client) (*WebhookSMSSender, error) {
	if url == "" {
		return nil, fmt.Errorf("SMS webhook sender requires a URL")
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookSMSSender{url: url, token: token, client: client}, nil
}

// Provider returns the provider name
func (w *WebhookSMSSender) Provider() string { return ProviderWebhook }

// SendSMS posts msg as JSON to the gateway
func (w *WebhookSMSSender) SendSMS(ctx context.Context, msg engine.SmsPayload) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("sms has no recipients")
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call SMS gateway: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("SMS gateway returned status %d", resp.StatusCode)
	}
	return nil
}
