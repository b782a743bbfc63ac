package communication

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurondb/NeuronFlow/internal/config"
	"github.com/neurondb/NeuronFlow/internal/engine"
	"github.com/neurondb/NeuronFlow/internal/logging"
)

func TestSMTPSender(t *testing.T) {
	_, err := NewSMTPSender(config.SMTPConfig{})
	assert.Error(t, err)

	s, err := NewSMTPSender(config.SMTPConfig{Host: "mail.local", Port: 2525, From: "flow@example.com"})
	require.NoError(t, err)

	var gotAddr string
	var gotTo []string
	var gotMsg string
	s.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	err = s.SendEmail(context.Background(), engine.EmailPayload{
		To:      []string{"a@example.com"},
		Cc:      []string{"b@example.com"},
		Subject: "Hi\r\nBcc: evil@example.com",
		Body:    "body",
	})
	require.NoError(t, err)
	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Hi  Bcc: evil@example.com\r\n")
	assert.True(t, strings.HasSuffix(gotMsg, "\r\n\r\nbody"))

	assert.Error(t, s.SendEmail(context.Background(), engine.EmailPayload{}))
}

func TestWebhookSMSSender(t *testing.T) {
	var got engine.SmsPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		if got.Body == "fail" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s, err := NewWebhookSMSSender(srv.URL, "tok", srv.Client())
	require.NoError(t, err)

	require.NoError(t, s.SendSMS(context.Background(), engine.SmsPayload{To: []string{"+100"}, Body: "hello"}))
	assert.Equal(t, "hello", got.Body)

	assert.Error(t, s.SendSMS(context.Background(), engine.SmsPayload{To: []string{"+100"}, Body: "fail"}))
	assert.Error(t, s.SendSMS(context.Background(), engine.SmsPayload{Body: "nobody"}))
}

func TestLogSender(t *testing.T) {
	l := NewLogSender(logging.Nop())
	assert.Equal(t, ProviderLog, l.Provider())
	assert.NoError(t, l.SendEmail(context.Background(), engine.EmailPayload{To: []string{"x"}}))
	assert.NoError(t, l.SendSMS(context.Background(), engine.SmsPayload{To: []string{"x"}}))
}
