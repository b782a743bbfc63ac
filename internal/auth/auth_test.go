package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurondb/NeuronFlow/internal/config"
	"github.com/neurondb/NeuronFlow/internal/response"
)

func TestJWTManager(t *testing.T) {
	_, err := NewJWTManager("", time.Hour)
	assert.ErrorIs(t, err, ErrNoSecret)

	m, err := NewJWTManager("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := m.GenerateToken("operator")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Subject)
	assert.Equal(t, "neuronflow", claims.Issuer)

	other, err := NewJWTManager("other-secret", time.Hour)
	require.NoError(t, err)
	_, err = other.ValidateToken(token)
	assert.Error(t, err)

	expired, err := NewJWTManager("test-secret", time.Nanosecond)
	require.NoError(t, err)
	old, err := expired.GenerateToken("operator")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = m.ValidateToken(old)
	assert.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{header: "Bearer abc", want: "abc"},
		{header: "bearer abc", want: "abc"},
		{header: "abc", want: "abc"},
		{header: "", wantErr: true},
		{header: "Basic a b", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ExtractToken(tt.header)
		if tt.wantErr {
			assert.Error(t, err, tt.header)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestAPIKeyVerifier(t *testing.T) {
	key, hash, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.Equal(t, key[:8], GetKeyPrefix(key))
	assert.Equal(t, "short", GetKeyPrefix("short"))

	v := NewAPIKeyVerifier([]string{hash})
	assert.True(t, v.Verify(key))
	assert.False(t, v.Verify("wrong"))
	assert.False(t, v.Verify(""))

	var nilVerifier *APIKeyVerifier
	assert.False(t, nilVerifier.Verify(key))
}

func protected(t *testing.T, mode string, m *JWTManager, keys *APIKeyVerifier) http.Handler {
	t.Helper()
	mw, err := Middleware(mode, m, keys)
	require.NoError(t, err)
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, _ := GetSubjectFromContext(r.Context())
		w.Header().Set("X-Subject", subject)
		w.Header().Set("X-Method", GetMethodFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}))
}

func serve(h http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareModes(t *testing.T) {
	m, err := NewJWTManager("test-secret", time.Hour)
	require.NoError(t, err)
	token, err := m.GenerateToken("operator")
	require.NoError(t, err)
	key, hash, err := GenerateAPIKey()
	require.NoError(t, err)
	keys := NewAPIKeyVerifier([]string{hash})

	t.Run("none", func(t *testing.T) {
		rec := serve(protected(t, config.AuthModeNone, nil, nil), "/api/v1/node-paths/search", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("jwt", func(t *testing.T) {
		h := protected(t, config.AuthModeJWT, m, nil)

		rec := serve(h, "/api/v1/node-paths/search", map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "operator", rec.Header().Get("X-Subject"))
		assert.Equal(t, MethodJWT, rec.Header().Get("X-Method"))

		rec = serve(h, "/api/v1/node-paths/search", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var body response.Failure
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, response.CodeUnauthorized, body.Code)

		rec = serve(h, "/api/v1/node-paths/ws?token="+token, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = serve(h, "/health", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("api key", func(t *testing.T) {
		h := protected(t, config.AuthModeAPIKey, nil, keys)

		rec := serve(h, "/api/v1/files/a.txt", map[string]string{"X-API-Key": key})
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "api-key:"+GetKeyPrefix(key), rec.Header().Get("X-Subject"))

		rec = serve(h, "/api/v1/files/a.txt", map[string]string{"Authorization": "Bearer " + key})
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = serve(h, "/api/v1/files/a.txt", map[string]string{"X-API-Key": "nope"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("hybrid", func(t *testing.T) {
		h := protected(t, config.AuthModeHybrid, m, keys)

		rec := serve(h, "/api/v1/x", map[string]string{"X-API-Key": key})
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, MethodAPIKey, rec.Header().Get("X-Method"))

		rec = serve(h, "/api/v1/x", map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, MethodJWT, rec.Header().Get("X-Method"))

		rec = serve(h, "/api/v1/x", map[string]string{"X-API-Key": "nope", "Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestMiddlewareConfigErrors(t *testing.T) {
	_, err := Middleware(config.AuthModeJWT, nil, nil)
	assert.ErrorIs(t, err, ErrNoSecret)

	_, err = Middleware("oauth", nil, nil)
	assert.Error(t, err)
}
