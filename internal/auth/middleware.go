package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/neurondb/NeuronFlow/internal/config"
	"github.com/neurondb/NeuronFlow/internal/response"
)

var publicPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// Middleware authenticates requests according to mode. In hybrid mode an
// X-API-Key header is tried first, then the bearer token.
func Middleware(mode string, jwtManager *JWTManager, keys *APIKeyVerifier) (func(http.Handler) http.Handler, error) {
	switch mode {
	case "", config.AuthModeNone:
		return func(next http.Handler) http.Handler { return next }, nil
	case config.AuthModeJWT, config.AuthModeHybrid:
		if jwtManager == nil {
			return nil, ErrNoSecret
		}
	case config.AuthModeAPIKey:
	default:
		return nil, fmt.Errorf("unknown auth mode %q", mode)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			/* CORS preflight and public endpoints */
			if r.Method == http.MethodOptions || publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			switch mode {
			case config.AuthModeAPIKey:
				if !keys.Verify(apiKeyFrom(r)) {
					unauthorized(w, r, "invalid API key")
					return
				}
				ctx = setMethod(SetSubject(ctx, "api-key:"+GetKeyPrefix(apiKeyFrom(r))), MethodAPIKey)

			case config.AuthModeJWT:
				claims, msg := bearerClaims(r, jwtManager)
				if claims == nil {
					unauthorized(w, r, msg)
					return
				}
				ctx = setMethod(SetClaims(SetSubject(ctx, claims.Subject), claims), MethodJWT)

			case config.AuthModeHybrid:
				if key := r.Header.Get("X-API-Key"); key != "" {
					if !keys.Verify(key) {
						unauthorized(w, r, "invalid API key")
						return
					}
					ctx = setMethod(SetSubject(ctx, "api-key:"+GetKeyPrefix(key)), MethodAPIKey)
					break
				}
				claims, msg := bearerClaims(r, jwtManager)
				if claims == nil {
					unauthorized(w, r, msg)
					return
				}
				ctx = setMethod(SetClaims(SetSubject(ctx, claims.Subject), claims), MethodJWT)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}, nil
}

/* apiKeyFrom reads X-API-Key, falling back to a bearer Authorization header */
func apiKeyFrom(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	key, err := ExtractToken(r.Header.Get("Authorization"))
	if err != nil {
		return ""
	}
	return key
}

func bearerClaims(r *http.Request, m *JWTManager) (*Claims, string) {
	authHeader := r.Header.Get("Authorization")
	/* Browser WebSockets can't set headers; allow ?token= on /ws endpoints */
	if authHeader == "" && strings.HasSuffix(r.URL.Path, "/ws") {
		if token := r.URL.Query().Get("token"); token != "" {
			authHeader = "Bearer " + token
		}
	}
	if authHeader == "" {
		return nil, "missing authorization header"
	}

	tokenString, err := ExtractToken(authHeader)
	if err != nil {
		return nil, err.Error()
	}
	claims, err := m.ValidateToken(tokenString)
	if err != nil {
		return nil, "invalid token"
	}
	return claims, ""
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	response.WriteFailure(w, r, http.StatusUnauthorized, response.CodeUnauthorized, msg, nil)
}
