package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// GenerateAPIKey returns a random key and its bcrypt hash
func GenerateAPIKey() (key, hash string, err error) {
	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate key: %w", err)
	}

	key = base64.URLEncoding.EncodeToString(keyBytes)
	hash, err = HashAPIKey(key)
	if err != nil {
		return "", "", err
	}
	return key, hash, nil
}

// GetKeyPrefix extracts the prefix from an API key
func GetKeyPrefix(key string) string {
	if len(key) < 8 {
		return key
	}
	return key[:8]
}

// HashAPIKey hashes an API key using bcrypt
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash key: %w", err)
	}
	return string(hash), nil
}

// VerifyAPIKey verifies an API key against its hash
func VerifyAPIKey(key, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

// APIKeyVerifier checks presented keys against the configured hashes
type APIKeyVerifier struct {
	hashes []string
}

// NewAPIKeyVerifier creates a verifier over bcrypt hashes
func NewAPIKeyVerifier(hashes []string) *APIKeyVerifier {
	return &APIKeyVerifier{hashes: append([]string(nil), hashes...)}
}

// Verify reports whether key matches any configured hash
func (v *APIKeyVerifier) Verify(key string) bool {
	if v == nil || key == "" {
		return false
	}
	for _, h := range v.hashes {
		if VerifyAPIKey(key, h) {
			return true
		}
	}
	return false
}
