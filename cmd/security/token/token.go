package token

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
)

const (
	// SigningKeyEnv names the env var holding the HS256 secret.
	// #nosec G101 -- env var name, not a credential.
	SigningKeyEnv = "NOTES_TOKEN_SIGNING_KEY"

	MinSigningKeyBytes = 32

	fingerprintLen = 12
)

// SigningKeyFromEnv reads the signing key from SigningKeyEnv.
func SigningKeyFromEnv() ([]byte, error) {
	return SigningKey(os.Getenv(SigningKeyEnv))
}

// SigningKey trims raw and enforces MinSigningKeyBytes.
func SigningKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrSigningKeyMissing
	}
	if len(raw) < MinSigningKeyBytes {
		return nil, ErrSigningKeyTooShort
	}
	return []byte(raw), nil
}

// Fingerprint returns a short SHA-256 prefix of tok for log correlation.
func Fingerprint(tok string) string {
	if tok == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}
