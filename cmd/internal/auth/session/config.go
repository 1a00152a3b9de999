package session

import (
	"os"
	"strings"
	"time"

	"github.com/JatinVashisht1/clean-notes-backend/cmd/security/token"
)

// Token formats accepted by NOTES_TOKEN_FORMAT.
const (
	FormatJWT    = "jwt"
	FormatPaseto = "paseto"
)

// Config controls token issuance.
type Config struct {
	// Issuer is written to and required in every token.
	Issuer string

	// TokenTTL is the fixed lifetime of issued tokens.
	TokenTTL time.Duration

	// ClockSkew is tolerated on expiry checks. Zero means a token is valid
	// strictly before its expiry.
	ClockSkew time.Duration

	Format string

	// SigningKey is the HS256 secret (FormatJWT).
	SigningKey []byte

	// PasetoV4SecretKeyHex is the hex Ed25519 secret key (FormatPaseto).
	PasetoV4SecretKeyHex string
}

// DefaultConfig returns defaults without key material.
func DefaultConfig() Config {
	return Config{
		Issuer:   "clean-notes",
		TokenTTL: 24 * time.Hour,
		Format:   FormatJWT,
	}
}

// LoadConfigFromEnv loads token configuration.
//
// Required, depending on NOTES_TOKEN_FORMAT (jwt|paseto, default jwt):
//   - NOTES_TOKEN_SIGNING_KEY (jwt, at least 32 bytes)
//   - NOTES_PASETO_V4_SECRET_KEY_HEX (paseto)
//
// Optional:
//   - NOTES_TOKEN_ISSUER
//   - NOTES_TOKEN_TTL
//   - NOTES_TOKEN_CLOCK_SKEW
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("NOTES_TOKEN_ISSUER")); v != "" {
		cfg.Issuer = v
	}
	if v := os.Getenv("NOTES_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.TokenTTL = d
	}
	if v := os.Getenv("NOTES_TOKEN_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 || d > 5*time.Minute {
			return Config{}, ErrConfig
		}
		cfg.ClockSkew = d
	}
	if v := strings.TrimSpace(os.Getenv("NOTES_TOKEN_FORMAT")); v != "" {
		cfg.Format = strings.ToLower(v)
	}

	switch cfg.Format {
	case FormatJWT:
		key, err := token.SigningKeyFromEnv()
		if err != nil {
			return Config{}, ErrConfig
		}
		cfg.SigningKey = key
	case FormatPaseto:
		cfg.PasetoV4SecretKeyHex = strings.TrimSpace(os.Getenv("NOTES_PASETO_V4_SECRET_KEY_HEX"))
		if cfg.PasetoV4SecretKeyHex == "" {
			return Config{}, ErrConfig
		}
	default:
		return Config{}, ErrConfig
	}
	return cfg, nil
}
