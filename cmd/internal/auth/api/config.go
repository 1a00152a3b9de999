package authapi

import (
	"os"
	"strconv"
	"strings"

	"github.com/JatinVashisht1/clean-notes-backend/cmd/internal/httpx"
)

// Config controls request handling for the account endpoints.
type Config struct {
	// TrustProxy makes audit entries use X-Forwarded-For / X-Real-IP.
	TrustProxy   bool
	MaxBodyBytes int64
}

func DefaultConfig() Config {
	return Config{MaxBodyBytes: 64 << 10}
}

// LoadConfigFromEnv reads NOTES_TRUST_PROXY and NOTES_AUTH_MAX_BODY_BYTES.
func LoadConfigFromEnv() Config {
	def := DefaultConfig()
	cfg := Config{
		TrustProxy:   envBool("NOTES_TRUST_PROXY", def.TrustProxy),
		MaxBodyBytes: envInt64("NOTES_AUTH_MAX_BODY_BYTES", def.MaxBodyBytes),
	}
	if cfg.MaxBodyBytes > httpx.DefaultMaxBodyBytes {
		cfg.MaxBodyBytes = httpx.DefaultMaxBodyBytes
	}
	return cfg
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
