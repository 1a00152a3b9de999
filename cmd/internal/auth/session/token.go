package session

import (
	"time"
)

// Claims is what a verified token asserts.
type Claims struct {
	Subject   string
	TokenID   string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issued is a freshly minted token.
type Issued struct {
	Token     string
	ExpiresAt time.Time
}

// TokenIssuer mints and checks bearer tokens. Implementations are stateless
// and never touch persistence.
//
// Verify fails with an error wrapping ErrMalformed, ErrBadSignature or
// ErrExpired.
type TokenIssuer interface {
	Issue(subject string, now time.Time) (Issued, error)
	Verify(token string, now time.Time) (Claims, error)
}

// NewTokenIssuer builds the issuer selected by cfg.Format.
func NewTokenIssuer(cfg Config) (TokenIssuer, error) {
	if cfg.TokenTTL <= 0 || cfg.Issuer == "" {
		return nil, ErrConfig
	}
	switch cfg.Format {
	case "", FormatJWT:
		return NewJWTIssuer(cfg)
	case FormatPaseto:
		return NewPasetoV4PublicIssuer(cfg)
	default:
		return nil, ErrConfig
	}
}

func expired(exp, now time.Time, skew time.Duration) bool {
	return !now.Before(exp.Add(skew))
}
