package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/JatinVashisht1/clean-notes-backend/cmd/security/token"
)

type jwtIssuer struct {
	issuer    string
	ttl       time.Duration
	clockSkew time.Duration
	key       []byte
}

// NewJWTIssuer builds an HS256 TokenIssuer.
func NewJWTIssuer(cfg Config) (TokenIssuer, error) {
	if len(cfg.SigningKey) < token.MinSigningKeyBytes || cfg.TokenTTL <= 0 || cfg.Issuer == "" {
		return nil, ErrConfig
	}
	key := make([]byte, len(cfg.SigningKey))
	copy(key, cfg.SigningKey)
	return &jwtIssuer{
		issuer:    cfg.Issuer,
		ttl:       cfg.TokenTTL,
		clockSkew: cfg.ClockSkew,
		key:       key,
	}, nil
}

func (m *jwtIssuer) Issue(subject string, now time.Time) (Issued, error) {
	if subject == "" {
		return Issued{}, invalidField("subject", "required")
	}
	claims := jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return Issued{}, fmt.Errorf("session: sign token: %w", err)
	}
	return Issued{Token: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (m *jwtIssuer) Verify(raw string, now time.Time) (Claims, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return m.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return Claims{}, classifyJWTError(err)
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return Claims{}, ErrMalformed
	}

	out := Claims{
		Subject:   claims.Subject,
		TokenID:   claims.ID,
		Issuer:    claims.Issuer,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

// classifyJWTError maps jwt errors onto the three failure kinds. The parser
// checks the signature before claims, so an expired token with a forged
// signature reports ErrBadSignature.
func classifyJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		// Wrong issuer, missing exp, not-yet-valid and similar claim failures.
		return ErrMalformed
	}
}
