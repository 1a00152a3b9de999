package session

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

func testJWTConfig() Config {
	cfg := DefaultConfig()
	cfg.SigningKey = []byte(strings.Repeat("k", 32))
	return cfg
}

func testPasetoConfig() Config {
	cfg := DefaultConfig()
	cfg.Format = FormatPaseto
	cfg.PasetoV4SecretKeyHex = paseto.NewV4AsymmetricSecretKey().ExportHex()
	return cfg
}

func issuers(t *testing.T) map[string]TokenIssuer {
	t.Helper()
	out := make(map[string]TokenIssuer)
	for name, cfg := range map[string]Config{"jwt": testJWTConfig(), "paseto": testPasetoConfig()} {
		iss, err := NewTokenIssuer(cfg)
		if err != nil {
			t.Fatalf("NewTokenIssuer(%s): %v", name, err)
		}
		out[name] = iss
	}
	return out
}

func TestTokenIssuer_ValidUntilExpiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for name, iss := range issuers(t) {
		t.Run(name, func(t *testing.T) {
			issued, err := iss.Issue("a@x.com", now)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			if want := now.Add(24 * time.Hour); !issued.ExpiresAt.Equal(want) {
				t.Fatalf("ExpiresAt = %v, want %v", issued.ExpiresAt, want)
			}

			for _, at := range []time.Time{now, now.Add(time.Hour), issued.ExpiresAt.Add(-time.Second)} {
				claims, err := iss.Verify(issued.Token, at)
				if err != nil {
					t.Fatalf("Verify at %v: %v", at, err)
				}
				if claims.Subject != "a@x.com" || claims.TokenID == "" {
					t.Fatalf("unexpected claims %+v", claims)
				}
			}

			for _, at := range []time.Time{issued.ExpiresAt, issued.ExpiresAt.Add(time.Hour)} {
				_, err := iss.Verify(issued.Token, at)
				if !errors.Is(err, ErrExpired) || !errors.Is(err, ErrInvalidToken) {
					t.Fatalf("Verify at %v: expected ErrExpired, got %v", at, err)
				}
			}
		})
	}
}

func TestTokenIssuer_DistinctTokensSameSecond(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for name, iss := range issuers(t) {
		t.Run(name, func(t *testing.T) {
			a, err := iss.Issue("a@x.com", now)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			b, err := iss.Issue("a@x.com", now)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			if a.Token == b.Token {
				t.Fatal("two tokens issued in the same second must differ")
			}
		})
	}
}

func TestTokenIssuer_Malformed(t *testing.T) {
	now := time.Now()
	for name, iss := range issuers(t) {
		t.Run(name, func(t *testing.T) {
			for _, raw := range []string{"", "garbage", "a.b.c", "v4.public.%%%"} {
				if _, err := iss.Verify(raw, now); !errors.Is(err, ErrMalformed) {
					t.Fatalf("Verify(%q): expected ErrMalformed, got %v", raw, err)
				}
			}
		})
	}
}

func TestTokenIssuer_BadSignature(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	cases := map[string][2]Config{
		"jwt":    {testJWTConfig(), func() Config { c := testJWTConfig(); c.SigningKey = []byte(strings.Repeat("x", 32)); return c }()},
		"paseto": {testPasetoConfig(), testPasetoConfig()},
	}
	for name, pair := range cases {
		t.Run(name, func(t *testing.T) {
			signer, err := NewTokenIssuer(pair[0])
			if err != nil {
				t.Fatalf("signer: %v", err)
			}
			other, err := NewTokenIssuer(pair[1])
			if err != nil {
				t.Fatalf("other: %v", err)
			}

			issued, err := signer.Issue("a@x.com", now)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			if _, err := other.Verify(issued.Token, now); !errors.Is(err, ErrBadSignature) {
				t.Fatalf("expected ErrBadSignature, got %v", err)
			}

			// Forged and expired still reports the signature.
			if _, err := other.Verify(issued.Token, now.Add(48*time.Hour)); !errors.Is(err, ErrBadSignature) {
				t.Fatalf("expected ErrBadSignature for expired forgery, got %v", err)
			}
		})
	}
}

func TestJWTIssuer_TamperedPayload(t *testing.T) {
	iss, err := NewTokenIssuer(testJWTConfig())
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	now := time.Now()
	a, _ := iss.Issue("a@x.com", now)
	b, _ := iss.Issue("b@x.com", now)

	pa := strings.Split(a.Token, ".")
	pb := strings.Split(b.Token, ".")
	forged := pa[0] + "." + pb[1] + "." + pa[2]

	if _, err := iss.Verify(forged, now); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestJWTIssuer_WrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	other := cfg
	other.Issuer = "someone-else"

	a, _ := NewTokenIssuer(cfg)
	b, _ := NewTokenIssuer(other)

	now := time.Now()
	issued, err := b.Issue("a@x.com", now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := a.Verify(issued.Token, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestNewTokenIssuer_Config(t *testing.T) {
	short := testJWTConfig()
	short.SigningKey = []byte("short")
	if _, err := NewTokenIssuer(short); !errors.Is(err, ErrConfig) {
		t.Fatalf("short key: expected ErrConfig, got %v", err)
	}

	badHex := testPasetoConfig()
	badHex.PasetoV4SecretKeyHex = "zz"
	if _, err := NewTokenIssuer(badHex); !errors.Is(err, ErrConfig) {
		t.Fatalf("bad hex: expected ErrConfig, got %v", err)
	}

	unknown := testJWTConfig()
	unknown.Format = "opaque"
	if _, err := NewTokenIssuer(unknown); !errors.Is(err, ErrConfig) {
		t.Fatalf("unknown format: expected ErrConfig, got %v", err)
	}

	noTTL := testJWTConfig()
	noTTL.TokenTTL = 0
	if _, err := NewTokenIssuer(noTTL); !errors.Is(err, ErrConfig) {
		t.Fatalf("zero ttl: expected ErrConfig, got %v", err)
	}
}

func TestIssue_EmptySubject(t *testing.T) {
	for name, iss := range issuers(t) {
		if _, err := iss.Issue("", time.Now()); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", name, err)
		}
	}
}

func TestPasetoIssuer_SignedGarbageIsMalformed(t *testing.T) {
	cfg := testPasetoConfig()
	iss, err := NewTokenIssuer(cfg)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	secret, err := hex.DecodeString(cfg.PasetoV4SecretKeyHex)
	if err != nil || len(secret) != ed25519.PrivateKeySize {
		t.Fatalf("secret key: %v", err)
	}

	msg := []byte("claims that are not json")
	sig := ed25519.Sign(ed25519.PrivateKey(secret), pae([]byte(pasetoV4PublicHeader), msg, nil, nil))
	raw := pasetoV4PublicHeader + base64.RawURLEncoding.EncodeToString(append(msg, sig...))

	if _, err := iss.Verify(raw, time.Now()); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}

	other, err := NewTokenIssuer(testPasetoConfig())
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	if _, err := other.Verify(raw, time.Now()); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature under another key, got %v", err)
	}
}

func TestPasetoIssuer_SignatureCheckMatchesLibrary(t *testing.T) {
	iss, err := NewTokenIssuer(testPasetoConfig())
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	issued, err := iss.Issue("a@x.com", time.Now())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	p := iss.(*pasetoV4PublicIssuer)
	if !p.signatureValid(issued.Token) {
		t.Fatal("library-signed token failed the signature check")
	}
	altered := []byte(issued.Token)
	i := len(pasetoV4PublicHeader) + 5
	if altered[i] == 'A' {
		altered[i] = 'B'
	} else {
		altered[i] = 'A'
	}
	if p.signatureValid(string(altered)) {
		t.Fatal("altered token passed the signature check")
	}
}
