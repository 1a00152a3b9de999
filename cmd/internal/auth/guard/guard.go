// Package guard decides, once per protected request, whether the presented
// bearer token is both authentic and still registered for its account.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/JatinVashisht1/clean-notes-backend/cmd/internal/auth/session"
	"github.com/JatinVashisht1/clean-notes-backend/cmd/internal/httpx"
	"github.com/JatinVashisht1/clean-notes-backend/cmd/security/token"
)

// Reason classifies a rejection.
type Reason string

const (
	ReasonMissingToken Reason = "missing_token"
	ReasonInvalidToken Reason = "invalid_token"
	ReasonRevoked      Reason = "revoked"
)

// ErrRejected is matched by every *RejectedError.
var ErrRejected = errors.New("request rejected")

// RejectedError is an unauthenticated outcome. Cause carries the token
// failure kind for logs and is never shown to clients.
type RejectedError struct {
	Reason Reason
	Cause  error
}

func (e *RejectedError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("rejected: %s", e.Reason)
	}
	return fmt.Sprintf("rejected: %s: %v", e.Reason, e.Cause)
}

func (e *RejectedError) Is(target error) bool { return target == ErrRejected }

func (e *RejectedError) Unwrap() error { return e.Cause }

// Principal is the authenticated caller.
type Principal struct {
	Email     string
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// Membership is the revocation lookup the guard consults.
type Membership interface {
	Contains(ctx context.Context, email, tok string) (bool, error)
}

type Guard struct {
	tokens  session.TokenIssuer
	members Membership
	log     *slog.Logger
	rec     session.Recorder
	now     func() time.Time
}

type Option func(*Guard)

func WithLogger(log *slog.Logger) Option {
	return func(g *Guard) {
		if log != nil {
			g.log = log
		}
	}
}

func WithRecorder(rec session.Recorder) Option {
	return func(g *Guard) {
		if rec != nil {
			g.rec = rec
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

func New(tokens session.TokenIssuer, members Membership, opts ...Option) *Guard {
	g := &Guard{
		tokens:  tokens,
		members: members,
		log:     slog.Default(),
		rec:     noRecorder{},
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

type noRecorder struct{}

func (noRecorder) AuthEvent(string, string) {}

// Authorize resolves a bearer token to a Principal. Rejections are
// *RejectedError; any other error is a storage failure.
// It performs no writes.
func (g *Guard) Authorize(ctx context.Context, bearer string) (Principal, error) {
	if bearer == "" {
		return Principal{}, g.reject(ctx, ReasonMissingToken, nil, "")
	}

	claims, err := g.tokens.Verify(bearer, g.now())
	if err != nil {
		return Principal{}, g.reject(ctx, ReasonInvalidToken, err, bearer)
	}

	ok, err := g.members.Contains(ctx, claims.Subject, bearer)
	if err != nil {
		g.rec.AuthEvent("authorize", "error")
		return Principal{}, err
	}
	if !ok {
		return Principal{}, g.reject(ctx, ReasonRevoked, nil, bearer)
	}

	g.rec.AuthEvent("authorize", "ok")
	return Principal{
		Email:     claims.Subject,
		Token:     bearer,
		TokenID:   claims.TokenID,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

func (g *Guard) reject(ctx context.Context, reason Reason, cause error, bearer string) error {
	g.rec.AuthEvent("authorize", string(reason))
	g.log.DebugContext(ctx, "guard.rejected",
		"reason", string(reason),
		"cause", cause,
		"token", token.Fingerprint(bearer),
	)
	return &RejectedError{Reason: reason, Cause: cause}
}

// Middleware authorizes the request before next runs and attaches the
// Principal to its context. Rejections end the request with 401.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := g.Authorize(r.Context(), httpx.BearerToken(r))
		if err != nil {
			var rej *RejectedError
			if errors.As(err, &rej) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="notes"`)
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", rejectionMessage(rej.Reason))
				return
			}
			if errors.Is(err, context.Canceled) {
				return
			}
			g.log.ErrorContext(r.Context(), "guard.authorize.fail", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// Wrap is Middleware for a HandlerFunc.
func (g *Guard) Wrap(next http.HandlerFunc) http.Handler {
	return g.Middleware(next)
}

func rejectionMessage(r Reason) string {
	if r == ReasonMissingToken {
		return "missing bearer token"
	}
	return "invalid or expired token"
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the Principal attached by Middleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
