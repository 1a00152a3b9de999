package session

import (
	"context"
	"log/slog"

	"github.com/JatinVashisht1/clean-notes-backend/cmd/identity"
	"github.com/JatinVashisht1/clean-notes-backend/cmd/security/token"
)

// TokenSets is what RevocationStore needs from persistence.
type TokenSets interface {
	identity.TokenSetStore
	AccountExists(ctx context.Context, email string) (bool, error)
}

// RevocationStore is the per-account set of currently honored tokens.
//
// Add and Remove report a missing account as identity.ErrNotFound before any
// token change; both rely on the backend's atomic set update, so concurrent
// calls for one account never drop each other's tokens.
type RevocationStore struct {
	sets TokenSets
	log  *slog.Logger
}

func NewRevocationStore(sets TokenSets, log *slog.Logger) *RevocationStore {
	if log == nil {
		log = slog.Default()
	}
	return &RevocationStore{sets: sets, log: log}
}

// Add registers tok for email. The effect is visible to Contains once Add
// returns.
func (r *RevocationStore) Add(ctx context.Context, email, tok string) error {
	if err := r.sets.AddToken(ctx, email, tok); err != nil {
		r.logFailure(ctx, "session.revocation.add", email, tok, err)
		return err
	}
	return nil
}

// Remove drops tok from email's set. Removing an absent token succeeds.
func (r *RevocationStore) Remove(ctx context.Context, email, tok string) error {
	if err := r.sets.RemoveToken(ctx, email, tok); err != nil {
		r.logFailure(ctx, "session.revocation.remove", email, tok, err)
		return err
	}
	return nil
}

// Contains is false, with no error, when the account or its set is absent.
func (r *RevocationStore) Contains(ctx context.Context, email, tok string) (bool, error) {
	ok, err := r.sets.HasToken(ctx, email, tok)
	if err != nil {
		r.logFailure(ctx, "session.revocation.contains", email, tok, err)
		return false, err
	}
	return ok, nil
}

func (r *RevocationStore) Exists(ctx context.Context, email string) (bool, error) {
	return r.sets.AccountExists(ctx, email)
}

func (r *RevocationStore) logFailure(ctx context.Context, msg, email, tok string, err error) {
	if identity.IsNotFound(err) {
		r.log.DebugContext(ctx, msg+".not_found", "email", email, "token", token.Fingerprint(tok))
		return
	}
	r.log.ErrorContext(ctx, msg+".fail", "email", email, "token", token.Fingerprint(tok), "err", err)
}
