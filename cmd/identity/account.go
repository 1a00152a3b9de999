package identity

import (
	"context"
	"slices"
	"time"
)

// Account is the persistent record keyed by Email.
//
// PasswordHash and PasswordSalt are set together and only when FromGoogle is
// false. ValidTokens is the set of bearer tokens still honored for the
// account; order carries no meaning.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	PasswordSalt string
	FromGoogle   bool
	ValidTokens  []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the account carries a password credential.
func (a Account) HasPassword() bool {
	return a.PasswordHash != "" && a.PasswordSalt != ""
}

// HasToken reports whether tok is in the account's token set.
func (a Account) HasToken(tok string) bool {
	return slices.Contains(a.ValidTokens, tok)
}

// Public returns a copy without credential material or tokens.
func (a Account) Public() Account {
	a.PasswordHash = ""
	a.PasswordSalt = ""
	a.ValidTokens = nil
	return a
}

// Validate checks the record invariants stores rely on.
func (a Account) Validate() error {
	const op = "identity.Account.Validate"
	switch {
	case a.ID == "":
		return invalid(op, "missing id")
	case NormalizeEmail(a.Email) == "" || NormalizeEmail(a.Email) != a.Email:
		return invalid(op, "email must be non-empty and trimmed")
	case a.FromGoogle && (a.PasswordHash != "" || a.PasswordSalt != ""):
		return invalid(op, "google account must not carry a password credential")
	case !a.FromGoogle && !a.HasPassword():
		return invalid(op, "password credential required")
	}
	return nil
}

// AccountStore is the account half of the persistence boundary.
// Every method reports a missing account as ErrNotFound, separate from
// ErrStorage transport failures.
type AccountStore interface {
	FindAccount(ctx context.Context, email string) (Account, error)
	AccountExists(ctx context.Context, email string) (bool, error)
	// CreateAccount inserts a with an empty token set. A duplicate email is
	// ErrConflict.
	CreateAccount(ctx context.Context, a Account) error
	UpdatePassword(ctx context.Context, email, salt, hash string, now time.Time) error
	DeleteAccount(ctx context.Context, email string) error
}

// TokenSetStore mutates an account's token set. AddToken and RemoveToken are
// each one atomic update against the account record: concurrent calls on the
// same account never lose each other's effect.
type TokenSetStore interface {
	// AddToken is a set union; adding a present token is a no-op.
	AddToken(ctx context.Context, email, token string) error
	// RemoveToken drops token if present. A missing token is not an error.
	RemoveToken(ctx context.Context, email, token string) error
	// HasToken is false, with no error, when the account does not exist.
	HasToken(ctx context.Context, email, token string) (bool, error)
}

// Store is the full identity persistence boundary.
type Store interface {
	AccountStore
	TokenSetStore
	Ping(ctx context.Context) error
}
