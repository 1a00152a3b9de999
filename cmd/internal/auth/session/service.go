package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/JatinVashisht1/clean-notes-backend/cmd/identity"
	"github.com/JatinVashisht1/clean-notes-backend/cmd/identity/ids"
	"github.com/JatinVashisht1/clean-notes-backend/cmd/internal/httpx"
	"github.com/JatinVashisht1/clean-notes-backend/cmd/security/password"
	"github.com/JatinVashisht1/clean-notes-backend/cmd/security/token"
)

const emailRules = "required,email,max=254"

// Recorder receives auth outcome events, for metrics.
type Recorder interface {
	AuthEvent(event, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) AuthEvent(string, string) {}

// OwnerDataRemover deletes everything an account owns besides the account
// record itself.
type OwnerDataRemover interface {
	DeleteAllForOwner(ctx context.Context, owner string) error
}

// Service orchestrates sign-up, sign-in and sign-out over a credential
// config, a TokenIssuer and a RevocationStore.
type Service struct {
	log      *slog.Logger
	rec      Recorder
	now      func() time.Time
	creds    password.Config
	tokens   TokenIssuer
	accounts identity.AccountStore
	revoked  *RevocationStore
	owned    OwnerDataRemover
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func WithRecorder(rec Recorder) Option {
	return func(s *Service) {
		if rec != nil {
			s.rec = rec
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithOwnerDataRemover makes DeleteAccount also remove owned data.
func WithOwnerDataRemover(r OwnerDataRemover) Option {
	return func(s *Service) { s.owned = r }
}

// NewService wires a Service. store provides both the account records and
// their token sets.
func NewService(creds password.Config, tokens TokenIssuer, store identity.Store, opts ...Option) (*Service, error) {
	if tokens == nil || store == nil {
		return nil, ErrConfig
	}
	s := &Service{
		log:      slog.Default(),
		rec:      nopRecorder{},
		now:      func() time.Time { return time.Now().UTC() },
		creds:    creds,
		tokens:   tokens,
		accounts: store,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.revoked = NewRevocationStore(store, s.log)
	return s, nil
}

// Revocations exposes the store the request guard consults.
func (s *Service) Revocations() *RevocationStore { return s.revoked }

// Tokens exposes the issuer the request guard verifies with.
func (s *Service) Tokens() TokenIssuer { return s.tokens }

// Credentials is an email/password pair as submitted by a client.
type Credentials struct {
	Email    string
	Password string
}

func (c Credentials) normalized() (Credentials, error) {
	c.Email = identity.NormalizeEmail(c.Email)
	if err := validateEmail(c.Email); err != nil {
		return c, err
	}
	if c.Password == "" {
		return c, invalidField("password", "required")
	}
	return c, nil
}

// SignUp creates a password account and returns its first token.
// A duplicate email is identity.ErrConflict and leaves the existing account
// untouched. If the token cannot be registered the new account is removed
// again.
func (s *Service) SignUp(ctx context.Context, in Credentials) (Issued, error) {
	const event = "signup"

	in, err := in.normalized()
	if err != nil {
		s.rec.AuthEvent(event, "invalid")
		return Issued{}, err
	}

	exists, err := s.revoked.Exists(ctx, in.Email)
	if err != nil {
		s.rec.AuthEvent(event, "error")
		return Issued{}, err
	}
	if exists {
		s.rec.AuthEvent(event, "conflict")
		return Issued{}, identity.ConflictError{Op: "session.SignUp", Field: "email"}
	}

	cred, err := s.creds.CreateCredential(in.Password)
	if err != nil {
		if errors.Is(err, password.ErrPolicy) {
			s.rec.AuthEvent(event, "invalid")
			return Issued{}, &ValidationError{Field: "password", Reason: err.Error(), Err: err}
		}
		s.rec.AuthEvent(event, "error")
		return Issued{}, err
	}

	now := s.now()
	id, err := ids.NewULID(now)
	if err != nil {
		s.rec.AuthEvent(event, "error")
		return Issued{}, err
	}
	err = s.accounts.CreateAccount(ctx, identity.Account{
		ID:           id,
		Email:        in.Email,
		PasswordHash: cred.Hash,
		PasswordSalt: cred.Salt,
		CreatedAt:    now,
	})
	if err != nil {
		if identity.IsConflict(err) {
			s.rec.AuthEvent(event, "conflict")
		} else {
			s.rec.AuthEvent(event, "error")
		}
		return Issued{}, err
	}

	issued, err := s.startSession(ctx, in.Email, now)
	if err != nil {
		s.rollbackSignUp(in.Email, err)
		s.rec.AuthEvent(event, "error")
		return Issued{}, err
	}

	s.log.InfoContext(ctx, "session.signup.ok", "account_id", id, "token", token.Fingerprint(issued.Token))
	s.rec.AuthEvent(event, "ok")
	return issued, nil
}

// rollbackSignUp removes an account whose first token could not be
// registered. It runs detached from the request so a cancelled client does
// not strand the account.
func (s *Service) rollbackSignUp(email string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.accounts.DeleteAccount(ctx, email); err != nil && !identity.IsNotFound(err) {
		s.log.Error("session.signup.rollback.fail", "email", email, "cause", cause, "err", err)
		return
	}
	s.log.Warn("session.signup.rolled_back", "email", email, "cause", cause)
}

// SignIn checks the password and returns a new token registered for the
// account. Unknown accounts and wrong passwords both yield
// ErrInvalidCredentials.
func (s *Service) SignIn(ctx context.Context, in Credentials) (Issued, error) {
	const event = "signin"

	in, err := in.normalized()
	if err != nil {
		s.rec.AuthEvent(event, "invalid")
		return Issued{}, err
	}

	acct, err := s.accounts.FindAccount(ctx, in.Email)
	switch {
	case identity.IsNotFound(err):
		s.creds.VerifyDummy(in.Password)
		s.rec.AuthEvent(event, "rejected")
		return Issued{}, ErrInvalidCredentials
	case err != nil:
		s.rec.AuthEvent(event, "error")
		return Issued{}, err
	}

	if acct.FromGoogle {
		s.rec.AuthEvent(event, "google")
		return Issued{}, ErrGoogleAccount
	}
	if !acct.HasPassword() || !s.creds.Verify(in.Password, acct.PasswordSalt, acct.PasswordHash) {
		s.rec.AuthEvent(event, "rejected")
		return Issued{}, ErrInvalidCredentials
	}

	issued, err := s.startSession(ctx, acct.Email, s.now())
	if err != nil {
		s.rec.AuthEvent(event, "error")
		return Issued{}, err
	}
	s.log.InfoContext(ctx, "session.signin.ok", "account_id", acct.ID, "token", token.Fingerprint(issued.Token))
	s.rec.AuthEvent(event, "ok")
	return issued, nil
}

// SignOut revokes exactly the presented token.
func (s *Service) SignOut(ctx context.Context, email, tok string) error {
	const event = "signout"
	if email == "" || tok == "" {
		s.rec.AuthEvent(event, "invalid")
		return invalidField("token", "required")
	}
	if err := s.revoked.Remove(ctx, email, tok); err != nil {
		s.rec.AuthEvent(event, outcome(err))
		return err
	}
	s.log.InfoContext(ctx, "session.signout.ok", "token", token.Fingerprint(tok))
	s.rec.AuthEvent(event, "ok")
	return nil
}

// ChangePassword replaces the credential after checking the current one.
// Tokens already issued stay valid.
func (s *Service) ChangePassword(ctx context.Context, email, current, next string) error {
	const event = "password_change"

	acct, err := s.authenticate(ctx, email, current)
	if err != nil {
		s.rec.AuthEvent(event, outcome(err))
		return err
	}
	if next == "" {
		s.rec.AuthEvent(event, "invalid")
		return invalidField("newPassword", "required")
	}
	cred, err := s.creds.CreateCredential(next)
	if err != nil {
		if errors.Is(err, password.ErrPolicy) {
			s.rec.AuthEvent(event, "invalid")
			return &ValidationError{Field: "newPassword", Reason: err.Error(), Err: err}
		}
		s.rec.AuthEvent(event, "error")
		return err
	}
	if err := s.accounts.UpdatePassword(ctx, acct.Email, cred.Salt, cred.Hash, s.now()); err != nil {
		s.rec.AuthEvent(event, outcome(err))
		return err
	}
	s.log.InfoContext(ctx, "session.password_change.ok", "account_id", acct.ID)
	s.rec.AuthEvent(event, "ok")
	return nil
}

// DeleteAccount checks the password, removes the data the account owns and
// then the account. If owned data cannot be removed the account is kept so
// the call can be retried.
func (s *Service) DeleteAccount(ctx context.Context, email, pw string) error {
	const event = "account_delete"

	acct, err := s.authenticate(ctx, email, pw)
	if err != nil {
		s.rec.AuthEvent(event, outcome(err))
		return err
	}
	if s.owned != nil {
		if err := s.owned.DeleteAllForOwner(ctx, acct.Email); err != nil {
			s.log.ErrorContext(ctx, "session.account_delete.owned_data.fail", "account_id", acct.ID, "err", err)
			s.rec.AuthEvent(event, "error")
			return err
		}
	}
	if err := s.accounts.DeleteAccount(ctx, acct.Email); err != nil {
		s.rec.AuthEvent(event, outcome(err))
		return err
	}
	s.log.InfoContext(ctx, "session.account_delete.ok", "account_id", acct.ID)
	s.rec.AuthEvent(event, "ok")
	return nil
}

// Account returns the caller's account without credential material.
func (s *Service) Account(ctx context.Context, email string) (identity.Account, error) {
	acct, err := s.accounts.FindAccount(ctx, email)
	if err != nil {
		return identity.Account{}, err
	}
	return acct.Public(), nil
}

func (s *Service) authenticate(ctx context.Context, email, pw string) (identity.Account, error) {
	acct, err := s.accounts.FindAccount(ctx, email)
	if err != nil {
		return identity.Account{}, err
	}
	if acct.FromGoogle {
		return identity.Account{}, ErrGoogleAccount
	}
	if pw == "" {
		return identity.Account{}, invalidField("password", "required")
	}
	if !acct.HasPassword() || !s.creds.Verify(pw, acct.PasswordSalt, acct.PasswordHash) {
		return identity.Account{}, ErrInvalidCredentials
	}
	return acct, nil
}

func (s *Service) startSession(ctx context.Context, email string, now time.Time) (Issued, error) {
	issued, err := s.tokens.Issue(email, now)
	if err != nil {
		return Issued{}, err
	}
	if err := s.revoked.Add(ctx, email, issued.Token); err != nil {
		return Issued{}, err
	}
	return issued, nil
}

func validateEmail(email string) error {
	err := httpx.Validator().Var(email, emailRules)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Field: "email", Reason: "not an email address", Err: err}
	}
	switch verrs[0].Tag() {
	case "required":
		return invalidField("email", "required")
	case "max":
		return invalidField("email", "too long")
	default:
		return invalidField("email", "not an email address")
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrGoogleAccount):
		return "rejected"
	case identity.IsNotFound(err):
		return "not_found"
	default:
		return "error"
	}
}
