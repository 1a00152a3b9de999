package identity

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for development and tests.
// A single mutex makes each method atomic.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]*Account
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]*Account)}
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) FindAccount(ctx context.Context, email string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[email]
	if !ok {
		return Account{}, accountNotFound("identity.FindAccount")
	}
	out := *a
	out.ValidTokens = slices.Clone(a.ValidTokens)
	return out, nil
}

func (s *MemoryStore) AccountExists(ctx context.Context, email string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[email]
	return ok, nil
}

func (s *MemoryStore) CreateAccount(ctx context.Context, a Account) error {
	const op = "identity.CreateAccount"
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.accounts[a.Email]; dup {
		return ConflictError{Op: op, Field: "email"}
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.UpdatedAt = a.CreatedAt
	a.ValidTokens = nil
	s.accounts[a.Email] = &a
	return nil
}

func (s *MemoryStore) UpdatePassword(ctx context.Context, email, salt, hash string, now time.Time) error {
	const op = "identity.UpdatePassword"
	if err := ctx.Err(); err != nil {
		return err
	}
	if salt == "" || hash == "" {
		return invalid(op, "empty credential")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[email]
	if !ok {
		return accountNotFound(op)
	}
	a.PasswordSalt, a.PasswordHash = salt, hash
	a.UpdatedAt = now
	return nil
}

func (s *MemoryStore) DeleteAccount(ctx context.Context, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[email]; !ok {
		return accountNotFound("identity.DeleteAccount")
	}
	delete(s.accounts, email)
	return nil
}

func (s *MemoryStore) AddToken(ctx context.Context, email, token string) error {
	const op = "identity.AddToken"
	if err := ctx.Err(); err != nil {
		return err
	}
	if token == "" {
		return invalid(op, "empty token")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[email]
	if !ok {
		return accountNotFound(op)
	}
	if !slices.Contains(a.ValidTokens, token) {
		a.ValidTokens = append(a.ValidTokens, token)
	}
	return nil
}

func (s *MemoryStore) RemoveToken(ctx context.Context, email, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[email]
	if !ok {
		return accountNotFound("identity.RemoveToken")
	}
	a.ValidTokens = slices.DeleteFunc(a.ValidTokens, func(t string) bool { return t == token })
	return nil
}

func (s *MemoryStore) HasToken(ctx context.Context, email, token string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[email]
	if !ok {
		return false, nil
	}
	return slices.Contains(a.ValidTokens, token), nil
}

// PutAccount inserts or replaces a record verbatim, tokens included.
// Tests use it to seed states CreateAccount cannot produce.
func (s *MemoryStore) PutAccount(a Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ValidTokens = slices.Clone(a.ValidTokens)
	s.accounts[a.Email] = &a
}
