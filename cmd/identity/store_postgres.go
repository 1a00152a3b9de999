package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL.
//
// The pgx pool is owned by the caller. The token set lives in the
// accounts.valid_tokens TEXT[] column and every mutation is one UPDATE on the
// account row, so the row lock serializes concurrent sign-ins on the same
// account and READ COMMITTED re-evaluates the CASE against the latest array.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the schema holding the accounts table (default "public").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if !PgIdentIsValid(schema) {
			return fmt.Errorf("identity: invalid schema identifier %q", schema)
		}
		s.schema = schema
		return nil
	}
}

func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{pool: pool, schema: "public"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) accounts() string { return PgIdent(s.schema, "accounts") }

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) FindAccount(ctx context.Context, email string) (Account, error) {
	const op = "identity.FindAccount"

	var (
		a          Account
		hash, salt *string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, password_salt, from_google, valid_tokens, created_at, updated_at
		   FROM `+s.accounts()+`
		  WHERE email = $1`,
		email,
	).Scan(&a.ID, &a.Email, &hash, &salt, &a.FromGoogle, &a.ValidTokens, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, accountNotFound(op)
		}
		return Account{}, StorageError(op, err)
	}
	if hash != nil {
		a.PasswordHash = *hash
	}
	if salt != nil {
		a.PasswordSalt = *salt
	}
	return a, nil
}

func (s *PostgresStore) AccountExists(ctx context.Context, email string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+s.accounts()+` WHERE email = $1)`,
		email,
	).Scan(&ok)
	if err != nil {
		return false, StorageError("identity.AccountExists", err)
	}
	return ok, nil
}

func (s *PostgresStore) CreateAccount(ctx context.Context, a Account) error {
	const op = "identity.CreateAccount"
	if err := a.Validate(); err != nil {
		return err
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.accounts()+` (
		     id, email, password_hash, password_salt, from_google, valid_tokens, created_at, updated_at
		   ) VALUES ($1, $2, $3, $4, $5, '{}', $6, $6)`,
		a.ID,
		a.Email,
		pgNullString(a.PasswordHash),
		pgNullString(a.PasswordSalt),
		a.FromGoogle,
		a.CreatedAt,
	)
	if err != nil {
		if field, ok := PgUniqueViolation(err); ok {
			return ConflictError{Op: op, Field: field}
		}
		return StorageError(op, err)
	}
	return nil
}

func (s *PostgresStore) UpdatePassword(ctx context.Context, email, salt, hash string, now time.Time) error {
	const op = "identity.UpdatePassword"
	if salt == "" || hash == "" {
		return invalid(op, "empty credential")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE `+s.accounts()+`
		    SET password_salt = $2, password_hash = $3, updated_at = $4
		  WHERE email = $1`,
		email, salt, hash, now,
	)
	return s.affected(op, tag, err)
}

func (s *PostgresStore) DeleteAccount(ctx context.Context, email string) error {
	const op = "identity.DeleteAccount"
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+s.accounts()+` WHERE email = $1`, email)
	return s.affected(op, tag, err)
}

func (s *PostgresStore) AddToken(ctx context.Context, email, token string) error {
	const op = "identity.AddToken"
	if token == "" {
		return invalid(op, "empty token")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE `+s.accounts()+`
		    SET valid_tokens = CASE
		          WHEN $2 = ANY(valid_tokens) THEN valid_tokens
		          ELSE array_append(COALESCE(valid_tokens, '{}'), $2)
		        END
		  WHERE email = $1`,
		email, token,
	)
	return s.affected(op, tag, err)
}

func (s *PostgresStore) RemoveToken(ctx context.Context, email, token string) error {
	const op = "identity.RemoveToken"
	tag, err := s.pool.Exec(ctx,
		`UPDATE `+s.accounts()+`
		    SET valid_tokens = array_remove(COALESCE(valid_tokens, '{}'), $2)
		  WHERE email = $1`,
		email, token,
	)
	return s.affected(op, tag, err)
}

func (s *PostgresStore) HasToken(ctx context.Context, email, token string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM `+s.accounts()+`
		      WHERE email = $1 AND $2 = ANY(valid_tokens)
		   )`,
		email, token,
	).Scan(&ok)
	if err != nil {
		return false, StorageError("identity.HasToken", err)
	}
	return ok, nil
}

func (s *PostgresStore) affected(op string, tag pgconn.CommandTag, err error) error {
	if err != nil {
		return StorageError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return accountNotFound(op)
	}
	return nil
}

func pgNullString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// PgIdentIsValid checks if s is a plain PostgreSQL identifier.
func PgIdentIsValid(s string) bool {
	return pgIdentRe.MatchString(s)
}

// PgIdent quotes a schema-qualified identifier: "schema"."name".
func PgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

// PgUniqueViolation maps a unique_violation to the logical field it guards.
func PgUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return "", false
	}
	c := strings.ToLower(pgErr.ConstraintName)
	switch {
	case c == "uq_accounts_email" || strings.Contains(c, "email"):
		return "email", true
	case c == "uq_notes_owner_mobile_id" || strings.Contains(c, "mobile"):
		return "note", true
	case strings.HasSuffix(c, "_pkey"):
		return "id", true
	default:
		return "", true
	}
}
