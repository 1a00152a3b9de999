package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JatinVashisht1/clean-notes-backend/cmd/identity"
)

const noteColumns = `id, owner_email, mobile_id, title, body, tags, categories, created_at, updated_at`

// PostgresStore implements Store over the notes table.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore binds the store to schema ("public" when empty).
func NewPostgresStore(pool *pgxpool.Pool, schema string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("notes: nil pool")
	}
	schema = strings.TrimSpace(schema)
	if schema == "" {
		schema = "public"
	}
	if !identity.PgIdentIsValid(schema) {
		return nil, fmt.Errorf("notes: invalid schema identifier %q", schema)
	}
	return &PostgresStore{pool: pool, schema: schema}, nil
}

func (s *PostgresStore) table() string { return identity.PgIdent(s.schema, "notes") }

func (s *PostgresStore) Insert(ctx context.Context, n Note) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.table()+` (`+noteColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID, n.Owner, n.MobileID, n.Title, n.Body,
		nonNil(n.Tags), nonNil(n.Categories), n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		if field, ok := identity.PgUniqueViolation(err); ok && field == "note" {
			return ErrConflict
		}
		if pgForeignKeyViolation(err) {
			return ErrNotFound
		}
		return storageErr("notes.Insert", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, owner string) ([]Note, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+noteColumns+`
		   FROM `+s.table()+`
		  WHERE owner_email = $1
		  ORDER BY updated_at DESC, id DESC`,
		owner,
	)
	if err != nil {
		return nil, storageErr("notes.List", err)
	}
	out, err := pgx.CollectRows(rows, scanNote)
	if err != nil {
		return nil, storageErr("notes.List", err)
	}
	if out == nil {
		out = []Note{}
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, owner, mobileID string) (Note, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+noteColumns+`
		   FROM `+s.table()+`
		  WHERE owner_email = $1 AND mobile_id = $2`,
		owner, mobileID,
	)
	if err != nil {
		return Note{}, storageErr("notes.Get", err)
	}
	return collectOne("notes.Get", rows)
}

func (s *PostgresStore) Update(ctx context.Context, owner, mobileID string, p Patch, now time.Time) (Note, error) {
	args := []any{owner, mobileID, now}
	sets := []string{"updated_at = $3"}
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Title != nil {
		set("title", *p.Title)
	}
	if p.Body != nil {
		set("body", *p.Body)
	}
	if p.Tags != nil {
		set("tags", nonNil(*p.Tags))
	}
	if p.Categories != nil {
		set("categories", nonNil(*p.Categories))
	}

	rows, err := s.pool.Query(ctx,
		`UPDATE `+s.table()+`
		    SET `+strings.Join(sets, ", ")+`
		  WHERE owner_email = $1 AND mobile_id = $2
		RETURNING `+noteColumns,
		args...,
	)
	if err != nil {
		return Note{}, storageErr("notes.Update", err)
	}
	return collectOne("notes.Update", rows)
}

func (s *PostgresStore) Delete(ctx context.Context, owner, mobileID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM `+s.table()+` WHERE owner_email = $1 AND mobile_id = $2`,
		owner, mobileID,
	)
	if err != nil {
		return storageErr("notes.Delete", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteAllForOwner(ctx context.Context, owner string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+s.table()+` WHERE owner_email = $1`, owner)
	if err != nil {
		return 0, storageErr("notes.DeleteAllForOwner", err)
	}
	return tag.RowsAffected(), nil
}

func scanNote(row pgx.CollectableRow) (Note, error) {
	var n Note
	err := row.Scan(&n.ID, &n.Owner, &n.MobileID, &n.Title, &n.Body,
		&n.Tags, &n.Categories, &n.CreatedAt, &n.UpdatedAt)
	n.Tags = nonNil(n.Tags)
	n.Categories = nonNil(n.Categories)
	return n, err
}

func collectOne(op string, rows pgx.Rows) (Note, error) {
	n, err := pgx.CollectExactlyOneRow(rows, scanNote)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Note{}, ErrNotFound
		}
		if field, ok := identity.PgUniqueViolation(err); ok && field == "note" {
			return Note{}, ErrConflict
		}
		return Note{}, storageErr(op, err)
	}
	return n, nil
}

func pgForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
