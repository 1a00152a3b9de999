package notes

import (
	"context"
	"time"
)

// Patch lists the fields an update replaces. Nil means unchanged.
type Patch struct {
	Title      *string
	Body       *string
	Tags       *[]string
	Categories *[]string
}

func (p Patch) empty() bool {
	return p.Title == nil && p.Body == nil && p.Tags == nil && p.Categories == nil
}

// Store is the persistence boundary for notes. Notes are addressed by
// (owner, mobileID); a note never leaks across owners.
type Store interface {
	// Insert fails with ErrConflict when the owner already has mobileID.
	Insert(ctx context.Context, n Note) error
	List(ctx context.Context, owner string) ([]Note, error)
	Get(ctx context.Context, owner, mobileID string) (Note, error)
	Update(ctx context.Context, owner, mobileID string, p Patch, now time.Time) (Note, error)
	Delete(ctx context.Context, owner, mobileID string) error
	DeleteAllForOwner(ctx context.Context, owner string) (int64, error)
}
