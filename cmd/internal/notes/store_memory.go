package notes

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"
)

type noteKey struct{ owner, mobileID string }

// MemoryStore keeps notes in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	notes map[noteKey]Note
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{notes: make(map[noteKey]Note)}
}

func (s *MemoryStore) Insert(ctx context.Context, n Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := noteKey{n.Owner, n.MobileID}
	if _, ok := s.notes[k]; ok {
		return ErrConflict
	}
	s.notes[k] = clone(n)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, owner string) ([]Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Note, 0)
	for k, n := range s.notes {
		if k.owner == owner {
			out = append(out, clone(n))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, owner, mobileID string) (Note, error) {
	if err := ctx.Err(); err != nil {
		return Note{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[noteKey{owner, mobileID}]
	if !ok {
		return Note{}, ErrNotFound
	}
	return clone(n), nil
}

func (s *MemoryStore) Update(ctx context.Context, owner, mobileID string, p Patch, now time.Time) (Note, error) {
	if err := ctx.Err(); err != nil {
		return Note{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := noteKey{owner, mobileID}
	n, ok := s.notes[k]
	if !ok {
		return Note{}, ErrNotFound
	}
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Body != nil {
		n.Body = *p.Body
	}
	if p.Tags != nil {
		n.Tags = slices.Clone(*p.Tags)
	}
	if p.Categories != nil {
		n.Categories = slices.Clone(*p.Categories)
	}
	n.UpdatedAt = now
	s.notes[k] = n
	return clone(n), nil
}

func (s *MemoryStore) Delete(ctx context.Context, owner, mobileID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := noteKey{owner, mobileID}
	if _, ok := s.notes[k]; !ok {
		return ErrNotFound
	}
	delete(s.notes, k)
	return nil
}

func (s *MemoryStore) DeleteAllForOwner(ctx context.Context, owner string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k := range s.notes {
		if k.owner == owner {
			delete(s.notes, k)
			n++
		}
	}
	return n, nil
}

func clone(n Note) Note {
	n.Tags = slices.Clone(n.Tags)
	n.Categories = slices.Clone(n.Categories)
	if n.Tags == nil {
		n.Tags = []string{}
	}
	if n.Categories == nil {
		n.Categories = []string{}
	}
	return n
}
