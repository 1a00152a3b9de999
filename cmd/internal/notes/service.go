package notes

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JatinVashisht1/clean-notes-backend/cmd/identity"
	"github.com/JatinVashisht1/clean-notes-backend/cmd/identity/ids"
)

const (
	maxTitleRunes    = 512
	maxBodyBytes     = 256 << 10
	maxMobileIDRunes = 128
	maxLabels        = 64
	maxLabelRunes    = 64
)

// Note is a user's note. MobileID is the client-assigned id the mobile app
// syncs by.
type Note struct {
	ID         string
	Owner      string
	MobileID   string
	Title      string
	Body       string
	Tags       []string
	Categories []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateInput describes a new note.
type CreateInput struct {
	MobileID   string
	Title      string
	Body       string
	Tags       []string
	Categories []string
}

// Service validates note operations for an authenticated owner.
type Service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

type Option func(*Service)

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, ErrInvalidInput
	}
	s := &Service{
		store: store,
		log:   slog.Default(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *Service) Create(ctx context.Context, owner string, in CreateInput) (Note, error) {
	if owner == "" {
		return Note{}, invalid("owner", "required")
	}
	mobileID, err := cleanMobileID(in.MobileID)
	if err != nil {
		return Note{}, err
	}
	title, err := cleanTitle(in.Title)
	if err != nil {
		return Note{}, err
	}
	if len(in.Body) > maxBodyBytes {
		return Note{}, invalid("body", "too long")
	}
	tags, err := cleanLabels("tags", in.Tags)
	if err != nil {
		return Note{}, err
	}
	cats, err := cleanLabels("categories", in.Categories)
	if err != nil {
		return Note{}, err
	}

	now := s.now()
	id, err := ids.NewULID(now)
	if err != nil {
		return Note{}, err
	}
	n := Note{
		ID:         id,
		Owner:      owner,
		MobileID:   mobileID,
		Title:      title,
		Body:       in.Body,
		Tags:       tags,
		Categories: cats,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Insert(ctx, n); err != nil {
		return Note{}, err
	}
	s.log.DebugContext(ctx, "notes.create.ok", "note_id", id)
	return n, nil
}

// List returns the owner's notes, most recently updated first.
func (s *Service) List(ctx context.Context, owner string) ([]Note, error) {
	if owner == "" {
		return nil, invalid("owner", "required")
	}
	return s.store.List(ctx, owner)
}

func (s *Service) Get(ctx context.Context, owner, mobileID string) (Note, error) {
	mobileID, err := cleanMobileID(mobileID)
	if err != nil {
		return Note{}, err
	}
	return s.store.Get(ctx, owner, mobileID)
}

// Update applies a partial update. A blank title is rejected; an empty
// patch returns the note unchanged.
func (s *Service) Update(ctx context.Context, owner, mobileID string, p Patch) (Note, error) {
	mobileID, err := cleanMobileID(mobileID)
	if err != nil {
		return Note{}, err
	}
	if p.Title != nil {
		title, err := cleanTitle(*p.Title)
		if err != nil {
			return Note{}, err
		}
		p.Title = &title
	}
	if p.Body != nil && len(*p.Body) > maxBodyBytes {
		return Note{}, invalid("body", "too long")
	}
	if p.Tags != nil {
		tags, err := cleanLabels("tags", *p.Tags)
		if err != nil {
			return Note{}, err
		}
		p.Tags = &tags
	}
	if p.Categories != nil {
		cats, err := cleanLabels("categories", *p.Categories)
		if err != nil {
			return Note{}, err
		}
		p.Categories = &cats
	}
	if p.empty() {
		return s.store.Get(ctx, owner, mobileID)
	}
	return s.store.Update(ctx, owner, mobileID, p, s.now())
}

func (s *Service) Delete(ctx context.Context, owner, mobileID string) error {
	mobileID, err := cleanMobileID(mobileID)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, owner, mobileID)
}

// DeleteAllForOwner removes every note of owner. Account deletion calls it.
func (s *Service) DeleteAllForOwner(ctx context.Context, owner string) error {
	n, err := s.store.DeleteAllForOwner(ctx, owner)
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "notes.delete_all.ok", "count", n)
	return nil
}

func cleanMobileID(v string) (string, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return "", invalid("noteIdMobile", "required")
	case utf8.RuneCountInString(v) > maxMobileIDRunes:
		return "", invalid("noteIdMobile", "too long")
	}
	return v, nil
}

func cleanTitle(v string) (string, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return "", invalid("title", "must not be blank")
	case utf8.RuneCountInString(v) > maxTitleRunes:
		return "", invalid("title", "too long")
	}
	return v, nil
}

func cleanLabels(field string, in []string) ([]string, error) {
	out := identity.NormalizeTags(in)
	if len(out) > maxLabels {
		return nil, invalid(field, "too many entries")
	}
	for _, l := range out {
		if utf8.RuneCountInString(l) > maxLabelRunes {
			return nil, invalid(field, "entry too long")
		}
	}
	return out, nil
}
