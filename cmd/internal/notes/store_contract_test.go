package notes

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JatinVashisht1/clean-notes-backend/cmd/identity/ids"
)

// storeHarness builds a fresh Store and registers owners the backend may
// need to exist before notes reference them.
type storeHarness struct {
	store     Store
	seedOwner func(t *testing.T, owner string)
}

func runStoreContract(t *testing.T, newHarness func(t *testing.T) storeHarness) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	setup := func(t *testing.T, owners ...string) (Store, context.Context) {
		h := newHarness(t)
		for _, o := range owners {
			if h.seedOwner != nil {
				h.seedOwner(t, o)
			}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		t.Cleanup(cancel)
		return h.store, ctx
	}

	t.Run("InsertAndGet", func(t *testing.T) {
		s, ctx := setup(t, "a@x.com")
		n := newTestNote(t, "a@x.com", "m1", base)

		require.NoError(t, s.Insert(ctx, n))

		got, err := s.Get(ctx, "a@x.com", "m1")
		require.NoError(t, err)
		assert.Equal(t, n.ID, got.ID)
		assert.Equal(t, n.Title, got.Title)
		assert.Equal(t, n.Body, got.Body)
		assert.Equal(t, n.Tags, got.Tags)
		assert.Equal(t, []string{}, got.Categories)
		assert.True(t, n.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", n.CreatedAt, got.CreatedAt)
	})

	t.Run("DuplicateMobileIDConflicts", func(t *testing.T) {
		s, ctx := setup(t, "a@x.com", "b@x.com")
		require.NoError(t, s.Insert(ctx, newTestNote(t, "a@x.com", "m1", base)))

		err := s.Insert(ctx, newTestNote(t, "a@x.com", "m1", base))
		assert.ErrorIs(t, err, ErrConflict)

		// The same mobile id under another owner is a different note.
		require.NoError(t, s.Insert(ctx, newTestNote(t, "b@x.com", "m1", base)))
	})

	t.Run("OwnersAreIsolated", func(t *testing.T) {
		s, ctx := setup(t, "a@x.com", "b@x.com")
		require.NoError(t, s.Insert(ctx, newTestNote(t, "a@x.com", "m1", base)))

		_, err := s.Get(ctx, "b@x.com", "m1")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "b@x.com", "m1"), ErrNotFound)

		list, err := s.List(ctx, "b@x.com")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		s, ctx := setup(t, "a@x.com")
		for i := range 3 {
			n := newTestNote(t, "a@x.com", fmt.Sprintf("m%d", i), base.Add(time.Duration(i)*time.Minute))
			require.NoError(t, s.Insert(ctx, n))
		}

		list, err := s.List(ctx, "a@x.com")
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "m2", list[0].MobileID)
		assert.Equal(t, "m0", list[2].MobileID)
	})

	t.Run("UpdateIsPartial", func(t *testing.T) {
		s, ctx := setup(t, "a@x.com")
		n := newTestNote(t, "a@x.com", "m1", base)
		require.NoError(t, s.Insert(ctx, n))

		title := "renamed"
		tags := []string{"x"}
		later := base.Add(time.Hour)
		got, err := s.Update(ctx, "a@x.com", "m1", Patch{Title: &title, Tags: &tags}, later)
		require.NoError(t, err)
		assert.Equal(t, "renamed", got.Title)
		assert.Equal(t, n.Body, got.Body)
		assert.Equal(t, []string{"x"}, got.Tags)
		assert.True(t, later.Equal(got.UpdatedAt))

		_, err = s.Update(ctx, "a@x.com", "missing", Patch{Title: &title}, later)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DeleteAndDeleteAll", func(t *testing.T) {
		s, ctx := setup(t, "a@x.com", "b@x.com")
		require.NoError(t, s.Insert(ctx, newTestNote(t, "a@x.com", "m1", base)))
		require.NoError(t, s.Insert(ctx, newTestNote(t, "a@x.com", "m2", base)))
		require.NoError(t, s.Insert(ctx, newTestNote(t, "b@x.com", "m1", base)))

		require.NoError(t, s.Delete(ctx, "a@x.com", "m1"))
		assert.ErrorIs(t, s.Delete(ctx, "a@x.com", "m1"), ErrNotFound)

		n, err := s.DeleteAllForOwner(ctx, "a@x.com")
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		list, err := s.List(ctx, "b@x.com")
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("StorageErrorsAreNotKinds", func(t *testing.T) {
		s, ctx := setup(t, "a@x.com")
		_, err := s.Get(ctx, "a@x.com", "nope")
		assert.False(t, errors.Is(err, ErrStorage))
	})
}

func newTestNote(t *testing.T, owner, mobileID string, at time.Time) Note {
	t.Helper()
	id, err := ids.NewULID(at)
	require.NoError(t, err)
	return Note{
		ID:         id,
		Owner:      owner,
		MobileID:   mobileID,
		Title:      "title " + mobileID,
		Body:       "body",
		Tags:       []string{"work"},
		Categories: []string{},
		CreatedAt:  at,
		UpdatedAt:  at,
	}
}
