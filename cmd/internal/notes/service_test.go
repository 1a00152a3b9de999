package notes

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *time.Time) {
	t.Helper()
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	svc, err := NewService(NewMemoryStore(), WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return svc, &now
}

func TestNewService_RequiresStore(t *testing.T) {
	_, err := NewService(nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_CreateNormalizesInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	n, err := svc.Create(ctx, "a@x.com", CreateInput{
		MobileID:   "  m1 ",
		Title:      "  Groceries ",
		Body:       "milk",
		Tags:       []string{" home", "home", ""},
		Categories: nil,
	})
	require.NoError(t, err)
	assert.Len(t, n.ID, 26)
	assert.Equal(t, "m1", n.MobileID)
	assert.Equal(t, "Groceries", n.Title)
	assert.Equal(t, []string{"home"}, n.Tags)
	assert.Equal(t, []string{}, n.Categories)

	got, err := svc.Get(ctx, "a@x.com", "m1")
	require.NoError(t, err)
	assert.Equal(t, n.ID, got.ID)
}

func TestService_CreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := map[string]struct {
		owner string
		in    CreateInput
		field string
	}{
		"missing owner":  {"", CreateInput{MobileID: "m", Title: "t"}, "owner"},
		"missing mobile": {"a@x.com", CreateInput{Title: "t"}, "noteIdMobile"},
		"blank title":    {"a@x.com", CreateInput{MobileID: "m", Title: "   "}, "title"},
		"huge body":      {"a@x.com", CreateInput{MobileID: "m", Title: "t", Body: strings.Repeat("x", maxBodyBytes+1)}, "body"},
		"long tag":       {"a@x.com", CreateInput{MobileID: "m", Title: "t", Tags: []string{strings.Repeat("t", maxLabelRunes+1)}}, "tags"},
		"long mobile id": {"a@x.com", CreateInput{MobileID: strings.Repeat("m", maxMobileIDRunes+1), Title: "t"}, "noteIdMobile"},
		"long title":     {"a@x.com", CreateInput{MobileID: "m", Title: strings.Repeat("t", maxTitleRunes+1)}, "title"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.owner, tc.in)
			require.ErrorIs(t, err, ErrInvalidInput)
			var fe *FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tc.field, fe.Field)
		})
	}
}

func TestService_CreateDuplicateConflicts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "a@x.com", CreateInput{MobileID: "m1", Title: "one"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "a@x.com", CreateInput{MobileID: "m1", Title: "two"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestService_UpdateFlow(t *testing.T) {
	svc, now := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "a@x.com", CreateInput{MobileID: "m1", Title: "one", Body: "b"})
	require.NoError(t, err)

	*now = now.Add(time.Minute)
	body := "edited"
	n, err := svc.Update(ctx, "a@x.com", "m1", Patch{Body: &body})
	require.NoError(t, err)
	assert.Equal(t, "one", n.Title)
	assert.Equal(t, "edited", n.Body)
	assert.True(t, n.UpdatedAt.After(n.CreatedAt))

	blank := " "
	_, err = svc.Update(ctx, "a@x.com", "m1", Patch{Title: &blank})
	assert.ErrorIs(t, err, ErrInvalidInput)

	same, err := svc.Update(ctx, "a@x.com", "m1", Patch{})
	require.NoError(t, err)
	assert.Equal(t, n.UpdatedAt, same.UpdatedAt)

	_, err = svc.Update(ctx, "b@x.com", "m1", Patch{Body: &body})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_ListAndDelete(t *testing.T) {
	svc, now := newTestService(t)
	ctx := context.Background()

	for _, id := range []string{"m1", "m2"} {
		_, err := svc.Create(ctx, "a@x.com", CreateInput{MobileID: id, Title: id})
		require.NoError(t, err)
		*now = now.Add(time.Second)
	}

	list, err := svc.List(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "m2", list[0].MobileID)

	require.NoError(t, svc.Delete(ctx, "a@x.com", "m2"))
	assert.ErrorIs(t, svc.Delete(ctx, "a@x.com", "m2"), ErrNotFound)

	require.NoError(t, svc.DeleteAllForOwner(ctx, "a@x.com"))
	list, err = svc.List(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Empty(t, list)
}
