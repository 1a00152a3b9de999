package identity

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JatinVashisht1/clean-notes-backend/cmd/identity/ids"
)

// runStoreContract exercises behavior every Store implementation must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("CreateAndFind", func(t *testing.T) {
		s := newStore(t)
		ctx := testCtx(t)
		a := newTestAccount(t, "Create@Example.com")

		require.NoError(t, s.CreateAccount(ctx, a))

		got, err := s.FindAccount(ctx, a.Email)
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
		assert.Equal(t, a.PasswordHash, got.PasswordHash)
		assert.Equal(t, a.PasswordSalt, got.PasswordSalt)
		assert.False(t, got.FromGoogle)
		assert.Empty(t, got.ValidTokens)

		ok, err := s.AccountExists(ctx, a.Email)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("EmailIsCaseSensitive", func(t *testing.T) {
		s := newStore(t)
		ctx := testCtx(t)
		require.NoError(t, s.CreateAccount(ctx, newTestAccount(t, "case@example.com")))

		ok, err := s.AccountExists(ctx, "CASE@example.com")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("DuplicateEmailConflicts", func(t *testing.T) {
		s := newStore(t)
		ctx := testCtx(t)
		first := newTestAccount(t, "dup@example.com")
		require.NoError(t, s.CreateAccount(ctx, first))
		require.NoError(t, s.AddToken(ctx, first.Email, "t1"))

		err := s.CreateAccount(ctx, newTestAccount(t, "dup@example.com"))
		require.Error(t, err)
		assert.True(t, IsConflict(err), "got %v", err)

		got, err := s.FindAccount(ctx, first.Email)
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)
		assert.Equal(t, []string{"t1"}, got.ValidTokens)
	})

	t.Run("MissingAccount", func(t *testing.T) {
		s := newStore(t)
		ctx := testCtx(t)

		_, err := s.FindAccount(ctx, "nobody@example.com")
		assert.True(t, IsNotFound(err), "FindAccount: %v", err)
		assert.True(t, IsNotFound(s.AddToken(ctx, "nobody@example.com", "t")))
		assert.True(t, IsNotFound(s.RemoveToken(ctx, "nobody@example.com", "t")))
		assert.True(t, IsNotFound(s.DeleteAccount(ctx, "nobody@example.com")))
		assert.True(t, IsNotFound(s.UpdatePassword(ctx, "nobody@example.com", "s", "h", time.Now())))

		ok, err := s.HasToken(ctx, "nobody@example.com", "t")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = s.AccountExists(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("AddIsSetUnion", func(t *testing.T) {
		s := newStore(t)
		ctx := testCtx(t)
		a := newTestAccount(t, "union@example.com")
		require.NoError(t, s.CreateAccount(ctx, a))

		require.NoError(t, s.AddToken(ctx, a.Email, "t1"))
		require.NoError(t, s.AddToken(ctx, a.Email, "t1"))
		require.NoError(t, s.AddToken(ctx, a.Email, "t2"))

		got, err := s.FindAccount(ctx, a.Email)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"t1", "t2"}, got.ValidTokens)
	})

	t.Run("RemoveIsIdempotentAndExact", func(t *testing.T) {
		s := newStore(t)
		ctx := testCtx(t)
		a := newTestAccount(t, "remove@example.com")
		require.NoError(t, s.CreateAccount(ctx, a))
		require.NoError(t, s.AddToken(ctx, a.Email, "keep"))
		require.NoError(t, s.AddToken(ctx, a.Email, "drop"))

		require.NoError(t, s.RemoveToken(ctx, a.Email, "drop"))
		require.NoError(t, s.RemoveToken(ctx, a.Email, "drop"))
		require.NoError(t, s.RemoveToken(ctx, a.Email, "never-added"))

		has, err := s.HasToken(ctx, a.Email, "drop")
		require.NoError(t, err)
		assert.False(t, has)
		has, err = s.HasToken(ctx, a.Email, "keep")
		require.NoError(t, err)
		assert.True(t, has)
	})

	t.Run("ConcurrentAddsAllSurvive", func(t *testing.T) {
		s := newStore(t)
		ctx := testCtx(t)
		a := newTestAccount(t, "race@example.com")
		require.NoError(t, s.CreateAccount(ctx, a))

		const n = 16
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- s.AddToken(ctx, a.Email, fmt.Sprintf("tok-%02d", i))
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		for i := 0; i < n; i++ {
			has, err := s.HasToken(ctx, a.Email, fmt.Sprintf("tok-%02d", i))
			require.NoError(t, err)
			assert.True(t, has, "tok-%02d lost", i)
		}
	})

	t.Run("UpdatePasswordKeepsTokens", func(t *testing.T) {
		s := newStore(t)
		ctx := testCtx(t)
		a := newTestAccount(t, "pw@example.com")
		require.NoError(t, s.CreateAccount(ctx, a))
		require.NoError(t, s.AddToken(ctx, a.Email, "t1"))

		require.NoError(t, s.UpdatePassword(ctx, a.Email, "bmV3LXNhbHQ", "bmV3LWhhc2g", time.Now().UTC()))

		got, err := s.FindAccount(ctx, a.Email)
		require.NoError(t, err)
		assert.Equal(t, "bmV3LXNhbHQ", got.PasswordSalt)
		assert.Equal(t, "bmV3LWhhc2g", got.PasswordHash)
		assert.Equal(t, []string{"t1"}, got.ValidTokens)
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		ctx := testCtx(t)
		a := newTestAccount(t, "delete@example.com")
		require.NoError(t, s.CreateAccount(ctx, a))

		require.NoError(t, s.DeleteAccount(ctx, a.Email))
		ok, err := s.AccountExists(ctx, a.Email)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("RejectsInvalidRecord", func(t *testing.T) {
		s := newStore(t)
		ctx := testCtx(t)
		a := newTestAccount(t, "invalid@example.com")
		a.PasswordHash = ""

		err := s.CreateAccount(ctx, a)
		assert.True(t, IsInvalidInput(err), "got %v", err)
	})
}

func newTestAccount(t *testing.T, email string) Account {
	t.Helper()
	id, err := ids.NewULID(time.Now())
	require.NoError(t, err)
	return Account{
		ID:           id,
		Email:        email,
		PasswordSalt: "c2FsdHNhbHRzYWx0c2FsdA",
		PasswordHash: "aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaA",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	t.Cleanup(cancel)
	return ctx
}
