package identity

import (
	"errors"
	"testing"
)

func TestAccountValidate(t *testing.T) {
	base := Account{ID: "01HX", Email: "a@x.com", PasswordSalt: "s", PasswordHash: "h"}

	cases := []struct {
		name    string
		mut     func(*Account)
		wantErr bool
	}{
		{"password account", func(*Account) {}, false},
		{"google account", func(a *Account) { a.FromGoogle, a.PasswordSalt, a.PasswordHash = true, "", "" }, false},
		{"google with credential", func(a *Account) { a.FromGoogle = true }, true},
		{"no credential", func(a *Account) { a.PasswordHash = "" }, true},
		{"missing id", func(a *Account) { a.ID = "" }, true},
		{"untrimmed email", func(a *Account) { a.Email = " a@x.com" }, true},
		{"empty email", func(a *Account) { a.Email = "" }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := base
			tc.mut(&a)
			err := a.Validate()
			if tc.wantErr != (err != nil) {
				t.Fatalf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !IsInvalidInput(err) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAccountPublic(t *testing.T) {
	a := Account{ID: "1", Email: "a@x.com", PasswordSalt: "s", PasswordHash: "h", ValidTokens: []string{"t"}}
	p := a.Public()
	if p.PasswordHash != "" || p.PasswordSalt != "" || p.ValidTokens != nil {
		t.Fatalf("Public leaked secrets: %+v", p)
	}
	if !a.HasToken("t") || a.HasToken("x") {
		t.Fatal("HasToken mismatch")
	}
}

func TestStorageError(t *testing.T) {
	cause := errors.New("connection reset")
	err := StorageError("identity.AddToken", cause)
	if !IsStorage(err) || !errors.Is(err, cause) {
		t.Fatalf("expected storage kind wrapping cause, got %v", err)
	}
	if StorageError("op", nil) != nil {
		t.Fatal("nil in, nil out")
	}
}

func TestNormalize(t *testing.T) {
	if got := NormalizeEmail("  Mixed@Case.com \n"); got != "Mixed@Case.com" {
		t.Fatalf("NormalizeEmail = %q", got)
	}
	got := NormalizeTags([]string{" work ", "", "home", "work"})
	if len(got) != 2 || got[0] != "work" || got[1] != "home" {
		t.Fatalf("NormalizeTags = %v", got)
	}
}
