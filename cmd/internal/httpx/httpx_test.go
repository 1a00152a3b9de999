package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"":                   "",
		"Bearer":             "",
		"Basic abc":          "",
		"Bearer abc.def":     "abc.def",
		"bearer   abc.def  ": "abc.def",
		"  BEARER abc.def":   "abc.def",
		"Bearerabc":          "",
	}
	for header, want := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		if got := BearerToken(r); got != want {
			t.Fatalf("BearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	if got := ClientIP(r, false).String(); got != "10.0.0.1" {
		t.Fatalf("untrusted proxy: got %s", got)
	}
	if got := ClientIP(r, true).String(); got != "203.0.113.7" {
		t.Fatalf("trusted proxy: got %s", got)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Email string `json:"email"`
	}

	cases := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"ok", `{"email":"a@x.com"}`, false},
		{"unknown field", `{"email":"a@x.com","admin":true}`, true},
		{"trailing data", `{"email":"a@x.com"}{}`, true},
		{"empty", ``, true},
		{"too large", `{"email":"` + strings.Repeat("a", 200) + `"}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			var dst payload
			err := DecodeJSON(w, r, 64, &dst)
			if tc.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, http.StatusConflict, "conflict", "already exists")

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content-type = %q", ct)
	}
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Error.Code != "conflict" || body.Error.Message != "already exists" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestValidateStruct(t *testing.T) {
	type req struct {
		Email       string `json:"email" validate:"required,max=10"`
		Password    string `json:"password" validate:"required"`
		NewPassword string `json:"newPassword" validate:"omitempty,nefield=Password"`
	}

	cases := []struct {
		in   req
		want string
	}{
		{req{Email: "a@x.com", Password: "p"}, ""},
		{req{Password: "p"}, "email is required"},
		{req{Email: "a@x.com"}, "password is required"},
		{req{Email: "a-very-long@x.com", Password: "p"}, "email cannot be longer than 10"},
		{req{Email: "a@x.com", Password: "p", NewPassword: "p"}, "newPassword must differ from password"},
	}
	for _, tc := range cases {
		err := ValidateStruct(tc.in)
		switch {
		case tc.want == "" && err != nil:
			t.Fatalf("ValidateStruct(%+v) = %v", tc.in, err)
		case tc.want != "" && (err == nil || err.Error() != tc.want):
			t.Fatalf("ValidateStruct(%+v) = %v, want %q", tc.in, err, tc.want)
		}
	}
}
