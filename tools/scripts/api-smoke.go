// Package main provides a CI-friendly HTTP smoke test for the notes API.
//
// It validates:
//   - sign-up returns a bearer token
//   - note create and list under that token
//   - sign-out revokes the token
//   - the revoked token is rejected with 401
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxReadBytes = 1 << 20 // 1MiB

type smokeClient struct {
	base    string
	http    *http.Client
	timeout time.Duration
	verbose bool
}

type tokenResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type listResponse struct {
	Success bool `json:"success"`
	Notes   []struct {
		MobileID string `json:"noteIdMobile"`
		Title    string `json:"title"`
	} `json:"notes"`
}

func main() {
	var (
		baseURL  = flag.String("url", "http://127.0.0.1:8080", "Server base URL")
		password = flag.String("password", "smoke-test-password-1", "Password for the throwaway account")
		timeout  = flag.Duration("timeout", 7*time.Second, "Per-request timeout")
		verbose  = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if err := validateBaseURL(*baseURL); err != nil {
		fatalf("invalid -url: %v", err)
	}

	c := &smokeClient{
		base:    strings.TrimRight(*baseURL, "/"),
		http:    &http.Client{},
		timeout: *timeout,
		verbose: *verbose,
	}
	root := context.Background()

	email := fmt.Sprintf("smoke-%s@example.com", uuid.NewString()[:8])
	creds := map[string]string{"email": email, "password": *password}

	var signup tokenResponse
	c.mustDo(root, http.MethodPost, "/api/users/signup", "", creds, http.StatusCreated, &signup)
	if signup.Token == "" {
		fatalf("signup: empty token")
	}

	mobileID := "smoke-" + uuid.NewString()
	c.mustDo(root, http.MethodPost, "/api/notes/create", signup.Token, map[string]any{
		"noteIdMobile": mobileID,
		"title":        "smoke",
		"body":         "created by api-smoke",
	}, http.StatusCreated, nil)

	var list listResponse
	c.mustDo(root, http.MethodGet, "/api/notes/all", signup.Token, nil, http.StatusOK, &list)
	if len(list.Notes) != 1 || list.Notes[0].MobileID != mobileID {
		fatalf("list: expected exactly note %s, got %+v", mobileID, list.Notes)
	}

	c.mustDo(root, http.MethodPost, "/api/users/signout", signup.Token, nil, http.StatusOK, nil)
	c.mustDo(root, http.MethodGet, "/api/notes/all", signup.Token, nil, http.StatusUnauthorized, nil)

	// Clean up with a fresh session.
	var signin tokenResponse
	c.mustDo(root, http.MethodPost, "/api/users/signin", "", creds, http.StatusOK, &signin)
	c.mustDo(root, http.MethodDelete, "/api/users", signin.Token, map[string]string{"password": *password}, http.StatusOK, nil)

	fmt.Printf("OK: email=%s note=%s expires_at=%s\n", email, mobileID, signup.ExpiresAt.Format(time.RFC3339))
}

func (c *smokeClient) mustDo(parent context.Context, method, path, bearer string, body any, wantStatus int, out any) {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			fatalf("%s %s: encode: %v", method, path, err)
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		fatalf("%s %s: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	res, err := c.http.Do(req)
	if err != nil {
		fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxReadBytes))
	if err != nil {
		fatalf("%s %s: read: %v", method, path, err)
	}
	if c.verbose {
		fmt.Printf("%s %s -> %d %s\n", method, path, res.StatusCode, strings.TrimSpace(string(raw)))
	}
	if res.StatusCode != wantStatus {
		fatalf("%s %s: status %d, want %d: %s", method, path, res.StatusCode, wantStatus, strings.TrimSpace(string(raw)))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			fatalf("%s %s: decode: %v", method, path, err)
		}
	}
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("missing host")
	}
	return nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
