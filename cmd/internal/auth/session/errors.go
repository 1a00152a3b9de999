package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidToken is wrapped by every token verification failure.
	ErrInvalidToken = errors.New("invalid token")

	ErrMalformed    = &tokenError{reason: "malformed"}
	ErrBadSignature = &tokenError{reason: "bad signature"}
	ErrExpired      = &tokenError{reason: "expired"}

	// ErrInvalidCredentials is the single sign-in failure for unknown
	// accounts and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid email/password")

	// ErrGoogleAccount means the account signs in through Google and has no
	// password credential.
	ErrGoogleAccount = errors.New("account uses google sign-in")

	ErrValidation = errors.New("validation failed")

	// ErrConfig is returned for invalid configuration. At startup it is fatal.
	ErrConfig = errors.New("invalid session config")
)

type tokenError struct {
	reason string
}

func (e *tokenError) Error() string { return "invalid token: " + e.reason }

func (e *tokenError) Unwrap() error { return ErrInvalidToken }

// ValidationError names the offending input field.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

func invalidField(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
