package password

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validate checks plaintext against the configured policy.
func (c Config) Validate(plaintext string) error {
	n := utf8.RuneCountInString(plaintext)

	switch {
	case n < c.Policy.MinLength:
		return &policyError{reason: ErrPasswordTooShort}
	case n > c.Policy.MaxLength:
		return &policyError{reason: ErrPasswordTooLong}
	case c.Policy.RejectVeryWeak && looksVeryWeak(plaintext):
		return &policyError{reason: ErrWeakPassword}
	}
	return nil
}

var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"12345678":    {},
	"123456789":   {},
	"qwerty123":   {},
	"iloveyou":    {},
	"notes123":    {},
}

// looksVeryWeak rejects a handful of trivial shapes. It is not an estimator.
func looksVeryWeak(pw string) bool {
	s := strings.TrimSpace(pw)
	if s == "" {
		return true
	}
	if _, ok := commonPasswords[strings.ToLower(s)]; ok {
		return true
	}

	first, _ := utf8.DecodeRuneInString(s)
	repeated, digits := true, true
	for _, r := range s {
		if r != first {
			repeated = false
		}
		if !unicode.IsDigit(r) {
			digits = false
		}
	}
	return repeated || (digits && utf8.RuneCountInString(s) < 12)
}
