package password

import "errors"

var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrWeakPassword     = errors.New("weak password")

	// ErrPolicy is wrapped by every policy violation.
	ErrPolicy = errors.New("password policy violation")

	// ErrEntropy means the system random source failed. Callers should treat
	// it as fatal.
	ErrEntropy = errors.New("password: entropy source unavailable")
)

type policyError struct {
	reason error
}

func (e *policyError) Error() string { return e.reason.Error() }

func (e *policyError) Is(target error) bool {
	return target == ErrPolicy || target == e.reason
}
