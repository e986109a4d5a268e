// Package common defines shared constants and sentinel errors used across
// the server and the CLI client. Callers should use errors.Is to match these
// values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound        = errors.New("not found")
	ErrReferenceNotFound = errors.New("referenced entity not found")
	ErrStoreUnavailable  = errors.New("store unavailable")

	// Validation errors (client-fixable).
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", ErrValidation)

	// Business-rule errors.
	ErrInvariantViolation = errors.New("invariant violation")

	// Photo content store errors.
	ErrStorageWrite = errors.New("storage write failed")

	// Auth errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
)

// PublicError is an error whose message is safe to show to clients.
// It matches its Kind under errors.Is.
type PublicError struct {
	Kind    error
	Message string
}

func (e *PublicError) Error() string { return e.Message }

func (e *PublicError) Unwrap() error { return e.Kind }

// Errorf returns a *PublicError of the given kind.
func Errorf(kind error, format string, args ...any) error {
	return &PublicError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validationf returns a client-fixable error matching ErrValidation.
func Validationf(format string, args ...any) error {
	return Errorf(ErrValidation, format, args...)
}
