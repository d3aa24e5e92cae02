package errors

import (
	"errors"
	"fmt"
)

// Common error types for the admin console
var (
	// Form errors
	ErrFieldValidation = errors.New("field validation failed")

	// Account errors reported by the auth API
	ErrDuplicateAccount   = errors.New("account already exists")
	ErrValidationRejected = errors.New("registration rejected by server")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Session errors
	ErrRefreshExpired = errors.New("refresh token expired")
	ErrSessionExpired = errors.New("session expired")
	ErrNoSession      = errors.New("no active session")
	ErrPartialSession = errors.New("access token and user must be set together")

	// Transport errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrNetwork      = errors.New("network error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is errors.New, re-exported so callers need only one errors import
func New(text string) error {
	return errors.New(text)
}
