package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
)

// Specific errors wrap their kind so errors.Is works against either.
var (
	ErrTaskNotFound       = fmt.Errorf("task %w", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrEmailAlreadyExists = fmt.Errorf("email already exists: %w", ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrInvalidInput)
)

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// internal marks a store, cache or signing failure while keeping the cause
// reachable for logging.
func internal(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}

func errForbidden(msg string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, msg)
}
