// Package apperror defines the domain errors returned by the catalog.
//
// Every expected outcome of a catalog operation (missing id, duplicate email,
// no session, ...) is an *AppError wrapping one of the sentinels below.
// Callers branch with errors.Is; the CLI and HTTP layers translate them into
// exit messages and status codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateEmail and ErrDuplicateReview are conflicts, so
	// errors.Is(err, ErrConflict) also matches them.
	ErrDuplicateEmail  = fmt.Errorf("duplicate email: %w", ErrConflict)
	ErrDuplicateReview = fmt.Errorf("duplicate review: %w", ErrConflict)
)

type AppError struct {
	Err     error  // sentinel
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission,
// e.g. deleting a book someone else added.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthenticated is returned by mutating operations that need a session.
func Unauthenticated(action string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: fmt.Sprintf("you must be logged in to %s", action),
	}
}

func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "email or password is incorrect",
	}
}

func DuplicateEmail(email string) *AppError {
	return &AppError{
		Err:     ErrDuplicateEmail,
		Message: fmt.Sprintf("email %s is already registered", email),
		Field:   "email",
	}
}

func DuplicateReview(bookID string) *AppError {
	return &AppError{
		Err:     ErrDuplicateReview,
		Message: fmt.Sprintf("you have already reviewed book %s", bookID),
		Field:   "bookId",
	}
}
