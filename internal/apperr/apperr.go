// Package apperr holds the error taxonomy shared by the session, access and
// item layers, and its mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrUnauthenticated covers a missing, unknown, expired or destroyed session.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotFound is returned both when a record does not exist and when it
	// belongs to another user.
	ErrNotFound    = errors.New("not found")
	ErrRateLimited = errors.New("rate limited")
	ErrConflict    = errors.New("already exists")
	ErrValidation  = errors.New("validation failed")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports every violated constraint of a request at once.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Has reports whether field already has a message.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// OrNil returns nil when no field was added, so callers can build the error
// incrementally and return it unconditionally.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func Validation(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message is the short, client-safe text for err. Internal failures never
// leak their cause.
func Message(err error) string {
	switch Status(err) {
	case http.StatusUnauthorized:
		return "Authentication required"
	case http.StatusNotFound:
		return "Not found"
	case http.StatusBadRequest:
		return "Validation failed"
	case http.StatusTooManyRequests:
		return "Too many requests"
	case http.StatusConflict:
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			return conflict.Error()
		}
		return "Resource already exists"
	default:
		return "Internal server error"
	}
}

// ConflictError names the unique field that collided.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return e.Field + " is already in use"
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
