package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrIO                = errors.New("io error")
	ErrNotDetected       = errors.New("tag not detected")
	ErrReaderClosed      = errors.New("tag reader closed")
	ErrDuplicateAttempt  = errors.New("scan pair already processed")
)

type FieldError struct {
	Field   string
	Message string
}

// ValidationError carries field-level details and matches ErrValidation via errors.Is.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "validation: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}
