package utils

import (
	"errors"
	"fmt"
)

// ValidationError reports a request that can never succeed as given.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns the error message string.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewValidationError creates a ValidationError not tied to a field.
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

// NewFieldError creates a ValidationError for a named request field.
//
// Parameters:
//   - field: The offending field name.
//   - format: The format string.
//   - args: Arguments for the format string.
func NewFieldError(field, format string, args ...interface{}) error {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsValidationError reports whether err wraps a ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
