package errors

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPayload  = errors.New("event payload is empty")
	ErrNoUsableEmail = errors.New("no usable email in identity payload")
	ErrNoUsableName  = errors.New("no usable name in identity payload")
	ErrEmailConflict = errors.New("email already belongs to another identity")
)

// ValidationError reports the first payload field that failed validation
// together with the constraint it violated.
type ValidationError struct {
	Field      string
	Constraint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid identity payload: field %q failed %q", e.Field, e.Constraint)
}

// NewValidationError builds a field-level validation failure.
func NewValidationError(field string, constraint string) *ValidationError {
	return &ValidationError{Field: field, Constraint: constraint}
}

// IsValidation reports whether err carries a payload validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
