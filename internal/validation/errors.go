package validation

import (
	"fmt"
	"strings"
)

// FieldError is a single constraint violation
type FieldError struct {
	Field   string `json:"Field"`
	Message string `json:"Message"`
}

/*
 * ValidationError aggregates every violation found in one request.
 * Field and Message mirror the first violation.
 */
type ValidationError struct {
	Field   string
	Message string
	Errors  []FieldError
}

// NewValidationError creates a validation error with a single violation
func NewValidationError(field, message string) *ValidationError {
	e := &ValidationError{}
	e.Add(field, message)
	return e
}

// Add records a violation
func (e *ValidationError) Add(field, message string) {
	if len(e.Errors) == 0 {
		e.Field = field
		e.Message = message
	}
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// Merge appends the violations of other
func (e *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for _, fe := range other.Errors {
		e.Add(fe.Field, fe.Message)
	}
}

// HasErrors reports whether any violation was recorded
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Errors) > 0
}

// OrNil returns e when it holds violations, nil otherwise
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if len(e.Errors) <= 1 {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(parts, "; ")
}
