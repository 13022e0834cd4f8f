// Package apperror holds error types shared by the domain services and the HTTP layer.
package apperror

import (
	"errors"
	"strings"
)

// ValidationError reports input that was rejected before anything was written
type ValidationError struct {
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}

// Validation builds a ValidationError
func Validation(message string, fields ...string) error {
	return &ValidationError{Message: message, Fields: fields}
}

// MissingFields returns a ValidationError naming the required fields that are blank, or nil
func MissingFields(values map[string]string, order ...string) error {
	var missing []string
	for _, name := range order {
		if strings.TrimSpace(values[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{Message: "missing required fields", Fields: missing}
}

// IsValidation reports whether err is or wraps a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
