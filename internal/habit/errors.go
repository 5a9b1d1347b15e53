package habit

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a habit does not exist or belongs to another user.
var ErrNotFound = errors.New("habit not found")

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
