package domain

import "errors"

var (
	// ErrHabitNotFound is returned when an operation references an unknown habit.
	ErrHabitNotFound = errors.New("habit not found")
)

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + " " + e.Message
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
