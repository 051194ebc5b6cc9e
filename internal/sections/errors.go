package sections

import (
	"errors"
	"fmt"
)

// ErrEntryNotFound is returned when no entry carries the requested local ID.
var ErrEntryNotFound = errors.New("entry not found")

// IndexOutOfRangeError is returned by the positional operations when the
// index is outside [0, Length).
type IndexOutOfRangeError struct {
	Index  int
	Length int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index %d out of range [0, %d)", e.Index, e.Length)
}

// FieldError represents a field update that the entry type rejected.
type FieldError struct {
	Field   string
	Message string
	Cause   error
}

func (e *FieldError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("field %s: %s: %v", e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("field %s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return e.Cause
}
