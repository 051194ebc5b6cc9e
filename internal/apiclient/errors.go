package apiclient

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidationError is returned when input is rejected before any request is sent.
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid input: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// AuthError means the session is missing, expired or was rejected with 401.
// It terminates the session rather than inviting a retry.
type AuthError struct {
	Message string
	Cause   error
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication required"
	}
	return "authentication required: " + e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// NetworkError is a transport failure: the backend could not be reached or
// the connection broke before a response was read.
type NetworkError struct {
	Op    string
	URL   string
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: unable to reach server: %v", e.Op, e.URL, e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// ServerError is a non-2xx response other than an authenticated 401.
// Message is the server's "error" field or a generic text; Detail carries
// the visible text of an HTML error page when the server sent one.
type ServerError struct {
	Status  int
	Message string
	Detail  string
}

func (e *ServerError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server error (%d): %s: %s", e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

// FormatError is a 2xx response whose body does not have an accepted shape.
type FormatError struct {
	Op      string
	Message string
	Cause   error
}

func (e *FormatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unexpected response for %s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("unexpected response for %s: %s", e.Op, e.Message)
}

func (e *FormatError) Unwrap() error {
	return e.Cause
}

// IsAuth reports whether err ends the current session.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsRetryable reports whether the user may retry the operation as is.
// Authentication failures are not retryable: they require a new login.
func IsRetryable(err error) bool {
	if err == nil || IsAuth(err) {
		return false
	}
	var (
		validationErr *ValidationError
		networkErr    *NetworkError
		serverErr     *ServerError
		formatErr     *FormatError
	)
	return errors.As(err, &validationErr) ||
		errors.As(err, &networkErr) ||
		errors.As(err, &serverErr) ||
		errors.As(err, &formatErr)
}

// validationFrom converts a validator error into a ValidationError naming
// the first failing field.
func validationFrom(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("failed %q check", fe.Tag()),
			Cause:   err,
		}
	}
	return &ValidationError{Message: err.Error(), Cause: err}
}
