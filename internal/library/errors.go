package library

import "fmt"

// User-facing messages for list, open and delete failures.
const (
	MsgLoggedOut         = "Please log in to view your resumes"
	MsgSessionExpired    = "Session expired. Please log in again."
	MsgLoadFailed        = "Failed to load resumes. Please try again."
	MsgLoadUnreachable   = "Unable to connect to server. Please check your internet connection."
	MsgOpenFailed        = "Failed to load resume. Please try again."
	MsgDeleteFailed      = "Failed to delete resume. Please try again."
	MsgDeleteUnreachable = "Unable to delete resume. Please check your connection."
)

// Error is a failed library operation with a message fit for display.
type Error struct {
	Op        string
	Message   string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
