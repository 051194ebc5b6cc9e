package upload

import "fmt"

// PartialFailure records a provisional autosave that did not succeed.
// The upload itself still counts as successful.
type PartialFailure struct {
	Stage string
	Cause error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Cause)
}

func (e *PartialFailure) Unwrap() error {
	return e.Cause
}
