package speech

import "fmt"

// AccessError reports that audio could not be captured. Text input remains usable.
type AccessError struct {
	Message string
	Cause   error
}

func (e *AccessError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("audio access error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("audio access error: %s", e.Message)
}

func (e *AccessError) Unwrap() error {
	return e.Cause
}
