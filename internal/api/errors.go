package api

import "fmt"

// ExchangeError reports a failed request to the model provider.
// StatusCode is zero when no HTTP response was received.
type ExchangeError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *ExchangeError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("ai exchange failed (status %d): %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("ai exchange failed: %s", msg)
}

func (e *ExchangeError) Unwrap() error {
	return e.Cause
}
