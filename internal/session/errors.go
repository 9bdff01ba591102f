package session

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by stores when no session has the requested ID.
var ErrNotFound = errors.New("session not found")

// ConfigError reports a missing or unusable interview configuration.
type ConfigError struct {
	Message string
	Missing []string
}

func (e *ConfigError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("config error: %s", e.Message)
	}
	return fmt.Sprintf("config error: %s: %s", e.Message, strings.Join(e.Missing, ", "))
}

// TransitionError is returned when an operation is not allowed in the current state.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid session transition from %s to %s", e.From, e.To)
}
