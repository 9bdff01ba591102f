package report

import (
	"fmt"
	"strings"
)

// ParseError reports a model reply that could not be turned into a Report.
type ParseError struct {
	Message string
	// Fields lists schema violations, when the reply was valid JSON.
	Fields []string
	Cause  error
}

func (e *ParseError) Error() string {
	msg := "report parse error: " + e.Message
	if len(e.Fields) > 0 {
		msg += " (" + strings.Join(e.Fields, "; ") + ")"
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
