// Package prompts builds the system prompts sent to the language model.
package prompts

import (
	"fmt"
	"sort"
	"strings"

	"interviewpro/internal/config"
)

// Data is the candidate context substituted into prompt templates.
type Data struct {
	Position       string
	Company        string
	Resume         string
	JobDescription string
}

func (d Data) values() map[string]string {
	return map[string]string{
		"Position":       d.Position,
		"Company":        d.Company,
		"Resume":         d.Resume,
		"JobDescription": d.JobDescription,
	}
}

// Format replaces placeholders of the form {{.Key}} with values from data in a
// single pass, so placeholder-like text inside a value is kept as written.
// Unknown placeholders are left as they are.
func Format(template string, data map[string]string) string {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, key := range keys {
		pairs = append(pairs, fmt.Sprintf("{{.%s}}", key), data[key])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// InterviewSystemPrompt renders the framing turn that opens every conversation.
func InterviewSystemPrompt(cfg config.InterviewConfig, d Data) string {
	return strings.TrimSpace(Format(cfg.SystemPrompt, d.values()))
}

// OpeningMessage renders the interviewer's greeting, or "" when none is configured.
func OpeningMessage(cfg config.InterviewConfig, d Data) string {
	if strings.TrimSpace(cfg.OpeningMessage) == "" {
		return ""
	}
	return strings.TrimSpace(Format(cfg.OpeningMessage, d.values()))
}
