// Package api talks to chat-completion providers.
package api

import (
	"context"
	"fmt"

	"interviewpro/internal/config"
)

// Roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one non-streaming completion call.
type Request struct {
	// Credential authenticates the call. It is never logged.
	Credential  string
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	// JSONMode asks the provider for a JSON object reply.
	JSONMode bool
}

type Completion struct {
	Content string
	Model   string
	Usage   Usage
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completer is implemented by every provider client.
type Completer interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

// NewClient returns the client for the configured provider.
func NewClient(cfg *config.LLMConfig) (Completer, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		return NewOpenAIClient(cfg), nil
	case config.ProviderGemini:
		return NewGeminiClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
