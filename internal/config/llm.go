package config

import (
	"fmt"
	"time"
)

// Provider names a chat-completion backend.
type Provider string

const (
	// ProviderOpenAI speaks the OpenAI chat-completions wire format (DeepSeek, OpenAI, compatible gateways).
	ProviderOpenAI Provider = "openai"
	// ProviderGemini uses the Google Gemini SDK.
	ProviderGemini Provider = "gemini"
)

const (
	DefaultEndpoint = "https://api.deepseek.com/v1/chat/completions"
	DefaultModel    = "deepseek-chat"
)

type LLMConfig struct {
	Provider Provider
	// APIKey is the deployment credential, used when a session does not bring its own.
	APIKey          string
	Endpoint        string
	Model           string
	MaxTokens       int
	ReportMaxTokens int
	// JSONMode requests structured output for reports when the provider supports it.
	JSONMode bool
	// Timeout of zero leaves the transport default in place.
	Timeout time.Duration
}

// LoadLLMConfig reads the model backend settings from the environment.
func LoadLLMConfig() *LLMConfig {
	return &LLMConfig{
		Provider:        Provider(getEnv("LLM_PROVIDER", string(ProviderOpenAI))),
		APIKey:          getEnv("LLM_API_KEY", ""),
		Endpoint:        getEnv("LLM_ENDPOINT", DefaultEndpoint),
		Model:           getEnv("LLM_MODEL", DefaultModel),
		MaxTokens:       getEnvAsInt("LLM_MAX_TOKENS", 2000),
		ReportMaxTokens: getEnvAsInt("LLM_REPORT_MAX_TOKENS", 2000),
		JSONMode:        getEnvAsBool("LLM_JSON_MODE", true),
		Timeout:         getEnvAsDuration("LLM_TIMEOUT", 0),
	}
}

// ValidateConfig checks the settings that do not depend on a session.
// The API key is optional here: sessions may supply their own credential.
func (c *LLMConfig) ValidateConfig() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.Endpoint == "" {
			return fmt.Errorf("LLM_ENDPOINT is required for provider %q", c.Provider)
		}
	case ProviderGemini:
	default:
		return fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderGemini, c.Provider)
	}

	if c.Model == "" {
		return fmt.Errorf("LLM_MODEL is required")
	}

	if c.MaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive")
	}

	if c.ReportMaxTokens <= 0 {
		return fmt.Errorf("LLM_REPORT_MAX_TOKENS must be positive")
	}

	if c.Timeout < 0 {
		return fmt.Errorf("LLM_TIMEOUT must not be negative")
	}

	return nil
}

// GetModelInfo describes the configured backend without exposing the credential.
func (c *LLMConfig) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"provider":          string(c.Provider),
		"model":             c.Model,
		"max_tokens":        c.MaxTokens,
		"report_max_tokens": c.ReportMaxTokens,
		"json_mode":         c.JSONMode,
		"has_api_key":       c.APIKey != "",
	}
}
