package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"interviewpro/internal/config"
)

// OpenAIClient calls any endpoint that speaks the OpenAI chat-completions format.
type OpenAIClient struct {
	endpoint string
	model    string
	client   *http.Client
}

type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	Stream         bool            `json:"stream"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type openAIResponse struct {
	Model   string    `json:"model"`
	Choices []choice  `json:"choices"`
	Usage   Usage     `json:"usage"`
	Error   *apiError `json:"error,omitempty"`
}

type choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func NewOpenAIClient(cfg *config.LLMConfig) *OpenAIClient {
	return &OpenAIClient{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		// Zero timeout means the caller's context is the only deadline.
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Complete sends one chat-completion request and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Completion, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	body := openAIRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	}
	if req.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Completion{}, &ExchangeError{Message: "failed to encode request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return Completion{}, &ExchangeError{Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.Credential)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Completion{}, &ExchangeError{Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Completion{}, &ExchangeError{StatusCode: resp.StatusCode, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Completion{}, &ExchangeError{
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(resp.StatusCode, respBody),
		}
	}

	var parsed openAIResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Completion{}, &ExchangeError{StatusCode: resp.StatusCode, Message: "malformed response", Cause: err}
	}

	if parsed.Error != nil && parsed.Error.Message != "" {
		return Completion{}, &ExchangeError{StatusCode: resp.StatusCode, Message: parsed.Error.Message}
	}

	if len(parsed.Choices) == 0 {
		return Completion{}, &ExchangeError{StatusCode: resp.StatusCode, Message: "no choices in response"}
	}

	content := parsed.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return Completion{}, &ExchangeError{StatusCode: resp.StatusCode, Message: "empty message content"}
	}

	return Completion{Content: content, Model: parsed.Model, Usage: parsed.Usage}, nil
}

// upstreamMessage extracts error.message from an error body, falling back to a short excerpt.
func upstreamMessage(status int, body []byte) string {
	var parsed openAIResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return http.StatusText(status)
	}
	const maxExcerpt = 200
	if len(text) > maxExcerpt {
		text = text[:maxExcerpt] + "..."
	}
	return fmt.Sprintf("%s: %s", http.StatusText(status), text)
}
