package api

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"interviewpro/internal/config"
)

// GeminiClient implements Completer for Google Gemini.
// A genai client is opened per call because each session brings its own credential.
type GeminiClient struct {
	model string
}

func NewGeminiClient(cfg *config.LLMConfig) *GeminiClient {
	return &GeminiClient{model: cfg.Model}
}

func (c *GeminiClient) Complete(ctx context.Context, req Request) (Completion, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = c.model
	}

	system, history, last, err := toGeminiContents(req.Messages)
	if err != nil {
		return Completion{}, &ExchangeError{Message: "invalid conversation", Cause: err}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(req.Credential))
	if err != nil {
		return Completion{}, &ExchangeError{Message: "failed to create Gemini client", Cause: err}
	}
	defer client.Close()

	model := client.GenerativeModel(modelName)
	model.SetTemperature(float32(req.Temperature))
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if system != nil {
		model.SystemInstruction = system
	}
	if req.JSONMode {
		model.ResponseMIMEType = "application/json"
	}

	cs := model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return Completion{}, geminiError(err)
	}

	text, err := extractText(resp)
	if err != nil {
		return Completion{}, &ExchangeError{Message: err.Error()}
	}

	completion := Completion{Content: text, Model: modelName}
	if resp.UsageMetadata != nil {
		completion.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return completion, nil
}

// toGeminiContents splits messages into the system instruction, the prior
// history and the final user message Gemini expects to be sent.
func toGeminiContents(messages []Message) (*genai.Content, []*genai.Content, *genai.Content, error) {
	var system *genai.Content
	var systemParts []string
	var contents []*genai.Content

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			systemParts = append(systemParts, m.Content)
		case RoleUser:
			contents = append(contents, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		case RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			return nil, nil, nil, errors.New("unknown role " + m.Role)
		}
	}

	if len(systemParts) > 0 {
		system = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(systemParts, "\n\n"))}}
	}

	if len(contents) == 0 || contents[len(contents)-1].Role != "user" {
		return nil, nil, nil, errors.New("conversation must end with a user message")
	}

	last := contents[len(contents)-1]
	return system, contents[:len(contents)-1], last, nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	text := strings.Join(parts, "")
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty message content")
	}
	return text, nil
}

func geminiError(err error) *ExchangeError {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		if msg == "" {
			msg = "upstream error"
		}
		return &ExchangeError{StatusCode: gerr.Code, Message: msg, Cause: err}
	}
	return &ExchangeError{Message: "request failed", Cause: err}
}
