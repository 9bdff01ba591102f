package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interviewpro/internal/config"
)

func newTestClient(url string) *OpenAIClient {
	return NewOpenAIClient(&config.LLMConfig{
		Provider: config.ProviderOpenAI,
		Endpoint: url,
		Model:    "deepseek-chat",
	})
}

func testRequest() Request {
	return Request{
		Credential: "sk-secret",
		Messages: []Message{
			{Role: RoleSystem, Content: "你是面试官"},
			{Role: RoleUser, Content: "你好"},
		},
		Temperature: 0.7,
		MaxTokens:   2000,
	}
}

func TestOpenAIClient_Complete(t *testing.T) {
	var captured map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"deepseek-chat","choices":[{"index":0,"message":{"role":"assistant","content":"请介绍一下自己"}}],"usage":{"total_tokens":42}}`))
	}))
	defer server.Close()

	completion, err := newTestClient(server.URL).Complete(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "请介绍一下自己", completion.Content)
	assert.Equal(t, 42, completion.Usage.TotalTokens)

	assert.Equal(t, "deepseek-chat", captured["model"])
	assert.Equal(t, 0.7, captured["temperature"])
	assert.Equal(t, float64(2000), captured["max_tokens"])
	assert.Equal(t, false, captured["stream"])
	assert.NotContains(t, captured, "response_format")

	messages := captured["messages"].([]any)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]any)
	assert.Equal(t, map[string]any{"role": "system", "content": "你是面试官"}, first)
}

func TestOpenAIClient_JSONMode(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{}"}}]}`))
	}))
	defer server.Close()

	req := testRequest()
	req.JSONMode = true
	req.Temperature = 0.3
	req.Model = "override"

	_, err := newTestClient(server.URL).Complete(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"type": "json_object"}, captured["response_format"])
	assert.Equal(t, 0.3, captured["temperature"])
	assert.Equal(t, "override", captured["model"])
}

func TestOpenAIClient_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "upstream error message",
			status:     http.StatusUnauthorized,
			body:       `{"error":{"message":"Authentication Fails","type":"authentication_error"}}`,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Authentication Fails",
		},
		{
			name:       "plain error body",
			status:     http.StatusBadGateway,
			body:       "bad gateway",
			wantStatus: http.StatusBadGateway,
			wantMsg:    "Bad Gateway: bad gateway",
		},
		{
			name:       "malformed json",
			status:     http.StatusOK,
			body:       `{"choices":`,
			wantStatus: http.StatusOK,
			wantMsg:    "malformed response",
		},
		{
			name:       "no choices",
			status:     http.StatusOK,
			body:       `{"choices":[]}`,
			wantStatus: http.StatusOK,
			wantMsg:    "no choices in response",
		},
		{
			name:       "empty content",
			status:     http.StatusOK,
			body:       `{"choices":[{"message":{"role":"assistant","content":"  "}}]}`,
			wantStatus: http.StatusOK,
			wantMsg:    "empty message content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).Complete(context.Background(), testRequest())

			var exErr *ExchangeError
			require.True(t, errors.As(err, &exErr))
			assert.Equal(t, tt.wantStatus, exErr.StatusCode)
			assert.Equal(t, tt.wantMsg, exErr.Message)
			assert.NotContains(t, err.Error(), "sk-secret")
		})
	}
}

func TestOpenAIClient_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).Complete(context.Background(), testRequest())

	var exErr *ExchangeError
	require.True(t, errors.As(err, &exErr))
	assert.Zero(t, exErr.StatusCode)
	assert.NotNil(t, exErr.Unwrap())
}

func TestOpenAIClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL).Complete(ctx, testRequest())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewClient(t *testing.T) {
	c, err := NewClient(&config.LLMConfig{Provider: config.ProviderOpenAI, Endpoint: "http://x"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	c, err = NewClient(&config.LLMConfig{Provider: config.ProviderGemini, Model: "gemini-1.5-flash"})
	require.NoError(t, err)
	assert.IsType(t, &GeminiClient{}, c)

	_, err = NewClient(&config.LLMConfig{Provider: "other"})
	assert.Error(t, err)
}
