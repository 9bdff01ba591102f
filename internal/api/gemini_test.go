package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestToGeminiContents(t *testing.T) {
	system, history, last, err := toGeminiContents([]Message{
		{Role: RoleSystem, Content: "你是面试官"},
		{Role: RoleAssistant, Content: "请介绍一下自己"},
		{Role: RoleUser, Content: "我是后端工程师"},
		{Role: RoleAssistant, Content: "讲讲你的项目"},
		{Role: RoleUser, Content: "好的"},
	})
	require.NoError(t, err)

	require.NotNil(t, system)
	assert.Equal(t, []genai.Part{genai.Text("你是面试官")}, system.Parts)

	require.Len(t, history, 3)
	assert.Equal(t, "model", history[0].Role)
	assert.Equal(t, "user", history[1].Role)
	assert.Equal(t, "model", history[2].Role)

	assert.Equal(t, "user", last.Role)
	assert.Equal(t, []genai.Part{genai.Text("好的")}, last.Parts)
}

func TestToGeminiContents_Errors(t *testing.T) {
	_, _, _, err := toGeminiContents([]Message{{Role: RoleSystem, Content: "only system"}})
	assert.Error(t, err)

	_, _, _, err = toGeminiContents([]Message{{Role: RoleUser, Content: "hi"}, {Role: RoleAssistant, Content: "hello"}})
	assert.Error(t, err)

	_, _, _, err = toGeminiContents([]Message{{Role: "tool", Content: "x"}})
	assert.Error(t, err)
}

func TestExtractText(t *testing.T) {
	text, err := extractText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("你好"), genai.Text("，开始吧")}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "你好，开始吧", text)

	_, err = extractText(&genai.GenerateContentResponse{})
	assert.Error(t, err)

	_, err = extractText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Text(" ")}}}},
	})
	assert.Error(t, err)
}

func TestGeminiError(t *testing.T) {
	exErr := geminiError(&googleapi.Error{Code: http.StatusTooManyRequests, Message: "quota exceeded"})
	assert.Equal(t, http.StatusTooManyRequests, exErr.StatusCode)
	assert.Equal(t, "quota exceeded", exErr.Message)

	exErr = geminiError(errors.New("dial tcp: timeout"))
	assert.Zero(t, exErr.StatusCode)
	assert.Equal(t, "request failed", exErr.Message)
}
