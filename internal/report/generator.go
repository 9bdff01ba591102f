package report

import (
	"context"
	"strings"
	"time"

	"interviewpro/internal/api"
	"interviewpro/internal/config"
	"interviewpro/internal/prompts"
)

// Generator issues the single report request for a finished interview.
type Generator struct {
	completer api.Completer
	cfg       config.ReportConfig
	maxTokens int
	jsonMode  bool
	now       func() time.Time
}

func NewGenerator(completer api.Completer, rc config.ReportConfig, llm *config.LLMConfig) *Generator {
	return &Generator{
		completer: completer,
		cfg:       rc,
		maxTokens: llm.ReportMaxTokens,
		jsonMode:  llm.JSONMode,
		now:       time.Now,
	}
}

// Variant reports which schema the generator asks for.
func (g *Generator) Variant() config.ReportVariant {
	return g.cfg.Variant
}

// Generate sends the transcript to the model and parses the reply.
// A malformed reply is returned as *ParseError and is not retried.
func (g *Generator) Generate(ctx context.Context, credential string, d prompts.Data, transcript string) (*Report, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, &ParseError{Message: "transcript is empty"}
	}

	completion, err := g.completer.Complete(ctx, api.Request{
		Credential: credential,
		Messages: []api.Message{
			{Role: api.RoleSystem, Content: prompts.ReportSystemPrompt(g.cfg, d, transcript)},
			{Role: api.RoleUser, Content: prompts.ReportInstruction},
		},
		Temperature: Temperature,
		MaxTokens:   g.maxTokens,
		JSONMode:    g.jsonMode,
	})
	if err != nil {
		return nil, err
	}

	r, err := Parse(completion.Content, g.cfg.Variant)
	if err != nil {
		return nil, err
	}
	r.Scale = g.cfg.Scale
	r.GeneratedAt = g.now()
	return r, nil
}
