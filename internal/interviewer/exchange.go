package interviewer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"interviewpro/internal/api"
	"interviewpro/internal/metrics"
	"interviewpro/internal/observability"
	"interviewpro/internal/session"
)

// ChatTemperature is the sampling temperature of conversational turns.
const ChatTemperature = 0.7

// Exchange sends the conversation to the model and returns its reply as a new
// assistant turn. The turn is not appended to any log.
func (s *Service) Exchange(ctx context.Context, credential string, turns []session.Turn) (session.Turn, error) {
	ctx, span := s.tracer.Start(ctx, "interviewer.exchange",
		trace.WithAttributes(attribute.Int("turns", len(turns))))
	defer span.End()

	start := time.Now()
	completion, err := s.completer.Complete(ctx, api.Request{
		Credential:  credential,
		Messages:    toMessages(turns),
		Temperature: ChatTemperature,
		MaxTokens:   s.llm.MaxTokens,
	})
	elapsed := time.Since(start)
	s.metrics.ObserveAPICall(ctx, metrics.CallChat, elapsed, err == nil)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "exchange failed")
		observability.LoggerFromContext(ctx).Warn("exchange failed",
			"turns", len(turns),
			"duration_ms", elapsed.Milliseconds(),
			"error", err)
		return session.Turn{}, err
	}

	span.SetAttributes(attribute.Int("total_tokens", completion.Usage.TotalTokens))
	observability.LoggerFromContext(ctx).Debug("exchange completed",
		"turns", len(turns),
		"duration_ms", elapsed.Milliseconds(),
		"total_tokens", completion.Usage.TotalTokens)

	return session.Turn{
		Speaker:   session.SpeakerAssistant,
		Content:   completion.Content,
		CreatedAt: time.Now(),
	}, nil
}

// toMessages keeps role and content only.
func toMessages(turns []session.Turn) []api.Message {
	messages := make([]api.Message, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, api.Message{
			Role:    string(turn.Speaker),
			Content: turn.Content,
		})
	}
	return messages
}
