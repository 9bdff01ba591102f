// Package interviewer runs interviews: it starts sessions, exchanges turns
// with the model and produces the final report.
package interviewer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"interviewpro/internal/api"
	"interviewpro/internal/config"
	"interviewpro/internal/metrics"
	"interviewpro/internal/observability"
	"interviewpro/internal/prompts"
	"interviewpro/internal/report"
	"interviewpro/internal/session"
)

var (
	// ErrEmptyMessage is returned when a user turn has no content.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrNothingToRetry is returned by Retry when the last turn is not an unanswered user turn.
	ErrNothingToRetry = errors.New("no unanswered user message to retry")
)

// TurnHandler is notified after an assistant turn has been appended.
type TurnHandler func(ctx context.Context, sess *session.Session, turn session.Turn)

// Service conducts interviews over sessions it does not own.
type Service struct {
	completer api.Completer
	generator *report.Generator
	interview config.InterviewConfig
	llm       *config.LLMConfig
	metrics   *metrics.Metrics
	tracer    trace.Tracer

	mu       sync.RWMutex
	handlers []TurnHandler
}

// New creates the service. A nil tracer falls back to the global provider.
func New(completer api.Completer, cfg *config.Config, llm *config.LLMConfig, m *metrics.Metrics, tracer trace.Tracer) *Service {
	if tracer == nil {
		tracer = otel.Tracer(observability.ServiceName)
	}
	return &Service{
		completer: completer,
		generator: report.NewGenerator(completer, cfg.Report, llm),
		interview: cfg.Interview,
		llm:       llm,
		metrics:   m,
		tracer:    tracer,
	}
}

// Subscribe registers a handler for assistant turns.
func (s *Service) Subscribe(handler TurnHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

func (s *Service) publish(ctx context.Context, sess *session.Session, turn session.Turn) {
	s.mu.RLock()
	handlers := make([]TurnHandler, len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, sess, turn)
	}
}

// Start begins the interview: the log gets the system turn and, when one is
// configured, the interviewer's opening turn.
func (s *Service) Start(ctx context.Context, sess *session.Session, sc *session.Context) error {
	if sc == nil {
		return &session.ConfigError{Message: "session context is not configured"}
	}

	data := dataFor(sc)
	if err := sess.Begin(sc, prompts.InterviewSystemPrompt(s.interview, data)); err != nil {
		return err
	}

	if opening := prompts.OpeningMessage(s.interview, data); opening != "" {
		turn := sess.Log().AppendAssistant(opening)
		s.publish(ctx, sess, turn)
	}

	s.metrics.IncrementInterviewsStarted(ctx)
	observability.LoggerFromContext(ctx).Info("interview started",
		"session_id", sess.ID,
		"context", sc)

	return nil
}

// Send appends the user's message, exchanges the conversation and appends the
// reply. Sends on one session never overlap. When the exchange fails the user
// turn stays in the log so the caller can Retry.
func (s *Service) Send(ctx context.Context, sess *session.Session, text string) (session.Turn, error) {
	if strings.TrimSpace(text) == "" {
		return session.Turn{}, ErrEmptyMessage
	}

	release, err := sess.AcquireExchange(ctx)
	if err != nil {
		return session.Turn{}, err
	}
	defer release()

	if state := sess.State(); state != session.StateInProgress {
		return session.Turn{}, &session.TransitionError{From: state, To: session.StateInProgress}
	}

	sess.Log().AppendUser(text)
	sess.Touch()

	return s.reply(ctx, sess)
}

// Retry re-sends the log unchanged after a failed exchange.
func (s *Service) Retry(ctx context.Context, sess *session.Session) (session.Turn, error) {
	release, err := sess.AcquireExchange(ctx)
	if err != nil {
		return session.Turn{}, err
	}
	defer release()

	if state := sess.State(); state != session.StateInProgress {
		return session.Turn{}, &session.TransitionError{From: state, To: session.StateInProgress}
	}

	last, ok := sess.Log().Last()
	if !ok || last.Speaker != session.SpeakerUser {
		return session.Turn{}, ErrNothingToRetry
	}

	return s.reply(ctx, sess)
}

// reply runs with the exchange slot held.
func (s *Service) reply(ctx context.Context, sess *session.Session) (session.Turn, error) {
	reply, err := s.Exchange(ctx, sess.Context().Credential(), sess.Log().Turns())
	if err != nil {
		return session.Turn{}, err
	}

	turn := sess.Log().AppendAssistant(reply.Content)
	sess.Touch()
	s.metrics.IncrementMessagesExchanged()
	s.publish(ctx, sess, turn)

	return turn, nil
}

// Finish ends the interview and generates the report. The session is
// Completed even when generation fails; GenerateReport can then be retried.
func (s *Service) Finish(ctx context.Context, sess *session.Session) (*report.Report, error) {
	release, err := sess.AcquireExchange(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := sess.Complete(); err != nil {
		return nil, err
	}
	s.metrics.IncrementInterviewsCompleted(ctx)
	observability.LoggerFromContext(ctx).Info("interview completed",
		"session_id", sess.ID,
		"turns", sess.Log().Len())

	return s.generate(ctx, sess)
}

// GenerateReport re-runs report generation for a completed session that has no report yet.
func (s *Service) GenerateReport(ctx context.Context, sess *session.Session) (*report.Report, error) {
	release, err := sess.AcquireExchange(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if state := sess.State(); state != session.StateCompleted {
		return nil, &session.TransitionError{From: state, To: session.StateCompleted}
	}
	if sess.Report() != nil {
		return nil, session.ErrReportExists
	}

	return s.generate(ctx, sess)
}

func (s *Service) generate(ctx context.Context, sess *session.Session) (*report.Report, error) {
	ctx, span := s.tracer.Start(ctx, "interviewer.report",
		trace.WithAttributes(attribute.String("variant", string(s.generator.Variant()))))
	defer span.End()

	sc := sess.Context()
	start := time.Now()
	r, err := s.generator.Generate(ctx, sc.Credential(), dataFor(sc), sess.Log().Transcript())
	elapsed := time.Since(start)

	var exErr *api.ExchangeError
	s.metrics.ObserveAPICall(ctx, metrics.CallReport, elapsed, !errors.As(err, &exErr))
	s.metrics.IncrementReports(ctx, err == nil)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "report generation failed")
		observability.LoggerFromContext(ctx).Warn("report generation failed",
			"session_id", sess.ID,
			"duration_ms", elapsed.Milliseconds(),
			"error", err)
		return nil, err
	}

	if err := sess.AttachReport(r); err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info("report generated",
		"session_id", sess.ID,
		"overall_score", r.OverallScore,
		"duration_ms", elapsed.Milliseconds())

	return r, nil
}

func dataFor(sc *session.Context) prompts.Data {
	return prompts.Data{
		Position:       sc.TargetPosition(),
		Company:        sc.TargetCompany(),
		Resume:         sc.ResumeText(),
		JobDescription: sc.JobDescription(),
	}
}
