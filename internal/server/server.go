// Package server exposes interview sessions over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"interviewpro/internal/api"
	"interviewpro/internal/interviewer"
	"interviewpro/internal/metrics"
	"interviewpro/internal/observability"
	"interviewpro/internal/ratelimit"
	"interviewpro/internal/report"
	"interviewpro/internal/session"
	"interviewpro/internal/speech"
)

const maxAudioBytes = 10 << 20

type Server struct {
	svc         *interviewer.Service
	store       *session.Store
	transcriber speech.Transcriber
	metrics     *metrics.Metrics
	limiter     *ratelimit.RateLimiter
	// fallbackCredential is used when a request does not bring its own.
	fallbackCredential string
	modelInfo          map[string]interface{}
}

type Options struct {
	Service            *interviewer.Service
	Store              *session.Store
	Transcriber        speech.Transcriber
	Metrics            *metrics.Metrics
	Limiter            *ratelimit.RateLimiter
	FallbackCredential string
	ModelInfo          map[string]interface{}
}

func New(opts Options) *Server {
	transcriber := opts.Transcriber
	if transcriber == nil {
		transcriber = speech.PlaceholderTranscriber{}
	}
	return &Server{
		svc:                opts.Service,
		store:              opts.Store,
		transcriber:        transcriber,
		metrics:            opts.Metrics,
		limiter:            opts.Limiter,
		fallbackCredential: opts.FallbackCredential,
		modelInfo:          opts.ModelInfo,
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /sessions/{id}/messages", s.handleSendMessage)
	mux.HandleFunc("POST /sessions/{id}/retry", s.handleRetry)
	mux.HandleFunc("POST /sessions/{id}/audio", s.handleAudio)
	mux.HandleFunc("POST /sessions/{id}/complete", s.handleComplete)
	mux.HandleFunc("POST /sessions/{id}/report", s.handleReport)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	return chainMiddlewares(mux,
		s.withRateLimit,
		withCORS,
		withLogging,
		withRequestID,
	)
}

// RunJanitor evicts idle sessions and stale rate-limit entries until ctx is done.
func (s *Server) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.store.EvictIdle(now); n > 0 {
				observability.Logger().Info("evicted idle sessions", "count", n)
			}
			if s.limiter != nil {
				s.limiter.Cleanup()
			}
		}
	}
}

// ─────────────────────────────────────────────
// DTOs
// ─────────────────────────────────────────────

type sendMessageRequest struct {
	Text string `json:"text"`
}

type turnResponse struct {
	Speaker   session.Speaker `json:"speaker"`
	Content   string          `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
}

type sessionResponse struct {
	ID             string         `json:"id"`
	State          session.State  `json:"state"`
	CreatedAt      time.Time      `json:"created_at"`
	TargetPosition string         `json:"target_position,omitempty"`
	TargetCompany  string         `json:"target_company,omitempty"`
	Turns          []turnResponse `json:"turns"`
	Report         *report.Report `json:"report,omitempty"`
}

type replyResponse struct {
	Reply   turnResponse    `json:"reply"`
	Session sessionResponse `json:"session"`
}

type transcriptResponse struct {
	Transcript string `json:"transcript"`
}

// ─────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var in session.ContextInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	sc, err := session.NewContext(in, s.fallbackCredential)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sess := s.store.Create()
	if err := sess.Configure(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Start(r.Context(), sess, sc); err != nil {
		_ = s.store.Delete(sess.ID)
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	turn, err := s.svc.Send(r.Context(), sess, req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, replyResponse{Reply: toTurnResponse(turn), Session: toSessionResponse(sess)})
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	turn, err := s.svc.Retry(r.Context(), sess)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, replyResponse{Reply: toTurnResponse(turn), Session: toSessionResponse(sess)})
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.lookup(w, r); !ok {
		return
	}

	audio, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAudioBytes))
	if err != nil {
		badRequest(w, "audio body is too large or unreadable")
		return
	}

	text, err := s.transcriber.Transcribe(r.Context(), audio)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, transcriptResponse{Transcript: text})
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	if _, err := s.svc.Finish(r.Context(), sess); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	if _, err := s.svc.GenerateReport(r.Context(), sess); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": s.store.Len(),
		"model":    s.modelInfo,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.GetSnapshot())
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func toTurnResponse(t session.Turn) turnResponse {
	return turnResponse{Speaker: t.Speaker, Content: t.Content, CreatedAt: t.CreatedAt}
}

// toSessionResponse leaves out the system turn and the credential.
func toSessionResponse(sess *session.Session) sessionResponse {
	resp := sessionResponse{
		ID:        sess.ID,
		State:     sess.State(),
		CreatedAt: sess.CreatedAt,
		Turns:     []turnResponse{},
		Report:    sess.Report(),
	}
	if sc := sess.Context(); sc != nil {
		resp.TargetPosition = sc.TargetPosition()
		resp.TargetCompany = sc.TargetCompany()
	}
	for _, t := range sess.Log().Turns() {
		if t.Speaker == session.SpeakerSystem {
			continue
		}
		resp.Turns = append(resp.Turns, toTurnResponse(t))
	}
	return resp
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		cfgErr    *session.ConfigError
		trErr     *session.TransitionError
		exErr     *api.ExchangeError
		parseErr  *report.ParseError
		accessErr *speech.AccessError
	)

	switch {
	case errors.As(err, &cfgErr):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   cfgErr.Error(),
			"missing": cfgErr.Missing,
		})
	case errors.Is(err, interviewer.ErrEmptyMessage):
		badRequest(w, err.Error())
	case errors.As(err, &accessErr):
		badRequest(w, accessErr.Error())
	case errors.Is(err, session.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &trErr),
		errors.Is(err, session.ErrReportExists),
		errors.Is(err, interviewer.ErrNothingToRetry):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.As(err, &exErr):
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":           exErr.Message,
			"upstream_status": exErr.StatusCode,
		})
	case errors.As(err, &parseErr):
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": parseErr.Error(),
		})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": "request timed out"})
	default:
		observability.LoggerFromContext(r.Context()).Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}
