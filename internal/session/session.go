// Package session holds the per-interview state: the immutable context,
// the conversation log, the lifecycle state and the finished report.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"interviewpro/internal/report"
)

// State is the lifecycle position of a session.
type State string

const (
	StateUnconfigured State = "unconfigured"
	StateConfiguring  State = "configuring"
	StateInProgress   State = "in_progress"
	StateCompleted    State = "completed"
)

// ErrReportExists is returned when a report is attached to a session that already has one.
var ErrReportExists = errors.New("session already has a report")

// Session binds one Context, one Log and the report produced from them.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.RWMutex
	state      State
	context    *Context
	log        *Log
	report     *report.Report
	lastActive time.Time

	// exchange allows one request to the model at a time.
	exchange *semaphore.Weighted
}

func New() *Session {
	now := time.Now()
	return &Session{
		ID:         uuid.New().String(),
		CreatedAt:  now,
		state:      StateUnconfigured,
		log:        NewLog(),
		lastActive: now,
		exchange:   semaphore.NewWeighted(1),
	}
}

// Configure marks that context collection has started.
func (s *Session) Configure() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUnconfigured {
		return &TransitionError{From: s.state, To: StateConfiguring}
	}
	s.state = StateConfiguring
	s.touch()
	return nil
}

// Begin stores the context, seeds the log with the system turn and moves the
// session to InProgress. Nothing changes when the context or prompt is unusable.
func (s *Session) Begin(sc *Context, systemPrompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUnconfigured && s.state != StateConfiguring {
		return &TransitionError{From: s.state, To: StateInProgress}
	}
	if err := s.log.Initialize(sc, systemPrompt); err != nil {
		return err
	}

	s.context = sc
	s.state = StateInProgress
	s.touch()
	return nil
}

// Complete ends the conversation. No more turns are exchanged afterwards.
func (s *Session) Complete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return &TransitionError{From: s.state, To: StateCompleted}
	}
	s.state = StateCompleted
	s.touch()
	return nil
}

// Reset returns the session to Unconfigured and drops everything it collected.
// It waits for an in-flight exchange to finish so no reply lands in the cleared log.
func (s *Session) Reset() {
	// Acquire with a background context cannot fail.
	_ = s.exchange.Acquire(context.Background(), 1)
	defer s.exchange.Release(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateUnconfigured
	s.context = nil
	s.report = nil
	s.log.reset()
	s.touch()
}

// AttachReport stores the generated report. It is accepted once, and only after Complete.
func (s *Session) AttachReport(r *report.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCompleted {
		return &TransitionError{From: s.state, To: StateCompleted}
	}
	if s.report != nil {
		return ErrReportExists
	}
	s.report = r
	s.touch()
	return nil
}

// AcquireExchange blocks until no other exchange runs on this session.
// The returned function releases the slot.
func (s *Session) AcquireExchange(ctx context.Context) (func(), error) {
	if err := s.exchange.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	var once sync.Once
	return func() { once.Do(func() { s.exchange.Release(1) }) }, nil
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Context() *Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.context
}

func (s *Session) Report() *report.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

func (s *Session) Log() *Log {
	return s.log
}

// Touch records activity that does not change state, such as an appended turn.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
}

func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

func (s *Session) touch() {
	s.lastActive = time.Now()
}
