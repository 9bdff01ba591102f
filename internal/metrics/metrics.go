// Package metrics counts interview activity. Counters are kept in memory for
// the /metrics endpoint and mirrored to OpenTelemetry instruments.
package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Kinds of model calls.
const (
	CallChat   = "chat"
	CallReport = "report"
)

type Metrics struct {
	mu                  sync.RWMutex
	interviewsStarted   int64
	interviewsCompleted int64
	messagesExchanged   int64
	reportsGenerated    int64
	reportsFailed       int64
	apiCallsTotal       int64
	apiCallsSuccessful  int64
	lastUpdateTime      time.Time

	interviews metric.Int64Counter
	apiCalls   metric.Int64Counter
	reports    metric.Int64Counter
	latency    metric.Float64Histogram
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	InterviewsStarted   int64     `json:"interviews_started"`
	InterviewsCompleted int64     `json:"interviews_completed"`
	MessagesExchanged   int64     `json:"messages_exchanged"`
	ReportsGenerated    int64     `json:"reports_generated"`
	ReportsFailed       int64     `json:"reports_failed"`
	APICallsTotal       int64     `json:"api_calls_total"`
	APICallsSuccessful  int64     `json:"api_calls_successful"`
	LastUpdateTime      time.Time `json:"last_update_time"`
}

// NewMetrics creates the counters. A nil meter disables the OpenTelemetry side.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("interviewpro")
	}

	m := &Metrics{lastUpdateTime: time.Now()}

	var err error
	if m.interviews, err = meter.Int64Counter("interviewpro.interviews",
		metric.WithDescription("Interviews by lifecycle event")); err != nil {
		return nil, err
	}
	if m.apiCalls, err = meter.Int64Counter("interviewpro.api.calls",
		metric.WithDescription("Model provider calls")); err != nil {
		return nil, err
	}
	if m.reports, err = meter.Int64Counter("interviewpro.reports",
		metric.WithDescription("Report generation attempts")); err != nil {
		return nil, err
	}
	if m.latency, err = meter.Float64Histogram("interviewpro.api.latency",
		metric.WithDescription("Model provider call latency"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) IncrementInterviewsStarted(ctx context.Context) {
	m.mu.Lock()
	m.interviewsStarted++
	m.lastUpdateTime = time.Now()
	m.mu.Unlock()

	m.interviews.Add(ctx, 1, metric.WithAttributes(attribute.String("event", "started")))
}

func (m *Metrics) IncrementInterviewsCompleted(ctx context.Context) {
	m.mu.Lock()
	m.interviewsCompleted++
	m.lastUpdateTime = time.Now()
	m.mu.Unlock()

	m.interviews.Add(ctx, 1, metric.WithAttributes(attribute.String("event", "completed")))
}

func (m *Metrics) IncrementMessagesExchanged() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messagesExchanged++
	m.lastUpdateTime = time.Now()
}

func (m *Metrics) IncrementReports(ctx context.Context, success bool) {
	m.mu.Lock()
	if success {
		m.reportsGenerated++
	} else {
		m.reportsFailed++
	}
	m.lastUpdateTime = time.Now()
	m.mu.Unlock()

	m.reports.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// ObserveAPICall records one provider call of the given kind.
func (m *Metrics) ObserveAPICall(ctx context.Context, kind string, elapsed time.Duration, success bool) {
	m.mu.Lock()
	m.apiCallsTotal++
	if success {
		m.apiCallsSuccessful++
	}
	m.lastUpdateTime = time.Now()
	m.mu.Unlock()

	attrs := metric.WithAttributes(attribute.String("kind", kind), attribute.Bool("success", success))
	m.apiCalls.Add(ctx, 1, attrs)
	m.latency.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		InterviewsStarted:   m.interviewsStarted,
		InterviewsCompleted: m.interviewsCompleted,
		MessagesExchanged:   m.messagesExchanged,
		ReportsGenerated:    m.reportsGenerated,
		ReportsFailed:       m.reportsFailed,
		APICallsTotal:       m.apiCallsTotal,
		APICallsSuccessful:  m.apiCallsSuccessful,
		LastUpdateTime:      m.lastUpdateTime,
	}
}
