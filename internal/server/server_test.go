package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interviewpro/internal/api"
	"interviewpro/internal/config"
	"interviewpro/internal/interviewer"
	"interviewpro/internal/metrics"
	"interviewpro/internal/ratelimit"
	"interviewpro/internal/session"
)

const reportJSON = `{"overallScore": 4, "overallSummary": "不错", "topStrengths": ["a","b","c"],
"areasForImprovement": ["d","e","f"], "competencyAnalysis": [], "developmentPlan": {"shortTerm": [], "longTerm": []}}`

// scriptedCompleter returns queued chat and report results in order, then defaults.
type scriptedCompleter struct {
	mu      sync.Mutex
	chat    []error
	reports []string
}

func (c *scriptedCompleter) Complete(_ context.Context, req api.Request) (api.Completion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if req.JSONMode {
		reply := reportJSON
		if len(c.reports) > 0 {
			reply, c.reports = c.reports[0], c.reports[1:]
		}
		return api.Completion{Content: reply}, nil
	}

	if len(c.chat) > 0 {
		err := c.chat[0]
		c.chat = c.chat[1:]
		if err != nil {
			return api.Completion{}, err
		}
	}
	return api.Completion{Content: "下一个问题"}, nil
}

type testEnv struct {
	handler   http.Handler
	store     *session.Store
	completer *scriptedCompleter
}

func newTestEnv(t *testing.T, rateLimit int) *testEnv {
	t.Helper()

	completer := &scriptedCompleter{}
	m, err := metrics.NewMetrics(nil)
	require.NoError(t, err)
	llm := &config.LLMConfig{Provider: config.ProviderOpenAI, Model: "deepseek-chat", MaxTokens: 2000, ReportMaxTokens: 2000, JSONMode: true}
	svc := interviewer.New(completer, config.Default(), llm, m, nil)
	store := session.NewStore(time.Hour)

	srv := New(Options{
		Service:            svc,
		Store:              store,
		Metrics:            m,
		Limiter:            ratelimit.New(rateLimit, time.Minute),
		FallbackCredential: "sk-env",
		ModelInfo:          llm.GetModelInfo(),
	})
	return &testEnv{handler: srv.Handler(), store: store, completer: completer}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case []byte:
		buf.Write(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

var createBody = map[string]string{
	"target_position": "后端工程师",
	"target_company":  "某公司",
	"resume_text":     "五年Go经验",
	"job_description": "负责存储",
}

func (e *testEnv) createSession(t *testing.T) sessionResponse {
	t.Helper()
	w := e.do(t, http.MethodPost, "/sessions", createBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[sessionResponse](t, w)
}

func TestCreateSession(t *testing.T) {
	env := newTestEnv(t, 0)
	w := env.do(t, http.MethodPost, "/sessions", createBody)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.NotContains(t, w.Body.String(), "sk-env")

	resp := decode[sessionResponse](t, w)
	assert.Equal(t, session.StateInProgress, resp.State)
	assert.Equal(t, "某公司", resp.TargetCompany)
	require.Len(t, resp.Turns, 1)
	assert.Equal(t, session.SpeakerAssistant, resp.Turns[0].Speaker)
}

func TestCreateSession_MissingFields(t *testing.T) {
	env := newTestEnv(t, 0)
	w := env.do(t, http.MethodPost, "/sessions", map[string]string{"target_position": "后端工程师"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[map[string]any](t, w)
	assert.ElementsMatch(t, []any{"target_company", "resume_text", "job_description"}, body["missing"])
	assert.Zero(t, env.store.Len())
}

func TestCreateSession_InvalidJSON(t *testing.T) {
	env := newTestEnv(t, 0)
	w := env.do(t, http.MethodPost, "/sessions", []byte("{"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSession_NotFound(t *testing.T) {
	env := newTestEnv(t, 0)
	w := env.do(t, http.MethodGet, "/sessions/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInterviewFlow(t *testing.T) {
	env := newTestEnv(t, 0)
	created := env.createSession(t)
	base := "/sessions/" + created.ID

	w := env.do(t, http.MethodPost, base+"/messages", sendMessageRequest{Text: "我准备好了"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reply := decode[replyResponse](t, w)
	assert.Equal(t, "下一个问题", reply.Reply.Content)
	assert.Len(t, reply.Session.Turns, 3)

	w = env.do(t, http.MethodPost, base+"/complete", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	done := decode[sessionResponse](t, w)
	assert.Equal(t, session.StateCompleted, done.State)
	require.NotNil(t, done.Report)
	assert.Equal(t, 4.0, done.Report.OverallScore)

	// Completed sessions take no more turns and are not completed twice.
	w = env.do(t, http.MethodPost, base+"/messages", sendMessageRequest{Text: "还有吗"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = env.do(t, http.MethodPost, base+"/complete", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = env.do(t, http.MethodPost, base+"/report", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, decode[sessionResponse](t, w).Report)

	w = env.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendMessage_UpstreamFailureThenRetry(t *testing.T) {
	env := newTestEnv(t, 0)
	env.completer.chat = []error{&api.ExchangeError{StatusCode: http.StatusUnauthorized, Message: "Authentication Fails"}}
	base := "/sessions/" + env.createSession(t).ID

	w := env.do(t, http.MethodPost, base+"/messages", sendMessageRequest{Text: "回答"})
	require.Equal(t, http.StatusBadGateway, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "Authentication Fails", body["error"])
	assert.Equal(t, float64(http.StatusUnauthorized), body["upstream_status"])

	w = env.do(t, http.MethodPost, base+"/retry", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[replyResponse](t, w).Session.Turns, 3)

	w = env.do(t, http.MethodPost, base+"/retry", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSendMessage_Empty(t *testing.T) {
	env := newTestEnv(t, 0)
	base := "/sessions/" + env.createSession(t).ID

	w := env.do(t, http.MethodPost, base+"/messages", sendMessageRequest{Text: "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestComplete_ParseErrorThenReport(t *testing.T) {
	env := newTestEnv(t, 0)
	env.completer.reports = []string{`{"overallScore": 4.5,`}
	base := "/sessions/" + env.createSession(t).ID

	w := env.do(t, http.MethodPost, base+"/messages", sendMessageRequest{Text: "回答"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, base+"/complete", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = env.do(t, http.MethodPost, base+"/report", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotNil(t, decode[sessionResponse](t, w).Report)
}

func TestAudio(t *testing.T) {
	env := newTestEnv(t, 0)
	base := "/sessions/" + env.createSession(t).ID

	w := env.do(t, http.MethodPost, base+"/audio", []byte("RIFF....WAVE"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[语音转文字功能待实现]", decode[transcriptResponse](t, w).Transcript)

	w = env.do(t, http.MethodPost, base+"/audio", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, 2)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, env.do(t, http.MethodGet, "/health", nil).Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, 0)
	w := env.do(t, http.MethodOptions, "/sessions", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, 0)
	env.createSession(t)

	w := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[map[string]any](t, w)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, float64(1), health["sessions"])
	assert.NotContains(t, w.Body.String(), "sk-env")

	w = env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[metrics.Snapshot](t, w)
	assert.Equal(t, int64(1), snap.InterviewsStarted)
}

func TestRunJanitor(t *testing.T) {
	store := session.NewStore(time.Nanosecond)
	store.Create()
	srv := New(Options{Store: store})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.RunJanitor(ctx, time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
