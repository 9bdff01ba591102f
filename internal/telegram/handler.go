package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"interviewpro/internal/api"
	"interviewpro/internal/interviewer"
	"interviewpro/internal/observability"
	"interviewpro/internal/ratelimit"
	"interviewpro/internal/report"
	"interviewpro/internal/session"
)

const (
	maxInputRunes   = 4000
	maxMessageRunes = 3500
)

// Sender delivers text to a chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type Handler struct {
	sender      Sender
	interviewer *interviewer.Service
	store       *session.Store
	// credential is the deployment API key; Telegram users never type one.
	credential  string
	rateLimiter *ratelimit.RateLimiter

	chatsMutex sync.Mutex
	chats      map[int64]*chatState
}

func NewHandler(sender Sender, svc *interviewer.Service, store *session.Store, credential string, limiter *ratelimit.RateLimiter) *Handler {
	return &Handler{
		sender:      sender,
		interviewer: svc,
		store:       store,
		credential:  credential,
		rateLimiter: limiter,
		chats:       make(map[int64]*chatState),
	}
}

// RunCleanup evicts idle sessions and forgets chats whose session is gone.
func (h *Handler) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.cleanup(now)
		}
	}
}

func (h *Handler) cleanup(now time.Time) {
	if n := h.store.EvictIdle(now); n > 0 {
		observability.Logger().Info("evicted idle sessions", "count", n)
	}
	if h.rateLimiter != nil {
		h.rateLimiter.Cleanup()
	}

	h.chatsMutex.Lock()
	defer h.chatsMutex.Unlock()
	for chatID, cs := range h.chats {
		// Busy chats are checked on the next tick.
		if !cs.mu.TryLock() {
			continue
		}
		if _, ok := h.lookup(cs); !ok {
			delete(h.chats, chatID)
		}
		cs.mu.Unlock()
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, update Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Chat == nil {
		return
	}
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)

	if h.rateLimiter != nil && !h.rateLimiter.IsAllowed(strconv.FormatInt(userID, 10)) {
		h.send(ctx, chatID, "⏳ 消息过于频繁，请稍候一分钟再试。")
		return
	}

	cs := h.chat(chatID)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if strings.HasPrefix(text, "/") {
		h.handleCommand(ctx, chatID, text, cs)
		return
	}
	h.handleUserInput(ctx, chatID, text, cs)
}

func (h *Handler) chat(chatID int64) *chatState {
	h.chatsMutex.Lock()
	defer h.chatsMutex.Unlock()

	cs, ok := h.chats[chatID]
	if !ok {
		cs = &chatState{}
		h.chats[chatID] = cs
	}
	return cs
}

func (h *Handler) handleCommand(ctx context.Context, chatID int64, text string, cs *chatState) {
	command := strings.Fields(text)[0]
	// Telegram appends the bot name in group chats.
	command, _, _ = strings.Cut(command, "@")

	switch command {
	case "/start":
		h.handleStartCommand(ctx, chatID, cs)
	case "/end":
		h.handleEndCommand(ctx, chatID, cs)
	case "/report":
		h.handleReportCommand(ctx, chatID, cs)
	case "/retry":
		h.handleRetryCommand(ctx, chatID, cs)
	case "/status":
		h.handleStatusCommand(ctx, chatID, cs)
	case "/reset":
		h.resetChat(cs)
		h.send(ctx, chatID, "🔄 会话已重置。使用 /start 开始新的模拟面试。")
	case "/help":
		h.send(ctx, chatID, helpText)
	default:
		h.send(ctx, chatID, "未知命令。使用 /help 查看可用命令。")
	}
}

const helpText = `🤖 模拟面试助手

命令：
/start - 开始新的模拟面试
/end - 结束面试并生成评估报告
/report - 重新生成评估报告
/retry - 重新发送上一条回答
/status - 查看当前面试状态
/reset - 放弃当前面试
/help - 显示本帮助

流程：
1. 使用 /start 后依次填写目标职位、目标公司、简历和职位描述
2. 面试官每次提出一个问题，直接回复文字作答
3. 使用 /end 结束面试，获取评估报告`

func (h *Handler) handleStartCommand(ctx context.Context, chatID int64, cs *chatState) {
	if sess, ok := h.lookup(cs); ok && sess.State() == session.StateInProgress {
		h.send(ctx, chatID, "面试正在进行中。使用 /end 结束面试，或使用 /reset 重新开始。")
		return
	}

	h.resetChat(cs)

	sess := h.store.Create()
	if err := sess.Configure(); err != nil {
		h.sendError(ctx, chatID, err)
		return
	}
	cs.sessionID = sess.ID
	cs.step = stepPosition

	h.send(ctx, chatID, "🎯 欢迎使用模拟面试助手！\n\n请输入目标职位：")
}

func (h *Handler) handleEndCommand(ctx context.Context, chatID int64, cs *chatState) {
	sess, ok := h.lookup(cs)
	if !ok || sess.State() != session.StateInProgress {
		h.send(ctx, chatID, "当前没有进行中的面试。使用 /start 开始。")
		return
	}

	h.send(ctx, chatID, "📝 面试结束，正在生成评估报告...")

	r, err := h.interviewer.Finish(ctx, sess)
	if err != nil {
		if sess.State() == session.StateCompleted {
			h.send(ctx, chatID, "❌ 报告生成失败："+userMessage(err)+"\n使用 /report 重试。")
			return
		}
		h.sendError(ctx, chatID, err)
		return
	}

	h.sendLong(ctx, chatID, report.Render(r))
}

func (h *Handler) handleReportCommand(ctx context.Context, chatID int64, cs *chatState) {
	sess, ok := h.lookup(cs)
	if !ok || sess.State() != session.StateCompleted {
		h.send(ctx, chatID, "报告仅在面试结束后可用。使用 /end 结束面试。")
		return
	}

	r, err := h.interviewer.GenerateReport(ctx, sess)
	if errors.Is(err, session.ErrReportExists) {
		r, err = sess.Report(), nil
	}
	if err != nil {
		h.sendError(ctx, chatID, err)
		return
	}

	h.sendLong(ctx, chatID, report.Render(r))
}

func (h *Handler) handleRetryCommand(ctx context.Context, chatID int64, cs *chatState) {
	sess, ok := h.lookup(cs)
	if !ok || sess.State() != session.StateInProgress {
		h.send(ctx, chatID, "当前没有进行中的面试。")
		return
	}

	turn, err := h.interviewer.Retry(ctx, sess)
	if err != nil {
		h.sendError(ctx, chatID, err)
		return
	}
	h.send(ctx, chatID, turn.Content)
}

func (h *Handler) handleStatusCommand(ctx context.Context, chatID int64, cs *chatState) {
	sess, ok := h.lookup(cs)
	if !ok {
		h.send(ctx, chatID, "面试未开始。使用 /start 开始。")
		return
	}

	switch sess.State() {
	case session.StateConfiguring:
		h.send(ctx, chatID, "📋 正在填写面试信息。\n"+h.prompt(cs.step))
	case session.StateInProgress:
		sc := sess.Context()
		h.send(ctx, chatID, fmt.Sprintf("📊 面试进行中\n\n🆔 %s\n💼 %s · %s\n💬 已回答 %d 次",
			sess.ID, sc.TargetCompany(), sc.TargetPosition(), countUserTurns(sess)))
	case session.StateCompleted:
		status := "✅ 面试已结束。"
		if sess.Report() == nil {
			status += "\n报告尚未生成，使用 /report 重试。"
		} else {
			status += "\n使用 /report 再次查看报告。"
		}
		h.send(ctx, chatID, status)
	default:
		h.send(ctx, chatID, "面试未开始。使用 /start 开始。")
	}
}

// validateUserInput rejects oversized and spam-like messages.
func validateUserInput(text string) error {
	n := utf8.RuneCountInString(text)
	if n > maxInputRunes {
		return fmt.Errorf("消息过长（最多 %d 个字符）", maxInputRunes)
	}

	if n > 10 {
		first, _ := utf8.DecodeRuneInString(text)
		if strings.Count(text, string(first)) > n*8/10 {
			return fmt.Errorf("消息包含过多重复字符")
		}
	}

	return nil
}

func (h *Handler) handleUserInput(ctx context.Context, chatID int64, text string, cs *chatState) {
	if text == "" {
		return
	}

	if err := validateUserInput(text); err != nil {
		h.send(ctx, chatID, "❌ "+err.Error())
		return
	}

	sess, ok := h.lookup(cs)
	if !ok {
		h.resetChat(cs)
		h.send(ctx, chatID, "当前没有进行中的面试。使用 /start 开始，或使用 /help 查看帮助。")
		return
	}

	switch cs.step {
	case stepPosition:
		cs.input.TargetPosition = text
		cs.step = stepCompany
		h.send(ctx, chatID, h.prompt(cs.step))
	case stepCompany:
		cs.input.TargetCompany = text
		cs.step = stepResume
		h.send(ctx, chatID, h.prompt(cs.step))
	case stepResume:
		cs.input.ResumeText = text
		cs.step = stepJobDescription
		h.send(ctx, chatID, h.prompt(cs.step))
	case stepJobDescription:
		cs.input.JobDescription = text
		h.beginInterview(ctx, chatID, cs, sess)
	case stepInterview:
		if sess.State() != session.StateInProgress {
			h.send(ctx, chatID, "面试已结束。使用 /report 查看报告，或使用 /start 开始新的面试。")
			return
		}
		turn, err := h.interviewer.Send(ctx, sess, text)
		if err != nil {
			h.sendError(ctx, chatID, err)
			return
		}
		h.send(ctx, chatID, turn.Content)
	default:
		h.send(ctx, chatID, "使用 /start 开始模拟面试。")
	}
}

func (h *Handler) beginInterview(ctx context.Context, chatID int64, cs *chatState, sess *session.Session) {
	sc, err := session.NewContext(cs.input, h.credential)
	if err == nil {
		err = h.interviewer.Start(ctx, sess, sc)
	}
	if err != nil {
		h.resetChat(cs)
		h.sendError(ctx, chatID, err)
		return
	}
	cs.step = stepInterview

	if last, ok := sess.Log().Last(); ok && last.Speaker == session.SpeakerAssistant {
		h.send(ctx, chatID, last.Content)
		return
	}
	h.send(ctx, chatID, "面试开始！请先做一个简单的自我介绍。")
}

func (h *Handler) prompt(s step) string {
	switch s {
	case stepPosition:
		return "请输入目标职位："
	case stepCompany:
		return "请输入目标公司："
	case stepResume:
		return "请粘贴您的简历内容："
	case stepJobDescription:
		return "请粘贴职位描述（JD）："
	default:
		return ""
	}
}

func (h *Handler) lookup(cs *chatState) (*session.Session, bool) {
	if cs.sessionID == "" {
		return nil, false
	}
	sess, err := h.store.Get(cs.sessionID)
	if err != nil {
		return nil, false
	}
	return sess, true
}

// resetChat drops the chat's session and questionnaire answers.
func (h *Handler) resetChat(cs *chatState) {
	if cs.sessionID != "" {
		_ = h.store.Delete(cs.sessionID)
	}
	cs.sessionID = ""
	cs.step = stepIdle
	cs.input = session.ContextInput{}
}

func (h *Handler) send(ctx context.Context, chatID int64, text string) {
	if err := h.sender.SendMessage(ctx, chatID, text); err != nil {
		observability.LoggerFromContext(ctx).Error("failed to send message",
			"chat_id", chatID,
			"error", err)
	}
}

// sendLong splits text into Telegram-sized parts on line boundaries where possible.
func (h *Handler) sendLong(ctx context.Context, chatID int64, text string) {
	for _, part := range splitMessage(text, maxMessageRunes) {
		h.send(ctx, chatID, part)
	}
}

func splitMessage(text string, limit int) []string {
	var parts []string
	for utf8.RuneCountInString(text) > limit {
		runes := []rune(text)
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, strings.TrimRight(string(runes[:cut]), "\n"))
		text = string(runes[cut:])
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}

func (h *Handler) sendError(ctx context.Context, chatID int64, err error) {
	var exErr *api.ExchangeError
	if errors.As(err, &exErr) {
		observability.LoggerFromContext(ctx).Warn("exchange failed",
			"chat_id", chatID,
			"upstream_status", exErr.StatusCode)
	}
	h.send(ctx, chatID, "❌ "+userMessage(err))
}

// userMessage explains err to the candidate.
func userMessage(err error) string {
	var (
		cfgErr   *session.ConfigError
		exErr    *api.ExchangeError
		parseErr *report.ParseError
		trErr    *session.TransitionError
	)

	switch {
	case errors.As(err, &cfgErr):
		if len(cfgErr.Missing) > 0 {
			return "面试信息不完整，缺少：" + strings.Join(cfgErr.Missing, ", ") + "。使用 /start 重新填写。"
		}
		return cfgErr.Error()
	case errors.As(err, &exErr):
		return "AI 服务请求失败：" + exErr.Message + "\n使用 /retry 重试。"
	case errors.As(err, &parseErr):
		return "AI 返回的报告格式无效。"
	case errors.As(err, &trErr):
		return "当前状态不允许该操作。"
	case errors.Is(err, interviewer.ErrNothingToRetry):
		return "没有需要重试的消息。"
	case errors.Is(err, interviewer.ErrEmptyMessage):
		return "消息不能为空。"
	case errors.Is(err, context.DeadlineExceeded):
		return "请求超时，请稍后重试。"
	default:
		return "发生内部错误，请稍后重试。"
	}
}

func countUserTurns(sess *session.Session) int {
	n := 0
	for _, t := range sess.Log().Turns() {
		if t.Speaker == session.SpeakerUser {
			n++
		}
	}
	return n
}
