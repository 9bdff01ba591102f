package session

import (
	"strings"
	"sync"
	"time"
)

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerSystem    Speaker = "system"
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one entry of the conversation. Turns are never modified after creation.
type Turn struct {
	Speaker   Speaker   `json:"speaker"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Log is the ordered, append-only conversation of a single session.
type Log struct {
	mu    sync.RWMutex
	turns []Turn
	now   func() time.Time
}

func NewLog() *Log {
	return &Log{now: time.Now}
}

// Initialize discards any previous turns and starts the log with the system turn.
func (l *Log) Initialize(sc *Context, systemPrompt string) error {
	if sc == nil {
		return &ConfigError{Message: "session context is not configured"}
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return &ConfigError{Message: "system prompt is empty"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = []Turn{{Speaker: SpeakerSystem, Content: systemPrompt, CreatedAt: l.now()}}
	return nil
}

func (l *Log) AppendUser(content string) Turn {
	return l.append(SpeakerUser, content)
}

func (l *Log) AppendAssistant(content string) Turn {
	return l.append(SpeakerAssistant, content)
}

func (l *Log) append(speaker Speaker, content string) Turn {
	l.mu.Lock()
	defer l.mu.Unlock()
	turn := Turn{Speaker: speaker, Content: content, CreatedAt: l.now()}
	l.turns = append(l.turns, turn)
	return turn
}

// Turns returns a copy of the log in order.
func (l *Log) Turns() []Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}

// Last returns the most recent turn, or false on an empty log.
func (l *Log) Last() (Turn, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.turns) == 0 {
		return Turn{}, false
	}
	return l.turns[len(l.turns)-1], true
}

func (l *Log) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = nil
}

// Transcript renders the non-system turns as labelled lines for report generation.
func (l *Log) Transcript() string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var b strings.Builder
	for _, turn := range l.turns {
		switch turn.Speaker {
		case SpeakerAssistant:
			b.WriteString("面试官：")
		case SpeakerUser:
			b.WriteString("候选人：")
		default:
			continue
		}
		b.WriteString(turn.Content)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
