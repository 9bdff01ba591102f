package telegram

import (
	"sync"

	"interviewpro/internal/session"
)

// Bot talks to the Telegram Bot API over long polling.
type Bot struct {
	baseURL string
	client  httpDoer
}

type Update struct {
	UpdateID int      `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

type Message struct {
	MessageID int    `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      *Chat  `json:"chat"`
	Text      string `json:"text,omitempty"`
}

type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

type Chat struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
	Type      string `json:"type"`
}

type SendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type GetUpdatesResponse struct {
	OK          bool     `json:"ok"`
	Result      []Update `json:"result"`
	Description string   `json:"description,omitempty"`
}

type SendMessageResponse struct {
	OK          bool     `json:"ok"`
	Result      *Message `json:"result,omitempty"`
	Description string   `json:"description,omitempty"`
}

// step tracks where a chat is in the /start questionnaire.
type step int

const (
	stepIdle step = iota
	stepPosition
	stepCompany
	stepResume
	stepJobDescription
	stepInterview
)

// chatState binds one Telegram chat to its interview session.
// mu serializes updates of the same chat.
type chatState struct {
	mu        sync.Mutex
	sessionID string
	step      step
	input     session.ContextInput
}
