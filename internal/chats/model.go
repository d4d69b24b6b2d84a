package chats

import "time"

// Message roles as stored. Provider vocabulary maps USER to "user" and
// ASSISTANT to "model".
const (
	RoleUser      = "USER"
	RoleAssistant = "ASSISTANT"
)

// Session defaults applied when the caller supplies no options.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 4096
)

// historyWindow bounds the provider context to the most recent stored
// messages.
const historyWindow = 20

// titleLimit is the derived-title truncation point.
const titleLimit = 50

// Session is one conversational thread with the assistant. Deletion is
// soft: IsActive flips to false and the session stops resolving.
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title,omitempty"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"maxTokens"`
	Model       string    `json:"model"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Message is one stored chat message.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Tokens    *int      `json:"tokens,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionWithCount is the list projection.
type SessionWithCount struct {
	Session
	MessageCount int `json:"messageCount"`
}
