package chats

import "context"

// SessionUpdate carries optional field changes; nil means keep current.
type SessionUpdate struct {
	Title       *string
	Temperature *float64
	MaxTokens   *int
	Model       *string
}

// Repo defines persistence operations for chat sessions and messages.
// Session lookups only resolve active rows owned by the user.
type Repo interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, sessionID, userID string) (Session, error)
	ListSessions(ctx context.Context, userID string) ([]SessionWithCount, error)
	UpdateSession(ctx context.Context, sessionID string, update SessionUpdate) (Session, error)
	// DeactivateSession soft-deletes the session.
	DeactivateSession(ctx context.Context, sessionID string) error
	// TouchSession bumps updated_at.
	TouchSession(ctx context.Context, sessionID string) error
	// SetTitle persists a derived title.
	SetTitle(ctx context.Context, sessionID, title string) error

	AddMessage(ctx context.Context, message Message) error
	// ListMessages returns all messages ascending by creation time.
	ListMessages(ctx context.Context, sessionID string) ([]Message, error)
	// RecentMessages returns the last n messages in ascending order.
	RecentMessages(ctx context.Context, sessionID string, n int) ([]Message, error)
	CountMessages(ctx context.Context, sessionID string) (int, error)
}
