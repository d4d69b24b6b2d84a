package chats

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo used by tests.
type MemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]Session
	messages map[string][]Message
}

var _ Repo = (*MemoryRepo)(nil)

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		sessions: make(map[string]Session),
		messages: make(map[string][]Message),
	}
}

func (r *MemoryRepo) CreateSession(ctx context.Context, session Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session.IsActive = true
	r.sessions[session.ID] = session
	return nil
}

func (r *MemoryRepo) GetSession(ctx context.Context, sessionID, userID string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[sessionID]
	if !ok || !session.IsActive || session.UserID != userID {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (r *MemoryRepo) ListSessions(ctx context.Context, userID string) ([]SessionWithCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sessions []SessionWithCount
	for _, session := range r.sessions {
		if session.UserID != userID || !session.IsActive {
			continue
		}
		sessions = append(sessions, SessionWithCount{
			Session:      session,
			MessageCount: len(r.messages[session.ID]),
		})
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

func (r *MemoryRepo) UpdateSession(ctx context.Context, sessionID string, update SessionUpdate) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if update.Title != nil {
		session.Title = *update.Title
	}
	if update.Temperature != nil {
		session.Temperature = *update.Temperature
	}
	if update.MaxTokens != nil {
		session.MaxTokens = *update.MaxTokens
	}
	if update.Model != nil {
		session.Model = *update.Model
	}
	session.UpdatedAt = time.Now()
	r.sessions[sessionID] = session
	return session, nil
}

func (r *MemoryRepo) DeactivateSession(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	session.IsActive = false
	session.UpdatedAt = time.Now()
	r.sessions[sessionID] = session
	return nil
}

func (r *MemoryRepo) TouchSession(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	session.UpdatedAt = time.Now()
	r.sessions[sessionID] = session
	return nil
}

func (r *MemoryRepo) SetTitle(ctx context.Context, sessionID, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	session.Title = title
	session.UpdatedAt = time.Now()
	r.sessions[sessionID] = session
	return nil
}

func (r *MemoryRepo) AddMessage(ctx context.Context, message Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[message.SessionID] = append(r.messages[message.SessionID], message)
	return nil
}

func (r *MemoryRepo) ListMessages(ctx context.Context, sessionID string) ([]Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedMessages(sessionID), nil
}

func (r *MemoryRepo) RecentMessages(ctx context.Context, sessionID string, n int) ([]Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	messages := r.sortedMessages(sessionID)
	if len(messages) > n {
		messages = messages[len(messages)-n:]
	}
	return messages, nil
}

func (r *MemoryRepo) CountMessages(ctx context.Context, sessionID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.messages[sessionID]), nil
}

func (r *MemoryRepo) sortedMessages(sessionID string) []Message {
	messages := append([]Message(nil), r.messages[sessionID]...)
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages
}
