package chats

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"intervie-backend/internal/ai"
	"intervie-backend/internal/plans"
	"intervie-backend/internal/shared/metrics"
	"intervie-backend/internal/shared/telemetry"
)

const providerName = "gemini"

// Service owns chat session lifecycle and message exchange.
type Service struct {
	Repo     Repo
	Provider ai.ChatProvider
	Quota    *plans.Service
	Catalog  *ai.Catalog
	Limiter  *ai.RateLimiter

	now func() time.Time
}

func NewService(repo Repo, provider ai.ChatProvider, quota *plans.Service, catalog *ai.Catalog) *Service {
	if catalog == nil {
		catalog = ai.DefaultCatalog()
	}
	return &Service{
		Repo:     repo,
		Provider: provider,
		Quota:    quota,
		Catalog:  catalog,
		Limiter:  ai.NewRateLimiter(nil, ai.DefaultRateLimits()),
		now:      time.Now,
	}
}

// SessionOptions are the caller-supplied overrides for a new session.
type SessionOptions struct {
	Title       string
	Temperature *float64
	MaxTokens   *int
	Model       string
}

// ChatResult is the outcome of one message exchange.
type ChatResult struct {
	SessionID   string   `json:"sessionId"`
	UserMessage Message  `json:"userMessage"`
	AIMessage   Message  `json:"aiMessage"`
	Response    string   `json:"response"`
	Chunks      []string `json:"chunks,omitempty"`
}

// SessionDetail is a session with its full message history.
type SessionDetail struct {
	Session
	Messages []Message `json:"messages"`
}

// CreateSession opens a new chat session after checking the plan's
// chat quota.
func (s *Service) CreateSession(ctx context.Context, userID string, opts SessionOptions) (Session, error) {
	if err := s.Quota.Enforce(ctx, userID, plans.ActionChatMessage); err != nil {
		return Session{}, err
	}

	session := Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       strings.TrimSpace(opts.Title),
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Model:       s.Catalog.DefaultModel(providerName),
		IsActive:    true,
		CreatedAt:   s.now(),
		UpdatedAt:   s.now(),
	}
	if session.Title == "" {
		session.Title = "New Chat"
	}
	if opts.Temperature != nil {
		session.Temperature = *opts.Temperature
	}
	if opts.MaxTokens != nil {
		session.MaxTokens = *opts.MaxTokens
	}
	if opts.Model != "" {
		if !s.Catalog.ValidateModel(providerName, opts.Model) {
			return Session{}, ErrUnsupportedModel
		}
		session.Model = opts.Model
	}

	if err := s.Repo.CreateSession(ctx, session); err != nil {
		return Session{}, err
	}
	telemetry.Info("chat.session.created", map[string]any{
		"sessionId": session.ID,
		"userId":    userID,
		"model":     session.Model,
	})
	return session, nil
}

// Chat sends a prompt within a session, persisting both sides of the
// exchange. When sessionID is empty a new session is created first.
func (s *Service) Chat(ctx context.Context, userID, sessionID, prompt string) (ChatResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return ChatResult{}, ErrEmptyPrompt
	}
	if err := s.Quota.Enforce(ctx, userID, plans.ActionChatMessage); err != nil {
		return ChatResult{}, err
	}
	if err := s.allow(userID, "sendMessage"); err != nil {
		return ChatResult{}, err
	}

	var session Session
	var err error
	if sessionID == "" {
		session, err = s.CreateSession(ctx, userID, SessionOptions{})
	} else {
		session, err = s.Repo.GetSession(ctx, sessionID, userID)
	}
	if err != nil {
		return ChatResult{}, err
	}

	history, err := s.Repo.RecentMessages(ctx, session.ID, historyWindow)
	if err != nil {
		return ChatResult{}, err
	}
	firstMessage := len(history) == 0

	userMessage := Message{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Role:      RoleUser,
		Content:   prompt,
		CreatedAt: s.now(),
	}
	if err := s.Repo.AddMessage(ctx, userMessage); err != nil {
		return ChatResult{}, err
	}

	callStart := s.now()
	reply, err := s.Provider.SendMessage(ctx, providerHistory(history), prompt, session.Model)
	metrics.ObserveProviderDurationMs(float64(s.now().Sub(callStart).Milliseconds()))
	if err != nil {
		metrics.IncProviderError()
		telemetry.Error("chat.provider.failed", map[string]any{
			"sessionId": session.ID,
			"error":     err.Error(),
		})
		return ChatResult{}, err
	}

	aiMessage := Message{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Role:      RoleAssistant,
		Content:   reply.Text,
		CreatedAt: s.now(),
	}
	if err := s.Repo.AddMessage(ctx, aiMessage); err != nil {
		return ChatResult{}, err
	}
	metrics.IncChatMessage()

	if firstMessage && (session.Title == "" || session.Title == "New Chat") {
		if err := s.Repo.SetTitle(ctx, session.ID, deriveTitle(prompt)); err != nil {
			telemetry.Warn("chat.title.update_failed", map[string]any{
				"sessionId": session.ID,
				"error":     err.Error(),
			})
		}
	} else if err := s.Repo.TouchSession(ctx, session.ID); err != nil {
		telemetry.Warn("chat.session.touch_failed", map[string]any{
			"sessionId": session.ID,
			"error":     err.Error(),
		})
	}

	return ChatResult{
		SessionID:   session.ID,
		UserMessage: userMessage,
		AIMessage:   aiMessage,
		Response:    reply.Text,
		Chunks:      reply.Chunks,
	}, nil
}

// ListSessions returns the user's active sessions, most recent first.
func (s *Service) ListSessions(ctx context.Context, userID string) ([]SessionWithCount, error) {
	return s.Repo.ListSessions(ctx, userID)
}

// GetSession resolves one active session with its full history.
func (s *Service) GetSession(ctx context.Context, userID, sessionID string) (SessionDetail, error) {
	session, err := s.Repo.GetSession(ctx, sessionID, userID)
	if err != nil {
		return SessionDetail{}, err
	}
	messages, err := s.Repo.ListMessages(ctx, sessionID)
	if err != nil {
		return SessionDetail{}, err
	}
	return SessionDetail{Session: session, Messages: messages}, nil
}

// UpdateSession applies partial settings changes. A model change must
// name a model from the provider catalog.
func (s *Service) UpdateSession(ctx context.Context, userID, sessionID string, update SessionUpdate) (Session, error) {
	if _, err := s.Repo.GetSession(ctx, sessionID, userID); err != nil {
		return Session{}, err
	}
	if update.Model != nil && !s.Catalog.ValidateModel(providerName, *update.Model) {
		return Session{}, ErrUnsupportedModel
	}
	return s.Repo.UpdateSession(ctx, sessionID, update)
}

// DeleteSession soft-deletes a session.
func (s *Service) DeleteSession(ctx context.Context, userID, sessionID string) error {
	if _, err := s.Repo.GetSession(ctx, sessionID, userID); err != nil {
		return err
	}
	if err := s.Repo.DeactivateSession(ctx, sessionID); err != nil {
		return err
	}
	telemetry.Info("chat.session.deleted", map[string]any{
		"sessionId": sessionID,
		"userId":    userID,
	})
	return nil
}

func (s *Service) allow(userID, operation string) error {
	res := s.Limiter.Allow(userID, operation)
	if !res.Allowed {
		return &ai.RateLimitError{Operation: operation, RetryAfter: res.RetryAfter}
	}
	return nil
}

// deriveTitle takes the first prompt verbatim when it fits, otherwise
// the first titleLimit runes plus an ellipsis.
func deriveTitle(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= titleLimit {
		return prompt
	}
	return string(runes[:titleLimit]) + "..."
}

func providerHistory(messages []Message) []ai.ChatTurn {
	turns := make([]ai.ChatTurn, 0, len(messages))
	for _, m := range messages {
		role := "model"
		if m.Role == RoleUser {
			role = "user"
		}
		turns = append(turns, ai.ChatTurn{Role: role, Text: m.Content})
	}
	return turns
}
