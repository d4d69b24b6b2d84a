package chats

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"intervie-backend/internal/ai"
	"intervie-backend/internal/plans"
	"intervie-backend/internal/shared/server/middleware"
	"intervie-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches chat routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat", h.chat)
	rg.POST("/chat/sessions", h.createSession)
	rg.GET("/chat/sessions", h.listSessions)
	rg.GET("/chat/sessions/:id", h.getSession)
	rg.PATCH("/chat/sessions/:id", h.updateSession)
	rg.DELETE("/chat/sessions/:id", h.deleteSession)
}

type createSessionRequest struct {
	Title       string   `json:"title"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int     `json:"maxTokens"`
	Model       string   `json:"model"`
}

func (h *Handler) createSession(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req createSessionRequest
	// Body is optional; an empty body creates a session with defaults.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	session, err := h.Svc.CreateSession(c.Request.Context(), userID, SessionOptions{
		Title:       req.Title,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Model:       req.Model,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond.Created(c, "Chat session created", session)
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message" binding:"required"`
}

func (h *Handler) chat(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "message is required", nil)
		return
	}

	result, err := h.Svc.Chat(c.Request.Context(), userID, req.SessionID, req.Message)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond.OK(c, "Message sent", result)
}

func (h *Handler) listSessions(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	sessions, err := h.Svc.ListSessions(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if sessions == nil {
		sessions = []SessionWithCount{}
	}
	respond.OK(c, "Chat sessions", sessions)
}

func (h *Handler) getSession(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	detail, err := h.Svc.GetSession(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if detail.Messages == nil {
		detail.Messages = []Message{}
	}
	respond.OK(c, "Chat session", detail)
}

type updateSessionRequest struct {
	Title       *string  `json:"title"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int     `json:"maxTokens"`
	Model       *string  `json:"model"`
}

func (h *Handler) updateSession(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req updateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	session, err := h.Svc.UpdateSession(c.Request.Context(), userID, c.Param("id"), SessionUpdate{
		Title:       req.Title,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Model:       req.Model,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond.OK(c, "Chat session updated", session)
}

func (h *Handler) deleteSession(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	if err := h.Svc.DeleteSession(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	respond.OK(c, "Chat session deleted", nil)
}

func respondServiceError(c *gin.Context, err error) {
	var (
		quotaErr *plans.QuotaError
		rateErr  *ai.RateLimitError
	)
	switch {
	case errors.As(err, &quotaErr):
		respond.Error(c, http.StatusForbidden, "quota_exceeded", quotaErr.Error(), gin.H{
			"plan":  quotaErr.Plan,
			"limit": quotaErr.Limit,
		})
	case errors.As(err, &rateErr):
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", rateErr.Error(), nil)
	case errors.Is(err, plans.ErrPlanNotConfigured):
		respond.Error(c, http.StatusInternalServerError, "configuration_error", "Plan limits not configured. Please contact support.", nil)
	case errors.Is(err, ErrSessionNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, ErrEmptyPrompt), errors.Is(err, ErrUnsupportedModel):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ai.ErrEmptyResponse):
		respond.Error(c, http.StatusBadGateway, "provider_error", "AI service returned an empty response", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "unexpected error", nil)
	}
}
