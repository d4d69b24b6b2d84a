package plans

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"intervie-backend/internal/shared/server/middleware"
	"intervie-backend/internal/shared/server/respond"
)

// Handler exposes usage and plan administration endpoints.
type Handler struct {
	Svc      *Service
	AdminKey string
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, adminKey string) *Handler {
	return &Handler{Svc: svc, AdminKey: adminKey}
}

// RegisterRoutes attaches user-facing usage routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/usage", h.getUsage)
}

// RegisterAdminRoutes attaches plan administration routes. Callers must
// present the admin key header.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(h.requireAdmin)
	admin.GET("/plan-limits", h.listPlanLimits)
	admin.PUT("/plan-limits/:plan", h.upsertPlanLimit)
}

func (h *Handler) requireAdmin(c *gin.Context) {
	if h.AdminKey == "" || c.GetHeader("X-Admin-Key") != h.AdminKey {
		respond.Error(c, http.StatusForbidden, "forbidden", "admin access required", nil)
		return
	}
	c.Next()
}

func (h *Handler) getUsage(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	ctx := c.Request.Context()

	out := make(map[string]Usage, 3)
	for _, action := range []Action{ActionStartInterview, ActionChatMessage, ActionResumeUpload} {
		usage, err := h.Svc.Snapshot(ctx, userID, action)
		if err != nil {
			if errors.Is(err, ErrPlanNotConfigured) {
				respond.Error(c, http.StatusInternalServerError, "configuration_error", "Plan limits not configured. Please contact support.", nil)
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch usage", nil)
			return
		}
		out[string(action)] = usage
	}

	respond.OK(c, "Usage retrieved", out)
}

func (h *Handler) listPlanLimits(c *gin.Context) {
	limits, err := h.Svc.Store.ListPlanLimits(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list plan limits", nil)
		return
	}
	respond.OK(c, "Plan limits retrieved", limits)
}

type upsertPlanLimitRequest struct {
	MaxInterviews    *int  `json:"maxInterviews" binding:"required"`
	MaxChatMessages  *int  `json:"maxChatMessages" binding:"required"`
	MaxResumeUploads *int  `json:"maxResumeUploads" binding:"required"`
	IsActive         *bool `json:"isActive"`
}

func (h *Handler) upsertPlanLimit(c *gin.Context) {
	plan := c.Param("plan")
	switch plan {
	case PlanFree, PlanBasic, PlanPro:
	default:
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown plan", nil)
		return
	}

	var req upsertPlanLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	limit := PlanLimit{
		Plan:             plan,
		MaxInterviews:    *req.MaxInterviews,
		MaxChatMessages:  *req.MaxChatMessages,
		MaxResumeUploads: *req.MaxResumeUploads,
		IsActive:         true,
	}
	if req.IsActive != nil {
		limit.IsActive = *req.IsActive
	}

	if err := h.Svc.Store.UpsertPlanLimit(c.Request.Context(), limit); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update plan limits", nil)
		return
	}
	respond.OK(c, "Plan limits updated", limit)
}
