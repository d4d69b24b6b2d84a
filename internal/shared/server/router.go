package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"intervie-backend/internal/chats"
	"intervie-backend/internal/interviews"
	"intervie-backend/internal/plans"
	"intervie-backend/internal/realtime"
	"intervie-backend/internal/shared/config"
	"intervie-backend/internal/shared/metrics"
	"intervie-backend/internal/shared/server/middleware"
	"intervie-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config           config.Config
	Verify           middleware.TokenVerifier
	InterviewHandler *interviews.Handler
	ChatHandler      *chats.Handler
	PlansHandler     *plans.Handler
	Hub              *realtime.Hub
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	authed := api.Group("")
	authed.Use(middleware.Auth(deps.Config.Env, deps.Verify))
	deps.InterviewHandler.RegisterRoutes(authed)
	deps.ChatHandler.RegisterRoutes(authed)
	deps.PlansHandler.RegisterRoutes(authed)
	deps.PlansHandler.RegisterAdminRoutes(authed)

	if deps.Hub != nil {
		// Browsers cannot set auth headers on websocket upgrades, so the
		// push channel is keyed by session id only and carries no
		// user-scoped reads.
		deps.Hub.RegisterRoutes(r.Group("/ws"))
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
