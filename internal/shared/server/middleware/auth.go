package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"intervie-backend/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
)

// Identity is the authenticated principal resolved from a bearer token.
type Identity struct {
	UserID string
	Email  string
}

// TokenVerifier resolves a bearer token to an identity. Token issuance and
// verification live outside this service; the transport only consumes the
// resulting user id.
type TokenVerifier func(token string) (Identity, error)

// Auth resolves the caller identity and stores it in the request context.
// Accepts a verified bearer token, a guest header, or (in dev) a raw user id
// header for local testing.
func Auth(env string, verify TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			if token == "" || verify == nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			ident, err := verify(token)
			if err != nil || ident.UserID == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			c.Set(userIDKey, ident.UserID)
			if ident.Email != "" {
				c.Set(userEmailKey, ident.Email)
			}
			c.Set("isGuest", false)
			c.Next()
			return
		}

		if env != "production" {
			if userID := strings.TrimSpace(c.GetHeader("X-User-Id")); userID != "" {
				c.Set(userIDKey, userID)
				c.Set("isGuest", false)
				c.Next()
				return
			}
		}

		guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
		if guestID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}

		c.Set(userIDKey, "guest:"+guestID)
		c.Set("isGuest", true)
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userEmailKey)
	if email, ok := val.(string); ok {
		return email
	}
	return ""
}
