package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

const corsOrigin = "http://localhost:5173"

func newCORSRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS([]string{corsOrigin}))
	router.POST("/api/v1/interviews/:id/grade", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func doCORSRequest(t *testing.T, router *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/api/v1/interviews/abc/grade", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	resp := doCORSRequest(t, newCORSRouter(), http.MethodOptions, corsOrigin)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", resp.Code)
	}
	assertCORSHeaders(t, resp)
}

func TestCORSHeadersOnAllowedOrigin(t *testing.T) {
	resp := doCORSRequest(t, newCORSRouter(), http.MethodPost, corsOrigin)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	assertCORSHeaders(t, resp)
}

func TestCORSSkipsUnlistedOrigin(t *testing.T) {
	resp := doCORSRequest(t, newCORSRouter(), http.MethodPost, "http://evil.example")

	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("Allow-Origin = %q, want unset for unlisted origin", got)
	}
}

func TestCORSNoOriginHeader(t *testing.T) {
	resp := doCORSRequest(t, newCORSRouter(), http.MethodPost, "")

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("Allow-Origin = %q, want unset without an Origin header", got)
	}
}

func assertCORSHeaders(t *testing.T, resp *httptest.ResponseRecorder) {
	t.Helper()
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != corsOrigin {
		t.Fatalf("Allow-Origin = %q, want %q", got, corsOrigin)
	}
	if resp.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Fatal("missing Allow-Methods header")
	}
	if resp.Header().Get("Access-Control-Allow-Headers") == "" {
		t.Fatal("missing Allow-Headers header")
	}
	if got := resp.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Fatalf("Max-Age = %q, want 600", got)
	}
}
