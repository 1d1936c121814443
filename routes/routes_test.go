package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rebeca/handlers"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func TestRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	called := false
	RegisterRoutes(r, &handlers.HandlerBundle{
		SlackSigningSecret: "secret",
		SlackEventsHandler: func(c *gin.Context) { called = true; c.Status(http.StatusOK) },
	}, zap.NewNop())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(`{}`)))
	if w.Code != http.StatusUnauthorized || called {
		t.Fatalf("unsigned events must be rejected, status=%d called=%v", w.Code, called)
	}
}
