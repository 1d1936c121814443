package routes

import (
	"net/http"

	"rebeca/handlers"
	"rebeca/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterSlackRoutes registers the Events API endpoint behind signature verification.
func RegisterSlackRoutes(r *gin.Engine, hb *handlers.HandlerBundle, logger *zap.Logger) {
	if hb.SlackEventsHandler == nil {
		return
	}
	slackGroup := r.Group("/slack")
	{
		slackGroup.Use(middleware.VerifySlackSignature(hb.SlackSigningSecret, logger))
		slackGroup.POST("/events", hb.SlackEventsHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	if hb.HealthHandler != nil {
		r.GET("/health", hb.HealthHandler)
		return
	}
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Rebeca"})
	})
}

// RegisterRoutes centralizes registration of all endpoints.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, logger *zap.Logger) {
	RegisterSlackRoutes(r, hb, logger)
	RegisterHealthRoute(r, hb)
}
