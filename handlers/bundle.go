// File: rebeca/handlers/handlerBundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups the HTTP endpoint handlers.
type HandlerBundle struct {
	SlackSigningSecret string

	// Slack endpoints
	SlackEventsHandler gin.HandlerFunc

	// Operational endpoints
	HealthHandler gin.HandlerFunc
}
