package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// clientKey picks the rate limiting key for a request: the first forwarded
// hop, then X-Real-IP, then whatever gin resolves from the connection.
func clientKey(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		if first, _, _ := strings.Cut(xff, ","); strings.TrimSpace(first) != "" {
			return strings.TrimSpace(first)
		}
	}
	if xri := strings.TrimSpace(c.GetHeader("X-Real-IP")); xri != "" {
		return xri
	}
	return c.ClientIP()
}
