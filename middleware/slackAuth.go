package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

const maxSlackBody = 1 << 20

// VerifySlackSignature rejects requests not signed with the app's signing
// secret. The verified body is stored under "rawBody" and restored on the request.
func VerifySlackSignature(signingSecret string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSlackBody))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unable to read body"})
			return
		}

		verifier, err := slack.NewSecretsVerifier(c.Request.Header, signingSecret)
		if err != nil {
			logger.Warn("slack request without valid signature headers", zap.Error(err), zap.String("ip", clientKey(c)))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
		if _, err := verifier.Write(body); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "signature check failed"})
			return
		}
		if err := verifier.Ensure(); err != nil {
			logger.Warn("slack signature mismatch", zap.Error(err), zap.String("ip", clientKey(c)))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}

		c.Set("rawBody", body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}
