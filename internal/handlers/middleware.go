package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// tokenAuthMiddleware checks the token query parameter against the
// configured shared secret. The comparison is constant-time so response
// timing leaks nothing about how much of a guess matched.
func (h *Handler) tokenAuthMiddleware(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing token parameter",
		})
		return
	}

	if subtle.ConstantTimeCompare([]byte(token), []byte(h.apiToken)) != 1 {
		if h.log != nil {
			h.log.Warnw("rejected request with invalid token", "client", c.ClientIP(), "path", c.FullPath())
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid authentication token",
		})
		return
	}

	c.Next()
}
