package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/model-orchestrator/internal/core/domain"
)

// Auth checks for a valid Bearer token in the Authorization header. With no
// keys configured the check is disabled, which is the local-development mode.
// Denials flow through the error middleware like every other failure.
func Auth(staticKeys []string) gin.HandlerFunc {
	staticMap := make(map[string]bool)
	for _, k := range staticKeys {
		staticMap[k] = true
	}

	return func(c *gin.Context) {
		if len(staticMap) == 0 {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			_ = c.Error(domain.UnauthorizedError("Missing Authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			_ = c.Error(domain.UnauthorizedError("Invalid Authorization header format"))
			c.Abort()
			return
		}

		if !staticMap[parts[1]] {
			_ = c.Error(domain.UnauthorizedError("Invalid API Key"))
			c.Abort()
			return
		}

		c.Next()
	}
}
