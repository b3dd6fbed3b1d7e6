package middleware

import (
	"net/http"
	"strings"

	"github.com/ForesightHQ/foresight-go/internal/infrastructure/security"
	"github.com/ForesightHQ/foresight-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// OpsAuthMiddleware protects operations dashboard endpoints. Requests must
// carry a bearer token minted by the ops login endpoint. Websocket upgrades
// cannot set headers, so the token may also arrive as a query parameter.
func OpsAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = authHeader[7:]
		}
		if token == "" {
			token = c.Query("token")
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		if err := security.ValidateOpsToken(token, config.JWTSecret); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}
