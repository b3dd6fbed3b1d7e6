package middleware

import (
	"net/http"

	"github.com/ForesightHQ/foresight-go/internal/application/services"
	"github.com/gin-gonic/gin"
)

// SessionHeader carries the browser's session identifier on every request.
const SessionHeader = "X-Foresight-Session-ID"

// ContextSessionKey is the gin context key holding the resolved session id.
const ContextSessionKey = "sessionId"

// SessionMiddleware resolves the session for a request, minting a new one
// when the presented id is missing or unknown. The resolved id is echoed
// back in the response header so the browser can persist it.
func SessionMiddleware(sessionService *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader(SessionHeader)
		if presented == "" {
			presented = c.Query("sessionId")
		}

		sess, created, err := sessionService.GetOrCreate(presented)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, sess.SessionID)
		c.Header(SessionHeader, sess.SessionID)
		if created {
			c.Header("X-Foresight-Session-New", "true")
		}
		c.Next()
	}
}

// SessionID extracts the resolved session id from the gin context.
func SessionID(c *gin.Context) string {
	return c.GetString(ContextSessionKey)
}
