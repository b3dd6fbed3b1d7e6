package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ForesightHQ/foresight-go/internal/infrastructure/messaging"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/logging"
	"github.com/ForesightHQ/foresight-go/internal/presentation/http/middleware"
	"github.com/ForesightHQ/foresight-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// SSEHandlers handles the per-session event stream
type SSEHandlers struct {
	broadcaster *messaging.SSEBroadcaster
	logger      *logging.ChanneledLogger
}

// NewSSEHandlers creates SSE handlers with injected dependencies
func NewSSEHandlers(broadcaster *messaging.SSEBroadcaster, logger *logging.ChanneledLogger) *SSEHandlers {
	return &SSEHandlers{
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// GetStream opens the session's SSE connection. Forecast progress, completion,
// failure, and expiry events arrive here; heartbeats keep proxies from
// closing the connection.
func (h *SSEHandlers) GetStream(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	ch := h.broadcaster.AddClient(sessionID)
	if ch == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "too many open connections, try again shortly"})
		return
	}
	defer h.broadcaster.RemoveClient(ch, sessionID)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(c.Writer, ": connection established\n\n")
	c.Writer.Flush()

	heartbeat := time.NewTicker(time.Duration(config.SSEHeartbeatIntervalSeconds) * time.Second)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case message, ok := <-ch:
			if !ok {
				return false
			}
			fmt.Fprint(w, message)
			return true
		case <-heartbeat.C:
			fmt.Fprintf(w, "event: %s\ndata: {}\n\n", messaging.EventHeartbeat)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
