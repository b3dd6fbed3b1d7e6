package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ForesightHQ/foresight-go/internal/application/container"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/messaging"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/logging"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/security"
	"github.com/ForesightHQ/foresight-go/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const opsTokenTTL = 1 * time.Hour

var opsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Auth happens via the ops token; origin checks would block the
		// dashboard served from a different port in development.
		return true
	},
}

// OpsHandlers handles operations dashboard authentication and data streaming
type OpsHandlers struct {
	container *container.Container
}

// NewOpsHandlers creates new ops handlers
func NewOpsHandlers(container *container.Container) *OpsHandlers {
	return &OpsHandlers{container: container}
}

// AuthCheck reports whether an ops password is configured and whether the
// caller's token is valid.
func (h *OpsHandlers) AuthCheck(c *gin.Context) {
	response := gin.H{
		"passwordRequired": config.OpsPasswordHash != "",
		"authenticated":    false,
	}
	if config.OpsPasswordHash == "" {
		response["message"] = "Set OPS_PASSWORD_HASH to protect the operations dashboard"
	}

	auth := c.GetHeader("Authorization")
	if len(auth) > 7 && auth[:7] == "Bearer " {
		if security.ValidateOpsToken(auth[7:], config.JWTSecret) == nil {
			response["authenticated"] = true
		}
	}
	c.JSON(http.StatusOK, response)
}

// Login verifies the ops password and mints a short-lived dashboard token.
func (h *OpsHandlers) Login(c *gin.Context) {
	var request struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if config.OpsPasswordHash == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Operations dashboard is not configured"})
		return
	}
	if !security.CheckPassword(request.Password, config.OpsPasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	token, err := security.GenerateOpsToken(config.JWTSecret, opsTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

// GetSnapshot returns a one-off counts-only view of the system for the
// dashboard's initial render.
func (h *OpsHandlers) GetSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.container.OpsBroadcaster.BuildSnapshot())
}

// GetHealth reports liveness of the server, the forecasting backend, and the
// model registry.
func (h *OpsHandlers) GetHealth(c *gin.Context) {
	backendStatus := "ok"
	if err := h.container.ProphetClient.Health(c.Request.Context()); err != nil {
		backendStatus = err.Error()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"backend":  backendStatus,
		"registry": h.container.RegistryDB.ConnectionInfo(),
		"store":    h.container.StoreManager.Stats(),
		"sse":      h.container.SSEBroadcaster.TotalConnections(),
	})
}

// GetActivity fetches live activity counts and performance stats.
func (h *OpsHandlers) GetActivity(c *gin.Context) {
	tracker := h.container.PerfTracker
	c.JSON(http.StatusOK, gin.H{
		"store":       h.container.StoreManager.Stats(),
		"performance": tracker.GetOverallStats(),
		"active":      tracker.GetActiveOperations(),
		"alerts":      tracker.GetAlerts(),
	})
}

// Dashboard upgrades to a websocket and streams counts-only snapshots on the
// broadcaster's interval.
func (h *OpsHandlers) Dashboard(c *gin.Context) {
	conn, err := opsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.container.Logger.System().Error("Ops websocket upgrade failed", "error", err.Error())
		return
	}

	client := &messaging.OpsClient{
		Conn: conn,
		Send: make(chan []byte, 8),
	}
	h.container.OpsBroadcaster.Register(client)

	go h.writePump(client)
	go h.readPump(client)
}

// writePump drains the client's send channel to the websocket.
func (h *OpsHandlers) writePump(client *messaging.OpsClient) {
	defer client.Conn.Close()

	for message := range client.Send {
		client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump consumes control frames until the client disconnects.
func (h *OpsHandlers) readPump(client *messaging.OpsClient) {
	defer func() {
		h.container.OpsBroadcaster.Unregister(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(512)
	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

// GetLogLevels returns current log levels for all channels.
func (h *OpsHandlers) GetLogLevels(c *gin.Context) {
	c.JSON(http.StatusOK, h.container.Logger.GetChannelLevels())
}

// SetLogLevel sets the log level for a specific channel.
func (h *OpsHandlers) SetLogLevel(c *gin.Context) {
	var req struct {
		Channel string `json:"channel" binding:"required"`
		Level   string `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	var level slog.Level
	switch req.Level {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log level specified"})
		return
	}

	if err := h.container.Logger.SetChannelLevel(logging.Channel(req.Channel), level); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set log level", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": fmt.Sprintf("Log level for channel '%s' set to '%s'", req.Channel, req.Level)})
}
