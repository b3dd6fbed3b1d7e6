// Package handlers provides HTTP handlers for the presentation layer.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ForesightHQ/foresight-go/internal/application/services"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/caching/stores"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/logging"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/performance"
	"github.com/ForesightHQ/foresight-go/internal/presentation/http/middleware"
	"github.com/ForesightHQ/foresight-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// SessionHandlers handles session lifecycle endpoints
type SessionHandlers struct {
	sessionService *services.SessionService
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
}

// NewSessionHandlers creates session handlers with injected dependencies
func NewSessionHandlers(sessionService *services.SessionService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *SessionHandlers {
	return &SessionHandlers{
		sessionService: sessionService,
		logger:         logger,
		perfTracker:    perfTracker,
	}
}

// GetState returns the full workflow state for the browser to hydrate from.
func (h *SessionHandlers) GetState(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	state, err := h.sessionService.State(sessionID)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// PostExtend resets the session expiry clock.
func (h *SessionHandlers) PostExtend(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	expiresAt, err := h.sessionService.Extend(sessionID)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expiresAt": expiresAt})
}

// PostDuplicate branches the session into a new independent copy.
func (h *SessionHandlers) PostDuplicate(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	dup, err := h.sessionService.Duplicate(sessionID)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sessionId": dup.SessionID})
}

// PostClear wipes session data while keeping the session alive. Manual
// clears are destructive and must carry confirm=true; the expiry sweep
// bypasses the handler entirely.
func (h *SessionHandlers) PostClear(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "clearing a session requires confirm=true"})
		return
	}

	if err := h.sessionService.Clear(c.Request.Context(), sessionID); err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// Delete removes the session entirely.
func (h *SessionHandlers) Delete(c *gin.Context) {
	sessionID := middleware.SessionID(c)
	h.sessionService.Delete(c.Request.Context(), sessionID)
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// GetExport streams the session snapshot as a download. An optional password
// query parameter encrypts the payload.
func (h *SessionHandlers) GetExport(c *gin.Context) {
	sessionID := middleware.SessionID(c)
	password := c.Query("password")

	data, encrypted, err := h.sessionService.Export(sessionID, password)
	if err != nil {
		respondSessionError(c, err)
		return
	}

	filename := fmt.Sprintf("foresight-session-%s.json", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("X-Foresight-Encrypted", fmt.Sprintf("%t", encrypted))
	c.Data(http.StatusOK, "application/json", data)
}

// PostImport restores a previously exported snapshot into this session.
func (h *SessionHandlers) PostImport(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a session export file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, config.MaxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}
	if int64(len(data)) > config.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "export file exceeds the 10MB limit"})
		return
	}

	password := c.PostForm("password")
	if err := h.sessionService.Import(sessionID, data, password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := h.sessionService.State(sessionID)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// respondSessionError maps store-level errors onto HTTP statuses.
func respondSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, stores.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found or expired"})
	case errors.Is(err, stores.ErrStoreFull):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server is at capacity, please try again later"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
