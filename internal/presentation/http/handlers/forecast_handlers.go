package handlers

import (
	"errors"
	"net/http"

	"github.com/ForesightHQ/foresight-go/internal/application/services"
	"github.com/ForesightHQ/foresight-go/internal/domain/forecast"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/logging"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/performance"
	"github.com/ForesightHQ/foresight-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// ForecastHandlers handles forecast configuration and execution endpoints
type ForecastHandlers struct {
	forecastService *services.ForecastService
	logger          *logging.ChanneledLogger
	perfTracker     *performance.Tracker
}

// NewForecastHandlers creates forecast handlers with injected dependencies
func NewForecastHandlers(forecastService *services.ForecastService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *ForecastHandlers {
	return &ForecastHandlers{
		forecastService: forecastService,
		logger:          logger,
		perfTracker:     perfTracker,
	}
}

// PostConfig validates and stores the forecast configuration.
func (h *ForecastHandlers) PostConfig(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	var cfg forecast.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid configuration payload", "details": err.Error()})
		return
	}

	result := h.forecastService.SetConfig(sessionID, &cfg)
	if !result.IsValid {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "configuration validation failed",
			"validation": result,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg, "validation": result})
}

// PostStart kicks off a forecast run. Progress flows over SSE; this returns
// the initial run state immediately.
func (h *ForecastHandlers) PostStart(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	run, err := h.forecastService.Start(sessionID)
	if err != nil {
		respondRunError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, run)
}

// PostCancel aborts the active run, cutting off the backend request.
func (h *ForecastHandlers) PostCancel(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	if err := h.forecastService.Cancel(sessionID); err != nil {
		respondRunError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelling"})
}

// PostRetry restarts a finished run with the same configuration.
func (h *ForecastHandlers) PostRetry(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	run, err := h.forecastService.Retry(sessionID)
	if err != nil {
		respondRunError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, run)
}

// GetStatus returns the current run state for polling fallback when SSE is
// unavailable.
func (h *ForecastHandlers) GetStatus(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	run, err := h.forecastService.Status(sessionID)
	if err != nil {
		respondRunError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func respondRunError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, forecast.ErrRunInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "a forecast is already running for this session"})
	case errors.Is(err, forecast.ErrNotReady):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": "upload data, confirm the column mapping, and set a configuration first"})
	case errors.Is(err, forecast.ErrNoRun):
		c.JSON(http.StatusNotFound, gin.H{"error": "no forecast run for this session"})
	default:
		respondSessionError(c, err)
	}
}
