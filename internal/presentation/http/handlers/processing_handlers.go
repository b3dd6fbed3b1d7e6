package handlers

import (
	"net/http"
	"strconv"

	"github.com/ForesightHQ/foresight-go/internal/application/services"
	"github.com/ForesightHQ/foresight-go/internal/domain/session"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/logging"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/performance"
	"github.com/ForesightHQ/foresight-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// ProcessingHandlers handles data cleaning and transformation endpoints
type ProcessingHandlers struct {
	processingService *services.ProcessingService
	logger            *logging.ChanneledLogger
	perfTracker       *performance.Tracker
}

// NewProcessingHandlers creates processing handlers with injected dependencies
func NewProcessingHandlers(processingService *services.ProcessingService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *ProcessingHandlers {
	return &ProcessingHandlers{
		processingService: processingService,
		logger:            logger,
		perfTracker:       perfTracker,
	}
}

type processingRequest struct {
	Operation string         `json:"operation" binding:"required"`
	Options   map[string]any `json:"options"`
}

// PostClean applies one cleaning operation to the session dataset.
func (h *ProcessingHandlers) PostClean(c *gin.Context) {
	h.applyStep(c, session.StepCleaning)
}

// PostTransform applies one transformation operation to the session dataset.
func (h *ProcessingHandlers) PostTransform(c *gin.Context) {
	h.applyStep(c, session.StepTransformation)
}

func (h *ProcessingHandlers) applyStep(c *gin.Context, stepType session.StepType) {
	sessionID := middleware.SessionID(c)

	var req processingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "operation is required", "details": err.Error()})
		return
	}

	preview, report, err := h.processingService.ApplyStep(c.Request.Context(), sessionID, stepType, req.Operation, req.Options)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"preview": preview,
		"report":  report,
	})
}

// GetHistory lists the applied processing steps in order.
func (h *ProcessingHandlers) GetHistory(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	history, err := h.processingService.History(sessionID)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// PostRevert restores the original uploaded dataset.
func (h *ProcessingHandlers) PostRevert(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	preview, err := h.processingService.RevertAll(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"preview": preview})
}

// DeleteStep removes one history entry by index and replays the rest.
func (h *ProcessingHandlers) DeleteStep(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "step index must be an integer"})
		return
	}

	preview, err := h.processingService.RemoveStep(c.Request.Context(), sessionID, index)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"preview": preview})
}
