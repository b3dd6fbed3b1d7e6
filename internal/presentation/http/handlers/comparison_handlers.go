package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ForesightHQ/foresight-go/internal/application/services"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/logging"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/registry"
	"github.com/ForesightHQ/foresight-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// ComparisonHandlers handles model registry and comparison endpoints
type ComparisonHandlers struct {
	comparisonService *services.ComparisonService
	logger            *logging.ChanneledLogger
}

// NewComparisonHandlers creates comparison handlers with injected dependencies
func NewComparisonHandlers(comparisonService *services.ComparisonService, logger *logging.ChanneledLogger) *ComparisonHandlers {
	return &ComparisonHandlers{
		comparisonService: comparisonService,
		logger:            logger,
	}
}

// GetModels lists the session's registered models.
func (h *ComparisonHandlers) GetModels(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	models, err := h.comparisonService.List(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}

// GetModel returns one model's full detail.
func (h *ComparisonHandlers) GetModel(c *gin.Context) {
	sessionID := middleware.SessionID(c)
	modelID := c.Param("id")

	model, err := h.comparisonService.Detail(c.Request.Context(), sessionID, modelID)
	if err != nil {
		respondModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, model)
}

// GetComparison ranks models by a metric. An optional comma-separated ids
// parameter restricts the comparison to that subset.
func (h *ComparisonHandlers) GetComparison(c *gin.Context) {
	sessionID := middleware.SessionID(c)
	metric := c.Query("metric")

	var modelIDs []string
	if ids := c.Query("ids"); ids != "" {
		for _, id := range strings.Split(ids, ",") {
			if id = strings.TrimSpace(id); id != "" {
				modelIDs = append(modelIDs, id)
			}
		}
	}

	comparison, err := h.comparisonService.Compare(c.Request.Context(), sessionID, metric, modelIDs)
	if err != nil {
		if errors.Is(err, registry.ErrModelNotFound) {
			respondModelError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, comparison)
}

// PutModelLabel renames a registered model.
func (h *ComparisonHandlers) PutModelLabel(c *gin.Context) {
	sessionID := middleware.SessionID(c)
	modelID := c.Param("id")

	var req struct {
		Label string `json:"label" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "label is required"})
		return
	}

	if err := h.comparisonService.Rename(c.Request.Context(), sessionID, modelID, req.Label); err != nil {
		respondModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "renamed"})
}

// DeleteModel removes one model from the session's registry.
func (h *ComparisonHandlers) DeleteModel(c *gin.Context) {
	sessionID := middleware.SessionID(c)
	modelID := c.Param("id")

	if err := h.comparisonService.Remove(c.Request.Context(), sessionID, modelID); err != nil {
		respondModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

func respondModelError(c *gin.Context, err error) {
	if errors.Is(err, registry.ErrModelNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "model not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
