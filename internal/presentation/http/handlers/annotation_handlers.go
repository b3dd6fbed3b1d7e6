package handlers

import (
	"net/http"

	"github.com/ForesightHQ/foresight-go/internal/application/services"
	"github.com/ForesightHQ/foresight-go/internal/domain/session"
	"github.com/ForesightHQ/foresight-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// AnnotationHandlers handles user annotation endpoints
type AnnotationHandlers struct {
	annotationService *services.AnnotationService
}

// NewAnnotationHandlers creates annotation handlers
func NewAnnotationHandlers(annotationService *services.AnnotationService) *AnnotationHandlers {
	return &AnnotationHandlers{annotationService: annotationService}
}

type annotationRequest struct {
	Type            session.AnnotationType `json:"type" binding:"required"`
	Text            string                 `json:"text" binding:"required"`
	IncludeInReport bool                   `json:"includeInReport"`
	IncludeInShare  bool                   `json:"includeInShare"`
}

// GetAnnotations lists the session's annotations.
func (h *AnnotationHandlers) GetAnnotations(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	annotations, err := h.annotationService.List(sessionID)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"annotations": annotations})
}

// PostAnnotation creates a new annotation.
func (h *AnnotationHandlers) PostAnnotation(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	var req annotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type and text are required"})
		return
	}

	ann, err := h.annotationService.Add(sessionID, req.Type, req.Text, req.IncludeInReport, req.IncludeInShare)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, ann)
}

// PutAnnotation edits an existing annotation.
func (h *AnnotationHandlers) PutAnnotation(c *gin.Context) {
	sessionID := middleware.SessionID(c)
	annotationID := c.Param("id")

	var req annotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type and text are required"})
		return
	}

	ann, err := h.annotationService.Update(sessionID, annotationID, req.Type, req.Text, req.IncludeInReport, req.IncludeInShare)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ann)
}

// DeleteAnnotation removes an annotation by id.
func (h *AnnotationHandlers) DeleteAnnotation(c *gin.Context) {
	sessionID := middleware.SessionID(c)
	annotationID := c.Param("id")

	if err := h.annotationService.Remove(sessionID, annotationID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}
