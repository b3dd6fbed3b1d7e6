package handlers

import (
	"io"
	"net/http"

	"github.com/ForesightHQ/foresight-go/internal/application/services"
	"github.com/ForesightHQ/foresight-go/internal/domain/dataset"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/logging"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/performance"
	"github.com/ForesightHQ/foresight-go/internal/presentation/http/middleware"
	"github.com/ForesightHQ/foresight-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// UploadHandlers handles CSV upload and column mapping endpoints
type UploadHandlers struct {
	uploadService *services.UploadService
	logger        *logging.ChanneledLogger
	perfTracker   *performance.Tracker
}

// NewUploadHandlers creates upload handlers with injected dependencies
func NewUploadHandlers(uploadService *services.UploadService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *UploadHandlers {
	return &UploadHandlers{
		uploadService: uploadService,
		logger:        logger,
		perfTracker:   perfTracker,
	}
}

// PostUpload accepts a multipart CSV upload, validates it, and installs the
// parsed preview into the session. The file never touches disk.
func (h *UploadHandlers) PostUpload(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a file field is required"})
		return
	}
	defer file.Close()

	// Read one byte past the cap so oversized uploads are detected without
	// buffering the whole body.
	content, err := io.ReadAll(io.LimitReader(file, config.MaxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}
	if int64(len(content)) > config.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "file exceeds the 10MB upload limit",
		})
		return
	}

	preview, validationResult, err := h.uploadService.ProcessUpload(sessionID, header.Filename, content)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if validationResult != nil && !validationResult.IsValid {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "file validation failed",
			"validation": validationResult,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"preview":    preview,
		"validation": validationResult,
	})
}

// GetMapping returns the current column mapping so the browser can rehydrate
// the selection step after a reload.
func (h *UploadHandlers) GetMapping(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	mapping, err := h.uploadService.Mapping(sessionID)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mapping": mapping})
}

// PostMapping records the user's confirmed date/value column selection.
func (h *UploadHandlers) PostMapping(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	var mapping dataset.ColumnMapping
	if err := c.ShouldBindJSON(&mapping); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mapping payload", "details": err.Error()})
		return
	}
	if mapping.DateColumn == "" || mapping.ValueColumn == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dateColumn and valueColumn are both required"})
		return
	}

	if err := h.uploadService.SetMapping(sessionID, &mapping); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mapping": mapping})
}
