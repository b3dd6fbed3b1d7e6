package handlers

import (
	"fmt"
	"net/http"

	"github.com/ForesightHQ/foresight-go/internal/application/services"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/logging"
	"github.com/ForesightHQ/foresight-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// ShareHandlers handles share link creation and resolution endpoints
type ShareHandlers struct {
	shareService *services.ShareService
	logger       *logging.ChanneledLogger
}

// NewShareHandlers creates share handlers with injected dependencies
func NewShareHandlers(shareService *services.ShareService, logger *logging.ChanneledLogger) *ShareHandlers {
	return &ShareHandlers{
		shareService: shareService,
		logger:       logger,
	}
}

// PostShareLink mints a share token for one of the session's models.
func (h *ShareHandlers) PostShareLink(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	var req struct {
		ModelID string `json:"modelId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "modelId is required"})
		return
	}

	token, expiresAt, err := h.shareService.CreateLink(c.Request.Context(), sessionID, req.ModelID)
	if err != nil {
		respondModelError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":     token,
		"path":      fmt.Sprintf("/shared/%s", token),
		"expiresAt": expiresAt,
	})
}

// GetShared resolves a share token into the read-only shared view. This
// endpoint is public: the token itself is the credential.
func (h *ShareHandlers) GetShared(c *gin.Context) {
	token := c.Param("token")

	view, err := h.shareService.Resolve(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "this share link is invalid or has expired"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// PostShareEmail mints a share link and emails it to the recipient.
func (h *ShareHandlers) PostShareEmail(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	var req struct {
		ModelID string `json:"modelId" binding:"required"`
		Email   string `json:"email" binding:"required,email"`
		Note    string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "modelId and a valid email are required"})
		return
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	baseURL := fmt.Sprintf("%s://%s", scheme, c.Request.Host)

	if err := h.shareService.SendEmail(c.Request.Context(), sessionID, req.ModelID, req.Email, req.Note, baseURL); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}
