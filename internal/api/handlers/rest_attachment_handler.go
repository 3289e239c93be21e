package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"driftmarket/server/internal/storage"
)

// RestAttachmentHandler hands out presigned upload URLs for message
// attachments.
type RestAttachmentHandler struct {
	storage storage.IAttachmentStorage
}

// NewRestAttachmentHandler creates a new RestAttachmentHandler.
func NewRestAttachmentHandler(storage storage.IAttachmentStorage) *RestAttachmentHandler {
	return &RestAttachmentHandler{storage: storage}
}

type presignRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

// PresignUpload handles POST /threads/:id/attachments
func (h *RestAttachmentHandler) PresignUpload(c *gin.Context) {
	threadID, ok := threadIDParam(c)
	if !ok {
		return
	}

	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	uploadURL, key, err := h.storage.GenerateUploadURL(c.Request.Context(), threadID, req.Filename, req.ContentType)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to prepare upload"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"uploadUrl": uploadURL,
		"key":       key,
		"publicUrl": h.storage.PublicURL(key),
	})
}
