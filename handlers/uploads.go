package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateUploadURL handles POST /api/upload-url. It issues a one-hour
// pre-signed PUT URL; the client uploads directly to object storage and
// this server never sees the file.
func (h *Handler) CreateUploadURL(c *gin.Context) {
	var req struct {
		FileName string `json:"fileName" binding:"required"`
		FileType string `json:"fileType" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fileName and fileType are required"})
		return
	}

	if h.storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Object storage is not configured"})
		return
	}

	uploadURL, fileURL, err := h.storage.PresignUpload(c.Request.Context(), req.FileName, req.FileType)
	if err != nil {
		log.Printf("❌ Failed to presign upload for %s: %v", req.FileName, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create upload URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"uploadUrl": uploadURL,
		"fileUrl":   fileURL,
	})
}
