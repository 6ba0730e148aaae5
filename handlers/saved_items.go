package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mapmark/backend/models"
	"gorm.io/gorm"
)

// savedItemTimeout bounds a single import attempt
const savedItemTimeout = 60 * time.Second

// CreateSavedItem handles POST /api/saved-items. The row is created
// PROCESSING synchronously and the response is 201 regardless of how the
// import later ends; the scrape itself runs fire-once in the background.
func (h *Handler) CreateSavedItem(c *gin.Context) {
	var req struct {
		URL string `json:"url" binding:"required,url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid url is required"})
		return
	}

	user := CurrentUser(c)
	item := models.SavedItem{
		URL:    req.URL,
		Status: models.SavedItemProcessing,
		UserID: user.ID,
	}

	if err := h.db.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save item"})
		return
	}

	go h.processSavedItem(item.ID, item.URL)

	c.JSON(http.StatusCreated, item)
}

// processSavedItem runs the import once. Any error from the extraction
// service lands the row on FAILED with no detail persisted and no retry.
func (h *Handler) processSavedItem(id uint, url string) {
	ctx, cancel := context.WithTimeout(context.Background(), savedItemTimeout)
	defer cancel()

	result, err := h.scraper.Extract(ctx, url)
	if err != nil {
		log.Printf("⚠️ Import failed for saved item %d: %v", id, err)
		h.db.Model(&models.SavedItem{}).Where("id = ?", id).
			Update("status", models.SavedItemFailed)
		h.hub.Publish("saveditems.failed", gin.H{"id": id})
		return
	}

	updates := map[string]interface{}{
		"status":       models.SavedItemCompleted,
		"title":        result.Title,
		"content":      result.Content,
		"author":       result.Author,
		"cover_image":  result.CoverImage,
		"published_at": result.PublishedAt,
	}
	if err := h.db.Model(&models.SavedItem{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		log.Printf("❌ Failed to store import result for saved item %d: %v", id, err)
		return
	}

	var item models.SavedItem
	h.db.First(&item, id)
	h.hub.Publish("saveditems.completed", item)
}

// GetSavedItems handles GET /api/saved-items - the caller's items only
func (h *Handler) GetSavedItems(c *gin.Context) {
	user := CurrentUser(c)

	var items []models.SavedItem
	if err := h.db.Where("user_id = ?", user.ID).Order("created_at DESC").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch saved items"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetSavedItem handles GET /api/saved-items/:id. Saved items are private:
// another user's item reads as not found.
func (h *Handler) GetSavedItem(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid saved item ID"})
		return
	}

	user := CurrentUser(c)
	var item models.SavedItem
	if err := h.db.Where("user_id = ?", user.ID).First(&item, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Saved item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch saved item"})
		return
	}
	c.JSON(http.StatusOK, item)
}
