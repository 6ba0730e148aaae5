package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mapmark/backend/models"
	"gorm.io/gorm"
)

// GetCities handles GET /api/cities - reference data for the submission form
func (h *Handler) GetCities(c *gin.Context) {
	var cities []models.City
	if err := h.db.Order("name ASC").Find(&cities).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cities"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cities": cities})
}

// GetCityNeighborhoods handles GET /api/cities/:id/neighborhoods
func (h *Handler) GetCityNeighborhoods(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid city ID"})
		return
	}

	var city models.City
	if err := h.db.Preload("Neighborhoods", func(db *gorm.DB) *gorm.DB {
		return db.Order("name ASC")
	}).First(&city, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "City not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch city"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"neighborhoods": city.Neighborhoods})
}
