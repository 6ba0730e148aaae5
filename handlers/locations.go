package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mapmark/backend/models"
	"gorm.io/gorm"
)

// LocationUpdate is the explicit partial-update shape for a location. Only
// fields present in the payload are applied; the owner reference is not
// part of it because ownership never changes after creation.
type LocationUpdate struct {
	Name        *string   `json:"name"`
	City        *string   `json:"city"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	Category    *string   `json:"category"`
	IsSponsored *bool     `json:"isSponsored"`
	Images      *[]string `json:"images"`
}

// validate rejects updates that would blank out a required field.
func (u *LocationUpdate) validate() string {
	if u.Name != nil && *u.Name == "" {
		return "name cannot be empty"
	}
	if u.City != nil && *u.City == "" {
		return "city cannot be empty"
	}
	if u.Category != nil && *u.Category == "" {
		return "category cannot be empty"
	}
	return ""
}

// apply copies the present fields onto the location.
func (u *LocationUpdate) apply(loc *models.Location) {
	if u.Name != nil {
		loc.Name = *u.Name
	}
	if u.City != nil {
		loc.City = *u.City
	}
	if u.Latitude != nil {
		loc.Latitude = *u.Latitude
	}
	if u.Longitude != nil {
		loc.Longitude = *u.Longitude
	}
	if u.Category != nil {
		loc.Category = *u.Category
	}
	if u.IsSponsored != nil {
		loc.IsSponsored = *u.IsSponsored
	}
	if u.Images != nil {
		loc.Images = models.StringList(*u.Images)
	}
}

// CreateLocation handles POST /api/locations. The new record always starts
// PENDING; the payload cannot set a status.
func (h *Handler) CreateLocation(c *gin.Context) {
	var req struct {
		Name        string   `json:"name" binding:"required"`
		City        string   `json:"city" binding:"required"`
		Latitude    *float64 `json:"latitude" binding:"required"`
		Longitude   *float64 `json:"longitude" binding:"required"`
		Category    string   `json:"category" binding:"required"`
		IsSponsored bool     `json:"isSponsored"`
		Images      []string `json:"images"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, city, category, latitude and longitude are required"})
		return
	}

	user := CurrentUser(c)
	location := models.Location{
		Name:        req.Name,
		City:        req.City,
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
		Category:    req.Category,
		IsSponsored: req.IsSponsored,
		Images:      models.StringList(req.Images),
		Status:      models.LocationPending,
		UserID:      user.ID,
	}

	if err := h.db.Create(&location).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create location"})
		return
	}

	h.hub.Publish("locations.created", location)
	c.JSON(http.StatusCreated, location)
}

// GetLocations handles GET /api/locations - public list. Every status is
// returned unless the caller filters explicitly.
func (h *Handler) GetLocations(c *gin.Context) {
	query := h.db.Model(&models.Location{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if city := c.Query("city"); city != "" {
		query = query.Where("city = ?", city)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	offset := 0
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	var total int64
	query.Count(&total)

	var locations []models.Location
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&locations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch locations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"locations": locations,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

// GetLocation handles GET /api/locations/:id
func (h *Handler) GetLocation(c *gin.Context) {
	location, ok := h.findLocation(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, location)
}

// UpdateMyLocation handles PATCH /api/user/locations/:id. An edit by the
// owning non-admin user always lands the record back on PENDING, even when
// the payload changes nothing.
func (h *Handler) UpdateMyLocation(c *gin.Context) {
	location, ok := h.findLocation(c)
	if !ok {
		return
	}
	user := CurrentUser(c)
	if !canMutate(user, location) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not own this location"})
		return
	}

	var upd LocationUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if msg := upd.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	upd.apply(location)
	if !user.IsAdmin() {
		// Any owner edit requires re-review.
		location.Status = models.LocationPending
	}

	if err := h.db.Save(location).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update location"})
		return
	}

	h.hub.Publish("locations.updated", location)
	c.JSON(http.StatusOK, location)
}

// DeleteMyLocation handles DELETE /api/user/locations/:id
func (h *Handler) DeleteMyLocation(c *gin.Context) {
	location, ok := h.findLocation(c)
	if !ok {
		return
	}
	user := CurrentUser(c)
	if !canMutate(user, location) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not own this location"})
		return
	}

	if err := h.db.Delete(location).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete location"})
		return
	}

	h.hub.Publish("locations.deleted", gin.H{"id": location.ID})
	c.JSON(http.StatusOK, gin.H{"message": "Location deleted"})
}

// canMutate is the ownership guard: content mutation and deletion require
// the owner or an admin.
func canMutate(user *models.User, location *models.Location) bool {
	return user != nil && (user.IsAdmin() || location.UserID == user.ID)
}

// findLocation loads the :id location and writes the 400/404/500 response
// itself when it cannot.
func (h *Handler) findLocation(c *gin.Context) (*models.Location, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location ID"})
		return nil, false
	}

	var location models.Location
	if err := h.db.First(&location, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch location"})
		return nil, false
	}
	return &location, true
}
