package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mapmark/backend/models"
	"gorm.io/gorm"
)

// AdminLocationUpdate adds the status field to the content update shape.
// Admins assign any of the three states directly; there is no transition
// table and no state is terminal.
type AdminLocationUpdate struct {
	LocationUpdate
	Status *models.LocationStatus `json:"status"`
}

// AdminListLocations handles GET /api/admin/locations - moderation queue
// view with per-status counts.
func (h *Handler) AdminListLocations(c *gin.Context) {
	query := h.db.Model(&models.Location{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if userID := c.Query("userId"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var locations []models.Location
	if err := query.Preload("User", func(db *gorm.DB) *gorm.DB {
		return db.Select("id, name, email, role")
	}).Order("created_at DESC").Find(&locations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch locations"})
		return
	}

	var pending, approved, rejected int64
	h.db.Model(&models.Location{}).Where("status = ?", models.LocationPending).Count(&pending)
	h.db.Model(&models.Location{}).Where("status = ?", models.LocationApproved).Count(&approved)
	h.db.Model(&models.Location{}).Where("status = ?", models.LocationRejected).Count(&rejected)

	c.JSON(http.StatusOK, gin.H{
		"locations": locations,
		"counts": gin.H{
			"pending":  pending,
			"approved": approved,
			"rejected": rejected,
		},
	})
}

// AdminUpdateLocation handles PATCH /api/admin/locations/:id. Content edits
// by an admin do not reset the status; a status in the payload is applied
// exactly as given, backwards transitions included.
func (h *Handler) AdminUpdateLocation(c *gin.Context) {
	location, ok := h.findLocation(c)
	if !ok {
		return
	}

	var upd AdminLocationUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if msg := upd.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if upd.Status != nil && !upd.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be PENDING, APPROVED or REJECTED"})
		return
	}

	upd.apply(location)
	moderated := upd.Status != nil && *upd.Status != location.Status
	if upd.Status != nil {
		location.Status = *upd.Status
	}

	if err := h.db.Save(location).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update location"})
		return
	}

	if moderated {
		h.hub.Publish("locations.moderated", location)
	} else {
		h.hub.Publish("locations.updated", location)
	}
	c.JSON(http.StatusOK, location)
}

// AdminDeleteLocation handles DELETE /api/admin/locations/:id
func (h *Handler) AdminDeleteLocation(c *gin.Context) {
	location, ok := h.findLocation(c)
	if !ok {
		return
	}

	if err := h.db.Delete(location).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete location"})
		return
	}

	h.hub.Publish("locations.deleted", gin.H{"id": location.ID})
	c.JSON(http.StatusOK, gin.H{"message": "Location deleted"})
}

// AdminListUsers handles GET /api/admin/users
func (h *Handler) AdminListUsers(c *gin.Context) {
	var users []models.User
	if err := h.db.Order("created_at DESC").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// AdminDeleteUser handles DELETE /api/admin/users/:id, cascading to the
// user's locations and saved items.
func (h *Handler) AdminDeleteUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	// Owned records first, then the user row.
	h.db.Where("user_id = ?", user.ID).Delete(&models.Location{})
	h.db.Where("user_id = ?", user.ID).Delete(&models.SavedItem{})
	if err := h.db.Delete(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
