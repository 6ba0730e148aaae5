package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/mapmark/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLocationStartsPending(t *testing.T) {
	h, db := newTestHandler(t, nil)
	router := newTestRouter(h)
	user := createTestUser(t, db, "u@test.dev", models.RoleUser)

	var created models.Location
	w := doJSON(t, router, http.MethodPost, "/api/locations", sessionFor(t, user), map[string]interface{}{
		"name":      "Cafe X",
		"city":      "Test City",
		"latitude":  10.0,
		"longitude": 20.0,
		"category":  "Cafe",
		// payload cannot choose an initial status
		"status": "APPROVED",
	}, &created)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.LocationPending, created.Status)
	assert.Equal(t, user.ID, created.UserID)
	assert.Equal(t, "Cafe X", created.Name)
}

func TestCreateLocationValidation(t *testing.T) {
	h, db := newTestHandler(t, nil)
	router := newTestRouter(h)
	user := createTestUser(t, db, "u@test.dev", models.RoleUser)
	session := sessionFor(t, user)

	bodies := []map[string]interface{}{
		{"city": "Test City", "latitude": 10.0, "longitude": 20.0, "category": "Cafe"},               // no name
		{"name": "Cafe X", "latitude": 10.0, "longitude": 20.0, "category": "Cafe"},                  // no city
		{"name": "Cafe X", "city": "Test City", "latitude": 10.0, "longitude": 20.0},                 // no category
		{"name": "Cafe X", "city": "Test City", "longitude": 20.0, "category": "Cafe"},               // no latitude
		{"name": "Cafe X", "city": "Test City", "latitude": "ten", "longitude": 20.0, "category": "Cafe"}, // non-numeric
	}
	for _, body := range bodies {
		w := doJSON(t, router, http.MethodPost, "/api/locations", session, body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	var count int64
	db.Model(&models.Location{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateLocationRequiresAuth(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	router := newTestRouter(h)

	w := doJSON(t, router, http.MethodPost, "/api/locations", "", map[string]interface{}{
		"name": "Cafe X", "city": "Test City", "latitude": 10.0, "longitude": 20.0, "category": "Cafe",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOwnerEditResetsStatus(t *testing.T) {
	h, db := newTestHandler(t, nil)
	router := newTestRouter(h)
	owner := createTestUser(t, db, "owner@test.dev", models.RoleUser)
	loc := createTestLocation(t, db, owner, models.LocationApproved)

	var updated models.Location
	w := doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/user/locations/%d", loc.ID),
		sessionFor(t, owner), map[string]interface{}{"name": "Cafe Y"}, &updated)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Cafe Y", updated.Name)
	assert.Equal(t, models.LocationPending, updated.Status)
}

func TestOwnerNoopEditStillResetsStatus(t *testing.T) {
	h, db := newTestHandler(t, nil)
	router := newTestRouter(h)
	owner := createTestUser(t, db, "owner@test.dev", models.RoleUser)
	loc := createTestLocation(t, db, owner, models.LocationApproved)

	var updated models.Location
	w := doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/user/locations/%d", loc.ID),
		sessionFor(t, owner), map[string]interface{}{}, &updated)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.LocationPending, updated.Status)

	// Sponsorship-only edits reset too.
	loc2 := createTestLocation(t, db, owner, models.LocationApproved)
	w = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/user/locations/%d", loc2.ID),
		sessionFor(t, owner), map[string]interface{}{"isSponsored": true}, &updated)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, updated.IsSponsored)
	assert.Equal(t, models.LocationPending, updated.Status)
}

func TestOwnerEditCannotBlankRequiredFields(t *testing.T) {
	h, db := newTestHandler(t, nil)
	router := newTestRouter(h)
	owner := createTestUser(t, db, "owner@test.dev", models.RoleUser)
	loc := createTestLocation(t, db, owner, models.LocationApproved)

	w := doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/user/locations/%d", loc.ID),
		sessionFor(t, owner), map[string]interface{}{"name": ""}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var unchanged models.Location
	require.NoError(t, db.First(&unchanged, loc.ID).Error)
	assert.Equal(t, "Cafe X", unchanged.Name)
	assert.Equal(t, models.LocationApproved, unchanged.Status)
}

func TestNonOwnerEditForbidden(t *testing.T) {
	h, db := newTestHandler(t, nil)
	router := newTestRouter(h)
	owner := createTestUser(t, db, "owner@test.dev", models.RoleUser)
	other := createTestUser(t, db, "other@test.dev", models.RoleUser)
	loc := createTestLocation(t, db, owner, models.LocationApproved)

	w := doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/user/locations/%d", loc.ID),
		sessionFor(t, other), map[string]interface{}{"name": "Hijacked"}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/user/locations/%d", loc.ID),
		sessionFor(t, other), nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var unchanged models.Location
	require.NoError(t, db.First(&unchanged, loc.ID).Error)
	assert.Equal(t, "Cafe X", unchanged.Name)
	assert.Equal(t, models.LocationApproved, unchanged.Status)
}

func TestMissingLocationIsNotFound(t *testing.T) {
	h, db := newTestHandler(t, nil)
	router := newTestRouter(h)
	user := createTestUser(t, db, "u@test.dev", models.RoleUser)

	w := doJSON(t, router, http.MethodPatch, "/api/user/locations/9999",
		sessionFor(t, user), map[string]interface{}{"name": "X"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/locations/9999", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminStatusAssignment(t *testing.T) {
	h, db := newTestHandler(t, nil)
	router := newTestRouter(h)
	owner := createTestUser(t, db, "owner@test.dev", models.RoleUser)
	admin := createTestUser(t, db, "admin@test.dev", models.RoleAdmin)
	loc := createTestLocation(t, db, owner, models.LocationRejected)

	// Backwards transition REJECTED -> APPROVED is legal for admins.
	var updated models.Location
	w := doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/admin/locations/%d", loc.ID),
		sessionFor(t, admin), map[string]interface{}{"status": "APPROVED"}, &updated)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.LocationApproved, updated.Status)

	// Admin content edit without a status does not reset it.
	w = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/admin/locations/%d", loc.ID),
		sessionFor(t, admin), map[string]interface{}{"name": "Renamed by admin"}, &updated)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Renamed by admin", updated.Name)
	assert.Equal(t, models.LocationApproved, updated.Status)

	// Unknown status values are rejected.
	w = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/admin/locations/%d", loc.ID),
		sessionFor(t, admin), map[string]interface{}{"status": "ARCHIVED"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	h, db := newTestHandler(t, nil)
	router := newTestRouter(h)
	user := createTestUser(t, db, "u@test.dev", models.RoleUser)

	w := doJSON(t, router, http.MethodGet, "/api/admin/locations", sessionFor(t, user), nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/admin/locations", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPublicListReturnsAllStatuses(t *testing.T) {
	h, db := newTestHandler(t, nil)
	router := newTestRouter(h)
	owner := createTestUser(t, db, "owner@test.dev", models.RoleUser)
	createTestLocation(t, db, owner, models.LocationPending)
	createTestLocation(t, db, owner, models.LocationApproved)
	createTestLocation(t, db, owner, models.LocationRejected)

	var resp struct {
		Locations []models.Location `json:"locations"`
		Total     int64             `json:"total"`
	}
	w := doJSON(t, router, http.MethodGet, "/api/locations", "", nil, &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, resp.Total)
	assert.Len(t, resp.Locations, 3)

	// Explicit filters still work.
	w = doJSON(t, router, http.MethodGet, "/api/locations?status=APPROVED", "", nil, &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp.Locations, 1)
	assert.Equal(t, models.LocationApproved, resp.Locations[0].Status)
}

func TestImagesRoundTrip(t *testing.T) {
	h, db := newTestHandler(t, nil)
	router := newTestRouter(h)
	user := createTestUser(t, db, "u@test.dev", models.RoleUser)

	images := []string{"https://img.test/c.jpg", "https://img.test/a.jpg", "https://img.test/b.jpg"}
	var created models.Location
	w := doJSON(t, router, http.MethodPost, "/api/locations", sessionFor(t, user), map[string]interface{}{
		"name": "Cafe X", "city": "Test City", "latitude": 10.0, "longitude": 20.0,
		"category": "Cafe", "images": images,
	}, &created)
	require.Equal(t, http.StatusCreated, w.Code)

	var fetched models.Location
	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/locations/%d", created.ID), "", nil, &fetched)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StringList(images), fetched.Images)
}

func TestOwnerAndAdminDelete(t *testing.T) {
	h, db := newTestHandler(t, nil)
	router := newTestRouter(h)
	owner := createTestUser(t, db, "owner@test.dev", models.RoleUser)
	admin := createTestUser(t, db, "admin@test.dev", models.RoleAdmin)

	mine := createTestLocation(t, db, owner, models.LocationPending)
	w := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/user/locations/%d", mine.ID),
		sessionFor(t, owner), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	theirs := createTestLocation(t, db, owner, models.LocationPending)
	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/admin/locations/%d", theirs.ID),
		sessionFor(t, admin), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	db.Model(&models.Location{}).Count(&count)
	assert.Zero(t, count)
}

func TestAdminDeleteUserCascades(t *testing.T) {
	h, db := newTestHandler(t, nil)
	router := newTestRouter(h)
	owner := createTestUser(t, db, "owner@test.dev", models.RoleUser)
	admin := createTestUser(t, db, "admin@test.dev", models.RoleAdmin)
	createTestLocation(t, db, owner, models.LocationApproved)
	createTestLocation(t, db, owner, models.LocationPending)

	w := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", owner.ID),
		sessionFor(t, admin), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var locations int64
	db.Model(&models.Location{}).Where("user_id = ?", owner.ID).Count(&locations)
	assert.Zero(t, locations)

	var users int64
	db.Model(&models.User{}).Count(&users)
	assert.EqualValues(t, 1, users)
}
