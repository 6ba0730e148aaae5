package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mapmark/backend/database"
	"github.com/mapmark/backend/models"
	"github.com/mapmark/backend/services"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestHandler builds a handler over a fresh in-memory database. The
// event hub stays nil (publishing is nil-safe); the scraper may be nil for
// tests that never import anything.
func newTestHandler(t *testing.T, scraper *services.Scraper) (*Handler, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=2000", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	return New(db, nil, nil, scraper), db
}

// newTestRouter wires the handler into the same route layout main uses.
func newTestRouter(h *Handler) *gin.Engine {
	router := gin.New()

	api := router.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)
	auth.GET("/me", h.AuthMiddleware(), h.Me)

	api.GET("/locations", h.GetLocations)
	api.GET("/locations/:id", h.GetLocation)
	api.POST("/locations", h.AuthMiddleware(), h.CreateLocation)

	user := api.Group("/user", h.AuthMiddleware())
	user.PATCH("/locations/:id", h.UpdateMyLocation)
	user.DELETE("/locations/:id", h.DeleteMyLocation)

	admin := api.Group("/admin", h.AuthMiddleware(), h.RequireAdmin())
	admin.GET("/locations", h.AdminListLocations)
	admin.PATCH("/locations/:id", h.AdminUpdateLocation)
	admin.DELETE("/locations/:id", h.AdminDeleteLocation)
	admin.GET("/users", h.AdminListUsers)
	admin.DELETE("/users/:id", h.AdminDeleteUser)

	api.POST("/upload-url", h.AuthMiddleware(), h.CreateUploadURL)

	saved := api.Group("/saved-items", h.AuthMiddleware())
	saved.POST("", h.CreateSavedItem)
	saved.GET("", h.GetSavedItems)
	saved.GET("/:id", h.GetSavedItem)

	api.GET("/cities", h.GetCities)
	api.GET("/cities/:id/neighborhoods", h.GetCityNeighborhoods)

	return router
}

func createTestUser(t *testing.T, db *gorm.DB, email string, role models.UserRole) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Name:         "Test " + email,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// sessionFor mints a session token the way the login handler does.
func sessionFor(t *testing.T, user *models.User) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID,
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

// doJSON performs a request with an optional session cookie and decodes
// the JSON response into out (when out is non-nil).
func doJSON(t *testing.T, router *gin.Engine, method, path, session string, body interface{}, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: session})
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if out != nil && w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w
}

func createTestLocation(t *testing.T, db *gorm.DB, owner *models.User, status models.LocationStatus) *models.Location {
	t.Helper()
	loc := &models.Location{
		Name:      "Cafe X",
		City:      "Test City",
		Latitude:  10.0,
		Longitude: 20.0,
		Category:  "Cafe",
		Images:    models.StringList{"https://img.test/1.jpg", "https://img.test/2.jpg"},
		Status:    status,
		UserID:    owner.ID,
	}
	require.NoError(t, db.Create(loc).Error)
	return loc
}
