package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mapmark/backend/database"
	"github.com/mapmark/backend/handlers"
	"github.com/mapmark/backend/natsserver"
	"github.com/mapmark/backend/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Connect to database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
	defer database.Close(db)

	// Start embedded NATS server backing the event feed
	natsPort := 4233
	if portStr := os.Getenv("EVENTS_NATS_PORT"); portStr != "" {
		if parsed, err := strconv.Atoi(portStr); err == nil {
			natsPort = parsed
		}
	}
	natsServer, err := natsserver.New(natsserver.Config{Port: natsPort})
	if err != nil {
		log.Fatalf("❌ Failed to start NATS server: %v", err)
	}
	defer natsServer.Shutdown()

	// Event hub for dashboard WebSocket streaming
	hub := services.NewEventHub(natsServer.Conn())
	go hub.Run()

	// Upload broker; uploads are disabled when storage is unconfigured
	storage, err := services.NewStorage(services.StorageConfigFromEnv())
	if err != nil {
		log.Printf("⚠️ Object storage disabled: %v", err)
		storage = nil
	}

	// Content extraction client
	scraper := services.NewScraperFromEnv()

	h := handlers.New(db, hub, storage, scraper)

	// Setup Gin router
	if os.Getenv("ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// CORS middleware
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowCredentials = false
	config.AllowMethods = []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(config))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// WebSocket event feed for admin dashboards (outside /api group)
	router.GET("/ws/events", h.AuthMiddleware(), h.RequireAdmin(), h.HandleEventsWebSocket)

	// API Routes
	api := router.Group("/api")
	{
		api.GET("/events/stats", h.GetEventHubStats)

		// Session routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
			auth.POST("/logout", h.Logout)
			auth.GET("/me", h.AuthMiddleware(), h.Me)
		}

		// Public location routes
		api.GET("/locations", h.GetLocations)
		api.GET("/locations/:id", h.GetLocation)
		api.POST("/locations", h.AuthMiddleware(), h.CreateLocation)

		// Owner routes
		user := api.Group("/user", h.AuthMiddleware())
		{
			user.PATCH("/locations/:id", h.UpdateMyLocation)
			user.DELETE("/locations/:id", h.DeleteMyLocation)
		}

		// Admin routes
		admin := api.Group("/admin", h.AuthMiddleware(), h.RequireAdmin())
		{
			admin.GET("/locations", h.AdminListLocations)
			admin.PATCH("/locations/:id", h.AdminUpdateLocation)
			admin.DELETE("/locations/:id", h.AdminDeleteLocation)
			admin.GET("/users", h.AdminListUsers)
			admin.DELETE("/users/:id", h.AdminDeleteUser)
		}

		// Upload broker
		api.POST("/upload-url", h.AuthMiddleware(), h.CreateUploadURL)

		// Saved item import
		saved := api.Group("/saved-items", h.AuthMiddleware())
		{
			saved.POST("", h.CreateSavedItem)
			saved.GET("", h.GetSavedItems)
			saved.GET("/:id", h.GetSavedItem)
		}

		// Reference data
		api.GET("/cities", h.GetCities)
		api.GET("/cities/:id/neighborhoods", h.GetCityNeighborhoods)
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	log.Printf("🚀 Server running on http://localhost:%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
