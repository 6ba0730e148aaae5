// Package handlers contains the HTTP request handlers
package handlers

import (
	"os"

	"github.com/mapmark/backend/services"
	"gorm.io/gorm"
)

// Handler bundles the dependencies the request handlers need. It is
// constructed once in main with an explicitly injected database handle.
type Handler struct {
	db        *gorm.DB
	hub       *services.EventHub
	storage   *services.Storage
	scraper   *services.Scraper
	jwtSecret []byte
}

// New creates the handler set
func New(db *gorm.DB, hub *services.EventHub, storage *services.Storage, scraper *services.Scraper) *Handler {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default-dev-secret-change-me"
	}
	return &Handler{
		db:        db,
		hub:       hub,
		storage:   storage,
		scraper:   scraper,
		jwtSecret: []byte(secret),
	}
}
