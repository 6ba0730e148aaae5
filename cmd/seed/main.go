package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mapmark/backend/database"
	"github.com/mapmark/backend/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var cities = map[string][]string{
	"Istanbul": {"Kadikoy", "Besiktas", "Sisli", "Uskudar", "Beyoglu"},
	"Ankara":   {"Cankaya", "Kecioren", "Yenimahalle"},
	"Izmir":    {"Konak", "Karsiyaka", "Bornova"},
}

var categories = []string{"Cafe", "Restaurant", "Park", "Museum", "Bar"}

var statuses = []models.LocationStatus{
	models.LocationPending,
	models.LocationPending,
	models.LocationApproved,
	models.LocationApproved,
	models.LocationRejected,
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	db, err := database.Connect()
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	fmt.Println("🌱 Starting seed...")

	ensureUser(db, envOr("SEED_ADMIN_EMAIL", "admin@mapmark.dev"),
		envOr("SEED_ADMIN_PASSWORD", "admin-change-me"), "Admin", models.RoleAdmin)
	demo := ensureUser(db, "demo@mapmark.dev", "demo-change-me", "Demo User", models.RoleUser)

	// Reference data
	for cityName, hoods := range cities {
		var city models.City
		db.Where(models.City{Name: cityName}).FirstOrCreate(&city)
		for _, hood := range hoods {
			var n models.Neighborhood
			db.Where(models.Neighborhood{Name: hood, CityID: city.ID}).FirstOrCreate(&n)
		}
	}
	fmt.Println("✅ Reference data seeded")

	// Sample locations for dashboard development
	var count int64
	db.Model(&models.Location{}).Count(&count)
	if count > 0 {
		fmt.Println("⚠️  Locations already exist, skipping sample data")
		return
	}

	rand.Seed(time.Now().UnixNano())
	created := 0
	for cityName := range cities {
		for i := 0; i < 5; i++ {
			category := categories[rand.Intn(len(categories))]
			loc := models.Location{
				Name:        fmt.Sprintf("%s %s %d", cityName, category, i+1),
				City:        cityName,
				Latitude:    36 + rand.Float64()*6,
				Longitude:   26 + rand.Float64()*19,
				Category:    category,
				IsSponsored: rand.Intn(10) == 0,
				Images: models.StringList{
					fmt.Sprintf("https://cdn.mapmark.dev/sample/%s-%d-1.jpg", cityName, i),
					fmt.Sprintf("https://cdn.mapmark.dev/sample/%s-%d-2.jpg", cityName, i),
				},
				Status: statuses[rand.Intn(len(statuses))],
				UserID: demo.ID,
			}
			if err := db.Create(&loc).Error; err != nil {
				log.Printf("❌ Failed to create location: %v", err)
				continue
			}
			created++
		}
	}

	fmt.Printf("✅ Seeded %d sample locations\n", created)
}

func ensureUser(db *gorm.DB, email, password, name string, role models.UserRole) *models.User {
	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user
	}

	user = models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashPassword(password),
		Role:         role,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("❌ Failed to create user %s: %v", email, err)
	}
	fmt.Printf("✅ User %s seeded\n", email)
	return &user
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func hashPassword(password string) string {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("❌ Failed to hash password: %v", err)
	}
	return string(hashed)
}
