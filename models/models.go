package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// LocationStatus enum
type LocationStatus string

const (
	LocationPending  LocationStatus = "PENDING"
	LocationApproved LocationStatus = "APPROVED"
	LocationRejected LocationStatus = "REJECTED"
)

// Valid reports whether s is one of the known moderation states.
func (s LocationStatus) Valid() bool {
	switch s {
	case LocationPending, LocationApproved, LocationRejected:
		return true
	}
	return false
}

// SavedItemStatus enum
type SavedItemStatus string

const (
	SavedItemProcessing SavedItemStatus = "PROCESSING"
	SavedItemCompleted  SavedItemStatus = "COMPLETED"
	SavedItemFailed     SavedItemStatus = "FAILED"
)

// StringList stores an ordered list of strings as a single JSON-encoded
// text column. Order is preserved across the encode/decode cycle.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
	if len(b) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(b, (*[]string)(l))
}

// Location model - a submitted map pin
type Location struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	City        string         `gorm:"not null;index" json:"city"`
	Latitude    float64        `gorm:"column:latitude" json:"latitude"`
	Longitude   float64        `gorm:"column:longitude" json:"longitude"`
	Category    string         `gorm:"not null;index" json:"category"`
	IsSponsored bool           `gorm:"default:false" json:"isSponsored"`
	Images      StringList     `gorm:"type:text" json:"images"`
	Status      LocationStatus `gorm:"default:PENDING;index" json:"status"`
	UserID      uint           `gorm:"not null;index" json:"userId"`
	User        *User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Location) TableName() string {
	return "locations"
}

// SavedItem model - a URL submitted for content import
type SavedItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	URL         string          `gorm:"not null" json:"url"`
	Status      SavedItemStatus `gorm:"default:PROCESSING;index" json:"status"`
	Title       *string         `json:"title,omitempty"`
	Content     *string         `gorm:"type:text" json:"content,omitempty"`
	Author      *string         `json:"author,omitempty"`
	CoverImage  *string         `json:"coverImage,omitempty"`
	PublishedAt *time.Time      `json:"publishedAt,omitempty"`
	UserID      uint            `gorm:"not null;index" json:"userId"`
	User        *User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (SavedItem) TableName() string {
	return "saved_items"
}

// City reference data
type City struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"uniqueIndex;not null" json:"name"`
	Neighborhoods []Neighborhood `gorm:"foreignKey:CityID" json:"neighborhoods,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func (City) TableName() string {
	return "cities"
}

// Neighborhood reference data
type Neighborhood struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	CityID    uint      `gorm:"not null;index" json:"cityId"`
	City      *City     `gorm:"foreignKey:CityID" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Neighborhood) TableName() string {
	return "neighborhoods"
}
