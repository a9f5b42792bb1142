package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Community suggestion types
const (
	SuggestionNewRestaurant = "new_restaurant"
	SuggestionNewOffer      = "new_offer"
	SuggestionCorrection    = "correction"
)

// Community suggestion statuses
const (
	SuggestionOpen     = "open"
	SuggestionReviewed = "reviewed"
	SuggestionAccepted = "accepted"
	SuggestionRejected = "rejected"
)

// RestaurantSuggestion is a tip sent by the community about a restaurant or offer.
type RestaurantSuggestion struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	UserID         *uuid.UUID     `gorm:"type:uuid" json:"user_id,omitempty"`
	User           *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type           string         `gorm:"size:32;not null" json:"type"`
	RestaurantName string         `gorm:"size:255" json:"restaurant_name"`
	Address        string         `gorm:"size:255" json:"address"`
	Comments       string         `gorm:"type:text" json:"comments"`
	ImageURL       string         `gorm:"size:255" json:"image_url,omitempty"`
	Status         string         `gorm:"size:16;default:'open'" json:"status"`
	AdminNotes     string         `gorm:"type:text" json:"admin_notes"`
}

func (s *RestaurantSuggestion) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	if s.Status == "" {
		s.Status = SuggestionOpen
	}
	return nil
}

// SuggestionFilters represents filters for listing community suggestions
type SuggestionFilters struct {
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}
