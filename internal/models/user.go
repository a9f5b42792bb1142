package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles
const (
	RoleEater           = "eater"
	RoleRestaurantOwner = "restaurant_owner"
	RoleAdmin           = "admin"
)

type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Name         string         `gorm:"not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Role         string         `gorm:"size:32;not null;default:'eater'" json:"role"`
	Phone        string         `gorm:"size:32" json:"phone,omitempty"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	if u.Role == "" {
		u.Role = RoleEater
	}
	return nil
}

type UserProfile struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID               uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Username             string         `gorm:"size:50;not null;uniqueIndex" json:"username"`
	AvatarURL            string         `gorm:"size:255" json:"avatar_url"`
	DefaultPaymentMethod string         `gorm:"size:32;default:'pay-own'" json:"default_payment_method"`
	SharePhoneByDefault  bool           `json:"share_phone_by_default"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *UserProfile) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// Favorite marks a restaurant as a user's favorite.
type Favorite struct {
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	RestaurantID uuid.UUID `gorm:"type:uuid;primaryKey" json:"restaurant_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// DailyMenuSubscription subscribes a user to a restaurant's daily menu.
type DailyMenuSubscription struct {
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	RestaurantID uuid.UUID `gorm:"type:uuid;primaryKey" json:"restaurant_id"`
	CreatedAt    time.Time `json:"created_at"`
}
