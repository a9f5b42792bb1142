package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact sources
const (
	SourcePhone     = "phone"
	SourceWhatsApp  = "whatsapp"
	SourceTelegram  = "telegram"
	SourceInstagram = "instagram"
	SourceFacebook  = "facebook"
	SourceEmail     = "email"
)

// ContactSources lists every accepted source.
var ContactSources = []string{SourcePhone, SourceWhatsApp, SourceTelegram, SourceInstagram, SourceFacebook, SourceEmail}

type Contact struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	OwnerID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name       string         `gorm:"size:255;not null" json:"name"`
	AvatarURL  string         `gorm:"size:255" json:"avatar_url,omitempty"`
	Source     string         `gorm:"size:32;not null" json:"source"`
	Phone      string         `gorm:"size:32" json:"phone,omitempty"`
	Email      string         `gorm:"size:255" json:"email,omitempty"`
	Username   string         `gorm:"size:100" json:"username,omitempty"`
	ProfileURL string         `gorm:"size:255" json:"profile_url,omitempty"`
}

func (c *Contact) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
