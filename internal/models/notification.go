package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recipient kinds
const (
	RecipientUser       = "user"
	RecipientRestaurant = "restaurant"
	RecipientGuest      = "guest"
)

// Notification channels
const (
	ChannelInApp     = "in_app"
	ChannelEmail     = "email"
	ChannelPhone     = "phone"
	ChannelWhatsApp  = "whatsapp"
	ChannelTelegram  = "telegram"
	ChannelInstagram = "instagram"
	ChannelFacebook  = "facebook"
)

// Notification kinds
const (
	KindInvitation    = "invitation"
	KindBooking       = "booking"
	KindDecision      = "decision"
	KindCancellation  = "cancellation"
	KindPromotion     = "waitlist_promotion"
	KindNoShow        = "no_show"
	KindRatingRequest = "rating_request"
	KindOrder         = "order"
)

type Notification struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	RecipientKind string     `gorm:"size:16;not null" json:"recipient_kind"`
	UserID        *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	RestaurantID  *uuid.UUID `gorm:"type:uuid;index" json:"restaurant_id,omitempty"`
	EventID       *uuid.UUID `gorm:"type:uuid" json:"event_id,omitempty"`
	OrderID       *uuid.UUID `gorm:"type:uuid" json:"order_id,omitempty"`
	Channel       string     `gorm:"size:16;not null" json:"channel"`
	Address       string     `gorm:"size:255" json:"address,omitempty"`
	Kind          string     `gorm:"size:32;not null" json:"kind"`
	Title         string     `gorm:"size:255" json:"title"`
	Body          string     `gorm:"type:text" json:"body"`
	Link          string     `gorm:"size:255" json:"link,omitempty"`
	Read          bool       `gorm:"index" json:"read"`
	ReadAt        *time.Time `json:"read_at,omitempty"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	Error         string     `gorm:"type:text" json:"error,omitempty"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}
