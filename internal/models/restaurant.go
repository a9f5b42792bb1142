package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// Services a restaurant can offer
const (
	ServiceDineIn       = "dine_in"
	ServiceTakeaway     = "takeaway"
	ServiceSubscription = "subscription"
	ServiceDailyMenu    = "daily_menu"
)

// DefaultTakeawayMinutes is used when a restaurant has no preparation time set.
const DefaultTakeawayMinutes = 20

// EventAvailability says which party sizes a restaurant accepts without review.
type EventAvailability struct {
	UpTo4  bool `json:"up_to_4"`
	From5  bool `json:"from_5_to_7"`
	From8  bool `json:"from_8_to_16"`
	From17 bool `json:"from_17"`
}

// AutoAccepts reports whether a party of the given size is confirmed directly.
func (a EventAvailability) AutoAccepts(partySize int) bool {
	switch {
	case partySize <= 4:
		return a.UpTo4
	case partySize <= 7:
		return a.From5
	case partySize <= 16:
		return a.From8
	default:
		return a.From17
	}
}

type Restaurant struct {
	ID                       uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt                time.Time          `json:"created_at"`
	UpdatedAt                time.Time          `json:"updated_at"`
	DeletedAt                gorm.DeletedAt     `gorm:"index" json:"-"`
	OwnerID                  *uuid.UUID         `gorm:"type:uuid;index" json:"owner_id,omitempty"`
	Name                     string             `gorm:"size:255;not null" json:"name"`
	Address                  string             `gorm:"size:255" json:"address"`
	Latitude                 float64            `gorm:"not null" json:"latitude"`
	Longitude                float64            `gorm:"not null" json:"longitude"`
	ImageURL                 string             `gorm:"size:255" json:"image_url"`
	ImageHint                string             `gorm:"size:100" json:"image_hint,omitempty"`
	Cuisine                  string             `gorm:"size:100;index" json:"cuisine"`
	GoogleRating             float64            `json:"google_rating"`
	GoogleRatingCount        int                `json:"google_rating_count"`
	PaymentMethods           StringList         `gorm:"type:jsonb;not null;default:'[]'" json:"payment_methods"`
	Services                 StringList         `gorm:"type:jsonb;not null;default:'[]'" json:"services"`
	IsNew                    bool               `json:"is_new"`
	IsHiddenGem              bool               `json:"is_hidden_gem"`
	IsSponsored              bool               `json:"is_sponsored"`
	IsFeatured               bool               `json:"is_featured"`
	HasSuperOffer            bool               `json:"has_super_offer"`
	PriceLevel               int                `gorm:"default:2" json:"price_level"`
	AlmuerzoRating           float64            `json:"almuerzo_rating"`
	AlmuerzoRatingCount      int                `json:"almuerzo_rating_count"`
	FeaturedEventTitle       string             `gorm:"size:255" json:"featured_event_title,omitempty"`
	FeaturedEventDescription string             `gorm:"type:text" json:"featured_event_description,omitempty"`
	EventAvailability        *EventAvailability `gorm:"type:jsonb;serializer:json" json:"event_availability,omitempty"`
	WaitlistEnabled          bool               `json:"waitlist_enabled"`
	SeatingCapacity          int                `json:"seating_capacity"`
	NoShowPolicyMinutes      *int               `json:"no_show_policy_minutes,omitempty"`
	TakeawayMinutes          int                `json:"takeaway_minutes"`
	MenuItems                []MenuItem         `gorm:"foreignKey:RestaurantID" json:"menu,omitempty"`
	Discounts                []Discount         `gorm:"foreignKey:RestaurantID" json:"discounts,omitempty"`

	// DistanceKm is computed per request from the caller's origin.
	DistanceKm float64 `gorm:"-" json:"distance_km"`
}

func (r *Restaurant) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// Offers reports whether the restaurant provides the given service.
func (r *Restaurant) Offers(service string) bool {
	return r.Services.Contains(NormalizeService(service))
}

// TakeawayTime returns the preparation time for takeaway orders.
func (r *Restaurant) TakeawayTime() time.Duration {
	if r.TakeawayMinutes <= 0 {
		return DefaultTakeawayMinutes * time.Minute
	}
	return time.Duration(r.TakeawayMinutes) * time.Minute
}

// HasNoShowPolicy reports whether guests must check in before a deadline.
func (r *Restaurant) HasNoShowPolicy() bool {
	return r.NoShowPolicyMinutes != nil && *r.NoShowPolicyMinutes > 0
}

// NormalizeService maps client spellings such as "dine-in" to the stored form.
func NormalizeService(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}

type MenuItem struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
	RestaurantID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"restaurant_id"`
	Name                 string         `gorm:"size:255;not null" json:"name"`
	Description          string         `gorm:"type:text" json:"description"`
	Price                int            `gorm:"not null" json:"price"`
	SalePrice            *int           `json:"sale_price,omitempty"`
	Rating               float64        `json:"rating"`
	ImageURL             string         `gorm:"size:255" json:"image_url"`
	ImageHint            string         `gorm:"size:100" json:"image_hint,omitempty"`
	AvailableForTakeaway bool           `json:"available_for_takeaway"`
	IsVegan              bool           `json:"is_vegan"`
	IsFeatured           bool           `json:"is_featured"`
	Stock                *int           `json:"stock,omitempty"`
}

func (m *MenuItem) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

// UnitPrice is the sale price when present, otherwise the regular price.
func (m *MenuItem) UnitPrice() int {
	if m.SalePrice != nil && *m.SalePrice > 0 {
		return *m.SalePrice
	}
	return m.Price
}

// EmbeddingText is the text used to compute a menu item's embedding.
func (m *MenuItem) EmbeddingText(r *Restaurant) string {
	parts := []string{m.Name, m.Description}
	if r != nil {
		parts = append(parts, r.Cuisine)
	}
	if m.IsVegan {
		parts = append(parts, "vegano")
	}
	return strings.Join(parts, ". ")
}

// MenuItemEmbedding stores the semantic vector for a menu item.
type MenuItemEmbedding struct {
	MenuItemID   uuid.UUID       `gorm:"type:uuid;primaryKey" json:"menu_item_id"`
	RestaurantID uuid.UUID       `gorm:"type:uuid;not null;index" json:"restaurant_id"`
	Model        string          `gorm:"size:100" json:"model"`
	Embedding    pgvector.Vector `gorm:"type:vector(768);not null" json:"-"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Discount types
const (
	DiscountFixed   = "$"
	DiscountPercent = "%"
)

type Discount struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	RestaurantID uuid.UUID      `gorm:"type:uuid;not null;index" json:"restaurant_id"`
	Sponsor      string         `gorm:"size:100" json:"sponsor"`
	Type         string         `gorm:"size:1;not null" json:"type"`
	Amount       float64        `gorm:"not null" json:"amount"`
	ValidFrom    time.Time      `json:"valid_from"`
	ValidTo      time.Time      `json:"valid_to"`
	DaysOfWeek   StringList     `gorm:"type:jsonb;not null;default:'[]'" json:"days_of_week"`
	AppliesTo    string         `gorm:"size:255" json:"applies_to"`
	Description  string         `gorm:"type:text" json:"description"`
}

func (d *Discount) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}

// ActiveOn reports whether the discount applies at t. An empty day list means
// every day. Day names may be English or Spanish.
func (d *Discount) ActiveOn(t time.Time) bool {
	if !d.ValidFrom.IsZero() && t.Before(d.ValidFrom) {
		return false
	}
	if !d.ValidTo.IsZero() && t.After(d.ValidTo) {
		return false
	}
	if len(d.DaysOfWeek) == 0 {
		return true
	}
	for _, day := range d.DaysOfWeek {
		if wd, ok := ParseWeekday(day); ok && wd == t.Weekday() {
			return true
		}
	}
	return false
}
