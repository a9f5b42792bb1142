package types

import (
	"time"

	"github.com/google/uuid"

	"github.com/almuerzo-cl/almuerzo/backend/internal/geo"
	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
)

// RegisterRequest represents the request body for creating an account
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Username string `json:"username" binding:"required,min=3,max=50"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest only changes the fields that are present.
type UpdateProfileRequest struct {
	Name                 *string `json:"name,omitempty"`
	Phone                *string `json:"phone,omitempty"`
	Username             *string `json:"username,omitempty"`
	AvatarURL            *string `json:"avatar_url,omitempty"`
	DefaultPaymentMethod *string `json:"default_payment_method,omitempty"`
	SharePhoneByDefault  *bool   `json:"share_phone_by_default,omitempty"`
}

// RestaurantFilter narrows catalog listings.
type RestaurantFilter struct {
	Origin     *geo.Point
	Cuisine    string
	Service    string
	PriceLevel int
	Query      string
	Sort       string // distance, rating, name
}

// RestaurantRequest is used for both create and full update.
type RestaurantRequest struct {
	Name                     string                    `json:"name" binding:"required"`
	Address                  string                    `json:"address"`
	Latitude                 float64                   `json:"latitude"`
	Longitude                float64                   `json:"longitude"`
	ImageURL                 string                    `json:"image_url"`
	ImageHint                string                    `json:"image_hint"`
	Cuisine                  string                    `json:"cuisine"`
	GoogleRating             float64                   `json:"google_rating"`
	GoogleRatingCount        int                       `json:"google_rating_count"`
	PaymentMethods           []string                  `json:"payment_methods"`
	Services                 []string                  `json:"services"`
	IsNew                    bool                      `json:"is_new"`
	IsHiddenGem              bool                      `json:"is_hidden_gem"`
	IsSponsored              bool                      `json:"is_sponsored"`
	IsFeatured               bool                      `json:"is_featured"`
	HasSuperOffer            bool                      `json:"has_super_offer"`
	PriceLevel               int                       `json:"price_level"`
	FeaturedEventTitle       string                    `json:"featured_event_title"`
	FeaturedEventDescription string                    `json:"featured_event_description"`
	EventAvailability        *models.EventAvailability `json:"event_availability"`
	WaitlistEnabled          bool                      `json:"waitlist_enabled"`
	SeatingCapacity          int                       `json:"seating_capacity"`
	NoShowPolicyMinutes      *int                      `json:"no_show_policy_minutes"`
	TakeawayMinutes          int                       `json:"takeaway_minutes"`
	OwnerID                  *uuid.UUID                `json:"owner_id"`
}

type MenuItemRequest struct {
	Name                 string `json:"name" binding:"required"`
	Description          string `json:"description"`
	Price                int    `json:"price" binding:"gte=0"`
	SalePrice            *int   `json:"sale_price"`
	ImageURL             string `json:"image_url"`
	ImageHint            string `json:"image_hint"`
	AvailableForTakeaway bool   `json:"available_for_takeaway"`
	IsVegan              bool   `json:"is_vegan"`
	IsFeatured           bool   `json:"is_featured"`
	Stock                *int   `json:"stock"`
}

type DiscountRequest struct {
	Sponsor     string    `json:"sponsor"`
	Type        string    `json:"type" binding:"required,oneof=$ %"`
	Amount      float64   `json:"amount" binding:"gt=0"`
	ValidFrom   time.Time `json:"valid_from"`
	ValidTo     time.Time `json:"valid_to"`
	DaysOfWeek  []string  `json:"days_of_week"`
	AppliesTo   string    `json:"applies_to"`
	Description string    `json:"description"`
}

// GuestInput references a saved contact or describes a guest inline.
type GuestInput struct {
	ContactID *uuid.UUID `json:"contact_id,omitempty"`
	Name      string     `json:"name"`
	Source    string     `json:"source"`
	Phone     string     `json:"phone,omitempty"`
	Email     string     `json:"email,omitempty"`
	Username  string     `json:"username,omitempty"`
}

type CreateLunchEventRequest struct {
	Title                 string                 `json:"title"`
	RestaurantID          uuid.UUID              `json:"restaurant_id"`
	StartsAt              time.Time              `json:"starts_at"`
	Notes                 string                 `json:"notes"`
	Guests                []GuestInput           `json:"guests"`
	IsRecurring           bool                   `json:"is_recurring"`
	Recurrence            *models.RecurrenceRule `json:"recurrence,omitempty"`
	AcceptedGeneralPolicy bool                   `json:"accepted_general_policy"`
	AcceptedNoShowPolicy  bool                   `json:"accepted_no_show_policy"`
	JoinWaitlist          bool                   `json:"join_waitlist"`
	SharePhone            bool                   `json:"share_phone"`
	PaymentMethod         string                 `json:"payment_method"`
	Origin                *geo.Point             `json:"origin,omitempty"`
}

type OccurrenceSummary struct {
	EventID  uuid.UUID `json:"event_id"`
	StartsAt time.Time `json:"starts_at"`
	Status   string    `json:"status"`
}

type CreateLunchEventResponse struct {
	Success     bool                `json:"success"`
	EventID     uuid.UUID           `json:"event_id"`
	SeriesID    uuid.UUID           `json:"series_id"`
	Status      string              `json:"status"`
	Message     string              `json:"message"`
	Occurrences []OccurrenceSummary `json:"occurrences"`
}

type DecideEventRequest struct {
	Decision string `json:"decision" binding:"required,oneof=accept reject"`
	Reason   string `json:"reason"`
}

type CancelEventRequest struct {
	Reason string `json:"reason"`
}

type CheckInRequest struct {
	Method   string     `json:"method" binding:"required,oneof=virtual host"`
	Location *geo.Point `json:"location,omitempty"`
}

type RateEventRequest struct {
	Forks   int    `json:"forks" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// Reservation is a lunch event as seen by the restaurant.
type Reservation struct {
	models.LunchEvent
	OrganizerTrust float64 `json:"organizer_trust"`
}

type OrderItemInput struct {
	MenuItemID uuid.UUID `json:"menu_item_id" binding:"required"`
	Quantity   int       `json:"quantity"`
}

type CreateOrderRequest struct {
	RestaurantID uuid.UUID        `json:"restaurant_id"`
	Items        []OrderItemInput `json:"items" binding:"required,min=1,dive"`
	Pickup       string           `json:"pickup"`
	ScheduledAt  *time.Time       `json:"scheduled_at,omitempty"`
	Notes        string           `json:"notes"`
	Type         string           `json:"type"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ContactRequest struct {
	Name       string `json:"name" binding:"required"`
	AvatarURL  string `json:"avatar_url"`
	Source     string `json:"source" binding:"required"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	ProfileURL string `json:"profile_url"`
}

// Community suggestion API types
type CreateCommunitySuggestionRequest struct {
	Type           string `form:"type" json:"type" binding:"required,oneof=new_restaurant new_offer correction"`
	RestaurantName string `form:"restaurant_name" json:"restaurant_name" binding:"max=255"`
	Address        string `form:"address" json:"address" binding:"max=255"`
	Comments       string `form:"comments" json:"comments" binding:"max=2000"`
}

type UpdateSuggestionStatusRequest struct {
	Status     string `json:"status" binding:"required,oneof=open reviewed accepted rejected"`
	AdminNotes string `json:"admin_notes"`
}
