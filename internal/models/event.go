package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lunch event statuses
const (
	EventConfirmed           = "confirmed"
	EventWaitlisted          = "waitlisted"
	EventPendingConfirmation = "pending_confirmation"
	EventRejected            = "rejected"
	EventCheckedIn           = "checked_in"
	EventCancelled           = "cancelled"
	EventNoShow              = "no_show"
)

// Recurrence frequencies
const (
	FrequencyWeekly   = "weekly"
	FrequencyMonthly  = "monthly"
	FrequencyAnnually = "annually"
)

// Event payment methods
const (
	PaymentPayOwn        = "pay-own"
	PaymentOrganizerPays = "organizer-pays"
	PaymentSplit         = "split"
)

// Check-in methods
const (
	CheckInVirtual = "virtual"
	CheckInHost    = "host"
)

// RecurrenceRule describes how a lunch event repeats.
type RecurrenceRule struct {
	Frequency   string     `json:"frequency"`
	Days        []string   `json:"days,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Occurrences int        `json:"occurrences,omitempty"`
}

type LunchEvent struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
	DeletedAt             gorm.DeletedAt  `gorm:"index" json:"-"`
	SeriesID              uuid.UUID       `gorm:"type:uuid;not null;index" json:"series_id"`
	Sequence              int             `json:"sequence"`
	Title                 string          `gorm:"size:255;not null" json:"title"`
	RestaurantID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_event_restaurant_start" json:"restaurant_id"`
	Restaurant            *Restaurant     `gorm:"foreignKey:RestaurantID" json:"restaurant,omitempty"`
	OrganizerID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"organizer_id"`
	OrganizerName         string          `gorm:"size:255" json:"organizer_name"`
	StartsAt              time.Time       `gorm:"not null;index:idx_event_restaurant_start" json:"starts_at"`
	Notes                 string          `gorm:"type:text" json:"notes"`
	PartySize             int             `gorm:"not null" json:"party_size"`
	Status                string          `gorm:"size:32;not null;index" json:"status"`
	Recurrence            *RecurrenceRule `gorm:"type:jsonb;serializer:json" json:"recurrence,omitempty"`
	GeneralPolicyAccepted bool            `json:"general_policy_accepted"`
	PolicyAcceptedAt      *time.Time      `json:"policy_accepted_at,omitempty"`
	SharePhone            bool            `json:"share_phone"`
	PaymentMethod         string          `gorm:"size:32;default:'pay-own'" json:"payment_method"`
	CheckInDeadline       *time.Time      `json:"check_in_deadline,omitempty"`
	CheckedInAt           *time.Time      `json:"checked_in_at,omitempty"`
	CheckInMethod         string          `gorm:"size:16" json:"check_in_method,omitempty"`
	DecidedAt             *time.Time      `json:"decided_at,omitempty"`
	CancellationReason    string          `gorm:"type:text" json:"cancellation_reason,omitempty"`
	URL                   string          `gorm:"size:255" json:"url"`
	Guests                []EventGuest    `gorm:"foreignKey:EventID" json:"guests,omitempty"`
}

func (e *LunchEvent) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

// Active reports whether the event still holds seats.
func (e *LunchEvent) Active() bool {
	return e.Status == EventConfirmed || e.Status == EventCheckedIn
}

type EventGuest struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EventID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"event_id"`
	ContactID *uuid.UUID `gorm:"type:uuid" json:"contact_id,omitempty"`
	Name      string     `gorm:"size:255;not null" json:"name"`
	Source    string     `gorm:"size:32" json:"source"`
	Phone     string     `gorm:"size:32" json:"phone,omitempty"`
	Email     string     `gorm:"size:255" json:"email,omitempty"`
	Username  string     `gorm:"size:100" json:"username,omitempty"`
}

func (g *EventGuest) BeforeCreate(*gorm.DB) error {
	ensureID(&g.ID)
	return nil
}

// EventRating is the organizer's forks score for an event.
type EventRating struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	EventID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"event_id"`
	RestaurantID uuid.UUID `gorm:"type:uuid;not null;index" json:"restaurant_id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	Forks        int       `gorm:"not null" json:"forks"`
	Comment      string    `gorm:"type:text" json:"comment"`
}

func (r *EventRating) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
