package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order statuses
const (
	OrderPending   = "pending"
	OrderPreparing = "preparing"
	OrderReady     = "ready"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// Pickup modes
const (
	PickupNow      = "now"
	PickupSchedule = "schedule"
)

// Order types
const (
	OrderTypeTakeaway = "takeaway"
	OrderTypeDineIn   = "dine_in"
)

// Transaction types and statuses of the order ledger
const (
	TransactionServiceFee = "service_fee"
	TransactionPayout     = "restaurant_payout"
	TransactionRefund     = "refund"

	TransactionCompleted  = "completed"
	TransactionProcessing = "processing"
)

type TakeawayOrder struct {
	ID           uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	UserID       uuid.UUID           `gorm:"type:uuid;not null;index" json:"user_id"`
	RestaurantID uuid.UUID           `gorm:"type:uuid;not null;index" json:"restaurant_id"`
	Restaurant   *Restaurant         `gorm:"foreignKey:RestaurantID" json:"restaurant,omitempty"`
	Type         string              `gorm:"size:16;not null;default:'takeaway'" json:"type"`
	Status       string              `gorm:"size:16;not null;index" json:"status"`
	PickupMode   string              `gorm:"size:16;not null" json:"pickup_mode"`
	PickupAt     time.Time           `json:"pickup_at"`
	Notes        string              `gorm:"type:text" json:"notes"`
	Subtotal     int                 `json:"subtotal"`
	ServiceFee   int                 `json:"service_fee"`
	Total        int                 `json:"total"`
	Items        []TakeawayOrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

func (o *TakeawayOrder) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

type TakeawayOrderItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	MenuItemID uuid.UUID `gorm:"type:uuid;not null" json:"menu_item_id"`
	Name       string    `gorm:"size:255" json:"name"`
	UnitPrice  int       `json:"unit_price"`
	Quantity   int       `json:"quantity"`
	LineTotal  int       `json:"line_total"`
}

func (i *TakeawayOrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
