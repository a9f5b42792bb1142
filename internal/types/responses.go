package types

import (
	"time"

	"github.com/google/uuid"

	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
)

type AuthResponse struct {
	Token   string              `json:"token"`
	User    models.User         `json:"user"`
	Profile *models.UserProfile `json:"profile,omitempty"`
}

type TakeawayCustomer struct {
	UserID       uuid.UUID `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	TotalSpent   int       `json:"total_spent"`
	OrderCount   int       `json:"order_count"`
	AverageOrder int       `json:"average_order"`
}

type ReservationCustomer struct {
	UserID       uuid.UUID `json:"user_id"`
	Name         string    `json:"name"`
	Reservations int       `json:"reservations"`
}

type EaterDashboard struct {
	UpcomingEvents      []models.LunchEvent `json:"upcoming_events"`
	EventsOrganized     int64               `json:"events_organized"`
	OrdersThisWeek      int64               `json:"orders_this_week"`
	FavoritesCount      int64               `json:"favorites_count"`
	UnreadNotifications int64               `json:"unread_notifications"`
}

type PlatformMetrics struct {
	Users               int64            `json:"users"`
	Restaurants         int64            `json:"restaurants"`
	EventsByStatus      map[string]int64 `json:"events_by_status"`
	Orders              int64            `json:"orders"`
	GrossTakeawayVolume int64            `json:"gross_takeaway_volume"`
}

// ChartPoint is one labelled value of an analytics chart.
type ChartPoint struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// CustomerHabits describes when and how a restaurant's takeaway customers order.
type CustomerHabits struct {
	Orders               int          `json:"orders"`
	SpendingDistribution []ChartPoint `json:"spending_distribution"`
	TopDishes            []ChartPoint `json:"top_dishes"`
	HourlyActivity       []ChartPoint `json:"hourly_activity"`
	DailyActivity        []ChartPoint `json:"daily_activity"`
}

// Transaction is one money movement derived from a takeaway order.
type Transaction struct {
	ID      string    `json:"id"`
	OrderID uuid.UUID `json:"order_id"`
	Type    string    `json:"type"`
	Amount  int       `json:"amount"`
	Status  string    `json:"status"`
	Date    time.Time `json:"date"`
}
