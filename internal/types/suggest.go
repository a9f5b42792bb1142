package types

import (
	"github.com/almuerzo-cl/almuerzo/backend/internal/geo"
	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
)

// Suggestion sources
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

// MenuSuggestionRequest carries the diner's preferences for AI suggestions.
type MenuSuggestionRequest struct {
	Cravings       string     `json:"cravings" binding:"required"`
	PickyHabits    string     `json:"picky_habits"`
	Budget         int        `json:"budget" binding:"min=0,max=100"`
	Distance       int        `json:"distance" binding:"min=0,max=100"`
	ServiceType    string     `json:"service_type"`
	FavoritesOnly  bool       `json:"favorites_only"`
	PaymentMethods []string   `json:"payment_methods"`
	Discounts      []string   `json:"discounts"`
	NewOnly        bool       `json:"new_only"`
	FeaturedOnly   bool       `json:"featured_only"`
	EventTitle     string     `json:"event_title"`
	EventNotes     string     `json:"event_notes"`
	Origin         *geo.Point `json:"origin,omitempty"`
}

// MenuSuggestion is one resolved suggestion.
type MenuSuggestion struct {
	Restaurant models.Restaurant `json:"restaurant"`
	Dish       models.MenuItem   `json:"dish"`
	Reasoning  string            `json:"reasoning"`
	Distance   string            `json:"distance"`
}

type MenuSuggestionResponse struct {
	Suggestions []MenuSuggestion `json:"suggestions"`
	Source      string           `json:"source"`
	Cached      bool             `json:"cached"`
}
