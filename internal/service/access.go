package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
)

// canManageRestaurant returns ErrForbidden unless the user owns the
// restaurant or is an admin.
func canManageRestaurant(ctx context.Context, db *gorm.DB, userID, restaurantID uuid.UUID) error {
	var count int64
	err := db.WithContext(ctx).Model(&models.Restaurant{}).
		Where("id = ? AND owner_id = ?", restaurantID, userID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check ownership: %w", err)
	}
	if count > 0 {
		return nil
	}

	var roles []string
	err = db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Pluck("role", &roles).Error
	if err != nil {
		return fmt.Errorf("failed to load role: %w", err)
	}
	if len(roles) == 1 && roles[0] == models.RoleAdmin {
		return nil
	}
	return ErrForbidden
}

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }
