package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
)

// RateEvent stores the organizer's forks for a past event and folds them
// into the restaurant's average.
func (s *BookingService) RateEvent(ctx context.Context, userID, eventID uuid.UUID, forks int, comment string) (*models.EventRating, error) {
	if forks < 1 || forks > 5 {
		return nil, invalid("forks must be between 1 and 5")
	}
	e, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.OrganizerID != userID {
		return nil, ErrForbidden
	}
	if !e.Active() {
		return nil, fmt.Errorf("%w: cannot rate a %s event", ErrInvalidTransition, e.Status)
	}
	if s.now().Before(e.StartsAt) {
		return nil, invalid("the event has not started yet")
	}

	rating := &models.EventRating{
		EventID:      e.ID,
		RestaurantID: e.RestaurantID,
		UserID:       userID,
		Forks:        forks,
		Comment:      strings.TrimSpace(comment),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.EventRating{}).Where("event_id = ?", e.ID).Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check rating: %w", err)
		}
		if existing > 0 {
			return ErrAlreadyRated
		}
		if err := tx.Create(rating).Error; err != nil {
			// a concurrent rating won the unique index on event_id
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyRated
			}
			return fmt.Errorf("failed to store rating: %w", err)
		}
		return tx.Model(&models.Restaurant{}).Where("id = ?", e.RestaurantID).Updates(map[string]interface{}{
			"almuerzo_rating":       gorm.Expr("(almuerzo_rating * almuerzo_rating_count + ?) / (almuerzo_rating_count + 1.0)", forks),
			"almuerzo_rating_count": gorm.Expr("almuerzo_rating_count + 1"),
		}).Error
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyRated) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to rate event: %w", err)
	}
	return rating, nil
}
