package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/almuerzo-cl/almuerzo/backend/internal/geo"
	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
)

const (
	checkInOpensBefore   = 30 * time.Minute
	defaultCheckInWindow = 2 * time.Hour
	checkInRadiusMeters  = 50
)

// checkInWindow returns when check-in opens and closes for e.
func checkInWindow(e *models.LunchEvent) (time.Time, time.Time) {
	closes := e.StartsAt.Add(defaultCheckInWindow)
	if e.CheckInDeadline != nil {
		closes = *e.CheckInDeadline
	}
	return e.StartsAt.Add(-checkInOpensBefore), closes
}

// CheckIn records the organizer's arrival. Virtual check-in is done by the
// organizer from within checkInRadiusMeters of the restaurant; host check-in
// by the restaurant's staff.
func (s *BookingService) CheckIn(ctx context.Context, userID, eventID uuid.UUID, method string, location *geo.Point) (*models.LunchEvent, error) {
	e, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	switch method {
	case models.CheckInVirtual:
		if e.OrganizerID != userID {
			return nil, ErrForbidden
		}
	case models.CheckInHost:
		if err := canManageRestaurant(ctx, s.db, userID, e.RestaurantID); err != nil {
			return nil, err
		}
	default:
		return nil, invalid("unknown check-in method %q", method)
	}

	if e.Status != models.EventConfirmed {
		return nil, fmt.Errorf("%w: cannot check in a %s event", ErrInvalidTransition, e.Status)
	}

	now := s.now()
	opens, closes := checkInWindow(e)
	if now.Before(opens) || now.After(closes) {
		return nil, ErrOutsideCheckInWindow
	}

	if method == models.CheckInVirtual {
		if location == nil || !location.Valid() {
			return nil, invalid("a location is required for virtual check-in")
		}
		d := geo.DistanceMeters(*location, geo.Point{Lat: e.Restaurant.Latitude, Lon: e.Restaurant.Longitude})
		if d > checkInRadiusMeters {
			return nil, fmt.Errorf("%w: %.0f m away", ErrTooFarForCheckIn, d)
		}
	}

	at := now.UTC()
	err = transition(s.db.WithContext(ctx), e.ID, []string{models.EventConfirmed}, map[string]interface{}{
		"status":          models.EventCheckedIn,
		"checked_in_at":   at,
		"check_in_method": method,
	})
	if err != nil {
		return nil, err
	}
	e.Status = models.EventCheckedIn
	e.CheckedInAt = &at
	e.CheckInMethod = method

	s.log.Info("Checked in", zap.String("event_id", e.ID.String()), zap.String("method", method))
	return e, nil
}
