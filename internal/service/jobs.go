package service

import (
	"context"

	"github.com/almuerzo-cl/almuerzo/backend/internal/scheduler"
)

// RegisterJobHandlers routes the booking jobs to the booking service.
func RegisterJobHandlers(s *scheduler.Scheduler, booking IBookingService) {
	s.Register(scheduler.KindRatingRequest, func(ctx context.Context, job scheduler.Job) error {
		return booking.HandleRatingRequest(ctx, job.Ref)
	})
	s.Register(scheduler.KindNoShowCheck, func(ctx context.Context, job scheduler.Job) error {
		return booking.HandleNoShowCheck(ctx, job.Ref)
	})
}
