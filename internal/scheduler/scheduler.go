package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	maxAttempts = 3
	batchSize   = 50
	baseBackoff = 30 * time.Second
)

// Handler processes one job.
type Handler func(ctx context.Context, job Job) error

// Scheduler polls a JobQueue and dispatches due jobs to their handlers.
type Scheduler struct {
	queue    JobQueue
	handlers map[string]Handler
	tick     time.Duration
	log      *zap.Logger
	now      func() time.Time
}

func New(queue JobQueue, tick time.Duration, log *zap.Logger) *Scheduler {
	if tick <= 0 {
		tick = time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		queue:    queue,
		handlers: make(map[string]Handler),
		tick:     tick,
		log:      log,
		now:      time.Now,
	}
}

// Register sets the handler for a job kind. It must be called before Run.
func (s *Scheduler) Register(kind string, h Handler) {
	s.handlers[kind] = h
}

// Schedule enqueues a job.
func (s *Scheduler) Schedule(ctx context.Context, job Job) error {
	if _, ok := s.handlers[job.Kind]; !ok {
		return fmt.Errorf("no handler registered for job kind %q", job.Kind)
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return err
	}
	s.log.Debug("Job scheduled",
		zap.String("kind", job.Kind),
		zap.String("ref", job.Ref.String()),
		zap.Time("run_at", job.RunAt))
	return nil
}

// Run polls until ctx is cancelled. It runs on the caller's goroutine.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.log.Info("Scheduler started", zap.Duration("tick", s.tick))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Scheduler stopped")
			return nil
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
				s.log.Error("Scheduler poll failed", zap.Error(err))
			}
		}
	}
}

// RunOnce processes every job due now and returns how many were handled.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	handled := 0
	for {
		jobs, err := s.queue.Due(ctx, s.now(), batchSize)
		if err != nil {
			return handled, err
		}
		for _, job := range jobs {
			s.dispatch(ctx, job)
			handled++
		}
		if len(jobs) < batchSize {
			return handled, nil
		}
	}
}

func (s *Scheduler) dispatch(ctx context.Context, job Job) {
	log := s.log.With(zap.String("kind", job.Kind), zap.String("ref", job.Ref.String()))

	h, ok := s.handlers[job.Kind]
	if !ok {
		log.Error("Dropping job without handler")
		return
	}

	err := h(ctx, job)
	if err == nil {
		log.Debug("Job done")
		return
	}

	job.Attempts++
	if job.Attempts >= maxAttempts {
		log.Error("Job failed, giving up", zap.Int("attempts", job.Attempts), zap.Error(err))
		return
	}
	job.RunAt = s.now().Add(baseBackoff << (job.Attempts - 1)).UTC()
	log.Warn("Job failed, retrying", zap.Int("attempts", job.Attempts), zap.Time("run_at", job.RunAt), zap.Error(err))
	if err := s.queue.Enqueue(ctx, job); err != nil {
		log.Error("Failed to re-enqueue job", zap.Error(err))
	}
}
