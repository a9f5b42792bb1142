// Package scheduler runs delayed jobs such as rating requests and no-show
// checks from a durable queue.
package scheduler

import (
	"time"

	"github.com/google/uuid"
)

// Job kinds
const (
	KindRatingRequest = "rating_request"
	KindNoShowCheck   = "no_show_check"
)

// Job is a unit of delayed work.
type Job struct {
	ID       uuid.UUID `json:"id"`
	Kind     string    `json:"kind"`
	Ref      uuid.UUID `json:"ref"`
	RunAt    time.Time `json:"run_at"`
	Attempts int       `json:"attempts"`
}

// NewJob builds a job of kind for ref, due at runAt.
func NewJob(kind string, ref uuid.UUID, runAt time.Time) Job {
	return Job{ID: uuid.New(), Kind: kind, Ref: ref, RunAt: runAt.UTC()}
}
