package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/almuerzo-cl/almuerzo/backend/internal/testhelpers"
)

func TestMemoryQueueOrdersByRunAt(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()
	base := time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)

	late := NewJob(KindRatingRequest, uuid.New(), base.Add(2*time.Hour))
	early := NewJob(KindNoShowCheck, uuid.New(), base.Add(time.Hour))
	require.NoError(t, q.Enqueue(ctx, late))
	require.NoError(t, q.Enqueue(ctx, early))

	due, err := q.Due(ctx, base, 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = q.Due(ctx, base.Add(3*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, early.ID, due[0].ID)
	assert.Equal(t, late.ID, due[1].ID)

	n, _ := q.Len(ctx)
	assert.Zero(t, n)
}

func TestRunOnceDispatchesByKind(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	q := NewMemoryQueue()
	s := New(q, time.Second, nil)
	s.now = func() time.Time { return now }

	var got []string
	s.Register(KindRatingRequest, func(_ context.Context, j Job) error {
		got = append(got, "rating:"+j.Ref.String())
		return nil
	})
	s.Register(KindNoShowCheck, func(_ context.Context, j Job) error {
		got = append(got, "noshow:"+j.Ref.String())
		return nil
	})

	ref := uuid.New()
	require.NoError(t, s.Schedule(ctx, NewJob(KindNoShowCheck, ref, now.Add(-time.Minute))))
	require.NoError(t, s.Schedule(ctx, NewJob(KindRatingRequest, ref, now.Add(time.Hour))))

	handled, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, handled)
	assert.Equal(t, []string{"noshow:" + ref.String()}, got)

	n, _ := q.Len(ctx)
	assert.Equal(t, int64(1), n)
}

func TestScheduleUnknownKind(t *testing.T) {
	s := New(NewMemoryQueue(), time.Second, nil)
	err := s.Schedule(context.Background(), NewJob("unknown", uuid.New(), time.Now()))
	assert.Error(t, err)
}

func TestFailedJobIsRetriedWithBackoff(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	q := NewMemoryQueue()
	s := New(q, time.Second, nil)
	s.now = func() time.Time { return now }

	calls := 0
	s.Register(KindRatingRequest, func(context.Context, Job) error {
		calls++
		return errors.New("smtp down")
	})
	require.NoError(t, s.Schedule(ctx, NewJob(KindRatingRequest, uuid.New(), now)))

	_, err := s.RunOnce(ctx)
	require.NoError(t, err)
	pending := q.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Equal(t, now.Add(30*time.Second), pending[0].RunAt)

	now = now.Add(30 * time.Second)
	_, _ = s.RunOnce(ctx)
	pending = q.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Attempts)
	assert.Equal(t, now.Add(time.Minute), pending[0].RunAt)

	now = now.Add(time.Minute)
	_, _ = s.RunOnce(ctx)
	assert.Empty(t, q.Pending())
	assert.Equal(t, 3, calls)
}

func TestRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := NewMemoryQueue()
	s := New(q, 10*time.Millisecond, nil)

	var mu sync.Mutex
	done := make(chan struct{})
	s.Register(KindRatingRequest, func(context.Context, Job) error {
		mu.Lock()
		defer mu.Unlock()
		close(done)
		return nil
	})
	require.NoError(t, s.Schedule(context.Background(), NewJob(KindRatingRequest, uuid.New(), time.Now())))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not dispatched")
	}
	cancel()
	require.NoError(t, <-errCh)
}

func TestRedisQueue(t *testing.T) {
	client := testhelpers.SetupTestRedis(t)
	ctx := context.Background()
	q := NewRedisQueue(client, "test:jobs")
	now := time.Now().UTC()

	due := NewJob(KindNoShowCheck, uuid.New(), now.Add(-time.Second))
	later := NewJob(KindRatingRequest, uuid.New(), now.Add(time.Hour))
	require.NoError(t, q.Enqueue(ctx, due))
	require.NoError(t, q.Enqueue(ctx, later))

	jobs, err := q.Due(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, due.ID, jobs[0].ID)
	assert.Equal(t, due.Ref, jobs[0].Ref)

	// a second claim of the same window finds nothing
	jobs, err = q.Due(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
