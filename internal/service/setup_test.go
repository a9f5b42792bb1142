package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/almuerzo-cl/almuerzo/backend/internal/scheduler"
	"github.com/almuerzo-cl/almuerzo/backend/internal/testhelpers"
)

// testNow is the fixed clock of service tests: a Tuesday, 11:00 UTC.
var testNow = time.Date(2030, 3, 5, 11, 0, 0, 0, time.UTC)

type sentEmail struct {
	To, Subject, Body string
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []sentEmail
}

func (f *fakeEmail) SendEmail(to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEmail{To: to, Subject: subject, Body: body})
	return nil
}

type bookingFixture struct {
	db      *gorm.DB
	svc     *BookingService
	catalog *CatalogService
	queue   *scheduler.MemoryQueue
	email   *fakeEmail
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	return newBookingFixtureOn(t, testhelpers.SetupTestDB(t))
}

func newBookingFixtureOn(t *testing.T, db *gorm.DB) *bookingFixture {
	t.Helper()

	catalog := NewCatalogService(db, HashEmbedder{}, testhelpers.Origin, 4, time.UTC, nil)
	email := &fakeEmail{}
	notifier := NewNotificationService(db, email, nil)
	notifier.now = func() time.Time { return testNow }

	queue := scheduler.NewMemoryQueue()
	sched := scheduler.New(queue, time.Second, nil)
	noop := func(context.Context, scheduler.Job) error { return nil }
	sched.Register(scheduler.KindRatingRequest, noop)
	sched.Register(scheduler.KindNoShowCheck, noop)

	svc := NewBookingService(db, catalog, notifier, NewMessages(time.UTC, "https://almuerzo.cl"), sched, nil)
	svc.now = func() time.Time { return testNow }

	return &bookingFixture{db: db, svc: svc, catalog: catalog, queue: queue, email: email}
}
