package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/almuerzo-cl/almuerzo/backend/internal/database"
	"github.com/almuerzo-cl/almuerzo/backend/internal/logging"
	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/scheduler"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

const (
	// slotWindow is half the width of a lunch slot.
	slotWindow = 90 * time.Minute
	// Bookings further ahead than this always wait for the restaurant.
	autoDecisionHorizon = 24 * time.Hour
	ratingDelay         = 5 * time.Hour
)

var eventPaymentMethods = map[string]bool{
	models.PaymentPayOwn:        true,
	models.PaymentOrganizerPays: true,
	models.PaymentSplit:         true,
}

// JobScheduler enqueues delayed jobs.
type JobScheduler interface {
	Schedule(ctx context.Context, job scheduler.Job) error
}

// BookingService manages lunch events from request to rating.
type BookingService struct {
	db       *gorm.DB
	catalog  ICatalogService
	notifier INotificationService
	msgs     *Messages
	jobs     JobScheduler
	log      *zap.Logger
	now      func() time.Time
}

func NewBookingService(db *gorm.DB, catalog ICatalogService, notifier INotificationService, msgs *Messages, jobs JobScheduler, log *zap.Logger) *BookingService {
	return &BookingService{
		db:       db,
		catalog:  catalog,
		notifier: notifier,
		msgs:     msgs,
		jobs:     jobs,
		log:      logging.OrNop(log),
		now:      time.Now,
	}
}

func (s *BookingService) CreateLunchEvent(ctx context.Context, organizerID uuid.UUID, req *types.CreateLunchEventRequest) (*types.CreateLunchEventResponse, error) {
	now := s.now()

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalid("title is required")
	}
	restaurant, err := s.catalog.GetRestaurant(ctx, req.RestaurantID, req.Origin)
	if err != nil {
		return nil, err
	}
	if !restaurant.Offers(models.ServiceDineIn) {
		return nil, invalid("%s does not take dine-in reservations", restaurant.Name)
	}
	if req.StartsAt.IsZero() {
		return nil, invalid("start time is required")
	}
	if req.StartsAt.Before(now) {
		return nil, invalid("start time is in the past")
	}
	if len(req.Guests) == 0 {
		return nil, invalid("at least one guest is required")
	}
	if !req.AcceptedGeneralPolicy {
		return nil, invalid("the responsibility policy must be accepted")
	}
	payment := req.PaymentMethod
	if payment == "" {
		payment = models.PaymentPayOwn
	}
	if !eventPaymentMethods[payment] {
		return nil, invalid("unknown payment method %q", payment)
	}

	var rule *models.RecurrenceRule
	if req.IsRecurring {
		if req.Recurrence == nil || req.Recurrence.Frequency == "" {
			return nil, invalid("recurring events need a frequency")
		}
		rule = req.Recurrence
	}

	if restaurant.HasNoShowPolicy() && !req.AcceptedNoShowPolicy {
		return nil, ErrPolicyNotAccepted
	}

	var organizer models.User
	if err := s.db.WithContext(ctx).First(&organizer, "id = ?", organizerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("organizer %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load organizer: %w", err)
	}

	guests, err := s.resolveGuests(ctx, organizerID, req.Guests)
	if err != nil {
		return nil, err
	}

	starts, err := ExpandRecurrence(req.StartsAt.Truncate(time.Second), rule, s.msgs.loc)
	if err != nil {
		return nil, err
	}

	partySize := len(guests) + 1
	seriesID := uuid.New()
	events := make([]*models.LunchEvent, 0, len(starts))

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRestaurant(tx, restaurant.ID); err != nil {
			return err
		}
		for i, start := range starts {
			status, err := s.initialStatus(tx, restaurant, start, partySize, req.JoinWaitlist, now)
			if err != nil {
				return err
			}

			id := uuid.New()
			if i == 0 {
				id = seriesID
			}
			e := &models.LunchEvent{
				ID:                    id,
				SeriesID:              seriesID,
				Sequence:              i,
				Title:                 title,
				RestaurantID:          restaurant.ID,
				OrganizerID:           organizer.ID,
				OrganizerName:         organizer.Name,
				StartsAt:              start,
				Notes:                 req.Notes,
				PartySize:             partySize,
				Status:                status,
				GeneralPolicyAccepted: true,
				SharePhone:            req.SharePhone,
				PaymentMethod:         payment,
				URL:                   s.msgs.EventURL(id),
			}
			if i == 0 {
				e.Recurrence = rule
			}
			if req.AcceptedNoShowPolicy {
				at := now.UTC()
				e.PolicyAcceptedAt = &at
			}
			if restaurant.HasNoShowPolicy() {
				deadline := start.Add(time.Duration(*restaurant.NoShowPolicyMinutes) * time.Minute)
				e.CheckInDeadline = &deadline
			}
			e.Guests = append([]models.EventGuest(nil), guests...)

			if err := tx.Create(e).Error; err != nil {
				return fmt.Errorf("failed to create lunch event: %w", err)
			}
			events = append(events, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	first := events[0]
	s.log.Info("Lunch event created",
		zap.String("series_id", seriesID.String()),
		zap.String("restaurant", restaurant.Name),
		zap.String("status", first.Status),
		zap.Int("occurrences", len(events)),
		zap.Int("party_size", partySize))

	s.notifyCreated(ctx, events, restaurant)
	for _, e := range events {
		if e.Status == models.EventConfirmed {
			s.scheduleConfirmed(ctx, e, restaurant)
		}
	}

	resp := &types.CreateLunchEventResponse{
		Success:  true,
		EventID:  first.ID,
		SeriesID: seriesID,
		Status:   first.Status,
		Message:  s.msgs.CreatedMessage(first.Status, len(guests)),
	}
	for _, e := range events {
		resp.Occurrences = append(resp.Occurrences, types.OccurrenceSummary{EventID: e.ID, StartsAt: e.StartsAt, Status: e.Status})
	}
	return resp, nil
}

// initialStatus decides the status of a new occurrence.
func (s *BookingService) initialStatus(tx *gorm.DB, r *models.Restaurant, start time.Time, partySize int, joinWaitlist bool, now time.Time) (string, error) {
	if start.Sub(now) > autoDecisionHorizon {
		return models.EventPendingConfirmation, nil
	}

	load, err := slotLoad(tx, r.ID, start, uuid.Nil)
	if err != nil {
		return "", err
	}
	if !fits(load, partySize, r.SeatingCapacity) {
		switch {
		case r.WaitlistEnabled && joinWaitlist:
			return models.EventWaitlisted, nil
		case r.WaitlistEnabled:
			return "", ErrRestaurantFull
		default:
			return "", ErrNoWaitlist
		}
	}

	if r.EventAvailability == nil || r.EventAvailability.AutoAccepts(partySize) {
		return models.EventConfirmed, nil
	}
	return models.EventPendingConfirmation, nil
}

// lockRestaurant serializes capacity decisions for one restaurant until the
// transaction ends. SQLite already serializes writers.
func lockRestaurant(tx *gorm.DB, restaurantID uuid.UUID) error {
	if !database.IsPostgres(tx) {
		return nil
	}
	var r models.Restaurant
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&r, "id = ?", restaurantID).Error
	if err != nil {
		return fmt.Errorf("failed to lock restaurant: %w", err)
	}
	return nil
}

// slotLoad sums the party sizes holding seats within the lunch slot around start.
func slotLoad(db *gorm.DB, restaurantID uuid.UUID, start time.Time, exclude uuid.UUID) (int, error) {
	var total int64
	q := db.Model(&models.LunchEvent{}).
		Select("COALESCE(SUM(party_size), 0)").
		Where("restaurant_id = ?", restaurantID).
		Where("status IN ?", []string{models.EventConfirmed, models.EventCheckedIn}).
		Where("starts_at >= ? AND starts_at <= ?", start.Add(-slotWindow).UTC(), start.Add(slotWindow).UTC())
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	if err := q.Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to compute slot load: %w", err)
	}
	return int(total), nil
}

// fits reports whether partySize more diners fit. Zero capacity is unlimited.
func fits(load, partySize, capacity int) bool {
	return capacity <= 0 || load+partySize <= capacity
}

func (s *BookingService) resolveGuests(ctx context.Context, organizerID uuid.UUID, in []types.GuestInput) ([]models.EventGuest, error) {
	var ids []uuid.UUID
	for _, g := range in {
		if g.ContactID != nil {
			ids = append(ids, *g.ContactID)
		}
	}
	contacts := map[uuid.UUID]models.Contact{}
	if len(ids) > 0 {
		var found []models.Contact
		if err := s.db.WithContext(ctx).Where("owner_id = ? AND id IN ?", organizerID, ids).Find(&found).Error; err != nil {
			return nil, fmt.Errorf("failed to load contacts: %w", err)
		}
		for _, c := range found {
			contacts[c.ID] = c
		}
	}

	out := make([]models.EventGuest, 0, len(in))
	for _, g := range in {
		if g.ContactID != nil {
			c, ok := contacts[*g.ContactID]
			if !ok {
				return nil, invalid("unknown contact %s", g.ContactID)
			}
			out = append(out, models.EventGuest{
				ContactID: g.ContactID,
				Name:      c.Name,
				Source:    c.Source,
				Phone:     c.Phone,
				Email:     c.Email,
				Username:  c.Username,
			})
			continue
		}
		name := strings.TrimSpace(g.Name)
		if name == "" {
			return nil, invalid("guest name is required")
		}
		source := g.Source
		if source == "" {
			source = models.SourcePhone
		}
		if !validSource(source) {
			return nil, invalid("unknown contact source %q", source)
		}
		out = append(out, models.EventGuest{
			Name:     name,
			Source:   source,
			Phone:    g.Phone,
			Email:    g.Email,
			Username: g.Username,
		})
	}
	return out, nil
}

func validSource(source string) bool {
	for _, s := range models.ContactSources {
		if s == source {
			return true
		}
	}
	return false
}

func guestAddress(g *models.EventGuest) string {
	switch g.Source {
	case models.SourceEmail:
		return g.Email
	case models.SourcePhone, models.SourceWhatsApp:
		return g.Phone
	default:
		return g.Username
	}
}

func (s *BookingService) guestNotifications(e *models.LunchEvent, kind string, text Text) []*models.Notification {
	out := make([]*models.Notification, 0, len(e.Guests))
	for i := range e.Guests {
		g := &e.Guests[i]
		out = append(out, &models.Notification{
			RecipientKind: models.RecipientGuest,
			EventID:       uuidPtr(e.ID),
			Channel:       ChannelForSource(g.Source),
			Address:       guestAddress(g),
			Kind:          kind,
			Title:         text.Title,
			Body:          text.Body,
			Link:          text.Link,
		})
	}
	return out
}

func organizerNotification(e *models.LunchEvent, kind string, text Text) *models.Notification {
	return &models.Notification{
		RecipientKind: models.RecipientUser,
		UserID:        uuidPtr(e.OrganizerID),
		EventID:       uuidPtr(e.ID),
		Channel:       models.ChannelInApp,
		Kind:          kind,
		Title:         text.Title,
		Body:          text.Body,
		Link:          text.Link,
	}
}

func restaurantNotification(e *models.LunchEvent, kind string, text Text) *models.Notification {
	return &models.Notification{
		RecipientKind: models.RecipientRestaurant,
		RestaurantID:  uuidPtr(e.RestaurantID),
		EventID:       uuidPtr(e.ID),
		Channel:       models.ChannelInApp,
		Kind:          kind,
		Title:         text.Title,
		Body:          text.Body,
		Link:          text.Link,
	}
}

// notifyCreated invites guests and informs the organizer once per series;
// the restaurant hears about every occurrence since each may need a decision.
func (s *BookingService) notifyCreated(ctx context.Context, events []*models.LunchEvent, r *models.Restaurant) {
	first := events[0]
	var ns []*models.Notification
	for i := range first.Guests {
		g := &first.Guests[i]
		text := s.msgs.Invitation(first, r.Name, g.Name)
		ns = append(ns, &models.Notification{
			RecipientKind: models.RecipientGuest,
			EventID:       uuidPtr(first.ID),
			Channel:       ChannelForSource(g.Source),
			Address:       guestAddress(g),
			Kind:          models.KindInvitation,
			Title:         text.Title,
			Body:          text.Body,
			Link:          text.Link,
		})
	}
	ns = append(ns, organizerNotification(first, models.KindBooking, s.msgs.OrganizerCreated(first, r.Name, len(first.Guests))))
	for _, e := range events {
		ns = append(ns, restaurantNotification(e, models.KindBooking, s.msgs.RestaurantBooking(e)))
	}
	notifyAll(ctx, s.notifier, s.log, ns)
}

// scheduleConfirmed queues the follow-up jobs of a confirmed event.
func (s *BookingService) scheduleConfirmed(ctx context.Context, e *models.LunchEvent, r *models.Restaurant) {
	if s.jobs == nil {
		return
	}
	jobs := []scheduler.Job{scheduler.NewJob(scheduler.KindRatingRequest, e.ID, e.StartsAt.Add(ratingDelay))}
	if r.HasNoShowPolicy() && e.CheckInDeadline != nil {
		jobs = append(jobs, scheduler.NewJob(scheduler.KindNoShowCheck, e.ID, *e.CheckInDeadline))
	}
	for _, job := range jobs {
		if err := s.jobs.Schedule(ctx, job); err != nil {
			s.log.Error("Failed to schedule job",
				zap.String("kind", job.Kind),
				zap.String("event_id", e.ID.String()),
				zap.Error(err))
		}
	}
}

func (s *BookingService) loadEvent(ctx context.Context, id uuid.UUID) (*models.LunchEvent, error) {
	var e models.LunchEvent
	err := s.db.WithContext(ctx).Preload("Guests").Preload("Restaurant").First(&e, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("event %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if e.Restaurant == nil {
		return nil, fmt.Errorf("restaurant %w", ErrNotFound)
	}
	return &e, nil
}

// transition moves an event to a new status only if it is still in one of
// from. It returns ErrInvalidTransition when another writer got there first.
func transition(db *gorm.DB, id uuid.UUID, from []string, updates map[string]interface{}) error {
	result := db.Model(&models.LunchEvent{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func oneOf(status string, allowed ...string) bool {
	for _, a := range allowed {
		if status == a {
			return true
		}
	}
	return false
}

// GetEvent returns an event to its organizer or to the restaurant's staff.
func (s *BookingService) GetEvent(ctx context.Context, userID, eventID uuid.UUID) (*models.LunchEvent, error) {
	e, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.OrganizerID == userID {
		return e, nil
	}
	if err := canManageRestaurant(ctx, s.db, userID, e.RestaurantID); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *BookingService) ListOrganizerEvents(ctx context.Context, userID uuid.UUID, upcoming bool) ([]models.LunchEvent, error) {
	q := s.db.WithContext(ctx).Preload("Restaurant").Preload("Guests").Where("organizer_id = ?", userID)
	now := s.now().UTC()
	if upcoming {
		q = q.Where("starts_at >= ?", now).Order("starts_at ASC")
	} else {
		q = q.Where("starts_at < ?", now).Order("starts_at DESC")
	}
	var out []models.LunchEvent
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return out, nil
}

// ListRestaurantReservations lists the reservations of one local day, or
// every upcoming one when day is nil, with each organizer's trust score.
func (s *BookingService) ListRestaurantReservations(ctx context.Context, ownerID, restaurantID uuid.UUID, day *time.Time) ([]types.Reservation, error) {
	if err := canManageRestaurant(ctx, s.db, ownerID, restaurantID); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Preload("Guests").Where("restaurant_id = ?", restaurantID)
	if day != nil {
		// day is a calendar date; its own zone is ignored.
		from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.msgs.loc)
		q = q.Where("starts_at >= ? AND starts_at < ?", from.UTC(), from.AddDate(0, 0, 1).UTC())
	} else {
		q = q.Where("starts_at >= ?", s.now().Add(-slotWindow).UTC())
	}

	var events []models.LunchEvent
	if err := q.Order("starts_at ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}

	organizers := make([]uuid.UUID, 0, len(events))
	for _, e := range events {
		organizers = append(organizers, e.OrganizerID)
	}
	trust, err := s.organizerTrust(ctx, organizers)
	if err != nil {
		return nil, err
	}

	out := make([]types.Reservation, 0, len(events))
	for _, e := range events {
		out = append(out, types.Reservation{LunchEvent: e, OrganizerTrust: trust[e.OrganizerID]})
	}
	return out, nil
}

// organizerTrust is checked-in / (checked-in + no-show) over past events,
// 1 without history.
func (s *BookingService) organizerTrust(ctx context.Context, organizers []uuid.UUID) (map[uuid.UUID]float64, error) {
	out := make(map[uuid.UUID]float64, len(organizers))
	for _, id := range organizers {
		out[id] = 1
	}
	if len(organizers) == 0 {
		return out, nil
	}

	var rows []struct {
		OrganizerID uuid.UUID
		Status      string
		N           int64
	}
	err := s.db.WithContext(ctx).Model(&models.LunchEvent{}).
		Select("organizer_id, status, COUNT(*) AS n").
		Where("organizer_id IN ?", organizers).
		Where("status IN ?", []string{models.EventCheckedIn, models.EventNoShow}).
		Where("starts_at < ?", s.now().UTC()).
		Group("organizer_id, status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute organizer trust: %w", err)
	}

	checked := map[uuid.UUID]int64{}
	missed := map[uuid.UUID]int64{}
	for _, r := range rows {
		if r.Status == models.EventCheckedIn {
			checked[r.OrganizerID] += r.N
		} else {
			missed[r.OrganizerID] += r.N
		}
	}
	for id := range out {
		if total := checked[id] + missed[id]; total > 0 {
			out[id] = float64(checked[id]) / float64(total)
		}
	}
	return out, nil
}

// DecideEvent accepts or rejects a booking awaiting the restaurant.
func (s *BookingService) DecideEvent(ctx context.Context, ownerID, eventID uuid.UUID, accept bool, reason string) (*models.LunchEvent, error) {
	e, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := canManageRestaurant(ctx, s.db, ownerID, e.RestaurantID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	from := []string{models.EventPendingConfirmation}
	status := models.EventRejected
	if accept {
		from = append(from, models.EventWaitlisted)
		status = models.EventConfirmed
	}
	if !oneOf(e.Status, from...) {
		return nil, fmt.Errorf("%w: cannot decide a %s event", ErrInvalidTransition, e.Status)
	}

	updates := map[string]interface{}{"status": status, "decided_at": now}
	if !accept && reason != "" {
		updates["cancellation_reason"] = reason
	}
	if err := transition(s.db.WithContext(ctx), e.ID, from, updates); err != nil {
		return nil, err
	}
	e.Status = status
	e.DecidedAt = &now
	if !accept {
		e.CancellationReason = reason
	}

	text := s.msgs.Decision(e, e.Restaurant.Name, accept, reason)
	ns := []*models.Notification{organizerNotification(e, models.KindDecision, text)}
	ns = append(ns, s.guestNotifications(e, models.KindDecision, text)...)
	notifyAll(ctx, s.notifier, s.log, ns)

	if accept {
		s.scheduleConfirmed(ctx, e, e.Restaurant)
	}
	s.log.Info("Lunch event decided", zap.String("event_id", e.ID.String()), zap.String("status", status))
	return e, nil
}

// CancelEvent cancels an organizer's event and hands its seats to the waitlist.
func (s *BookingService) CancelEvent(ctx context.Context, organizerID, eventID uuid.UUID, reason string) (*models.LunchEvent, error) {
	e, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.OrganizerID != organizerID {
		return nil, ErrForbidden
	}
	from := []string{models.EventConfirmed, models.EventWaitlisted, models.EventPendingConfirmation}
	if !oneOf(e.Status, from...) {
		return nil, fmt.Errorf("%w: cannot cancel a %s event", ErrInvalidTransition, e.Status)
	}
	heldSeats := e.Active()

	err = transition(s.db.WithContext(ctx), e.ID, from, map[string]interface{}{
		"status":              models.EventCancelled,
		"cancellation_reason": reason,
	})
	if err != nil {
		return nil, err
	}
	e.Status = models.EventCancelled
	e.CancellationReason = reason

	text := s.msgs.Cancellation(e, e.Restaurant.Name)
	ns := s.guestNotifications(e, models.KindCancellation, text)
	ns = append(ns, restaurantNotification(e, models.KindCancellation, text))
	notifyAll(ctx, s.notifier, s.log, ns)

	if heldSeats {
		s.promoteWaitlist(ctx, e.Restaurant, e.StartsAt)
	}
	return e, nil
}

// promoteWaitlist confirms the earliest waitlisted booking near start that
// now fits the restaurant's capacity.
func (s *BookingService) promoteWaitlist(ctx context.Context, r *models.Restaurant, start time.Time) {
	var promoted *models.LunchEvent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRestaurant(tx, r.ID); err != nil {
			return err
		}
		var waiting []models.LunchEvent
		err := tx.Preload("Guests").
			Where("restaurant_id = ? AND status = ?", r.ID, models.EventWaitlisted).
			Where("starts_at >= ? AND starts_at <= ?", start.Add(-slotWindow).UTC(), start.Add(slotWindow).UTC()).
			Where("starts_at > ?", s.now().UTC()).
			Order("created_at ASC").
			Find(&waiting).Error
		if err != nil {
			return fmt.Errorf("failed to load waitlist: %w", err)
		}

		for i := range waiting {
			w := &waiting[i]
			load, err := slotLoad(tx, r.ID, w.StartsAt, w.ID)
			if err != nil {
				return err
			}
			if !fits(load, w.PartySize, r.SeatingCapacity) {
				continue
			}
			now := s.now().UTC()
			err = transition(tx, w.ID, []string{models.EventWaitlisted}, map[string]interface{}{
				"status":     models.EventConfirmed,
				"decided_at": now,
			})
			if errors.Is(err, ErrInvalidTransition) {
				continue
			}
			if err != nil {
				return err
			}
			w.Status = models.EventConfirmed
			w.DecidedAt = &now
			promoted = w
			return nil
		}
		return nil
	})
	if err != nil {
		s.log.Error("Waitlist promotion failed", zap.String("restaurant", r.ID.String()), zap.Error(err))
		return
	}
	if promoted == nil {
		return
	}

	s.log.Info("Waitlisted event promoted", zap.String("event_id", promoted.ID.String()))
	ns := []*models.Notification{
		organizerNotification(promoted, models.KindPromotion, s.msgs.Promotion(promoted, r.Name)),
		restaurantNotification(promoted, models.KindPromotion, s.msgs.RestaurantBooking(promoted)),
	}
	for i := range promoted.Guests {
		g := &promoted.Guests[i]
		text := s.msgs.Invitation(promoted, r.Name, g.Name)
		ns = append(ns, &models.Notification{
			RecipientKind: models.RecipientGuest,
			EventID:       uuidPtr(promoted.ID),
			Channel:       ChannelForSource(g.Source),
			Address:       guestAddress(g),
			Kind:          models.KindPromotion,
			Title:         text.Title,
			Body:          text.Body,
			Link:          text.Link,
		})
	}
	notifyAll(ctx, s.notifier, s.log, ns)
	s.scheduleConfirmed(ctx, promoted, r)
}

// HandleNoShowCheck marks a still-confirmed event as no-show once its
// check-in deadline has passed.
func (s *BookingService) HandleNoShowCheck(ctx context.Context, eventID uuid.UUID) error {
	e, err := s.loadEvent(ctx, eventID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if e.Status != models.EventConfirmed || e.CheckInDeadline == nil {
		return nil
	}
	if s.now().Before(*e.CheckInDeadline) {
		return fmt.Errorf("no-show check for %s ran before its deadline", e.ID)
	}

	err = transition(s.db.WithContext(ctx), e.ID, []string{models.EventConfirmed}, map[string]interface{}{"status": models.EventNoShow})
	if errors.Is(err, ErrInvalidTransition) {
		return nil
	}
	if err != nil {
		return err
	}
	e.Status = models.EventNoShow
	s.log.Info("Lunch event marked as no-show", zap.String("event_id", e.ID.String()))

	text := s.msgs.NoShow(e, e.Restaurant.Name)
	notifyAll(ctx, s.notifier, s.log, []*models.Notification{
		organizerNotification(e, models.KindNoShow, text),
		restaurantNotification(e, models.KindNoShow, text),
	})
	s.promoteWaitlist(ctx, e.Restaurant, e.StartsAt)
	return nil
}

// HandleRatingRequest asks the organizer to rate an event that took place.
func (s *BookingService) HandleRatingRequest(ctx context.Context, eventID uuid.UUID) error {
	e, err := s.loadEvent(ctx, eventID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !e.Active() {
		s.log.Debug("Skipping rating request", zap.String("event_id", e.ID.String()), zap.String("status", e.Status))
		return nil
	}

	text := s.msgs.RatingRequest(e, e.Restaurant.Name)
	ns := []*models.Notification{organizerNotification(e, models.KindRatingRequest, text)}

	var emails []string
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", e.OrganizerID).Pluck("email", &emails).Error; err != nil {
		return fmt.Errorf("failed to load organizer email: %w", err)
	}
	if len(emails) == 1 && emails[0] != "" {
		mail := organizerNotification(e, models.KindRatingRequest, text)
		mail.Channel = models.ChannelEmail
		mail.Address = emails[0]
		ns = append(ns, mail)
	}
	notifyAll(ctx, s.notifier, s.log, ns)
	return nil
}
