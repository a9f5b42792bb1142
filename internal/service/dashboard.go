package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/almuerzo-cl/almuerzo/backend/internal/logging"
	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

const upcomingEventsLimit = 5

type DashboardService struct {
	db  *gorm.DB
	loc *time.Location
	log *zap.Logger
	now func() time.Time
}

// NewDashboardService creates a dashboard service; weeks start on Monday in loc.
func NewDashboardService(db *gorm.DB, loc *time.Location, log *zap.Logger) *DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardService{db: db, loc: loc, log: logging.OrNop(log), now: time.Now}
}

func startOfWeek(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	offset := (int(local.Weekday()) + 6) % 7
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return day.AddDate(0, 0, -offset)
}

func (s *DashboardService) EaterDashboard(ctx context.Context, userID uuid.UUID) (*types.EaterDashboard, error) {
	now := s.now()
	weekStart := startOfWeek(now, s.loc).UTC()
	db := s.db.WithContext(ctx)
	out := &types.EaterDashboard{}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return db.Preload("Restaurant").
			Where("organizer_id = ? AND starts_at >= ?", userID, now.UTC()).
			Where("status IN ?", []string{models.EventConfirmed, models.EventPendingConfirmation, models.EventWaitlisted}).
			Order("starts_at").Limit(upcomingEventsLimit).
			Find(&out.UpcomingEvents).Error
	})
	g.Go(func() error {
		return db.Model(&models.LunchEvent{}).Where("organizer_id = ?", userID).Count(&out.EventsOrganized).Error
	})
	g.Go(func() error {
		return db.Model(&models.TakeawayOrder{}).
			Where("user_id = ? AND created_at >= ?", userID, weekStart).
			Count(&out.OrdersThisWeek).Error
	})
	g.Go(func() error {
		return db.Model(&models.Favorite{}).Where("user_id = ?", userID).Count(&out.FavoritesCount).Error
	})
	g.Go(func() error {
		return db.Model(&models.Notification{}).
			Where("user_id = ? AND channel = ? AND read = ?", userID, models.ChannelInApp, false).
			Count(&out.UnreadNotifications).Error
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}
	if out.UpcomingEvents == nil {
		out.UpcomingEvents = []models.LunchEvent{}
	}
	return out, nil
}

func (s *DashboardService) PlatformMetrics(ctx context.Context) (*types.PlatformMetrics, error) {
	db := s.db.WithContext(ctx)
	out := &types.PlatformMetrics{EventsByStatus: map[string]int64{}}

	type statusCount struct {
		Status string
		Count  int64
	}
	var byStatus []statusCount

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { return db.Model(&models.User{}).Count(&out.Users).Error })
	g.Go(func() error { return db.Model(&models.Restaurant{}).Count(&out.Restaurants).Error })
	g.Go(func() error {
		return db.Model(&models.LunchEvent{}).Select("status, COUNT(*) AS count").Group("status").Scan(&byStatus).Error
	})
	g.Go(func() error { return db.Model(&models.TakeawayOrder{}).Count(&out.Orders).Error })
	g.Go(func() error {
		return db.Model(&models.TakeawayOrder{}).
			Where("status <> ?", models.OrderCancelled).
			Select("COALESCE(SUM(total), 0)").Scan(&out.GrossTakeawayVolume).Error
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load platform metrics: %w", err)
	}

	for _, sc := range byStatus {
		out.EventsByStatus[sc.Status] = sc.Count
	}
	return out, nil
}
