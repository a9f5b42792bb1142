package service

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/testhelpers"
)

func TestStartOfWeek(t *testing.T) {
	santiago, err := time.LoadLocation("America/Santiago")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC), startOfWeek(testNow, time.UTC))

	sunday := time.Date(2030, 3, 10, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC), startOfWeek(sunday, time.UTC))

	// 02:00 UTC Monday is still Sunday evening in Santiago.
	mondayUTC := time.Date(2030, 3, 11, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2030, 3, 4, 0, 0, 0, 0, santiago), startOfWeek(mondayUTC, santiago))
}

func TestEaterDashboard(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewDashboardService(db, time.UTC, nil)
	svc.now = func() time.Time { return testNow }
	ctx := context.Background()

	user := testhelpers.CreateUser(t, db, models.RoleEater)
	other := testhelpers.CreateUser(t, db, models.RoleEater)
	r := testhelpers.CreateRestaurant(t, db, nil)

	tomorrow := testhelpers.CreateEvent(t, db, r.ID, user.ID, testNow.Add(24*time.Hour), 4, models.EventConfirmed)
	testhelpers.CreateEvent(t, db, r.ID, user.ID, testNow.Add(48*time.Hour), 6, models.EventPendingConfirmation)
	testhelpers.CreateEvent(t, db, r.ID, user.ID, testNow.Add(72*time.Hour), 2, models.EventCancelled)
	testhelpers.CreateEvent(t, db, r.ID, user.ID, testNow.Add(-48*time.Hour), 2, models.EventCheckedIn)
	testhelpers.CreateEvent(t, db, r.ID, other.ID, testNow.Add(24*time.Hour), 2, models.EventConfirmed)

	for _, created := range []time.Time{testNow.Add(-time.Hour), testNow.Add(-30 * time.Hour), testNow.Add(-8 * 24 * time.Hour)} {
		require.NoError(t, db.Create(&models.TakeawayOrder{
			UserID: user.ID, RestaurantID: r.ID, Status: models.OrderDelivered,
			PickupMode: models.PickupNow, PickupAt: created, CreatedAt: created,
		}).Error)
	}

	require.NoError(t, db.Create(&models.Favorite{UserID: user.ID, RestaurantID: r.ID}).Error)

	uid := user.ID
	for i, read := range []bool{false, false, true} {
		require.NoError(t, db.Create(&models.Notification{
			RecipientKind: models.RecipientUser, UserID: &uid, Channel: models.ChannelInApp,
			Kind: models.KindPromotion, Title: "n", Read: read, CreatedAt: testNow.Add(-time.Duration(i) * time.Minute),
		}).Error)
	}

	d, err := svc.EaterDashboard(ctx, user.ID)
	require.NoError(t, err)

	require.Len(t, d.UpcomingEvents, 2)
	assert.Equal(t, tomorrow.ID, d.UpcomingEvents[0].ID)
	require.NotNil(t, d.UpcomingEvents[0].Restaurant)
	assert.EqualValues(t, 4, d.EventsOrganized)
	assert.EqualValues(t, 2, d.OrdersThisWeek)
	assert.EqualValues(t, 1, d.FavoritesCount)
	assert.EqualValues(t, 2, d.UnreadNotifications)

	empty, err := svc.EaterDashboard(ctx, other.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty.UpcomingEvents)
	assert.Len(t, empty.UpcomingEvents, 1)
	assert.Zero(t, empty.OrdersThisWeek)
}

func TestPlatformMetrics(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewDashboardService(db, time.UTC, nil)
	ctx := context.Background()

	user := testhelpers.CreateUser(t, db, models.RoleEater)
	testhelpers.CreateUser(t, db, models.RoleRestaurantOwner)
	r := testhelpers.CreateRestaurant(t, db, nil)
	testhelpers.CreateRestaurant(t, db, nil)

	testhelpers.CreateEvent(t, db, r.ID, user.ID, testNow, 4, models.EventConfirmed)
	testhelpers.CreateEvent(t, db, r.ID, user.ID, testNow.Add(time.Hour), 4, models.EventConfirmed)
	testhelpers.CreateEvent(t, db, r.ID, user.ID, testNow.Add(2*time.Hour), 4, models.EventNoShow)

	for _, o := range []struct {
		status string
		total  int
	}{{models.OrderDelivered, 10000}, {models.OrderReady, 5250}, {models.OrderCancelled, 9999}} {
		require.NoError(t, db.Create(&models.TakeawayOrder{
			UserID: user.ID, RestaurantID: r.ID, Status: o.status, Total: o.total,
			PickupMode: models.PickupNow, PickupAt: testNow,
		}).Error)
	}

	m, err := svc.PlatformMetrics(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, m.Users)
	assert.EqualValues(t, 2, m.Restaurants)
	assert.Equal(t, map[string]int64{models.EventConfirmed: 2, models.EventNoShow: 1}, m.EventsByStatus)
	assert.EqualValues(t, 3, m.Orders)
	assert.EqualValues(t, 15250, m.GrossTakeawayVolume)
}
