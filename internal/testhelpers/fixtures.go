package testhelpers

import (
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/almuerzo-cl/almuerzo/backend/internal/geo"
	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

// TestJWTSecret signs tokens produced by Token.
const TestJWTSecret = "test-jwt-secret"

// TestPassword is the clear-text password of every fixture user.
const TestPassword = "password123"

// Origin is the default catalog origin used in tests (Santiago centro).
var Origin = geo.Point{Lat: -33.4378, Lon: -70.6505}

// Near returns a point roughly dNorthKm north of Origin.
func Near(dNorthKm float64) geo.Point {
	return geo.Point{Lat: Origin.Lat + dNorthKm/111.195, Lon: Origin.Lon}
}

// CreateUser inserts a user with a profile.
func CreateUser(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	short := uuid.NewString()[:8]
	user := &models.User{
		Name:         "Usuario " + short,
		Email:        fmt.Sprintf("user-%s@example.com", short),
		PasswordHash: string(hash),
		Role:         role,
		Phone:        "+56911111111",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	profile := &models.UserProfile{UserID: user.ID, Username: "user_" + short, DefaultPaymentMethod: models.PaymentPayOwn}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	return user
}

// CreateRestaurant inserts a dine-in and takeaway restaurant 1 km north of
// Origin. mutate may adjust it before insertion.
func CreateRestaurant(t *testing.T, db *gorm.DB, mutate func(r *models.Restaurant)) *models.Restaurant {
	t.Helper()
	p := Near(1)
	r := &models.Restaurant{
		Name:            "Restaurante " + uuid.NewString()[:6],
		Address:         "Av. Libertador Bernardo O'Higgins 1111",
		Latitude:        p.Lat,
		Longitude:       p.Lon,
		Cuisine:         "Chilena",
		PaymentMethods:  models.StringList{"efectivo", "tarjeta"},
		Services:        models.StringList{models.ServiceDineIn, models.ServiceTakeaway},
		PriceLevel:      2,
		GoogleRating:    4.3,
		SeatingCapacity: 0,
		TakeawayMinutes: 20,
	}
	if mutate != nil {
		mutate(r)
	}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("failed to create restaurant: %v", err)
	}
	return r
}

// CreateMenuItem inserts a takeaway-ready dish.
func CreateMenuItem(t *testing.T, db *gorm.DB, restaurantID uuid.UUID, mutate func(m *models.MenuItem)) *models.MenuItem {
	t.Helper()
	m := &models.MenuItem{
		RestaurantID:         restaurantID,
		Name:                 "Cazuela de vacuno",
		Description:          "Cazuela tradicional con zapallo y choclo",
		Price:                6500,
		AvailableForTakeaway: true,
	}
	if mutate != nil {
		mutate(m)
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("failed to create menu item: %v", err)
	}
	return m
}

// CreateEvent inserts a lunch event directly, bypassing booking rules.
func CreateEvent(t *testing.T, db *gorm.DB, restaurantID, organizerID uuid.UUID, start time.Time, partySize int, status string) *models.LunchEvent {
	t.Helper()
	e := &models.LunchEvent{
		SeriesID:      uuid.New(),
		Title:         "Almuerzo",
		RestaurantID:  restaurantID,
		OrganizerID:   organizerID,
		OrganizerName: "Organizador",
		StartsAt:      start.UTC(),
		PartySize:     partySize,
		Status:        status,
		PaymentMethod: models.PaymentPayOwn,
	}
	if err := db.Create(e).Error; err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	return e
}

// Token returns a bearer token for user signed with TestJWTSecret.
func Token(t *testing.T, user *models.User) string {
	t.Helper()
	claims := &types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:   user.ID,
		Username: "tester",
		Role:     user.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(TestJWTSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
