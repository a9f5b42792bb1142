package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almuerzo-cl/almuerzo/backend/internal/cache"
	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/testhelpers"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeValidator map[string]*types.TokenClaims

func (f fakeValidator) ValidateToken(token string) (*types.TokenClaims, error) {
	if claims, ok := f[token]; ok {
		return claims, nil
	}
	return nil, errors.New("bad token")
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func whoAmI(c *gin.Context) {
	id, ok := UserID(c)
	if !ok {
		c.String(http.StatusOK, "anonymous")
		return
	}
	c.String(http.StatusOK, id.String()+" "+c.GetString(ContextRole))
}

func TestAuthMiddleware(t *testing.T) {
	eater := &types.TokenClaims{UserID: uuid.New(), Username: "eli", Role: models.RoleEater}
	admin := &types.TokenClaims{UserID: uuid.New(), Username: "ada", Role: models.RoleAdmin}
	validator := fakeValidator{"eater": eater, "admin": admin}

	r := gin.New()
	r.GET("/me", AuthMiddleware(validator), whoAmI)
	r.GET("/admin", AuthMiddleware(validator), RequireRole(models.RoleAdmin), whoAmI)
	r.GET("/maybe", OptionalAuth(validator), whoAmI)

	w := serve(r, http.MethodGet, "/me", "eater")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, eater.UserID.String()+" eater", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "forged").Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token eater")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid authorization header format")

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/admin", "eater").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/admin", "admin").Code)

	assert.Equal(t, "anonymous", serve(r, http.MethodGet, "/maybe", "").Body.String())
	assert.Equal(t, "anonymous", serve(r, http.MethodGet, "/maybe", "forged").Body.String())
	assert.Contains(t, serve(r, http.MethodGet, "/maybe", "eater").Body.String(), eater.UserID.String())
}

func TestRequireRestaurantManager(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	owner := testhelpers.CreateUser(t, db, models.RoleRestaurantOwner)
	stranger := testhelpers.CreateUser(t, db, models.RoleRestaurantOwner)
	restaurant := testhelpers.CreateRestaurant(t, db, func(r *models.Restaurant) { r.OwnerID = &owner.ID })

	validator := fakeValidator{
		"owner":    {UserID: owner.ID, Role: models.RoleRestaurantOwner},
		"stranger": {UserID: stranger.ID, Role: models.RoleRestaurantOwner},
		"admin":    {UserID: uuid.New(), Role: models.RoleAdmin},
	}
	r := gin.New()
	r.GET("/restaurants/:id/orders", AuthMiddleware(validator), RequireRestaurantManager(db, "id"), whoAmI)

	path := "/restaurants/" + restaurant.ID.String() + "/orders"
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, path, "owner").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, path, "admin").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, path, "stranger").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/restaurants/nope/orders", "owner").Code)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(cache.NewMemoryStore(), RateLimitConfig{Window: time.Minute, Limit: 2, KeyPrefix: "test"})
	limiter.now = func() time.Time { return time.Date(2030, 3, 5, 11, 0, 30, 0, time.UTC) }

	r := gin.New()
	r.POST("/login", limiter.RateLimitMiddleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	first := serve(r, http.MethodPost, "/login", "")
	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodPost, "/login", "").Code)

	blocked := serve(r, http.MethodPost, "/login", "")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "30", blocked.Header().Get("Retry-After"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(blocked.Body.Bytes(), &body))
	assert.Equal(t, "rate_limited", body["code"])
	assert.Equal(t, "rate limit exceeded", body["error"])

	// The next window starts a fresh count.
	limiter.now = func() time.Time { return time.Date(2030, 3, 5, 11, 1, 5, 0, time.UTC) }
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodPost, "/login", "").Code)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(nil), AccessLog(nil))
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := serve(r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173"}))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
