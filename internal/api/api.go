package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/almuerzo-cl/almuerzo/backend/internal/cache"
	"github.com/almuerzo-cl/almuerzo/backend/internal/middleware"
	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/service"
)

// Deps holds everything the HTTP layer serves.
type Deps struct {
	DB            *gorm.DB
	Auth          service.IAuthService
	Catalog       service.ICatalogService
	Booking       service.IBookingService
	Orders        service.IOrderService
	Suggestions   service.ISuggestionService
	Notifications service.INotificationService
	Contacts      service.IContactService
	Community     service.ICommunityService
	Images        service.IImageService
	Dashboard     service.IDashboardService
	// Limits backs the per-IP rate limiters. Nil disables them.
	Limits      cache.Store
	CORSOrigins []string
	Version     string
	Log         *zap.Logger
}

// guards are the middleware chains shared by the handlers.
type guards struct {
	auth       gin.HandlerFunc
	optional   gin.HandlerFunc
	owner      gin.HandlerFunc
	admin      gin.HandlerFunc
	manager    gin.HandlerFunc
	authLimit  gin.HandlerFunc
	writeLimit gin.HandlerFunc
}

func passThrough(c *gin.Context) { c.Next() }

func newGuards(d *Deps) *guards {
	g := &guards{
		auth:       middleware.AuthMiddleware(d.Auth),
		optional:   middleware.OptionalAuth(d.Auth),
		owner:      middleware.RequireRole(models.RoleRestaurantOwner, models.RoleAdmin),
		admin:      middleware.RequireRole(models.RoleAdmin),
		manager:    middleware.RequireRestaurantManager(d.DB, "id"),
		authLimit:  passThrough,
		writeLimit: passThrough,
	}
	if d.Limits != nil {
		g.authLimit = middleware.NewAuthRateLimiter(d.Limits).RateLimitMiddleware()
		g.writeLimit = middleware.NewWriteRateLimiter(d.Limits).RateLimitMiddleware()
	}
	return g
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d *Deps) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(d.Log), middleware.AccessLog(d.Log))
	if len(d.CORSOrigins) > 0 {
		router.Use(middleware.CORS(d.CORSOrigins))
	}
	RegisterRoutes(router, d)
	return router
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, d *Deps) {
	health := HealthCheck(d.Version)
	router.GET("/health", health)
	router.GET("/api/health", health)

	g := newGuards(d)
	v1 := router.Group("/api/v1")

	NewAuthHandler(d.Auth).RegisterRoutes(v1, g)
	NewCatalogHandler(d.Catalog, d.Images).RegisterRoutes(v1, g)
	NewEventHandler(d.Booking).RegisterRoutes(v1, g)
	NewOrderHandler(d.Orders).RegisterRoutes(v1, g)
	NewSuggestionHandler(d.Suggestions).RegisterRoutes(v1, g)
	NewNotificationHandler(d.Notifications).RegisterRoutes(v1, g)
	NewContactHandler(d.Contacts).RegisterRoutes(v1, g)
	NewCommunityHandler(d.Community).RegisterRoutes(v1, g)
	NewDashboardHandler(d.Dashboard).RegisterRoutes(v1, g)
}

// HealthCheck returns the health status of the API
func HealthCheck(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Almuerzo API is running",
			"version": version,
		})
	}
}
