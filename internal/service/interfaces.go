package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/almuerzo-cl/almuerzo/backend/internal/geo"
	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest, allowPrivileged bool) (*models.User, *models.UserProfile, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	GenerateToken(user *models.User, username string) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, *models.UserProfile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *types.UpdateProfileRequest) (*models.UserProfile, error)
}

// ICatalogService defines restaurant catalog reads and owner writes
type ICatalogService interface {
	Origin(p *geo.Point) geo.Point
	ListRestaurants(ctx context.Context, filter types.RestaurantFilter) ([]models.Restaurant, error)
	GetRestaurant(ctx context.Context, id uuid.UUID, origin *geo.Point) (*models.Restaurant, error)
	ListFeatured(ctx context.Context, origin *geo.Point) ([]models.Restaurant, error)
	ListSuperOffers(ctx context.Context, origin *geo.Point) ([]models.Restaurant, error)
	ListHiddenGems(ctx context.Context, origin *geo.Point) ([]models.Restaurant, error)
	ListNew(ctx context.Context, origin *geo.Point) ([]models.Restaurant, error)
	ListPromotions(ctx context.Context, origin *geo.Point, limit int) ([]models.Restaurant, error)
	ListNearby(ctx context.Context, origin *geo.Point, maxKm float64) ([]models.Restaurant, error)
	ListTakeawayMenus(ctx context.Context, origin *geo.Point) ([]models.Restaurant, error)
	ListFavorites(ctx context.Context, userID uuid.UUID, origin *geo.Point) ([]models.Restaurant, error)
	ListSubscribed(ctx context.Context, userID uuid.UUID, origin *geo.Point) ([]models.Restaurant, error)
	AddFavorite(ctx context.Context, userID, restaurantID uuid.UUID) error
	RemoveFavorite(ctx context.Context, userID, restaurantID uuid.UUID) error
	FavoriteIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error)
	Subscribe(ctx context.Context, userID, restaurantID uuid.UUID) error
	Unsubscribe(ctx context.Context, userID, restaurantID uuid.UUID) error
	ListMenu(ctx context.Context, restaurantID uuid.UUID) ([]models.MenuItem, error)
	ListDiscounts(ctx context.Context, restaurantID uuid.UUID) ([]models.Discount, error)
	ListActiveDiscounts(ctx context.Context, at time.Time) ([]models.Discount, error)
	ListCuisines(ctx context.Context) ([]string, error)
	ListPaymentMethods(ctx context.Context) ([]string, error)
	ListAllRestaurants(ctx context.Context) ([]models.Restaurant, error)
	CreateRestaurant(ctx context.Context, ownerID *uuid.UUID, req *types.RestaurantRequest) (*models.Restaurant, error)
	UpdateRestaurant(ctx context.Context, id uuid.UUID, req *types.RestaurantRequest) (*models.Restaurant, error)
	SetRestaurantImage(ctx context.Context, id uuid.UUID, url string) error
	CreateMenuItem(ctx context.Context, restaurantID uuid.UUID, req *types.MenuItemRequest) (*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, restaurantID, itemID uuid.UUID, req *types.MenuItemRequest) (*models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, restaurantID, itemID uuid.UUID) error
	CreateDiscount(ctx context.Context, restaurantID uuid.UUID, req *types.DiscountRequest) (*models.Discount, error)
	IsOwner(ctx context.Context, userID, restaurantID uuid.UUID) (bool, error)
}

// IBookingService defines lunch event operations
type IBookingService interface {
	CreateLunchEvent(ctx context.Context, organizerID uuid.UUID, req *types.CreateLunchEventRequest) (*types.CreateLunchEventResponse, error)
	GetEvent(ctx context.Context, userID, eventID uuid.UUID) (*models.LunchEvent, error)
	ListOrganizerEvents(ctx context.Context, userID uuid.UUID, upcoming bool) ([]models.LunchEvent, error)
	ListRestaurantReservations(ctx context.Context, ownerID, restaurantID uuid.UUID, day *time.Time) ([]types.Reservation, error)
	DecideEvent(ctx context.Context, ownerID, eventID uuid.UUID, accept bool, reason string) (*models.LunchEvent, error)
	CancelEvent(ctx context.Context, organizerID, eventID uuid.UUID, reason string) (*models.LunchEvent, error)
	CheckIn(ctx context.Context, userID, eventID uuid.UUID, method string, location *geo.Point) (*models.LunchEvent, error)
	RateEvent(ctx context.Context, userID, eventID uuid.UUID, forks int, comment string) (*models.EventRating, error)
	HandleNoShowCheck(ctx context.Context, eventID uuid.UUID) error
	HandleRatingRequest(ctx context.Context, eventID uuid.UUID) error
}

// IOrderService defines takeaway order operations
type IOrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req *types.CreateOrderRequest) (*models.TakeawayOrder, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.TakeawayOrder, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]models.TakeawayOrder, error)
	ListRestaurantOrders(ctx context.Context, ownerID, restaurantID uuid.UUID) ([]models.TakeawayOrder, error)
	UpdateStatus(ctx context.Context, userID, orderID uuid.UUID, status string) (*models.TakeawayOrder, error)
	TakeawayCustomers(ctx context.Context, ownerID, restaurantID uuid.UUID) ([]types.TakeawayCustomer, error)
	ReservationCustomers(ctx context.Context, ownerID, restaurantID uuid.UUID) ([]types.ReservationCustomer, error)
	CustomerHabits(ctx context.Context, ownerID, restaurantID uuid.UUID, since time.Time) (*types.CustomerHabits, error)
	Transactions(ctx context.Context, ownerID, restaurantID uuid.UUID, since time.Time) ([]types.Transaction, error)
}

// ISuggestionService produces AI menu suggestions
type ISuggestionService interface {
	Suggest(ctx context.Context, userID uuid.UUID, req *types.MenuSuggestionRequest) (*types.MenuSuggestionResponse, error)
}

// INotificationService delivers and lists notifications
type INotificationService interface {
	Notify(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	ListRestaurantNotifications(ctx context.Context, restaurantID uuid.UUID, limit int) ([]models.Notification, error)
}

// IContactService manages an organizer's contacts
type IContactService interface {
	List(ctx context.Context, ownerID uuid.UUID, source, search string) ([]models.Contact, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Contact, error)
	Create(ctx context.Context, ownerID uuid.UUID, req *types.ContactRequest) (*models.Contact, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, req *types.ContactRequest) (*models.Contact, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// ICommunityService handles community restaurant suggestions
type ICommunityService interface {
	CreateSuggestion(ctx context.Context, req *types.CreateCommunitySuggestionRequest, userID *uuid.UUID, image *ImageUpload) (*models.RestaurantSuggestion, error)
	GetSuggestion(ctx context.Context, id uuid.UUID) (*models.RestaurantSuggestion, error)
	ListSuggestions(ctx context.Context, filters *models.SuggestionFilters) ([]*models.RestaurantSuggestion, error)
	UpdateSuggestionStatus(ctx context.Context, id uuid.UUID, status string, adminNotes string) error
}

// IImageService stores uploaded images
type IImageService interface {
	Upload(ctx context.Context, upload *ImageUpload, prefix string) (string, error)
}

// IDashboardService aggregates per-user and platform figures
type IDashboardService interface {
	EaterDashboard(ctx context.Context, userID uuid.UUID) (*types.EaterDashboard, error)
	PlatformMetrics(ctx context.Context) (*types.PlatformMetrics, error)
}

// IEmailService defines the interface for email operations
type IEmailService interface {
	SendEmail(to, subject, body string) error
}

// Embedder turns text into a fixed-size vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// ChatModel sends one system+user prompt and returns the JSON text reply.
type ChatModel interface {
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}
