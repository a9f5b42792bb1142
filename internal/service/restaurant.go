package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/almuerzo-cl/almuerzo/backend/internal/geo"
	"github.com/almuerzo-cl/almuerzo/backend/internal/logging"
	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

const defaultPromotionLimit = 4

var knownServices = map[string]bool{
	models.ServiceDineIn:       true,
	models.ServiceTakeaway:     true,
	models.ServiceSubscription: true,
	models.ServiceDailyMenu:    true,
}

// CatalogService serves restaurants, menus and discounts. Every diner-facing
// read is limited to restaurants within limitKm of the caller's origin.
type CatalogService struct {
	db       *gorm.DB
	embedder Embedder
	origin   geo.Point
	limitKm  float64
	loc      *time.Location
	log      *zap.Logger
}

func NewCatalogService(db *gorm.DB, embedder Embedder, origin geo.Point, limitKm float64, loc *time.Location, log *zap.Logger) *CatalogService {
	if loc == nil {
		loc = time.UTC
	}
	return &CatalogService{
		db:       db,
		embedder: embedder,
		origin:   origin,
		limitKm:  limitKm,
		loc:      loc,
		log:      logging.OrNop(log),
	}
}

// Origin returns p when it is a valid coordinate, otherwise the default origin.
func (s *CatalogService) Origin(p *geo.Point) geo.Point {
	if p != nil && p.Valid() && !(p.Lat == 0 && p.Lon == 0) {
		return *p
	}
	return s.origin
}

// nearby loads restaurants matching scope within the distance limit, sorted
// by distance. A bounding box narrows the query before the exact check.
func (s *CatalogService) nearby(ctx context.Context, origin *geo.Point, scope func(*gorm.DB) *gorm.DB) ([]models.Restaurant, error) {
	o := s.Origin(origin)
	dLat := s.limitKm / 111.0
	dLon := s.limitKm / (111.0 * math.Max(math.Cos(o.Lat*math.Pi/180), 0.01))

	q := s.db.WithContext(ctx).Model(&models.Restaurant{}).
		Where("latitude BETWEEN ? AND ?", o.Lat-dLat, o.Lat+dLat).
		Where("longitude BETWEEN ? AND ?", o.Lon-dLon, o.Lon+dLon)
	if scope != nil {
		q = scope(q)
	}

	var all []models.Restaurant
	if err := q.Find(&all).Error; err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}

	out := all[:0]
	for _, r := range all {
		d := geo.DistanceKm(o, geo.Point{Lat: r.Latitude, Lon: r.Longitude})
		if d > s.limitKm {
			continue
		}
		r.DistanceKm = math.Round(d*100) / 100
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}

func flag(column string) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB { return q.Where(column+" = ?", true) }
}

func (s *CatalogService) ListRestaurants(ctx context.Context, f types.RestaurantFilter) ([]models.Restaurant, error) {
	list, err := s.nearby(ctx, f.Origin, func(q *gorm.DB) *gorm.DB {
		if f.Cuisine != "" {
			q = q.Where("LOWER(cuisine) = ?", strings.ToLower(f.Cuisine))
		}
		if f.PriceLevel > 0 {
			q = q.Where("price_level = ?", f.PriceLevel)
		}
		if f.Query != "" {
			q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f.Query)+"%")
		}
		return q
	})
	if err != nil {
		return nil, err
	}

	if f.Service != "" {
		filtered := list[:0]
		for _, r := range list {
			if r.Offers(f.Service) {
				filtered = append(filtered, r)
			}
		}
		list = filtered
	}

	switch f.Sort {
	case "rating":
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].AlmuerzoRating != list[j].AlmuerzoRating {
				return list[i].AlmuerzoRating > list[j].AlmuerzoRating
			}
			return list[i].GoogleRating > list[j].GoogleRating
		})
	case "name":
		sort.SliceStable(list, func(i, j int) bool {
			return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
		})
	case "", "distance":
	default:
		return nil, invalid("unknown sort %q", f.Sort)
	}
	return list, nil
}

func (s *CatalogService) GetRestaurant(ctx context.Context, id uuid.UUID, origin *geo.Point) (*models.Restaurant, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	d := geo.DistanceKm(s.Origin(origin), geo.Point{Lat: r.Latitude, Lon: r.Longitude})
	if d > s.limitKm {
		return nil, fmt.Errorf("restaurant %w", ErrNotFound)
	}
	r.DistanceKm = math.Round(d*100) / 100
	return r, nil
}

func (s *CatalogService) load(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	var r models.Restaurant
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("restaurant %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get restaurant: %w", err)
	}
	return &r, nil
}

func (s *CatalogService) ListFeatured(ctx context.Context, origin *geo.Point) ([]models.Restaurant, error) {
	return s.nearby(ctx, origin, flag("is_featured"))
}

func (s *CatalogService) ListSuperOffers(ctx context.Context, origin *geo.Point) ([]models.Restaurant, error) {
	return s.nearby(ctx, origin, flag("has_super_offer"))
}

func (s *CatalogService) ListHiddenGems(ctx context.Context, origin *geo.Point) ([]models.Restaurant, error) {
	return s.nearby(ctx, origin, flag("is_hidden_gem"))
}

func (s *CatalogService) ListNew(ctx context.Context, origin *geo.Point) ([]models.Restaurant, error) {
	return s.nearby(ctx, origin, flag("is_new"))
}

func (s *CatalogService) ListPromotions(ctx context.Context, origin *geo.Point, limit int) ([]models.Restaurant, error) {
	if limit <= 0 {
		limit = defaultPromotionLimit
	}
	list, err := s.nearby(ctx, origin, func(q *gorm.DB) *gorm.DB {
		return q.Where("id IN (?)", s.db.Model(&models.Discount{}).Select("restaurant_id")).
			Preload("Discounts")
	})
	if err != nil {
		return nil, err
	}
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// ListNearby returns restaurants strictly closer than maxKm.
func (s *CatalogService) ListNearby(ctx context.Context, origin *geo.Point, maxKm float64) ([]models.Restaurant, error) {
	list, err := s.nearby(ctx, origin, nil)
	if err != nil {
		return nil, err
	}
	out := list[:0]
	for _, r := range list {
		if r.DistanceKm < maxKm {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListTakeawayMenus returns takeaway restaurants with their menus reduced to
// takeaway items. Restaurants left without items are dropped.
func (s *CatalogService) ListTakeawayMenus(ctx context.Context, origin *geo.Point) ([]models.Restaurant, error) {
	list, err := s.nearby(ctx, origin, func(q *gorm.DB) *gorm.DB {
		return q.Preload("MenuItems", "available_for_takeaway = ?", true)
	})
	if err != nil {
		return nil, err
	}
	out := list[:0]
	for _, r := range list {
		if r.Offers(models.ServiceTakeaway) && len(r.MenuItems) > 0 {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *CatalogService) ListFavorites(ctx context.Context, userID uuid.UUID, origin *geo.Point) ([]models.Restaurant, error) {
	return s.nearby(ctx, origin, func(q *gorm.DB) *gorm.DB {
		return q.Where("id IN (?)", s.db.Model(&models.Favorite{}).Select("restaurant_id").Where("user_id = ?", userID))
	})
}

func (s *CatalogService) ListSubscribed(ctx context.Context, userID uuid.UUID, origin *geo.Point) ([]models.Restaurant, error) {
	return s.nearby(ctx, origin, func(q *gorm.DB) *gorm.DB {
		return q.Where("id IN (?)", s.db.Model(&models.DailyMenuSubscription{}).Select("restaurant_id").Where("user_id = ?", userID))
	})
}

// FavoriteIDs returns the ids of the user's favorite restaurants.
func (s *CatalogService) FavoriteIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.Favorite{}).Where("user_id = ?", userID).Pluck("restaurant_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}
	out := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (s *CatalogService) AddFavorite(ctx context.Context, userID, restaurantID uuid.UUID) error {
	if _, err := s.load(ctx, restaurantID); err != nil {
		return err
	}
	fav := models.Favorite{UserID: userID, RestaurantID: restaurantID}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&fav).Error; err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

func (s *CatalogService) RemoveFavorite(ctx context.Context, userID, restaurantID uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND restaurant_id = ?", userID, restaurantID).
		Delete(&models.Favorite{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

func (s *CatalogService) Subscribe(ctx context.Context, userID, restaurantID uuid.UUID) error {
	r, err := s.load(ctx, restaurantID)
	if err != nil {
		return err
	}
	if !r.Offers(models.ServiceSubscription) && !r.Offers(models.ServiceDailyMenu) {
		return invalid("restaurant has no daily menu subscription")
	}
	sub := models.DailyMenuSubscription{UserID: userID, RestaurantID: restaurantID}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&sub).Error; err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	return nil
}

func (s *CatalogService) Unsubscribe(ctx context.Context, userID, restaurantID uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND restaurant_id = ?", userID, restaurantID).
		Delete(&models.DailyMenuSubscription{}).Error
	if err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	return nil
}

func (s *CatalogService) ListMenu(ctx context.Context, restaurantID uuid.UUID) ([]models.MenuItem, error) {
	if _, err := s.load(ctx, restaurantID); err != nil {
		return nil, err
	}
	var items []models.MenuItem
	err := s.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("is_featured DESC").Order("name").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list menu: %w", err)
	}
	return items, nil
}

func (s *CatalogService) ListDiscounts(ctx context.Context, restaurantID uuid.UUID) ([]models.Discount, error) {
	var out []models.Discount
	if err := s.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID).Order("valid_to").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list discounts: %w", err)
	}
	return out, nil
}

// ListActiveDiscounts returns discounts valid at the given instant, judged on
// the local weekday.
func (s *CatalogService) ListActiveDiscounts(ctx context.Context, at time.Time) ([]models.Discount, error) {
	var all []models.Discount
	if err := s.db.WithContext(ctx).Find(&all).Error; err != nil {
		return nil, fmt.Errorf("failed to list discounts: %w", err)
	}
	local := at.In(s.loc)
	out := all[:0]
	for _, d := range all {
		if d.ActiveOn(local) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *CatalogService) ListCuisines(ctx context.Context) ([]string, error) {
	var cuisines []string
	if err := s.db.WithContext(ctx).Model(&models.Restaurant{}).Distinct("cuisine").Pluck("cuisine", &cuisines).Error; err != nil {
		return nil, fmt.Errorf("failed to list cuisines: %w", err)
	}
	out := cuisines[:0]
	for _, c := range cuisines {
		if c != "" {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *CatalogService) ListPaymentMethods(ctx context.Context) ([]string, error) {
	var lists []models.StringList
	if err := s.db.WithContext(ctx).Model(&models.Restaurant{}).Pluck("payment_methods", &lists).Error; err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	seen := map[string]bool{}
	var out []string
	for _, l := range lists {
		for _, m := range l {
			if m != "" && !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *CatalogService) ListAllRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	var out []models.Restaurant
	if err := s.db.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}
	return out, nil
}

func validateRestaurant(req *types.RestaurantRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return invalid("name is required")
	}
	if !(geo.Point{Lat: req.Latitude, Lon: req.Longitude}).Valid() || (req.Latitude == 0 && req.Longitude == 0) {
		return invalid("a valid location is required")
	}
	if req.PriceLevel != 0 && (req.PriceLevel < 1 || req.PriceLevel > 4) {
		return invalid("price level must be between 1 and 4")
	}
	for _, svc := range req.Services {
		if !knownServices[models.NormalizeService(svc)] {
			return invalid("unknown service %q", svc)
		}
	}
	if req.NoShowPolicyMinutes != nil && *req.NoShowPolicyMinutes <= 0 {
		return invalid("no-show policy minutes must be positive")
	}
	if req.SeatingCapacity < 0 || req.TakeawayMinutes < 0 {
		return invalid("capacity and takeaway minutes cannot be negative")
	}
	return nil
}

func applyRestaurant(r *models.Restaurant, req *types.RestaurantRequest) {
	services := make(models.StringList, 0, len(req.Services))
	for _, svc := range req.Services {
		services = append(services, models.NormalizeService(svc))
	}
	r.Name = strings.TrimSpace(req.Name)
	r.Address = req.Address
	r.Latitude = req.Latitude
	r.Longitude = req.Longitude
	r.ImageURL = req.ImageURL
	r.ImageHint = req.ImageHint
	r.Cuisine = req.Cuisine
	r.GoogleRating = req.GoogleRating
	r.GoogleRatingCount = req.GoogleRatingCount
	r.PaymentMethods = models.StringList(req.PaymentMethods)
	r.Services = services
	r.IsNew = req.IsNew
	r.IsHiddenGem = req.IsHiddenGem
	r.IsSponsored = req.IsSponsored
	r.IsFeatured = req.IsFeatured
	r.HasSuperOffer = req.HasSuperOffer
	r.PriceLevel = req.PriceLevel
	if r.PriceLevel == 0 {
		r.PriceLevel = 2
	}
	r.FeaturedEventTitle = req.FeaturedEventTitle
	r.FeaturedEventDescription = req.FeaturedEventDescription
	r.EventAvailability = req.EventAvailability
	r.WaitlistEnabled = req.WaitlistEnabled
	r.SeatingCapacity = req.SeatingCapacity
	r.NoShowPolicyMinutes = req.NoShowPolicyMinutes
	r.TakeawayMinutes = req.TakeawayMinutes
	if r.TakeawayMinutes == 0 {
		r.TakeawayMinutes = models.DefaultTakeawayMinutes
	}
}

// CreateRestaurant stores a new restaurant. ownerID, when set, wins over the
// owner named in the request.
func (s *CatalogService) CreateRestaurant(ctx context.Context, ownerID *uuid.UUID, req *types.RestaurantRequest) (*models.Restaurant, error) {
	if err := validateRestaurant(req); err != nil {
		return nil, err
	}
	r := &models.Restaurant{}
	applyRestaurant(r, req)
	r.OwnerID = req.OwnerID
	if ownerID != nil {
		r.OwnerID = ownerID
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, fmt.Errorf("failed to create restaurant: %w", err)
	}
	s.log.Info("Restaurant created", zap.String("id", r.ID.String()), zap.String("name", r.Name))
	return r, nil
}

func (s *CatalogService) UpdateRestaurant(ctx context.Context, id uuid.UUID, req *types.RestaurantRequest) (*models.Restaurant, error) {
	if err := validateRestaurant(req); err != nil {
		return nil, err
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	owner := r.OwnerID
	applyRestaurant(r, req)
	r.OwnerID = owner
	if req.OwnerID != nil {
		r.OwnerID = req.OwnerID
	}
	if err := s.db.WithContext(ctx).Save(r).Error; err != nil {
		return nil, fmt.Errorf("failed to update restaurant: %w", err)
	}
	return r, nil
}

func (s *CatalogService) SetRestaurantImage(ctx context.Context, id uuid.UUID, url string) error {
	result := s.db.WithContext(ctx).Model(&models.Restaurant{}).Where("id = ?", id).Update("image_url", url)
	if result.Error != nil {
		return fmt.Errorf("failed to set restaurant image: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("restaurant %w", ErrNotFound)
	}
	return nil
}

func validateMenuItem(req *types.MenuItemRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return invalid("name is required")
	}
	if req.Price < 0 {
		return invalid("price cannot be negative")
	}
	if req.SalePrice != nil && (*req.SalePrice < 0 || *req.SalePrice > req.Price) {
		return invalid("sale price must be between 0 and the regular price")
	}
	if req.Stock != nil && *req.Stock < 0 {
		return invalid("stock cannot be negative")
	}
	return nil
}

func applyMenuItem(m *models.MenuItem, req *types.MenuItemRequest) {
	m.Name = strings.TrimSpace(req.Name)
	m.Description = req.Description
	m.Price = req.Price
	m.SalePrice = req.SalePrice
	m.ImageURL = req.ImageURL
	m.ImageHint = req.ImageHint
	m.AvailableForTakeaway = req.AvailableForTakeaway
	m.IsVegan = req.IsVegan
	m.IsFeatured = req.IsFeatured
	m.Stock = req.Stock
}

func (s *CatalogService) CreateMenuItem(ctx context.Context, restaurantID uuid.UUID, req *types.MenuItemRequest) (*models.MenuItem, error) {
	if err := validateMenuItem(req); err != nil {
		return nil, err
	}
	r, err := s.load(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	item := &models.MenuItem{RestaurantID: restaurantID}
	applyMenuItem(item, req)
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, fmt.Errorf("failed to create menu item: %w", err)
	}
	s.embedItem(ctx, item, r)
	return item, nil
}

func (s *CatalogService) UpdateMenuItem(ctx context.Context, restaurantID, itemID uuid.UUID, req *types.MenuItemRequest) (*models.MenuItem, error) {
	if err := validateMenuItem(req); err != nil {
		return nil, err
	}
	r, err := s.load(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	var item models.MenuItem
	if err := s.db.WithContext(ctx).First(&item, "id = ? AND restaurant_id = ?", itemID, restaurantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("menu item %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get menu item: %w", err)
	}
	applyMenuItem(&item, req)
	if err := s.db.WithContext(ctx).Save(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to update menu item: %w", err)
	}
	s.embedItem(ctx, &item, r)
	return &item, nil
}

func (s *CatalogService) DeleteMenuItem(ctx context.Context, restaurantID, itemID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND restaurant_id = ?", itemID, restaurantID).Delete(&models.MenuItem{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete menu item: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("menu item %w", ErrNotFound)
		}
		return tx.Where("menu_item_id = ?", itemID).Delete(&models.MenuItemEmbedding{}).Error
	})
}

func (s *CatalogService) CreateDiscount(ctx context.Context, restaurantID uuid.UUID, req *types.DiscountRequest) (*models.Discount, error) {
	if _, err := s.load(ctx, restaurantID); err != nil {
		return nil, err
	}
	if req.Type != models.DiscountFixed && req.Type != models.DiscountPercent {
		return nil, invalid("discount type must be $ or %%")
	}
	if req.Amount <= 0 || (req.Type == models.DiscountPercent && req.Amount > 100) {
		return nil, invalid("discount amount out of range")
	}
	if !req.ValidFrom.IsZero() && !req.ValidTo.IsZero() && req.ValidTo.Before(req.ValidFrom) {
		return nil, invalid("valid_to is before valid_from")
	}
	days := make(models.StringList, 0, len(req.DaysOfWeek))
	for _, d := range req.DaysOfWeek {
		days = append(days, strings.ToLower(strings.TrimSpace(d)))
	}
	d := &models.Discount{
		RestaurantID: restaurantID,
		Sponsor:      req.Sponsor,
		Type:         req.Type,
		Amount:       req.Amount,
		ValidFrom:    req.ValidFrom.UTC(),
		ValidTo:      req.ValidTo.UTC(),
		DaysOfWeek:   days,
		AppliesTo:    req.AppliesTo,
		Description:  req.Description,
	}
	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		return nil, fmt.Errorf("failed to create discount: %w", err)
	}
	return d, nil
}

func (s *CatalogService) IsOwner(ctx context.Context, userID, restaurantID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Restaurant{}).
		Where("id = ? AND owner_id = ?", restaurantID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check ownership: %w", err)
	}
	return count > 0, nil
}

// embedItem stores the item's embedding. Failures are logged; the item stays
// searchable by the other ranking signals.
func (s *CatalogService) embedItem(ctx context.Context, item *models.MenuItem, r *models.Restaurant) {
	if s.embedder == nil {
		return
	}
	vec, err := s.embedder.Embed(ctx, item.EmbeddingText(r))
	if err != nil {
		s.log.Warn("Failed to embed menu item", zap.String("item", item.ID.String()), zap.Error(err))
		return
	}
	emb := models.MenuItemEmbedding{
		MenuItemID:   item.ID,
		RestaurantID: item.RestaurantID,
		Model:        s.embedder.Model(),
		Embedding:    pgvector.NewVector(vec),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "menu_item_id"}},
		UpdateAll: true,
	}).Create(&emb).Error
	if err != nil {
		s.log.Warn("Failed to store menu item embedding", zap.String("item", item.ID.String()), zap.Error(err))
	}
}

// ReindexEmbeddings recomputes the embedding of every menu item.
func (s *CatalogService) ReindexEmbeddings(ctx context.Context) (int, error) {
	var restaurants []models.Restaurant
	if err := s.db.WithContext(ctx).Preload("MenuItems").Find(&restaurants).Error; err != nil {
		return 0, fmt.Errorf("failed to load menus: %w", err)
	}
	n := 0
	for i := range restaurants {
		r := &restaurants[i]
		for j := range r.MenuItems {
			s.embedItem(ctx, &r.MenuItems[j], r)
			n++
		}
	}
	return n, nil
}
