package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/almuerzo-cl/almuerzo/backend/internal/geo"
	"github.com/almuerzo-cl/almuerzo/backend/internal/middleware"
	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/service"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

// CatalogHandler serves restaurants, menus and discounts
type CatalogHandler struct {
	catalog service.ICatalogService
	images  service.IImageService
}

func NewCatalogHandler(catalog service.ICatalogService, images service.IImageService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, images: images}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup, g *guards) {
	router.GET("/cuisines", h.ListCuisines)
	router.GET("/payment-methods", h.ListPaymentMethods)
	router.GET("/discounts/active", h.ListActiveDiscounts)

	restaurants := router.Group("/restaurants")
	{
		restaurants.GET("", h.ListRestaurants)
		restaurants.GET("/featured", h.list(h.catalog.ListFeatured))
		restaurants.GET("/super-offers", h.list(h.catalog.ListSuperOffers))
		restaurants.GET("/hidden-gems", h.list(h.catalog.ListHiddenGems))
		restaurants.GET("/new", h.list(h.catalog.ListNew))
		restaurants.GET("/takeaway", h.list(h.catalog.ListTakeawayMenus))
		restaurants.GET("/promotions", h.ListPromotions)
		restaurants.GET("/nearby", h.ListNearby)
		restaurants.GET("/:id", h.GetRestaurant)
		restaurants.GET("/:id/menu", h.ListMenu)
		restaurants.GET("/:id/discounts", h.ListDiscounts)

		restaurants.POST("/:id/favorite", g.auth, h.AddFavorite)
		restaurants.DELETE("/:id/favorite", g.auth, h.RemoveFavorite)
		restaurants.POST("/:id/subscription", g.auth, h.Subscribe)
		restaurants.DELETE("/:id/subscription", g.auth, h.Unsubscribe)

		restaurants.POST("", g.auth, g.owner, h.CreateRestaurant)
		managed := restaurants.Group("/:id", g.auth, g.manager)
		{
			managed.PUT("", h.UpdateRestaurant)
			managed.POST("/image", h.UploadRestaurantImage)
			managed.POST("/images", h.UploadMenuImage)
			managed.POST("/menu", h.CreateMenuItem)
			managed.PUT("/menu/:itemId", h.UpdateMenuItem)
			managed.DELETE("/menu/:itemId", h.DeleteMenuItem)
			managed.POST("/discounts", h.CreateDiscount)
		}
	}

	me := router.Group("/me", g.auth)
	{
		me.GET("/favorites", h.ListFavorites)
		me.GET("/subscriptions", h.ListSubscribed)
	}

	router.GET("/admin/restaurants", g.auth, g.admin, h.ListAllRestaurants)
}

func (h *CatalogHandler) list(fn func(ctx context.Context, origin *geo.Point) ([]models.Restaurant, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurants, err := fn(c.Request.Context(), originQuery(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, restaurants)
	}
}

func (h *CatalogHandler) ListRestaurants(c *gin.Context) {
	filter := types.RestaurantFilter{
		Origin:     originQuery(c),
		Cuisine:    c.Query("cuisine"),
		Service:    c.Query("service"),
		PriceLevel: intQuery(c, "price_level", 0),
		Query:      c.Query("q"),
		Sort:       c.Query("sort"),
	}
	restaurants, err := h.catalog.ListRestaurants(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, restaurants)
}

func (h *CatalogHandler) GetRestaurant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	restaurant, err := h.catalog.GetRestaurant(c.Request.Context(), id, originQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, restaurant)
}

func (h *CatalogHandler) ListPromotions(c *gin.Context) {
	restaurants, err := h.catalog.ListPromotions(c.Request.Context(), originQuery(c), intQuery(c, "limit", 4))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, restaurants)
}

func (h *CatalogHandler) ListNearby(c *gin.Context) {
	maxKm, err := strconv.ParseFloat(c.DefaultQuery("max_km", "1"), 64)
	if err != nil || maxKm <= 0 {
		badRequest(c, errors.New("max_km must be a positive number"))
		return
	}
	restaurants, err := h.catalog.ListNearby(c.Request.Context(), originQuery(c), maxKm)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, restaurants)
}

func (h *CatalogHandler) ListMenu(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	items, err := h.catalog.ListMenu(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *CatalogHandler) ListDiscounts(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	discounts, err := h.catalog.ListDiscounts(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, discounts)
}

func (h *CatalogHandler) ListActiveDiscounts(c *gin.Context) {
	discounts, err := h.catalog.ListActiveDiscounts(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, discounts)
}

func (h *CatalogHandler) ListCuisines(c *gin.Context) {
	cuisines, err := h.catalog.ListCuisines(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cuisines)
}

func (h *CatalogHandler) ListPaymentMethods(c *gin.Context) {
	methods, err := h.catalog.ListPaymentMethods(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, methods)
}

func (h *CatalogHandler) ListFavorites(c *gin.Context) {
	restaurants, err := h.catalog.ListFavorites(c.Request.Context(), currentUser(c), originQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, restaurants)
}

func (h *CatalogHandler) ListSubscribed(c *gin.Context) {
	restaurants, err := h.catalog.ListSubscribed(c.Request.Context(), currentUser(c), originQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, restaurants)
}

// toggle adapts the idempotent favorite and subscription writes.
func (h *CatalogHandler) toggle(c *gin.Context, fn func(ctx context.Context, userID, restaurantID uuid.UUID) error) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := fn(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) AddFavorite(c *gin.Context)    { h.toggle(c, h.catalog.AddFavorite) }
func (h *CatalogHandler) RemoveFavorite(c *gin.Context) { h.toggle(c, h.catalog.RemoveFavorite) }
func (h *CatalogHandler) Subscribe(c *gin.Context)      { h.toggle(c, h.catalog.Subscribe) }
func (h *CatalogHandler) Unsubscribe(c *gin.Context)    { h.toggle(c, h.catalog.Unsubscribe) }

func (h *CatalogHandler) ListAllRestaurants(c *gin.Context) {
	restaurants, err := h.catalog.ListAllRestaurants(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, restaurants)
}

// CreateRestaurant makes the caller the owner. Admins may name another owner
// or leave the restaurant unowned.
func (h *CatalogHandler) CreateRestaurant(c *gin.Context) {
	var req types.RestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var owner *uuid.UUID
	if c.GetString(middleware.ContextRole) != models.RoleAdmin {
		owner = optionalUser(c)
	}
	restaurant, err := h.catalog.CreateRestaurant(c.Request.Context(), owner, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, restaurant)
}

func (h *CatalogHandler) UpdateRestaurant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req types.RestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	restaurant, err := h.catalog.UpdateRestaurant(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, restaurant)
}

func (h *CatalogHandler) UploadRestaurantImage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	upload, ok := formImage(c, "image", true)
	if !ok {
		return
	}
	url, err := h.images.Upload(c.Request.Context(), upload, "restaurants/"+id.String())
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.catalog.SetRestaurantImage(c.Request.Context(), id, url); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"image_url": url})
}

// UploadMenuImage stores a dish photo and returns its URL for a menu item write.
func (h *CatalogHandler) UploadMenuImage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	upload, ok := formImage(c, "image", true)
	if !ok {
		return
	}
	url, err := h.images.Upload(c.Request.Context(), upload, "restaurants/"+id.String()+"/menu")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"image_url": url})
}

func (h *CatalogHandler) CreateMenuItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req types.MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.catalog.CreateMenuItem(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *CatalogHandler) UpdateMenuItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	var req types.MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.catalog.UpdateMenuItem(c.Request.Context(), id, itemID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *CatalogHandler) DeleteMenuItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	if err := h.catalog.DeleteMenuItem(c.Request.Context(), id, itemID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) CreateDiscount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req types.DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	discount, err := h.catalog.CreateDiscount(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, discount)
}

// formImage reads a multipart image field. Without required, a missing
// field yields a nil upload.
func formImage(c *gin.Context, field string, required bool) (*service.ImageUpload, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		if !required && (errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart)) {
			return nil, true
		}
		badRequest(c, fmt.Errorf("%s file is required", field))
		return nil, false
	}
	if header.Size > service.MaxImageBytes {
		badRequest(c, fmt.Errorf("image exceeds %d MB", service.MaxImageBytes>>20))
		return nil, false
	}

	f, err := header.Open()
	if err != nil {
		badRequest(c, err)
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, service.MaxImageBytes+1))
	if err != nil {
		badRequest(c, err)
		return nil, false
	}
	return &service.ImageUpload{
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
		Filename:    strings.TrimSpace(header.Filename),
	}, true
}
