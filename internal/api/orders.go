package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/almuerzo-cl/almuerzo/backend/internal/service"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

// OrderHandler serves takeaway orders and restaurant customer analytics
type OrderHandler struct {
	orders service.IOrderService
}

func NewOrderHandler(orders service.IOrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup, g *guards) {
	orders := router.Group("/orders", g.auth)
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.PUT("/:id/status", h.UpdateStatus)
	}

	managed := router.Group("/restaurants/:id", g.auth, g.manager)
	{
		managed.GET("/orders", h.ListRestaurantOrders)
		managed.GET("/customers/takeaway", h.TakeawayCustomers)
		managed.GET("/customers/reservations", h.ReservationCustomers)
		managed.GET("/analytics/habits", h.CustomerHabits)
		managed.GET("/transactions", h.Transactions)
	}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req types.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.orders.CreateOrder(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req types.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), currentUser(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListRestaurantOrders(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	orders, err := h.orders.ListRestaurantOrders(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) TakeawayCustomers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	customers, err := h.orders.TakeawayCustomers(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func (h *OrderHandler) ReservationCustomers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	customers, err := h.orders.ReservationCustomers(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

// analyticsSince reads ?days=N, the trailing period to aggregate. Zero means
// every order; the default is 30 days.
func analyticsSince(c *gin.Context) time.Time {
	days := intQuery(c, "days", 30)
	if days == 0 {
		return time.Time{}
	}
	return time.Now().AddDate(0, 0, -days)
}

func (h *OrderHandler) CustomerHabits(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	habits, err := h.orders.CustomerHabits(c.Request.Context(), currentUser(c), id, analyticsSince(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, habits)
}

func (h *OrderHandler) Transactions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.orders.Transactions(c.Request.Context(), currentUser(c), id, analyticsSince(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
