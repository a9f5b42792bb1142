package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/almuerzo-cl/almuerzo/backend/internal/logging"
	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

const (
	serviceFeeRate = 0.05
	// scheduleMargin is added to the preparation time for scheduled pickups.
	scheduleMargin   = 5 * time.Minute
	maxScheduleAhead = 7 * 24 * time.Hour
)

// previousOrderStatus gives the status an order must hold to advance to the key.
var previousOrderStatus = map[string]string{
	models.OrderPreparing: models.OrderPending,
	models.OrderReady:     models.OrderPreparing,
	models.OrderDelivered: models.OrderReady,
}

// OrderService handles takeaway orders and the restaurant customer analytics.
type OrderService struct {
	db       *gorm.DB
	notifier INotificationService
	msgs     *Messages
	log      *zap.Logger
	now      func() time.Time
}

func NewOrderService(db *gorm.DB, notifier INotificationService, msgs *Messages, log *zap.Logger) *OrderService {
	return &OrderService{
		db:       db,
		notifier: notifier,
		msgs:     msgs,
		log:      logging.OrNop(log),
		now:      time.Now,
	}
}

type cartLine struct {
	itemID   uuid.UUID
	quantity int
}

// mergeCart validates quantities and folds repeated items into one line,
// keeping the first-seen order.
func mergeCart(items []types.OrderItemInput) ([]cartLine, error) {
	if len(items) == 0 {
		return nil, invalid("order has no items")
	}
	index := map[uuid.UUID]int{}
	var lines []cartLine
	for _, in := range items {
		if in.Quantity < 1 {
			return nil, invalid("quantity must be at least 1")
		}
		if i, ok := index[in.MenuItemID]; ok {
			lines[i].quantity += in.Quantity
			continue
		}
		index[in.MenuItemID] = len(lines)
		lines = append(lines, cartLine{itemID: in.MenuItemID, quantity: in.Quantity})
	}
	return lines, nil
}

// ServiceFee is 5% of the subtotal rounded to the nearest peso.
func ServiceFee(subtotal int) int {
	return int(math.Round(float64(subtotal) * serviceFeeRate))
}

func (s *OrderService) pickupTime(r *models.Restaurant, mode string, scheduled *time.Time) (time.Time, error) {
	now := s.now()
	ready := now.Add(r.TakeawayTime())
	switch mode {
	case models.PickupNow:
		return ready.UTC(), nil
	case models.PickupSchedule:
		if scheduled == nil || scheduled.IsZero() {
			return time.Time{}, invalid("scheduled pickup needs a time")
		}
		if scheduled.Before(ready.Add(scheduleMargin)) {
			return time.Time{}, invalid("pickup must be at least %d minutes from now", int((r.TakeawayTime()+scheduleMargin).Minutes()))
		}
		if scheduled.After(now.Add(maxScheduleAhead)) {
			return time.Time{}, invalid("pickup cannot be more than 7 days ahead")
		}
		return scheduled.UTC(), nil
	default:
		return time.Time{}, invalid("unknown pickup mode %q", mode)
	}
}

func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *types.CreateOrderRequest) (*models.TakeawayOrder, error) {
	lines, err := mergeCart(req.Items)
	if err != nil {
		return nil, err
	}
	if req.RestaurantID == uuid.Nil {
		return nil, invalid("restaurant is required")
	}
	orderType := models.NormalizeService(req.Type)
	if orderType == "" {
		orderType = models.OrderTypeTakeaway
	}
	if orderType != models.OrderTypeTakeaway && orderType != models.OrderTypeDineIn {
		return nil, invalid("unknown order type %q", req.Type)
	}
	mode := req.Pickup
	if mode == "" {
		mode = models.PickupNow
	}

	var r models.Restaurant
	if err := s.db.WithContext(ctx).First(&r, "id = ?", req.RestaurantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("restaurant %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get restaurant: %w", err)
	}
	if !r.Offers(orderType) {
		return nil, invalid("%s does not offer %s", r.Name, orderType)
	}
	pickupAt, err := s.pickupTime(&r, mode, req.ScheduledAt)
	if err != nil {
		return nil, err
	}

	order := &models.TakeawayOrder{
		UserID:       userID,
		RestaurantID: r.ID,
		Type:         orderType,
		Status:       models.OrderPending,
		PickupMode:   mode,
		PickupAt:     pickupAt,
		Notes:        strings.TrimSpace(req.Notes),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make([]uuid.UUID, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.itemID)
		}
		var items []models.MenuItem
		if err := tx.Where("id IN ?", ids).Find(&items).Error; err != nil {
			return fmt.Errorf("failed to load menu items: %w", err)
		}
		byID := make(map[uuid.UUID]*models.MenuItem, len(items))
		for i := range items {
			byID[items[i].ID] = &items[i]
		}

		for _, l := range lines {
			item, ok := byID[l.itemID]
			if !ok {
				return fmt.Errorf("menu item %s %w", l.itemID, ErrNotFound)
			}
			if item.RestaurantID != r.ID {
				return ErrMixedCart
			}
			if !item.AvailableForTakeaway {
				return invalid("%s is not available for takeaway", item.Name)
			}
			if item.Stock != nil {
				result := tx.Model(&models.MenuItem{}).
					Where("id = ? AND stock >= ?", item.ID, l.quantity).
					Update("stock", gorm.Expr("stock - ?", l.quantity))
				if result.Error != nil {
					return fmt.Errorf("failed to reserve stock: %w", result.Error)
				}
				if result.RowsAffected == 0 {
					return fmt.Errorf("%s: %w", item.Name, ErrOutOfStock)
				}
			}
			unit := item.UnitPrice()
			order.Items = append(order.Items, models.TakeawayOrderItem{
				MenuItemID: item.ID,
				Name:       item.Name,
				UnitPrice:  unit,
				Quantity:   l.quantity,
				LineTotal:  unit * l.quantity,
			})
			order.Subtotal += unit * l.quantity
		}
		order.ServiceFee = ServiceFee(order.Subtotal)
		order.Total = order.Subtotal + order.ServiceFee

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Order created",
		zap.String("order", order.ID.String()),
		zap.String("restaurant", r.ID.String()),
		zap.Int("total", order.Total))

	text := s.msgs.RestaurantOrder(order)
	notifyAll(ctx, s.notifier, s.log, []*models.Notification{
		{
			RecipientKind: models.RecipientRestaurant,
			RestaurantID:  uuidPtr(r.ID),
			OrderID:       uuidPtr(order.ID),
			Kind:          models.KindOrder,
			Title:         text.Title,
			Body:          text.Body,
		},
		s.customerNotification(order, r.Name),
	})

	order.Restaurant = &r
	return order, nil
}

func (s *OrderService) customerNotification(o *models.TakeawayOrder, restaurant string) *models.Notification {
	text := s.msgs.OrderStatus(o, restaurant)
	return &models.Notification{
		RecipientKind: models.RecipientUser,
		UserID:        uuidPtr(o.UserID),
		OrderID:       uuidPtr(o.ID),
		Channel:       models.ChannelInApp,
		Kind:          models.KindOrder,
		Title:         text.Title,
		Body:          text.Body,
	}
}

func (s *OrderService) loadOrder(ctx context.Context, id uuid.UUID) (*models.TakeawayOrder, error) {
	var o models.TakeawayOrder
	err := s.db.WithContext(ctx).Preload("Items").Preload("Restaurant").First(&o, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &o, nil
}

// GetOrder returns an order to its customer or to the restaurant's staff.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.TakeawayOrder, error) {
	o, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID == userID {
		return o, nil
	}
	if err := canManageRestaurant(ctx, s.db, userID, o.RestaurantID); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]models.TakeawayOrder, error) {
	var out []models.TakeawayOrder
	err := s.db.WithContext(ctx).
		Preload("Items").Preload("Restaurant").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return out, nil
}

func (s *OrderService) ListRestaurantOrders(ctx context.Context, ownerID, restaurantID uuid.UUID) ([]models.TakeawayOrder, error) {
	if err := canManageRestaurant(ctx, s.db, ownerID, restaurantID); err != nil {
		return nil, err
	}
	var out []models.TakeawayOrder
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("restaurant_id = ?", restaurantID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return out, nil
}

// UpdateStatus moves an order along pending, preparing, ready, delivered.
// Staff may cancel pending or preparing orders; the customer only pending
// ones. Cancelling puts reserved stock back.
func (s *OrderService) UpdateStatus(ctx context.Context, userID, orderID uuid.UUID, status string) (*models.TakeawayOrder, error) {
	o, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	manager := true
	if err := canManageRestaurant(ctx, s.db, userID, o.RestaurantID); err != nil {
		if !errors.Is(err, ErrForbidden) {
			return nil, err
		}
		manager = false
	}

	var from []string
	switch {
	case status == models.OrderCancelled && manager:
		from = []string{models.OrderPending, models.OrderPreparing}
	case status == models.OrderCancelled && o.UserID == userID:
		from = []string{models.OrderPending}
	case !manager:
		return nil, ErrForbidden
	default:
		prev, ok := previousOrderStatus[status]
		if !ok {
			return nil, invalid("unknown order status %q", status)
		}
		from = []string{prev}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.TakeawayOrder{}).
			Where("id = ? AND status IN ?", o.ID, from).
			Update("status", status)
		if result.Error != nil {
			return fmt.Errorf("failed to update order: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("order is %s: %w", o.Status, ErrInvalidTransition)
		}
		if status != models.OrderCancelled {
			return nil
		}
		for _, it := range o.Items {
			err := tx.Model(&models.MenuItem{}).
				Where("id = ? AND stock IS NOT NULL", it.MenuItemID).
				Update("stock", gorm.Expr("stock + ?", it.Quantity)).Error
			if err != nil {
				return fmt.Errorf("failed to restore stock: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.Status = status
	name := ""
	if o.Restaurant != nil {
		name = o.Restaurant.Name
	}
	notifyAll(ctx, s.notifier, s.log, []*models.Notification{s.customerNotification(o, name)})
	return o, nil
}

// TakeawayCustomers summarises non-cancelled orders per customer, biggest
// spender first.
func (s *OrderService) TakeawayCustomers(ctx context.Context, ownerID, restaurantID uuid.UUID) ([]types.TakeawayCustomer, error) {
	if err := canManageRestaurant(ctx, s.db, ownerID, restaurantID); err != nil {
		return nil, err
	}
	var rows []struct {
		UserID     uuid.UUID
		Name       string
		Email      string
		TotalSpent int
		OrderCount int
	}
	err := s.db.WithContext(ctx).
		Table("takeaway_orders AS o").
		Select("o.user_id, u.name, u.email, SUM(o.total) AS total_spent, COUNT(*) AS order_count").
		Joins("JOIN users u ON u.id = o.user_id").
		Where("o.restaurant_id = ? AND o.status <> ?", restaurantID, models.OrderCancelled).
		Group("o.user_id, u.name, u.email").
		Order("total_spent DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate customers: %w", err)
	}
	out := make([]types.TakeawayCustomer, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.TakeawayCustomer{
			UserID:       r.UserID,
			Name:         r.Name,
			Email:        r.Email,
			TotalSpent:   r.TotalSpent,
			OrderCount:   r.OrderCount,
			AverageOrder: int(math.Round(float64(r.TotalSpent) / float64(r.OrderCount))),
		})
	}
	return out, nil
}

// ReservationCustomers counts each organizer's reservations at the
// restaurant, ignoring rejected and cancelled ones.
func (s *OrderService) ReservationCustomers(ctx context.Context, ownerID, restaurantID uuid.UUID) ([]types.ReservationCustomer, error) {
	if err := canManageRestaurant(ctx, s.db, ownerID, restaurantID); err != nil {
		return nil, err
	}
	var out []types.ReservationCustomer
	err := s.db.WithContext(ctx).
		Table("lunch_events AS e").
		Select("e.organizer_id AS user_id, u.name, COUNT(*) AS reservations").
		Joins("JOIN users u ON u.id = e.organizer_id").
		Where("e.restaurant_id = ? AND e.status NOT IN ?", restaurantID, []string{models.EventRejected, models.EventCancelled}).
		Group("e.organizer_id, u.name").
		Order("reservations DESC").Order("u.name").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reservations: %w", err)
	}
	return out, nil
}
