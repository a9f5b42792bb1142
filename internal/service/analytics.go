package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

const topDishesLimit = 5

// spendingBuckets are the upper bounds, exclusive, of the order total ranges.
var spendingBuckets = []int{10000, 20000, 30000}

// weekdayLabels start on Monday.
var weekdayLabels = []string{"Lun", "Mar", "Mié", "Jue", "Vie", "Sáb", "Dom"}

func (s *OrderService) restaurantOrders(ctx context.Context, restaurantID uuid.UUID, since time.Time, withCancelled bool) ([]models.TakeawayOrder, error) {
	q := s.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since.UTC())
	}
	if !withCancelled {
		q = q.Where("status <> ?", models.OrderCancelled)
	}
	var orders []models.TakeawayOrder
	if err := q.Preload("Items").Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	return orders, nil
}

// CustomerHabits aggregates the restaurant's non-cancelled orders placed
// since the given time: spend ranges, best selling dishes by quantity and
// activity per hour and weekday in the local zone.
func (s *OrderService) CustomerHabits(ctx context.Context, ownerID, restaurantID uuid.UUID, since time.Time) (*types.CustomerHabits, error) {
	if err := canManageRestaurant(ctx, s.db, ownerID, restaurantID); err != nil {
		return nil, err
	}
	orders, err := s.restaurantOrders(ctx, restaurantID, since, false)
	if err != nil {
		return nil, err
	}

	spend := make([]int, len(spendingBuckets)+1)
	var hours [24]int
	var days [7]int
	dishes := map[string]int{}
	for _, o := range orders {
		spend[sort.SearchInts(spendingBuckets, o.Total+1)]++
		local := o.CreatedAt.In(s.msgs.loc)
		hours[local.Hour()]++
		days[(int(local.Weekday())+6)%7]++
		for _, it := range o.Items {
			dishes[it.Name] += it.Quantity
		}
	}

	out := &types.CustomerHabits{Orders: len(orders)}
	for i, n := range spend {
		out.SpendingDistribution = append(out.SpendingDistribution, types.ChartPoint{Name: s.spendingLabel(i), Value: n})
	}
	for h, n := range hours {
		if n > 0 {
			out.HourlyActivity = append(out.HourlyActivity, types.ChartPoint{Name: fmt.Sprintf("%02d:00", h), Value: n})
		}
	}
	for d, n := range days {
		out.DailyActivity = append(out.DailyActivity, types.ChartPoint{Name: weekdayLabels[d], Value: n})
	}

	out.TopDishes = make([]types.ChartPoint, 0, len(dishes))
	for name, qty := range dishes {
		out.TopDishes = append(out.TopDishes, types.ChartPoint{Name: name, Value: qty})
	}
	sort.Slice(out.TopDishes, func(i, j int) bool {
		if out.TopDishes[i].Value != out.TopDishes[j].Value {
			return out.TopDishes[i].Value > out.TopDishes[j].Value
		}
		return out.TopDishes[i].Name < out.TopDishes[j].Name
	})
	if len(out.TopDishes) > topDishesLimit {
		out.TopDishes = out.TopDishes[:topDishesLimit]
	}
	if out.HourlyActivity == nil {
		out.HourlyActivity = []types.ChartPoint{}
	}
	return out, nil
}

func (s *OrderService) spendingLabel(bucket int) string {
	switch {
	case bucket == 0:
		return "Menos de " + s.msgs.Money(spendingBuckets[0])
	case bucket == len(spendingBuckets):
		return s.msgs.Money(spendingBuckets[bucket-1]) + " o más"
	default:
		return s.msgs.Money(spendingBuckets[bucket-1]) + " a " + s.msgs.Money(spendingBuckets[bucket]-1)
	}
}

// Transactions lists the money movements of the restaurant's orders, newest
// first. Each live order yields the platform's service fee and the payout of
// its subtotal to the restaurant, completed once delivered; a cancelled order
// yields a refund of its total.
func (s *OrderService) Transactions(ctx context.Context, ownerID, restaurantID uuid.UUID, since time.Time) ([]types.Transaction, error) {
	if err := canManageRestaurant(ctx, s.db, ownerID, restaurantID); err != nil {
		return nil, err
	}
	orders, err := s.restaurantOrders(ctx, restaurantID, since, true)
	if err != nil {
		return nil, err
	}

	out := make([]types.Transaction, 0, 2*len(orders))
	for _, o := range orders {
		if o.Status == models.OrderCancelled {
			out = append(out, types.Transaction{
				ID: o.ID.String() + ":" + models.TransactionRefund, OrderID: o.ID, Type: models.TransactionRefund,
				Amount: o.Total, Status: models.TransactionCompleted, Date: o.UpdatedAt,
			})
			continue
		}
		status := models.TransactionProcessing
		if o.Status == models.OrderDelivered {
			status = models.TransactionCompleted
		}
		out = append(out,
			types.Transaction{
				ID: o.ID.String() + ":" + models.TransactionServiceFee, OrderID: o.ID, Type: models.TransactionServiceFee,
				Amount: o.ServiceFee, Status: status, Date: o.CreatedAt,
			},
			types.Transaction{
				ID: o.ID.String() + ":" + models.TransactionPayout, OrderID: o.ID, Type: models.TransactionPayout,
				Amount: o.Subtotal, Status: status, Date: o.CreatedAt,
			})
	}
	return out, nil
}
