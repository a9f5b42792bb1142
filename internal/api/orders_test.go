package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/testhelpers"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

func TestOrderRoutes(t *testing.T) {
	s := newTestServer(t)
	owner, ownerToken := s.user(t, models.RoleRestaurantOwner)
	_, customerToken := s.user(t, models.RoleEater)
	r := testhelpers.CreateRestaurant(t, s.db, func(r *models.Restaurant) { r.OwnerID = &owner.ID })
	cazuela := testhelpers.CreateMenuItem(t, s.db, r.ID, func(m *models.MenuItem) { m.Stock = testhelpers.IntPtr(2) })

	req := types.CreateOrderRequest{
		RestaurantID: r.ID,
		Items:        []types.OrderItemInput{{MenuItemID: cazuela.ID, Quantity: 2}},
		Pickup:       models.PickupNow,
	}
	w := s.do(t, http.MethodPost, "/api/v1/orders", customerToken, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[models.TakeawayOrder](t, w)
	assert.Equal(t, 13000, order.Subtotal)
	assert.Equal(t, 650, order.ServiceFee)
	assert.Equal(t, 13650, order.Total)

	w = s.do(t, http.MethodPost, "/api/v1/orders", customerToken, req)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "out_of_stock", decode[ErrorResponse](t, w).Code)

	w = s.do(t, http.MethodPost, "/api/v1/orders", customerToken, map[string]interface{}{"restaurant_id": r.ID, "items": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	orderPath := "/api/v1/orders/" + order.ID.String()
	w = s.do(t, http.MethodPut, orderPath+"/status", customerToken, types.UpdateOrderStatusRequest{Status: models.OrderPreparing})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, orderPath+"/status", ownerToken, types.UpdateOrderStatusRequest{Status: models.OrderPreparing})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.OrderPreparing, decode[models.TakeawayOrder](t, w).Status)

	w = s.do(t, http.MethodPut, orderPath+"/status", ownerToken, types.UpdateOrderStatusRequest{Status: models.OrderDelivered})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/orders", customerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.TakeawayOrder](t, w), 1)

	w = s.do(t, http.MethodGet, "/api/v1/restaurants/"+r.ID.String()+"/orders", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.TakeawayOrder](t, w), 1)

	w = s.do(t, http.MethodGet, "/api/v1/restaurants/"+r.ID.String()+"/customers/takeaway", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	customers := decode[[]types.TakeawayCustomer](t, w)
	require.Len(t, customers, 1)
	assert.Equal(t, 13650, customers[0].TotalSpent)

	w = s.do(t, http.MethodGet, "/api/v1/restaurants/"+r.ID.String()+"/orders", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/restaurants/"+r.ID.String()+"/analytics/habits?days=7", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	habits := decode[types.CustomerHabits](t, w)
	assert.Equal(t, 1, habits.Orders)
	assert.Equal(t, []types.ChartPoint{{Name: cazuela.Name, Value: 2}}, habits.TopDishes)

	w = s.do(t, http.MethodGet, "/api/v1/restaurants/"+r.ID.String()+"/transactions", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ledger := decode[[]types.Transaction](t, w)
	require.Len(t, ledger, 2)
	for _, tx := range ledger {
		assert.Equal(t, order.ID, tx.OrderID)
		assert.Equal(t, models.TransactionProcessing, tx.Status)
	}

	w = s.do(t, http.MethodGet, "/api/v1/restaurants/"+r.ID.String()+"/transactions", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/notifications/unread-count", customerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"unread":2}`, w.Body.String())
}
