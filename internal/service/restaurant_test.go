package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/almuerzo-cl/almuerzo/backend/internal/geo"
	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/testhelpers"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

func newCatalog(t *testing.T) (*CatalogService, *gorm.DB) {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	return NewCatalogService(db, HashEmbedder{}, testhelpers.Origin, 4, time.UTC, nil), db
}

func at(km float64) func(r *models.Restaurant) {
	return func(r *models.Restaurant) {
		p := testhelpers.Near(km)
		r.Latitude, r.Longitude = p.Lat, p.Lon
	}
}

func names(list []models.Restaurant) []string {
	out := make([]string, 0, len(list))
	for _, r := range list {
		out = append(out, r.Name)
	}
	return out
}

func TestCatalogOrigin(t *testing.T) {
	catalog, _ := newCatalog(t)

	assert.Equal(t, testhelpers.Origin, catalog.Origin(nil))
	assert.Equal(t, testhelpers.Origin, catalog.Origin(&geo.Point{Lat: 95, Lon: 0}))
	assert.Equal(t, testhelpers.Origin, catalog.Origin(&geo.Point{}))

	p := geo.Point{Lat: -33.45, Lon: -70.66}
	assert.Equal(t, p, catalog.Origin(&p))
}

func TestListRestaurantsDistanceAndSort(t *testing.T) {
	catalog, db := newCatalog(t)
	ctx := context.Background()

	testhelpers.CreateRestaurant(t, db, func(r *models.Restaurant) { at(3)(r); r.Name = "Alto"; r.AlmuerzoRating = 4.8 })
	testhelpers.CreateRestaurant(t, db, func(r *models.Restaurant) { at(0.5)(r); r.Name = "Bajo"; r.AlmuerzoRating = 3.9 })
	testhelpers.CreateRestaurant(t, db, func(r *models.Restaurant) { at(6)(r); r.Name = "Lejano" })

	list, err := catalog.ListRestaurants(ctx, types.RestaurantFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bajo", "Alto"}, names(list))
	assert.InDelta(t, 0.5, list[0].DistanceKm, 0.02)

	list, err = catalog.ListRestaurants(ctx, types.RestaurantFilter{Sort: "rating"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alto", "Bajo"}, names(list))

	// measured from a different origin the far one comes into range
	origin := testhelpers.Near(5)
	list, err = catalog.ListRestaurants(ctx, types.RestaurantFilter{Origin: &origin, Sort: "name"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alto", "Lejano"}, names(list))

	_, err = catalog.ListRestaurants(ctx, types.RestaurantFilter{Sort: "random"})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestListRestaurantsFilters(t *testing.T) {
	catalog, db := newCatalog(t)
	ctx := context.Background()

	testhelpers.CreateRestaurant(t, db, func(r *models.Restaurant) {
		r.Name = "Sushi Ñuñoa"
		r.Cuisine = "Japonesa"
		r.PriceLevel = 3
		r.Services = models.StringList{models.ServiceTakeaway}
	})
	testhelpers.CreateRestaurant(t, db, func(r *models.Restaurant) { r.Name = "La Picá de la Esquina" })

	list, err := catalog.ListRestaurants(ctx, types.RestaurantFilter{Cuisine: "japonesa"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sushi Ñuñoa"}, names(list))

	list, err = catalog.ListRestaurants(ctx, types.RestaurantFilter{Service: "dine-in"})
	require.NoError(t, err)
	assert.Equal(t, []string{"La Picá de la Esquina"}, names(list))

	list, err = catalog.ListRestaurants(ctx, types.RestaurantFilter{Query: "esquina"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = catalog.ListRestaurants(ctx, types.RestaurantFilter{PriceLevel: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sushi Ñuñoa"}, names(list))
}

func TestGetRestaurantBeyondLimit(t *testing.T) {
	catalog, db := newCatalog(t)
	near := testhelpers.CreateRestaurant(t, db, nil)
	far := testhelpers.CreateRestaurant(t, db, at(8))

	got, err := catalog.GetRestaurant(context.Background(), near.ID, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got.DistanceKm, 0.02)

	_, err = catalog.GetRestaurant(context.Background(), far.ID, nil)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = catalog.GetRestaurant(context.Background(), uuid.New(), nil)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCatalogFlagListings(t *testing.T) {
	catalog, db := newCatalog(t)
	ctx := context.Background()

	testhelpers.CreateRestaurant(t, db, func(r *models.Restaurant) { r.Name = "Destacado"; r.IsFeatured = true })
	testhelpers.CreateRestaurant(t, db, func(r *models.Restaurant) { r.Name = "Oferta"; r.HasSuperOffer = true })
	testhelpers.CreateRestaurant(t, db, func(r *models.Restaurant) { r.Name = "Joya"; r.IsHiddenGem = true })
	testhelpers.CreateRestaurant(t, db, func(r *models.Restaurant) { r.Name = "Nuevo"; r.IsNew = true })
	testhelpers.CreateRestaurant(t, db, func(r *models.Restaurant) { at(9)(r); r.Name = "Nuevo lejano"; r.IsNew = true })

	list, err := catalog.ListFeatured(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Destacado"}, names(list))

	list, err = catalog.ListSuperOffers(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Oferta"}, names(list))

	list, err = catalog.ListHiddenGems(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Joya"}, names(list))

	list, err = catalog.ListNew(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Nuevo"}, names(list))
}

func TestListPromotionsAndDiscounts(t *testing.T) {
	catalog, db := newCatalog(t)
	ctx := context.Background()

	var promoted []*models.Restaurant
	for i := 0; i < 5; i++ {
		r := testhelpers.CreateRestaurant(t, db, at(0.5+float64(i)*0.5))
		promoted = append(promoted, r)
		_, err := catalog.CreateDiscount(ctx, r.ID, &types.DiscountRequest{
			Sponsor:    "Coca-Cola",
			Type:       models.DiscountPercent,
			Amount:     15,
			ValidFrom:  testNow.AddDate(0, 0, -1),
			ValidTo:    testNow.AddDate(0, 0, 7),
			DaysOfWeek: []string{"Martes"},
			AppliesTo:  "Todo el menú",
		})
		require.NoError(t, err)
	}
	testhelpers.CreateRestaurant(t, db, nil)

	list, err := catalog.ListPromotions(ctx, nil, 0)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, promoted[0].ID, list[0].ID)
	assert.Len(t, list[0].Discounts, 1)

	active, err := catalog.ListActiveDiscounts(ctx, testNow)
	require.NoError(t, err)
	assert.Len(t, active, 5)

	active, err = catalog.ListActiveDiscounts(ctx, testNow.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, active, "wednesday is not a discount day")

	_, err = catalog.CreateDiscount(ctx, promoted[0].ID, &types.DiscountRequest{Type: models.DiscountPercent, Amount: 120})
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = catalog.CreateDiscount(ctx, promoted[0].ID, &types.DiscountRequest{Type: "x", Amount: 1})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestListNearbyIsStrict(t *testing.T) {
	catalog, db := newCatalog(t)
	testhelpers.CreateRestaurant(t, db, func(r *models.Restaurant) { at(0.3)(r); r.Name = "Cerca" })
	testhelpers.CreateRestaurant(t, db, func(r *models.Restaurant) { at(1.5)(r); r.Name = "Medio" })

	list, err := catalog.ListNearby(context.Background(), nil, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cerca"}, names(list))
}

func TestListTakeawayMenus(t *testing.T) {
	catalog, db := newCatalog(t)

	withMenu := testhelpers.CreateRestaurant(t, db, nil)
	testhelpers.CreateMenuItem(t, db, withMenu.ID, nil)
	testhelpers.CreateMenuItem(t, db, withMenu.ID, func(m *models.MenuItem) {
		m.Name = "Plato del día en local"
		m.AvailableForTakeaway = false
	})

	dineInOnly := testhelpers.CreateRestaurant(t, db, nil)
	testhelpers.CreateMenuItem(t, db, dineInOnly.ID, func(m *models.MenuItem) { m.AvailableForTakeaway = false })

	noService := testhelpers.CreateRestaurant(t, db, func(r *models.Restaurant) { r.Services = models.StringList{models.ServiceDineIn} })
	testhelpers.CreateMenuItem(t, db, noService.ID, nil)

	list, err := catalog.ListTakeawayMenus(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, withMenu.ID, list[0].ID)
	require.Len(t, list[0].MenuItems, 1)
	assert.True(t, list[0].MenuItems[0].AvailableForTakeaway)
}

func TestFavoritesAndSubscriptions(t *testing.T) {
	catalog, db := newCatalog(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, db, models.RoleEater)
	other := testhelpers.CreateUser(t, db, models.RoleEater)
	r := testhelpers.CreateRestaurant(t, db, func(r *models.Restaurant) {
		r.Services = append(r.Services, models.ServiceDailyMenu)
	})
	plain := testhelpers.CreateRestaurant(t, db, nil)

	require.NoError(t, catalog.AddFavorite(ctx, user.ID, r.ID))
	require.NoError(t, catalog.AddFavorite(ctx, user.ID, r.ID))
	assert.True(t, errors.Is(catalog.AddFavorite(ctx, user.ID, uuid.New()), ErrNotFound))

	favs, err := catalog.ListFavorites(ctx, user.ID, nil)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, r.ID, favs[0].ID)

	favs, err = catalog.ListFavorites(ctx, other.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, favs)

	ids, err := catalog.FavoriteIDs(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, ids[r.ID])

	require.NoError(t, catalog.RemoveFavorite(ctx, user.ID, r.ID))
	require.NoError(t, catalog.RemoveFavorite(ctx, user.ID, r.ID))
	favs, err = catalog.ListFavorites(ctx, user.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, favs)

	require.NoError(t, catalog.Subscribe(ctx, user.ID, r.ID))
	require.NoError(t, catalog.Subscribe(ctx, user.ID, r.ID))
	assert.True(t, errors.Is(catalog.Subscribe(ctx, user.ID, plain.ID), ErrInvalidInput))

	subs, err := catalog.ListSubscribed(ctx, user.ID, nil)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	require.NoError(t, catalog.Unsubscribe(ctx, user.ID, r.ID))
	subs, err = catalog.ListSubscribed(ctx, user.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestListCuisinesAndPaymentMethods(t *testing.T) {
	catalog, db := newCatalog(t)
	testhelpers.CreateRestaurant(t, db, func(r *models.Restaurant) {
		r.Cuisine = "Peruana"
		r.PaymentMethods = models.StringList{"efectivo", "Junaeb"}
	})
	testhelpers.CreateRestaurant(t, db, func(r *models.Restaurant) { r.Cuisine = "Chilena" })
	testhelpers.CreateRestaurant(t, db, func(r *models.Restaurant) { r.Cuisine = "Chilena"; r.PaymentMethods = nil })

	cuisines, err := catalog.ListCuisines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Chilena", "Peruana"}, cuisines)

	methods, err := catalog.ListPaymentMethods(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Junaeb", "efectivo", "tarjeta"}, methods)
}

func TestRestaurantWrites(t *testing.T) {
	catalog, db := newCatalog(t)
	ctx := context.Background()
	owner := testhelpers.CreateUser(t, db, models.RoleRestaurantOwner)
	p := testhelpers.Near(2)

	req := &types.RestaurantRequest{
		Name:      "El Hoyo",
		Latitude:  p.Lat,
		Longitude: p.Lon,
		Cuisine:   "Chilena",
		Services:  []string{"dine-in", "takeaway"},
	}
	r, err := catalog.CreateRestaurant(ctx, &owner.ID, req)
	require.NoError(t, err)
	assert.Equal(t, models.StringList{models.ServiceDineIn, models.ServiceTakeaway}, r.Services)
	assert.Equal(t, models.DefaultTakeawayMinutes, r.TakeawayMinutes)
	assert.Equal(t, 2, r.PriceLevel)

	owns, err := catalog.IsOwner(ctx, owner.ID, r.ID)
	require.NoError(t, err)
	assert.True(t, owns)

	req.Name = "El Hoyo de San Pablo"
	req.PriceLevel = 1
	updated, err := catalog.UpdateRestaurant(ctx, r.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "El Hoyo de San Pablo", updated.Name)
	require.NotNil(t, updated.OwnerID)
	assert.Equal(t, owner.ID, *updated.OwnerID)

	require.NoError(t, catalog.SetRestaurantImage(ctx, r.ID, "https://img/hoyo.jpg"))
	assert.True(t, errors.Is(catalog.SetRestaurantImage(ctx, uuid.New(), "x"), ErrNotFound))

	bad := []*types.RestaurantRequest{
		{Name: "", Latitude: p.Lat, Longitude: p.Lon},
		{Name: "Sin ubicación"},
		{Name: "Caro", Latitude: p.Lat, Longitude: p.Lon, PriceLevel: 5},
		{Name: "Raro", Latitude: p.Lat, Longitude: p.Lon, Services: []string{"delivery"}},
		{Name: "Estricto", Latitude: p.Lat, Longitude: p.Lon, NoShowPolicyMinutes: testhelpers.IntPtr(0)},
	}
	for _, b := range bad {
		_, err := catalog.CreateRestaurant(ctx, nil, b)
		assert.True(t, errors.Is(err, ErrInvalidInput), b.Name)
	}

	all, err := catalog.ListAllRestaurants(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMenuItemWritesMaintainEmbeddings(t *testing.T) {
	catalog, db := newCatalog(t)
	ctx := context.Background()
	r := testhelpers.CreateRestaurant(t, db, nil)

	sale := 5500
	item, err := catalog.CreateMenuItem(ctx, r.ID, &types.MenuItemRequest{
		Name:                 "Pastel de choclo",
		Description:          "Con pino de carne y pollo",
		Price:                7900,
		SalePrice:            &sale,
		AvailableForTakeaway: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 5500, item.UnitPrice())

	var emb models.MenuItemEmbedding
	require.NoError(t, db.First(&emb, "menu_item_id = ?", item.ID).Error)
	assert.Equal(t, r.ID, emb.RestaurantID)
	assert.Len(t, emb.Embedding.Slice(), EmbeddingDimensions)
	before := emb.Embedding.Slice()

	_, err = catalog.UpdateMenuItem(ctx, r.ID, item.ID, &types.MenuItemRequest{Name: "Porotos granados", Price: 6900})
	require.NoError(t, err)
	require.NoError(t, db.First(&emb, "menu_item_id = ?", item.ID).Error)
	assert.Less(t, Cosine(before, emb.Embedding.Slice()), 0.99)

	var count int64
	db.Model(&models.MenuItemEmbedding{}).Count(&count)
	assert.EqualValues(t, 1, count)

	menu, err := catalog.ListMenu(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, menu, 1)
	assert.Equal(t, "Porotos granados", menu[0].Name)

	n, err := catalog.ReindexEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	other := testhelpers.CreateRestaurant(t, db, nil)
	_, err = catalog.UpdateMenuItem(ctx, other.ID, item.ID, &types.MenuItemRequest{Name: "x"})
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, catalog.DeleteMenuItem(ctx, r.ID, item.ID))
	db.Model(&models.MenuItemEmbedding{}).Count(&count)
	assert.Zero(t, count)
	assert.True(t, errors.Is(catalog.DeleteMenuItem(ctx, r.ID, item.ID), ErrNotFound))

	tooHigh := 9000
	_, err = catalog.CreateMenuItem(ctx, r.ID, &types.MenuItemRequest{Name: "Caro", Price: 8000, SalePrice: &tooHigh})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
