package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/testhelpers"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func multipartBody(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="image"; filename="foto.png"`)
		h.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func (s *testServer) upload(t *testing.T, path, token string, fields map[string]string, image []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fields, image)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestCatalogReads(t *testing.T) {
	s := newTestServer(t)
	near := testhelpers.CreateRestaurant(t, s.db, func(r *models.Restaurant) { r.Name = "La Fuente"; r.IsFeatured = true })
	testhelpers.CreateRestaurant(t, s.db, func(r *models.Restaurant) {
		p := testhelpers.Near(10)
		r.Name = "Lejano"
		r.Latitude, r.Longitude = p.Lat, p.Lon
	})
	testhelpers.CreateMenuItem(t, s.db, near.ID, nil)

	w := s.do(t, http.MethodGet, "/api/v1/restaurants", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Restaurant](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "La Fuente", list[0].Name)

	w = s.do(t, http.MethodGet, "/api/v1/restaurants/featured", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Restaurant](t, w), 1)

	w = s.do(t, http.MethodGet, "/api/v1/restaurants/"+near.ID.String(), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/restaurants/"+near.ID.String()+"/menu", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.MenuItem](t, w), 1)

	p := testhelpers.Near(10)
	w = s.do(t, http.MethodGet, "/api/v1/restaurants?lat="+ftoa(p.Lat)+"&lon="+ftoa(p.Lon), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decode[[]models.Restaurant](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Lejano", list[0].Name)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/restaurants/not-a-uuid", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/restaurants/nearby?max_km=-1", "", nil).Code)

	w = s.do(t, http.MethodGet, "/api/v1/cuisines", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Chilena"}, decode[[]string](t, w))
}

func TestFavoritesRoutes(t *testing.T) {
	s := newTestServer(t)
	r := testhelpers.CreateRestaurant(t, s.db, nil)
	_, token := s.user(t, models.RoleEater)

	path := "/api/v1/restaurants/" + r.ID.String() + "/favorite"
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, path, "", nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodPost, path, token, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodPost, path, token, nil).Code)

	w := s.do(t, http.MethodGet, "/api/v1/me/favorites", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Restaurant](t, w), 1)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, path, token, nil).Code)
	w = s.do(t, http.MethodGet, "/api/v1/me/favorites", token, nil)
	assert.Empty(t, decode[[]models.Restaurant](t, w))
}

func TestOwnerWrites(t *testing.T) {
	s := newTestServer(t)
	owner, ownerToken := s.user(t, models.RoleRestaurantOwner)
	_, strangerToken := s.user(t, models.RoleRestaurantOwner)
	_, eaterToken := s.user(t, models.RoleEater)

	p := testhelpers.Near(0.5)
	req := types.RestaurantRequest{
		Name: "Picá Don Tito", Latitude: p.Lat, Longitude: p.Lon, Cuisine: "Chilena",
		Services: []string{"dine-in", "takeaway"}, PriceLevel: 1,
	}

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/api/v1/restaurants", eaterToken, req).Code)

	w := s.do(t, http.MethodPost, "/api/v1/restaurants", ownerToken, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Restaurant](t, w)
	require.NotNil(t, created.OwnerID)
	assert.Equal(t, owner.ID, *created.OwnerID)

	base := "/api/v1/restaurants/" + created.ID.String()
	item := types.MenuItemRequest{Name: "Porotos granados", Price: 5900, AvailableForTakeaway: true}
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, base+"/menu", strangerToken, item).Code)

	w = s.do(t, http.MethodPost, base+"/menu", ownerToken, item)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	menuItem := decode[models.MenuItem](t, w)

	item.Price = 6200
	w = s.do(t, http.MethodPut, base+"/menu/"+menuItem.ID.String(), ownerToken, item)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 6200, decode[models.MenuItem](t, w).Price)

	w = s.do(t, http.MethodPost, base+"/menu", ownerToken, types.MenuItemRequest{Name: "Gratis", Price: 100, SalePrice: testhelpers.IntPtr(500)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.upload(t, base+"/image", ownerToken, nil, pngHeader)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, s.s3.keys, 1)
	assert.Contains(t, s.s3.keys[0], "restaurants/"+created.ID.String()+"/")

	var stored models.Restaurant
	require.NoError(t, s.db.First(&stored, "id = ?", created.ID).Error)
	assert.Contains(t, stored.ImageURL, s.s3.keys[0])

	w = s.upload(t, base+"/image", ownerToken, nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, base+"/menu/"+menuItem.ID.String(), ownerToken, nil).Code)
}

func TestAdminRestaurantList(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, models.RoleAdmin)
	_, eaterToken := s.user(t, models.RoleEater)
	testhelpers.CreateRestaurant(t, s.db, func(r *models.Restaurant) {
		p := testhelpers.Near(50)
		r.Latitude, r.Longitude = p.Lat, p.Lon
	})

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/v1/admin/restaurants", eaterToken, nil).Code)
	w := s.do(t, http.MethodGet, "/api/v1/admin/restaurants", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Restaurant](t, w), 1)
}
