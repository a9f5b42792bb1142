package testhelpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
)

func TestSetupTestDB(t *testing.T) {
	db := SetupTestDB(t)

	owner := CreateUser(t, db, models.RoleRestaurantOwner)
	r := CreateRestaurant(t, db, func(r *models.Restaurant) { r.OwnerID = &owner.ID })
	item := CreateMenuItem(t, db, r.ID, nil)

	var loaded models.Restaurant
	require.NoError(t, db.Preload("MenuItems").First(&loaded, "id = ?", r.ID).Error)
	assert.Equal(t, r.Name, loaded.Name)
	assert.True(t, loaded.Offers("dine-in"))
	require.Len(t, loaded.MenuItems, 1)
	assert.Equal(t, item.ID, loaded.MenuItems[0].ID)
	assert.Equal(t, owner.ID, *loaded.OwnerID)
}

func TestSetupTestDBIsolated(t *testing.T) {
	a := SetupTestDB(t)
	b := SetupTestDB(t)
	CreateUser(t, a, models.RoleEater)

	var count int64
	require.NoError(t, b.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}
