package database_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almuerzo-cl/almuerzo/backend/internal/database"
	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/testhelpers"
)

func TestAutoMigrateCreatesEveryTable(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	assert.False(t, database.IsPostgres(db))
	for _, m := range database.Models() {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}
	require.NoError(t, database.HealthCheck(context.Background(), db))

	user := models.User{Name: "Test User", Email: "test@example.com", PasswordHash: "hashedpassword"}
	require.NoError(t, db.Create(&user).Error)
	assert.NotZero(t, user.ID)
	assert.Equal(t, models.RoleEater, user.Role)
}

func TestRunMigrationsPostgres(t *testing.T) {
	db := testhelpers.SetupPostgresDB(t)
	assert.True(t, database.IsPostgres(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)

	ctx := context.Background()
	dir := filepath.Join("..", "..", "migrations")
	applied, err := database.RunMigrations(ctx, sqlDB, dir, nil)
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, applied, len(entries))

	applied, err = database.RunMigrations(ctx, sqlDB, dir, nil)
	require.NoError(t, err)
	assert.Empty(t, applied)

	var exists bool
	require.NoError(t, sqlDB.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_menu_item_embeddings_hnsw')").Scan(&exists))
	assert.True(t, exists)
}

func TestRunMigrationsMissingDir(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	_, err = database.RunMigrations(context.Background(), sqlDB, filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)
}
