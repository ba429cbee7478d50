package persistence

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wazhop/backend/internal/domain/catalog"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/storefront"
	"github.com/wazhop/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory SQLite database with every table migrated.
// One connection keeps the in-memory database alive for the whole test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func newTestUser(t *testing.T, email string) *identity.User {
	t.Helper()
	u, err := identity.NewUser("Ada Obi", email, "secret123", "+2348012345678")
	require.NoError(t, err)
	return u
}

func newTestShop(t *testing.T, owner uuid.UUID, slug, location string) *storefront.Shop {
	t.Helper()
	s, err := storefront.NewShop(owner, identity.PlanFree, "Shop "+slug, slug, "", storefront.CategoryFashion, location)
	require.NoError(t, err)
	return s
}

func newTestProduct(t *testing.T, shopID uuid.UUID, name string, price int64, tags ...string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(shopID, catalog.ProductInput{
		Name:        name,
		Description: "A lovely " + name,
		Price:       decimal.NewFromInt(price),
		Category:    "fashion",
		Tags:        tags,
	}, 0)
	require.NoError(t, err)
	return p
}
