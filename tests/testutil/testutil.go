// Package testutil holds the fixtures shared by WaZhop tests: an in-memory
// schema, a sqlmock-backed postgres handle and HTTP helpers.
package testutil

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wazhop/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var seedNamespace = uuid.MustParse("0c4e1a6e-5b7f-4c1d-9a63-7a1f2a9d1e40")

// NewSQLiteDB opens an in-memory SQLite database with every WaZhop table.
// One connection keeps the database alive until the test ends.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "open sqlite")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...), "migrate sqlite")
	return db
}

// NewMockGorm returns a postgres-dialect handle over sqlmock. Unmet
// expectations fail the test at cleanup.
func NewMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err, "create sqlmock")

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open gorm over sqlmock")

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet(), "unmet sql expectations")
		_ = conn.Close()
	})
	return db, mock
}

// SeedID derives a stable UUID from name so fixtures can refer to the same
// shop or user across tests.
func SeedID(name string) uuid.UUID {
	return uuid.NewSHA1(seedNamespace, []byte(name))
}
