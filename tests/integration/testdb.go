// Package integration runs the persistence layer and the embedded schema
// migrations against a real PostgreSQL started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/wazhop/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	containerOnce sync.Once
	container     *tcpostgres.PostgresContainer
	containerDSN  string
	containerErr  error
)

// TestDB is a migrated PostgreSQL database shared by the package's tests
type TestDB struct {
	DB    *gorm.DB
	SqlDB *sql.DB
	DSN   string
	t     *testing.T
}

func startContainer() {
	ctx := context.Background()
	container, containerErr = tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("wazhop_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("wazhop"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if containerErr != nil {
		return
	}
	containerDSN, containerErr = container.ConnectionString(ctx, "sslmode=disable")
}

// NewTestDB returns a connection to the shared container with every
// migration applied and all tables emptied. Tests are skipped in short
// mode or when Docker is unavailable.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}

	containerOnce.Do(startContainer)
	if containerErr != nil {
		t.Skipf("postgres container unavailable: %v", containerErr)
	}

	m := NewMigrator(t)
	require.NoError(t, m.Up())

	sqlDB, err := sql.Open("postgres", containerDSN)
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(5)

	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormCfg.Logger = logger.Default.LogMode(logger.Info)
	}
	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB}), gormCfg)
	require.NoError(t, err)

	tdb := &TestDB{DB: db, SqlDB: sqlDB, DSN: containerDSN, t: t}
	tdb.CleanTables()
	t.Cleanup(func() { _ = sqlDB.Close() })
	return tdb
}

// NewMigrator opens a Migrator on its own connection, closed with the test
func NewMigrator(t *testing.T) *migration.Migrator {
	t.Helper()

	sqlDB, err := sql.Open("postgres", containerDSN)
	require.NoError(t, err)
	m, err := migration.New(sqlDB, migration.Options{}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

// CleanTables truncates every application table
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public' AND tablename <> 'schema_migrations'
	`).Scan(&tables).Error
	require.NoError(tdb.t, err)

	for _, table := range tables {
		require.NoError(tdb.t, tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %q CASCADE", table)).Error)
	}
}

// TerminateContainer stops the shared container; call from TestMain
func TerminateContainer() {
	if container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = container.Terminate(ctx)
}
