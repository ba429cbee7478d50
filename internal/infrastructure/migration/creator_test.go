package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add shops table", "add_shops_table"},
		{"Add-Boost-Columns", "add_boost_columns"},
		{"ADD__COUPON__INDEX", "add_coupon_index"},
		{"orders 2", "orders_2"},
		{"   padded   ", "padded"},
		{"symbols!@#only", "symbolsonly"},
		{"_leading and trailing_", "leading_and_trailing"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_Sequential(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add shops table", "Shops owned by sellers")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, "000001_add_shops_table.up.sql", filepath.Base(first.UpPath))
	assert.Equal(t, "000001_add_shops_table.down.sql", filepath.Base(first.DownPath))

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add_shops_table")
	assert.Contains(t, string(up), "-- Description: Shops owned by sellers")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(Rollback)")

	second, err := CreateMigration(dir, "Boost columns", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	up, err = os.ReadFile(second.UpPath)
	require.NoError(t, err)
	assert.NotContains(t, string(up), "Description")
}

func TestCreateMigration_ContinuesAfterHighestVersion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_existing.up.sql"), nil, 0o644))

	mf, err := CreateMigration(dir, "next", "")
	require.NoError(t, err)
	assert.Equal(t, uint(8), mf.Version)
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	mf, err := CreateMigration(dir, "init", "")
	require.NoError(t, err)
	assert.FileExists(t, mf.UpPath)
	assert.FileExists(t, mf.DownPath)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_add_coupons.up.sql",
		"000002_add_coupons.down.sql",
		"000001_init_schema.up.sql",
		"000001_init_schema.down.sql",
		"000003_half_written.up.sql",
		"README.md",
		"notes.up.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "000004_dir.up.sql"), 0o755))

	list, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []MigrationInfo{
		{Version: 1, Name: "init_schema", HasUp: true, HasDown: true},
		{Version: 2, Name: "add_coupons", HasUp: true, HasDown: true},
		{Version: 3, Name: "half_written", HasUp: true},
	}, list)
	assert.False(t, list[2].Complete())
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	list, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListMigrations_Repository(t *testing.T) {
	list, err := ListMigrations(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.Equal(t, uint(1), list[0].Version)
	for _, m := range list {
		assert.True(t, m.Complete(), "migration %06d_%s lacks a direction", m.Version, m.Name)
	}
}
