package migration

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSource_Embedded(t *testing.T) {
	src, err := OpenSource(Options{})
	require.NoError(t, err)
	defer src.Close()

	versions, err := SourceVersions(src)
	require.NoError(t, err)
	require.NotEmpty(t, versions)
	assert.Equal(t, uint(1), versions[0])
}

func TestOpenSource_DirectoryOverride(t *testing.T) {
	src, err := OpenSource(Options{Dir: filepath.Join("..", "..", "..", "migrations")})
	require.NoError(t, err)
	defer src.Close()

	_, err = OpenSource(Options{Dir: filepath.Join(t.TempDir(), "absent")})
	assert.Error(t, err)
}

func TestSourceVersions(t *testing.T) {
	fsys := fstest.MapFS{
		"000001_init.up.sql":     {Data: []byte("SELECT 1;")},
		"000001_init.down.sql":   {Data: []byte("SELECT 1;")},
		"000003_boost.up.sql":    {Data: []byte("SELECT 1;")},
		"000003_boost.down.sql":  {Data: []byte("SELECT 1;")},
		"000002_coupon.up.sql":   {Data: []byte("SELECT 1;")},
		"000002_coupon.down.sql": {Data: []byte("SELECT 1;")},
	}
	src, err := iofs.New(fsys, ".")
	require.NoError(t, err)

	versions, err := SourceVersions(src)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3}, versions)
}

func TestPendingAfter(t *testing.T) {
	versions := []uint{1, 2, 3}
	assert.Equal(t, []uint{1, 2, 3}, pendingAfter(versions, 0))
	assert.Equal(t, []uint{3}, pendingAfter(versions, 2))
	assert.Empty(t, pendingAfter(versions, 3))
}

func TestStatus_UpToDate(t *testing.T) {
	assert.True(t, Status{Current: 3, Latest: 3, Pending: []uint{}}.UpToDate())
	assert.False(t, Status{Current: 2, Latest: 3, Pending: []uint{3}}.UpToDate())
	assert.False(t, Status{Current: 3, Latest: 3, Dirty: true}.UpToDate())
}
