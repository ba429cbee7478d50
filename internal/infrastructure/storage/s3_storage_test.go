package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/wazhop/backend/internal/infrastructure/config"
	"go.uber.org/zap/zaptest"
)

func testStorageConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Bucket:          "wazhop-test",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Endpoint:        "http://localhost:9000",
		UsePathStyle:    true,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.Bucket = ""
		_, err := NewS3ObjectStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing credentials return error", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.SecretAccessKey = ""
		_, err := NewS3ObjectStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "credentials are required")
	})

	t.Run("valid config uses defaults", func(t *testing.T) {
		s, err := NewS3ObjectStorage(testStorageConfig())
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, s.presignExpiry)
		assert.Equal(t, "wazhop-test", s.Bucket())
	})
}

func TestS3ObjectStorage_PublicURL(t *testing.T) {
	t.Run("configured base", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.PublicBaseURL = "https://cdn.wazhop.ng/"
		s, err := NewS3ObjectStorage(cfg)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.wazhop.ng/wazhop/products/a.jpg", s.PublicURL("wazhop/products/a.jpg"))
	})

	t.Run("endpoint with bucket", func(t *testing.T) {
		s, err := NewS3ObjectStorage(testStorageConfig())
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9000/wazhop-test/a.jpg", s.PublicURL("a.jpg"))
	})

	t.Run("aws virtual host", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.Endpoint = ""
		cfg.Region = "eu-west-1"
		s, err := NewS3ObjectStorage(cfg)
		require.NoError(t, err)
		assert.Equal(t, "https://wazhop-test.s3.eu-west-1.amazonaws.com/a.jpg", s.PublicURL("a.jpg"))
	})
}

func TestS3ObjectStorage_GenerateUploadURL(t *testing.T) {
	s, err := NewS3ObjectStorage(testStorageConfig(), WithPresignExpiry(5*time.Minute))
	require.NoError(t, err)

	t.Run("empty key returns error", func(t *testing.T) {
		_, _, err := s.GenerateUploadURL(context.Background(), "", "image/png", 0)
		assert.ErrorIs(t, err, ErrEmptyKey)
	})

	t.Run("presigns against the bucket", func(t *testing.T) {
		url, expiresAt, err := s.GenerateUploadURL(context.Background(), "wazhop/logo.png", "image/png", 0)
		require.NoError(t, err)
		assert.Contains(t, url, "/wazhop-test/wazhop/logo.png")
		assert.Contains(t, url, "X-Amz-Signature")
		assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, 5*time.Second)
	})
}

func TestS3ObjectStorage_EmptyKeys(t *testing.T) {
	s, err := NewS3ObjectStorage(testStorageConfig())
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, s.DeleteObject(ctx, ""), ErrEmptyKey)
	_, err = s.ObjectSize(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.ErrorIs(t, s.Upload(ctx, "", []byte("x"), "text/plain"), ErrEmptyKey)
}

// newMinioStorage starts MinIO in a container. Set STORAGE_INTEGRATION=1 to run.
func newMinioStorage(t *testing.T) *S3ObjectStorage {
	t.Helper()
	if testing.Short() || os.Getenv("STORAGE_INTEGRATION") == "" {
		t.Skip("set STORAGE_INTEGRATION=1 to run against MinIO")
	}
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "minio/minio:latest",
			Cmd:          []string{"server", "/data"},
			ExposedPorts: []string{"9000/tcp"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     "wazhopadmin",
				"MINIO_ROOT_PASSWORD": "wazhopadmin123",
			},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	s, err := NewS3ObjectStorage(&config.StorageConfig{
		Bucket:          "wazhop-integration",
		AccessKeyID:     "wazhopadmin",
		SecretAccessKey: "wazhopadmin123",
		Endpoint:        fmt.Sprintf("http://%s:%s", host, port.Port()),
		UsePathStyle:    true,
	}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	require.NoError(t, s.EnsureBucket(ctx))
	return s
}

func TestIntegration_UploadSizeDelete(t *testing.T) {
	s := newMinioStorage(t)
	ctx := context.Background()
	key := "integration/" + strings.Repeat("a", 8) + ".txt"

	require.NoError(t, s.Upload(ctx, key, []byte("hello wazhop"), "text/plain"))
	size, err := s.ObjectSize(ctx, key)
	require.NoError(t, err)
	assert.EqualValues(t, len("hello wazhop"), size)

	require.NoError(t, s.DeleteObject(ctx, key))
	size, err = s.ObjectSize(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, size)

	require.NoError(t, s.EnsureBucket(ctx))
}
