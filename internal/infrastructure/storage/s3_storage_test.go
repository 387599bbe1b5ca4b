package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warrantyhub/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func testStorageConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Enabled:         true,
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		Bucket:          "warranty-test",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
		PresignExpiry:   10 * time.Minute,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewS3ObjectStorage(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.Bucket = ""
		_, err := NewS3ObjectStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing credentials", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.SecretAccessKey = ""
		_, err := NewS3ObjectStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "credentials are required")
	})

	t.Run("valid config", func(t *testing.T) {
		storage, err := NewS3ObjectStorage(testStorageConfig())
		require.NoError(t, err)
		assert.Equal(t, "warranty-test", storage.Bucket())
		assert.Equal(t, 10*time.Minute, storage.presignExpiry)
	})

	t.Run("endpoint without scheme", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.Endpoint = "minio.internal:9000"
		storage, err := NewS3ObjectStorage(cfg)
		require.NoError(t, err)

		url, _, err := storage.GenerateDownloadURL(context.Background(), "products/a.png", 0)
		require.NoError(t, err)
		assert.Contains(t, url, "https://minio.internal:9000/warranty-test/products/a.png")
	})

	t.Run("default presign expiry", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.PresignExpiry = 0
		storage, err := NewS3ObjectStorage(cfg)
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, storage.presignExpiry)
	})
}

func TestS3ObjectStorageOptions(t *testing.T) {
	storage, err := NewS3ObjectStorage(testStorageConfig(),
		WithLogger(zaptest.NewLogger(t)),
		WithPresignExpiry(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, storage.presignExpiry)
	assert.NotNil(t, storage.logger)
}

func TestS3ObjectStorage_GenerateDownloadURL(t *testing.T) {
	storage, err := NewS3ObjectStorage(testStorageConfig())
	require.NoError(t, err)

	t.Run("empty key", func(t *testing.T) {
		url, _, err := storage.GenerateDownloadURL(context.Background(), "", time.Minute)
		assert.ErrorIs(t, err, ErrEmptyKey)
		assert.Empty(t, url)
	})

	t.Run("presigned path-style URL", func(t *testing.T) {
		before := time.Now()
		url, expiresAt, err := storage.GenerateDownloadURL(context.Background(), "certificates/abc.pdf", time.Hour)
		require.NoError(t, err)
		assert.Contains(t, url, "localhost:9000/warranty-test/certificates/abc.pdf")
		assert.Contains(t, url, "X-Amz-Signature=")
		assert.WithinDuration(t, before.Add(time.Hour), expiresAt, 5*time.Second)
	})
}

func TestS3ObjectStorage_EmptyKey(t *testing.T) {
	storage, err := NewS3ObjectStorage(testStorageConfig())
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, storage.Upload(ctx, "", []byte("x"), "text/plain"), ErrEmptyKey)
	assert.ErrorIs(t, storage.DeleteObject(ctx, ""), ErrEmptyKey)
	exists, err := storage.ObjectExists(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.False(t, exists)
}

// Requires a MinIO server; set STORAGE_INTEGRATION=1 to run.
func TestIntegration_UploadExistsDelete(t *testing.T) {
	if os.Getenv("STORAGE_INTEGRATION") == "" {
		t.Skip("set STORAGE_INTEGRATION=1 with MinIO on localhost:9000")
	}
	cfg := testStorageConfig()
	cfg.AccessKeyID = "minioadmin"
	cfg.SecretAccessKey = "minioadmin"
	storage, err := NewS3ObjectStorage(cfg, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, storage.EnsureBucket(ctx))
	require.NoError(t, storage.EnsureBucket(ctx))

	key := "integration/certificate.html"
	require.NoError(t, storage.Upload(ctx, key, []byte("<html></html>"), "text/html"))

	exists, err := storage.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, storage.DeleteObject(ctx, key))
	exists, err = storage.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}
