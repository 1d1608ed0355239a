package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "APP_ENV", "UPLOAD_DIR", "STORAGE_DRIVER", "AWS_REGION", "AWS_S3_BUCKET_NAME", "PRESIGN_EXPIRY", "DATABASE_URL", "STORAGE_USE_SSL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, DriverS3, cfg.StorageDriver)
	assert.Equal(t, "us-east-1", cfg.StorageRegion)
	assert.Equal(t, "my-bucket", cfg.StorageBucket)
	assert.Equal(t, time.Hour, cfg.PresignExpiry)
	assert.True(t, cfg.StorageUseSSL)
	assert.False(t, cfg.PostsEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "minio")
	t.Setenv("STORAGE_ENDPOINT", "localhost:9000")
	t.Setenv("STORAGE_USE_SSL", "false")
	t.Setenv("HTTP_READ_TIMEOUT", "45s")
	t.Setenv("PRESIGN_EXPIRY", "not-a-duration")
	t.Setenv("DATABASE_URL", "postgres://localhost/posts")

	cfg := Load()
	assert.Equal(t, DriverMinio, cfg.StorageDriver)
	assert.False(t, cfg.StorageUseSSL)
	assert.Equal(t, 45*time.Second, cfg.HTTPReadTimeout)
	assert.Equal(t, time.Hour, cfg.PresignExpiry)
	assert.True(t, cfg.PostsEnabled())
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := Config{AppEnv: "development", JWTSecret: "s", StorageDriver: DriverS3, PresignExpiry: time.Hour}

	prod := base
	prod.AppEnv = "production"
	prod.JWTSecret = defaultJWTSecret
	assert.Error(t, prod.Validate())

	minio := base
	minio.StorageDriver = DriverMinio
	assert.Error(t, minio.Validate())

	unknown := base
	unknown.StorageDriver = "gcs"
	assert.Error(t, unknown.Validate())

	zero := base
	zero.PresignExpiry = 0
	assert.Error(t, zero.Validate())

	assert.NoError(t, base.Validate())
}
