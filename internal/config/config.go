// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change_me_in_production"

// Storage drivers accepted in STORAGE_DRIVER.
const (
	DriverS3    = "s3"
	DriverMinio = "minio"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Port      string
	AppEnv    string
	JWTSecret string
	SentryDSN string

	// Empty disables the posts API.
	DatabaseURL string

	// Direct uploads
	UploadDir        string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration

	// Object storage for presigned uploads (AWS S3, or MinIO locally)
	StorageDriver       string
	StorageRegion       string
	StorageAccessKey    string
	StorageSecretKey    string
	StorageBucket       string
	StorageEndpoint     string // optional for s3, required for minio
	StorageUseSSL       bool
	StorageEnsureBucket bool // minio only: create bucket + public-read policy at startup
	PresignExpiry       time.Duration
}

// Load reads configuration from a .env file (if present) and environment variables.
// Defaults are meant for local development only.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	return &Config{
		Port:      getEnv("PORT", "8080"),
		AppEnv:    getEnv("APP_ENV", "development"),
		JWTSecret: getEnv("JWT_SECRET", defaultJWTSecret),
		SentryDSN: getEnv("SENTRY_DSN", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		UploadDir:        getEnv("UPLOAD_DIR", "uploads"),
		HTTPReadTimeout:  getDuration("HTTP_READ_TIMEOUT", 30*time.Second),
		HTTPWriteTimeout: getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),

		StorageDriver:       getEnv("STORAGE_DRIVER", DriverS3),
		StorageRegion:       getEnv("AWS_REGION", "us-east-1"),
		StorageAccessKey:    getEnv("AWS_ACCESS_KEY_ID", ""),
		StorageSecretKey:    getEnv("AWS_SECRET_ACCESS_KEY", ""),
		StorageBucket:       getEnv("AWS_S3_BUCKET_NAME", "my-bucket"),
		StorageEndpoint:     getEnv("STORAGE_ENDPOINT", ""),
		StorageUseSSL:       getBool("STORAGE_USE_SSL", true),
		StorageEnsureBucket: getBool("STORAGE_ENSURE_BUCKET", false),
		PresignExpiry:       getDuration("PRESIGN_EXPIRY", time.Hour),
	}
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	switch c.StorageDriver {
	case DriverS3:
	case DriverMinio:
		if c.StorageEndpoint == "" {
			return errors.New("STORAGE_ENDPOINT is required for the minio driver")
		}
	default:
		return errors.New("STORAGE_DRIVER must be one of: s3, minio")
	}
	if c.PresignExpiry <= 0 {
		return errors.New("PRESIGN_EXPIRY must be positive")
	}
	return nil
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// PostsEnabled reports whether a database is configured for the posts API.
func (c *Config) PostsEnabled() bool {
	return c.DatabaseURL != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}
