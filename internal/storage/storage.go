// Package storage holds the two places uploaded image bytes can end up: a
// flat directory on local disk, and an external S3-compatible bucket that
// clients write to directly through presigned URLs. The S3 and MinIO
// presigners are interchangeable; pick one with STORAGE_DRIVER.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrSigningFailure is returned when a presigned request cannot be produced.
var ErrSigningFailure = errors.New("signing failure")

// ErrWriteFailure is returned when bytes cannot be persisted to local disk.
var ErrWriteFailure = errors.New("storage write failure")

// Presigner mints time-limited write capabilities against an object store.
type Presigner interface {
	// PresignPut returns a URL the caller can PUT the object to until expiry.
	PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (*PresignedRequest, error)
}

// PresignedRequest is a signed HTTP request a client performs itself.
type PresignedRequest struct {
	URL       string
	Method    string
	ExpiresAt time.Time
}
