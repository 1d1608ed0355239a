package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "posts/1702986000500-x9y8z7w.png"

func TestS3Presigner_PresignPut(t *testing.T) {
	p, err := NewS3Presigner(context.Background(), S3Config{
		Region:    "us-east-1",
		Bucket:    "my-bucket",
		AccessKey: "test-key",
		SecretKey: "test-secret",
	})
	require.NoError(t, err)

	before := time.Now()
	req, err := p.PresignPut(context.Background(), testKey, "image/png", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "PUT", req.Method)
	assert.WithinDuration(t, before.Add(time.Hour), req.ExpiresAt, 5*time.Second)

	u, err := url.Parse(req.URL)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Contains(t, u.Host+u.Path, "my-bucket")
	assert.True(t, strings.HasSuffix(u.Path, "/"+testKey), u.Path)
	assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
	assert.Contains(t, u.Query().Get("X-Amz-Credential"), "test-key")
}

func TestS3Presigner_CustomEndpointUsesPathStyle(t *testing.T) {
	p, err := NewS3Presigner(context.Background(), S3Config{
		Region:    "us-east-1",
		Bucket:    "my-bucket",
		AccessKey: "test-key",
		SecretKey: "test-secret",
		Endpoint:  "http://localhost:9000/",
	})
	require.NoError(t, err)

	req, err := p.PresignPut(context.Background(), testKey, "image/png", time.Hour)
	require.NoError(t, err)

	u, err := url.Parse(req.URL)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/my-bucket/"+testKey, u.Path)
}

func TestS3Presigner_EmptyKeysSignLocally(t *testing.T) {
	p, err := NewS3Presigner(context.Background(), S3Config{Region: "us-east-1", Bucket: "my-bucket"})
	require.NoError(t, err)

	start := time.Now()
	req, err := p.PresignPut(context.Background(), testKey, "image/png", time.Hour)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	u, err := url.Parse(req.URL)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(u.Path, "/"+testKey), u.Path)
	assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestS3Presigner_RequiresBucket(t *testing.T) {
	_, err := NewS3Presigner(context.Background(), S3Config{Region: "us-east-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket name is required")
}

func TestMinioPresigner_PresignPut(t *testing.T) {
	p, err := NewMinioPresigner(MinioConfig{
		Endpoint:  "localhost:9000",
		Region:    "us-east-1",
		Bucket:    "my-bucket",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	require.NoError(t, err)

	req, err := p.PresignPut(context.Background(), testKey, "image/png", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "PUT", req.Method)

	u, err := url.Parse(req.URL)
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "/my-bucket/"+testKey, u.Path)
	assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestMinioPresigner_EmptyKeysStillIssueURL(t *testing.T) {
	p, err := NewMinioPresigner(MinioConfig{
		Endpoint: "localhost:9000",
		Region:   "us-east-1",
		Bucket:   "my-bucket",
	})
	require.NoError(t, err)

	start := time.Now()
	req, err := p.PresignPut(context.Background(), testKey, "image/png", time.Hour)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	u, err := url.Parse(req.URL)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/my-bucket/"+testKey, u.Path)
}

func TestMinioPresigner_RequiresEndpointAndBucket(t *testing.T) {
	_, err := NewMinioPresigner(MinioConfig{Bucket: "b"})
	assert.Error(t, err)
	_, err = NewMinioPresigner(MinioConfig{Endpoint: "localhost:9000"})
	assert.Error(t, err)
}

func TestPublicReadPolicy(t *testing.T) {
	policy := publicReadPolicy("my-bucket", "posts/")
	assert.Contains(t, policy, `arn:aws:s3:::my-bucket/posts/*`)
	assert.Contains(t, policy, `s3:GetObject`)
}
