package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig addresses an S3-compatible server through minio-go.
type MinioConfig struct {
	Endpoint  string // host[:port], no scheme
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// MinioPresigner signs PUT URLs with minio-go. The region is pinned so that
// signing never needs a bucket-location round trip.
type MinioPresigner struct {
	client *minio.Client
	bucket string
}

// NewMinioPresigner creates a minio client for cfg. No network calls are made.
func NewMinioPresigner(cfg MinioConfig) (*MinioPresigner, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage: bucket name is required")
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("storage: minio endpoint is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.New(&configuredKeys{accessKey: cfg.AccessKey, secretKey: cfg.SecretKey}),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create minio client: %w", err)
	}

	return &MinioPresigner{client: client, bucket: cfg.Bucket}, nil
}

// PresignPut returns a presigned PUT URL for key. minio-go does not sign the
// content type, so any Content-Type header is accepted by the store. With an
// empty key pair the URL carries no signature and the store rejects the PUT.
func (p *MinioPresigner) PresignPut(ctx context.Context, key, _ string, expiry time.Duration) (*PresignedRequest, error) {
	issuedAt := time.Now()
	u, err := p.client.PresignedPutObject(ctx, p.bucket, key, expiry)
	if err != nil {
		return nil, fmt.Errorf("%w: presign put %q: %w", ErrSigningFailure, key, err)
	}
	return &PresignedRequest{
		URL:       u.String(),
		Method:    http.MethodPut,
		ExpiresAt: issuedAt.Add(expiry),
	}, nil
}

// EnsureBucket creates the bucket if missing and makes objects under prefix
// publicly readable, so images uploaded through presigned URLs can be shown.
// Intended for local development against a MinIO container.
func (p *MinioPresigner) EnsureBucket(ctx context.Context, prefix string) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %q: %w", p.bucket, err)
		}
		slog.Info("storage: created bucket", "bucket", p.bucket)
	}

	if err := p.client.SetBucketPolicy(ctx, p.bucket, publicReadPolicy(p.bucket, prefix)); err != nil {
		return fmt.Errorf("set bucket policy: %w", err)
	}
	return nil
}

// publicReadPolicy returns an S3 bucket policy allowing anonymous GET under prefix.
func publicReadPolicy(bucket, prefix string) string {
	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Effect":    "Allow",
				"Principal": map[string][]string{"AWS": {"*"}},
				"Action":    []string{"s3:GetObject"},
				"Resource":  []string{fmt.Sprintf("arn:aws:s3:::%s/%s*", bucket, prefix)},
			},
		},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}

// configuredKeys always reports a V4 signer. minio-go's static provider turns
// empty keys into anonymous credentials, which cannot presign at all.
type configuredKeys struct {
	accessKey string
	secretKey string
}

func (k *configuredKeys) Retrieve() (credentials.Value, error) {
	return credentials.Value{
		AccessKeyID:     k.accessKey,
		SecretAccessKey: k.secretKey,
		SignerType:      credentials.SignatureV4,
	}, nil
}

func (k *configuredKeys) IsExpired() bool { return false }
