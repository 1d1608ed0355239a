package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds what the S3 presigner needs to address and sign for a bucket.
type S3Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string // Optional: S3-compatible services (MinIO, R2, Spaces)
}

// S3Presigner signs PutObject requests locally with aws-sdk-go-v2.
// Works with AWS S3 and any S3-compatible endpoint.
type S3Presigner struct {
	presignClient *s3.PresignClient
	bucket        string
}

// NewS3Presigner builds a presign client for cfg. Credentials are not checked
// against the store here; bad credentials only show up when the client PUTs.
func NewS3Presigner(ctx context.Context, cfg S3Config) (*S3Presigner, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage: bucket name is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(configuredCredentials(cfg.AccessKey, cfg.SecretKey)),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(strings.TrimRight(cfg.Endpoint, "/"))
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return &S3Presigner{
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
	}, nil
}

// PresignPut signs a PUT for key. The content type is part of the signature,
// so the client must send the same Content-Type header.
func (p *S3Presigner) PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (*PresignedRequest, error) {
	issuedAt := time.Now()
	req, err := p.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return nil, fmt.Errorf("%w: presign put %q: %w", ErrSigningFailure, key, err)
	}

	method := req.Method
	if method == "" {
		method = http.MethodPut
	}
	return &PresignedRequest{
		URL:       req.URL,
		Method:    method,
		ExpiresAt: issuedAt.Add(expiry),
	}, nil
}

// configuredCredentials signs with exactly the configured key pair, even an
// empty one. The default AWS chain is never consulted, so issuing a URL stays
// local (no instance-metadata lookups).
func configuredCredentials(accessKey, secretKey string) aws.CredentialsProvider {
	if accessKey != "" && secretKey != "" {
		return credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")
	}
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     accessKey,
			SecretAccessKey: secretKey,
			Source:          "ConfiguredCredentials",
		}, nil
	})
}
