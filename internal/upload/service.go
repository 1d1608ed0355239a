// Package upload implements the two ways a post image enters the system:
// multipart upload to local disk, and presigned PUT grants for the external
// object store. Both paths apply the same naming policy.
package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/postboard/service/internal/naming"
	"github.com/postboard/service/internal/storage"
)

// Grant is a short-lived capability to PUT one object into the external store.
type Grant struct {
	UploadURL string    `json:"uploadUrl"`
	ImagePath string    `json:"imagePath"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service holds the upload logic shared by the HTTP handlers.
type Service struct {
	store     *storage.DiskStore
	presigner storage.Presigner
	expiry    time.Duration
	generate  func(ext string) (string, error)
}

// NewService creates an upload Service. expiry is the lifetime of presigned grants.
func NewService(store *storage.DiskStore, presigner storage.Presigner, expiry time.Duration) *Service {
	return &Service{
		store:     store,
		presigner: presigner,
		expiry:    expiry,
		generate:  naming.GenerateIdentifier,
	}
}

// StoreImage validates a direct upload and streams it to disk. The extension
// comes from filename, or from the content type when filename has none.
// Nothing is written when validation fails.
func (s *Service) StoreImage(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	if err := naming.Validate(contentType, -1); err != nil {
		return "", err
	}

	ext := naming.ExtensionFromFilename(filename)
	if ext == "" {
		ext = naming.DefaultExtension(contentType)
	}
	if err := naming.CheckExtension(ext); err != nil {
		return "", err
	}

	id, err := s.store.Save(ctx, ext, body)
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return id, nil
}

// IssueGrant validates the declared file and signs a PUT for a fresh key under
// naming.PostsPrefix. size < 0 means the client did not declare one.
func (s *Service) IssueGrant(ctx context.Context, ext, contentType string, size int64) (*Grant, error) {
	if err := naming.Validate(contentType, size); err != nil {
		return nil, err
	}

	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = naming.DefaultExtension(contentType)
	}
	id, err := s.generate(ext)
	if err != nil {
		return nil, err
	}

	key := naming.PostsPrefix + id
	req, err := s.presigner.PresignPut(ctx, key, contentType, s.expiry)
	if err != nil {
		return nil, fmt.Errorf("issue grant: %w", err)
	}

	return &Grant{
		UploadURL: req.URL,
		ImagePath: key,
		Method:    req.Method,
		ExpiresAt: req.ExpiresAt.UTC(),
	}, nil
}

// OpenImage returns a stored image for the static file route.
func (s *Service) OpenImage(name string) (*os.File, error) {
	return s.store.Open(name)
}
