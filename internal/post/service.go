package post

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/postboard/service/internal/naming"
)

// maxContentLength caps post text, in bytes.
const maxContentLength = 5000

// ListLimit is how many posts List returns.
const ListLimit = 50

var (
	// ErrEmptyContent is returned for posts without text.
	ErrEmptyContent = errors.New("content is required")

	// ErrContentTooLong is returned when content exceeds maxContentLength.
	ErrContentTooLong = errors.New("content is too long")

	// ErrInvalidImagePath is returned when imagePath is not an issued object identifier.
	ErrInvalidImagePath = errors.New("imagePath is not a valid upload identifier")
)

// Store is the persistence the Service needs; Repository implements it.
type Store interface {
	Create(ctx context.Context, p *Post) error
	GetByID(ctx context.Context, id string) (*Post, error)
	List(ctx context.Context, limit int) ([]Post, error)
}

// Service contains business logic for posts.
type Service struct {
	store Store
}

// NewService creates a new post Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create saves a new post for authorID. imagePath may be nil; when set it
// must be an identifier returned by one of the upload endpoints.
func (s *Service) Create(ctx context.Context, authorID, content string, imagePath *string) (*Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if len(content) > maxContentLength {
		return nil, ErrContentTooLong
	}
	if imagePath != nil && !naming.IsObjectPath(*imagePath) {
		return nil, ErrInvalidImagePath
	}

	p := &Post{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Content:   content,
		ImagePath: imagePath,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return p, nil
}

// GetByID returns a post by its UUID.
func (s *Service) GetByID(ctx context.Context, id string) (*Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.store.GetByID(ctx, id)
}

// List returns the latest posts, newest first.
func (s *Service) List(ctx context.Context) ([]Post, error) {
	return s.store.List(ctx, ListLimit)
}

// IsValidation returns true when err is caused by bad client input.
func (s *Service) IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyContent) ||
		errors.Is(err, ErrContentTooLong) ||
		errors.Is(err, ErrInvalidImagePath)
}
