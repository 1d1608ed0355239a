// Package post stores user posts and the image each one references.
package post

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Post is a user-authored post, optionally pointing at an uploaded image.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	ImagePath *string   `json:"imagePath"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrNotFound is returned when a post does not exist.
var ErrNotFound = errors.New("post not found")

// Repository handles all post database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts p and fills in its creation time.
func (r *Repository) Create(ctx context.Context, p *Post) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO posts (id, author_id, content, image_path)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		p.ID, p.AuthorID, p.Content, p.ImagePath,
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// GetByID fetches a post by its UUID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Post, error) {
	p := &Post{}
	err := r.db.QueryRow(ctx,
		`SELECT id, author_id, content, image_path, created_at
		 FROM posts WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.AuthorID, &p.Content, &p.ImagePath, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post by id: %w", err)
	}
	return p, nil
}

// List returns the newest posts first.
func (r *Repository) List(ctx context.Context, limit int) ([]Post, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, author_id, content, image_path, created_at
		 FROM posts ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	posts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Post, error) {
		var p Post
		err := row.Scan(&p.ID, &p.AuthorID, &p.Content, &p.ImagePath, &p.CreatedAt)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan posts: %w", err)
	}
	return posts, nil
}
