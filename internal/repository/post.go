// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"colloquy/internal/cache"
	"colloquy/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context) ([]*models.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Create(post).Error
	if err == nil {
		cache.InvalidatePostsList(ctx)
	}
	return err
}

// GetByID serves posts cache-aside: posts are immutable once created, so
// a cached copy can never go stale.
func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		return r.db.WithContext(ctx).First(&post, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	err := cache.Aside(ctx, cache.PostsListKey, &posts, cache.PostsListTTL, func() error {
		return r.db.WithContext(ctx).Order("created_at DESC").Find(&posts).Error
	})
	return posts, err
}
