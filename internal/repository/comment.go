// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"colloquy/internal/models"

	"gorm.io/gorm"
)

// Comment sort keys accepted by ListByPost.
const (
	SortNewest  = "newest"
	SortOldest  = "oldest"
	SortUpvotes = "upvotes"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint, sort string) ([]*models.Comment, error)
	ChildIDs(ctx context.Context, parentIDs []uint) ([]uint, error)
	UpdateVoteCounts(ctx context.Context, commentID uint, upvotes, downvotes int) error
	DeleteByIDs(ctx context.Context, ids []uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uint, sort string) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := applySort(r.db.WithContext(ctx).Preload("User").Where("post_id = ?", postID), sort).
		Find(&comments).Error
	return comments, err
}

// applySort appends the ORDER BY clause for the requested sort key.
func applySort(db *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case SortOldest:
		return db.Order("created_at ASC")
	case SortUpvotes:
		return db.Order("upvotes DESC, created_at DESC")
	default: // SortNewest and anything unrecognized
		return db.Order("created_at DESC")
	}
}

// ChildIDs returns the IDs of all comments whose parent is in parentIDs.
func (r *commentRepository) ChildIDs(ctx context.Context, parentIDs []uint) ([]uint, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("parent_id IN ?", parentIDs).
		Pluck("id", &ids).Error
	return ids, err
}

// UpdateVoteCounts overwrites both denormalized counters with freshly
// computed values. Counters are never incremented in place.
func (r *commentRepository) UpdateVoteCounts(ctx context.Context, commentID uint, upvotes, downvotes int) error {
	return r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ?", commentID).
		Updates(map[string]any{"upvotes": upvotes, "downvotes": downvotes}).Error
}

func (r *commentRepository) DeleteByIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Comment{}).Error
}
