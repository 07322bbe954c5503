// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"colloquy/internal/models"

	"gorm.io/gorm"
)

// VoteRepository defines the interface for vote data operations
type VoteRepository interface {
	Create(ctx context.Context, vote *models.Vote) error
	GetByUserAndComment(ctx context.Context, userID, commentID uint) (*models.Vote, error)
	UpdateType(ctx context.Context, id uint, voteType int) error
	Delete(ctx context.Context, id uint) error
	CountByComment(ctx context.Context, commentID uint) (upvotes, downvotes int, err error)
	DeleteByCommentIDs(ctx context.Context, commentIDs []uint) error
}

type voteRepository struct {
	db *gorm.DB
}

// NewVoteRepository creates a new VoteRepository
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) Create(ctx context.Context, vote *models.Vote) error {
	return r.db.WithContext(ctx).Create(vote).Error
}

// GetByUserAndComment returns (nil, nil) when the user has not voted on
// the comment.
func (r *voteRepository) GetByUserAndComment(ctx context.Context, userID, commentID uint) (*models.Vote, error) {
	var vote models.Vote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *voteRepository) UpdateType(ctx context.Context, id uint, voteType int) error {
	return r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("id = ?", id).
		Update("vote_type", voteType).Error
}

func (r *voteRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Vote{}, id).Error
}

// CountByComment recomputes both counters from the votes table. This is
// the authoritative source for the comment's denormalized counts.
func (r *voteRepository) CountByComment(ctx context.Context, commentID uint) (int, int, error) {
	var up, down int64
	if err := r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("comment_id = ? AND vote_type = ?", commentID, models.VoteUp).
		Count(&up).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("comment_id = ? AND vote_type = ?", commentID, models.VoteDown).
		Count(&down).Error; err != nil {
		return 0, 0, err
	}
	return int(up), int(down), nil
}

func (r *voteRepository) DeleteByCommentIDs(ctx context.Context, commentIDs []uint) error {
	if len(commentIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("comment_id IN ?", commentIDs).Delete(&models.Vote{}).Error
}
