package service

import (
	"context"
	"errors"

	"colloquy/internal/models"
	"colloquy/internal/observability"
	"colloquy/internal/repository"
	"colloquy/internal/validation"

	"gorm.io/gorm"
)

// CommentService handles threaded comment creation, listing, and cascade
// deletion. It holds the db handle for the multi-statement delete
// transaction; everything else goes through the repositories.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	db          *gorm.DB
	isAdmin     func(ctx context.Context, userID uint) (bool, error)
}

// NewCommentService creates a new CommentService.
func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	db *gorm.DB,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		db:          db,
		isAdmin:     isAdmin,
	}
}

type CreateCommentInput struct {
	UserID   uint
	PostID   uint
	ParentID *uint
	Text     string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

func (s *CommentService) Create(ctx context.Context, in CreateCommentInput) (*models.CommentResponse, error) {
	if err := validation.ValidateCommentText(in.Text); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", in.PostID)
		}
		return nil, err
	}

	// A reply's parent must exist and belong to the same post.
	if in.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewValidationError("Parent comment does not exist")
			}
			return nil, err
		}
		if parent.PostID != in.PostID {
			return nil, models.NewValidationError("Parent comment belongs to a different post")
		}
	}

	comment := &models.Comment{
		Text:     in.Text,
		UserID:   in.UserID,
		PostID:   in.PostID,
		ParentID: in.ParentID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	created, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	return created.Response(), nil
}

func (s *CommentService) List(ctx context.Context, postID uint, sort string) ([]*models.CommentResponse, error) {
	comments, err := s.commentRepo.ListByPost(ctx, postID, sort)
	if err != nil {
		return nil, err
	}
	out := make([]*models.CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, c.Response())
	}
	return out, nil
}

// Delete removes a comment, its whole reply subtree, and every vote
// referencing any comment in the subtree, as one transaction. Only the
// comment's author or an admin may delete it.
func (s *CommentService) Delete(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Comment", in.CommentID)
		}
		return err
	}

	if comment.UserID != in.UserID {
		if s.isAdmin == nil {
			return models.NewForbiddenError("Not authorized to delete this comment")
		}
		admin, err := s.isAdmin(ctx, in.UserID)
		if err != nil {
			return err
		}
		if !admin {
			return models.NewForbiddenError("Not authorized to delete this comment")
		}
	}

	var deleted int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comments := repository.NewCommentRepository(tx)
		votes := repository.NewVoteRepository(tx)

		// Collect the subtree breadth-first with an explicit worklist so
		// tree depth never translates into call-stack depth.
		ids := []uint{in.CommentID}
		frontier := []uint{in.CommentID}
		for len(frontier) > 0 {
			children, err := comments.ChildIDs(ctx, frontier)
			if err != nil {
				return err
			}
			ids = append(ids, children...)
			frontier = children
		}

		// Votes go first so no vote ever outlives its comment.
		if err := votes.DeleteByCommentIDs(ctx, ids); err != nil {
			return err
		}
		if err := comments.DeleteByIDs(ctx, ids); err != nil {
			return err
		}
		deleted = len(ids)
		return nil
	})
	if err != nil {
		return err
	}

	observability.CommentsDeleted.Add(float64(deleted))
	return nil
}
