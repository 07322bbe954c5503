package service

import (
	"context"
	"errors"

	"colloquy/internal/models"
	"colloquy/internal/observability"
	"colloquy/internal/repository"

	"gorm.io/gorm"
)

// VoteService applies the single-vote-per-user policy on comments and
// keeps the comment's denormalized counters equal to the vote table.
type VoteService struct {
	commentRepo repository.CommentRepository
	db          *gorm.DB
}

// NewVoteService creates a new VoteService.
func NewVoteService(commentRepo repository.CommentRepository, db *gorm.DB) *VoteService {
	return &VoteService{commentRepo: commentRepo, db: db}
}

type VoteInput struct {
	UserID    uint
	CommentID uint
	VoteType  int
}

// Vote applies the three-way policy for the (user, comment) pair:
// no existing vote creates one, a same-polarity vote removes it (toggle
// off), an opposite-polarity vote flips it in place. The mutation and the
// counter recompute run inside one transaction; the unique
// (user_id, comment_id) index turns a concurrent duplicate insert into a
// conflict instead of a double vote.
func (s *VoteService) Vote(ctx context.Context, in VoteInput) (*models.VoteCounts, error) {
	if in.VoteType != models.VoteUp && in.VoteType != models.VoteDown {
		return nil, models.NewValidationError("vote_type must be 1 or -1")
	}

	if _, err := s.commentRepo.GetByID(ctx, in.CommentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", in.CommentID)
		}
		return nil, err
	}

	var counts models.VoteCounts
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		votes := repository.NewVoteRepository(tx)
		comments := repository.NewCommentRepository(tx)

		existing, err := votes.GetByUserAndComment(ctx, in.UserID, in.CommentID)
		if err != nil {
			return err
		}

		switch {
		case existing == nil:
			err = votes.Create(ctx, &models.Vote{
				UserID:    in.UserID,
				CommentID: in.CommentID,
				VoteType:  in.VoteType,
			})
			if err != nil {
				if repository.IsUniqueViolation(err) {
					return models.NewConflictError("Vote already in flight for this comment")
				}
				return err
			}
			observability.VoteMutations.WithLabelValues("created").Inc()
		case existing.VoteType == in.VoteType:
			if err := votes.Delete(ctx, existing.ID); err != nil {
				return err
			}
			observability.VoteMutations.WithLabelValues("removed").Inc()
		default:
			if err := votes.UpdateType(ctx, existing.ID, in.VoteType); err != nil {
				return err
			}
			observability.VoteMutations.WithLabelValues("switched").Inc()
		}

		// Recompute from the vote table rather than adjusting the previous
		// values, so a replayed or half-applied request cannot drift the
		// counters.
		up, down, err := votes.CountByComment(ctx, in.CommentID)
		if err != nil {
			return err
		}
		if err := comments.UpdateVoteCounts(ctx, in.CommentID, up, down); err != nil {
			return err
		}
		counts = models.VoteCounts{Upvotes: up, Downvotes: down}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &counts, nil
}
