package service

import (
	"context"
	"testing"

	"colloquy/internal/models"
	"colloquy/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestVoteService(db *gorm.DB) *VoteService {
	return NewVoteService(repository.NewCommentRepository(db), db)
}

// storedCounts reads the comment's denormalized counters from the database.
func storedCounts(t *testing.T, db *gorm.DB, commentID uint) models.VoteCounts {
	t.Helper()
	var comment models.Comment
	require.NoError(t, db.First(&comment, commentID).Error)
	return models.VoteCounts{Upvotes: comment.Upvotes, Downvotes: comment.Downvotes}
}

func TestVoteService_Validation(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestVoteService(db)
	user := createUser(t, db, "alice@example.com", false)
	ctx := context.Background()

	_, err := svc.Vote(ctx, VoteInput{UserID: user.ID, CommentID: 1, VoteType: 0})
	assert.Equal(t, models.CodeValidation, appErrCode(t, err))

	_, err = svc.Vote(ctx, VoteInput{UserID: user.ID, CommentID: 1, VoteType: 2})
	assert.Equal(t, models.CodeValidation, appErrCode(t, err))

	_, err = svc.Vote(ctx, VoteInput{UserID: user.ID, CommentID: 9999, VoteType: models.VoteUp})
	assert.Equal(t, models.CodeNotFound, appErrCode(t, err))
}

func TestVoteService_ToggleAndSwitch(t *testing.T) {
	db := setupTestDB(t)
	commentSvc := newTestCommentService(db)
	svc := newTestVoteService(db)
	user := createUser(t, db, "alice@example.com", false)
	post := createPost(t, db)
	comment := createComment(t, commentSvc, user.ID, post.ID, nil, "vote on me")
	ctx := context.Background()

	// new vote
	counts, err := svc.Vote(ctx, VoteInput{UserID: user.ID, CommentID: comment.ID, VoteType: models.VoteUp})
	require.NoError(t, err)
	assert.Equal(t, models.VoteCounts{Upvotes: 1, Downvotes: 0}, *counts)

	// same polarity toggles the vote off
	counts, err = svc.Vote(ctx, VoteInput{UserID: user.ID, CommentID: comment.ID, VoteType: models.VoteUp})
	require.NoError(t, err)
	assert.Equal(t, models.VoteCounts{Upvotes: 0, Downvotes: 0}, *counts)

	// fresh vote of the other polarity
	counts, err = svc.Vote(ctx, VoteInput{UserID: user.ID, CommentID: comment.ID, VoteType: models.VoteDown})
	require.NoError(t, err)
	assert.Equal(t, models.VoteCounts{Upvotes: 0, Downvotes: 1}, *counts)

	// opposite polarity switches in place
	counts, err = svc.Vote(ctx, VoteInput{UserID: user.ID, CommentID: comment.ID, VoteType: models.VoteUp})
	require.NoError(t, err)
	assert.Equal(t, models.VoteCounts{Upvotes: 1, Downvotes: 0}, *counts)

	// a switch never leaves two rows behind
	var voteCount int64
	require.NoError(t, db.Model(&models.Vote{}).
		Where("user_id = ? AND comment_id = ?", user.ID, comment.ID).
		Count(&voteCount).Error)
	assert.Equal(t, int64(1), voteCount)
}

func TestVoteService_CountersMatchVoteRows(t *testing.T) {
	db := setupTestDB(t)
	commentSvc := newTestCommentService(db)
	svc := newTestVoteService(db)
	post := createPost(t, db)
	author := createUser(t, db, "author@example.com", false)
	comment := createComment(t, commentSvc, author.ID, post.ID, nil, "popular take")
	ctx := context.Background()

	voters := []struct {
		email    string
		voteType int
	}{
		{"u1@example.com", models.VoteUp},
		{"u2@example.com", models.VoteUp},
		{"u3@example.com", models.VoteUp},
		{"u4@example.com", models.VoteDown},
	}
	for _, v := range voters {
		voter := createUser(t, db, v.email, false)
		_, err := svc.Vote(ctx, VoteInput{UserID: voter.ID, CommentID: comment.ID, VoteType: v.voteType})
		require.NoError(t, err)
	}

	stored := storedCounts(t, db, comment.ID)
	assert.Equal(t, models.VoteCounts{Upvotes: 3, Downvotes: 1}, stored)

	// counters always equal COUNT(*) over the vote rows
	var up, down int64
	require.NoError(t, db.Model(&models.Vote{}).
		Where("comment_id = ? AND vote_type = ?", comment.ID, models.VoteUp).Count(&up).Error)
	require.NoError(t, db.Model(&models.Vote{}).
		Where("comment_id = ? AND vote_type = ?", comment.ID, models.VoteDown).Count(&down).Error)
	assert.Equal(t, stored.Upvotes, int(up))
	assert.Equal(t, stored.Downvotes, int(down))
}

func TestVoteService_UniqueIndexGuardsDoubleVote(t *testing.T) {
	db := setupTestDB(t)
	commentSvc := newTestCommentService(db)
	user := createUser(t, db, "alice@example.com", false)
	post := createPost(t, db)
	comment := createComment(t, commentSvc, user.ID, post.ID, nil, "contested")

	require.NoError(t, db.Create(&models.Vote{
		UserID: user.ID, CommentID: comment.ID, VoteType: models.VoteUp,
	}).Error)

	err := db.Create(&models.Vote{
		UserID: user.ID, CommentID: comment.ID, VoteType: models.VoteDown,
	}).Error
	require.Error(t, err)
	assert.True(t, repository.IsUniqueViolation(err))
}
