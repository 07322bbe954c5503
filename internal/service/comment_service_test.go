package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"colloquy/internal/models"
	"colloquy/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestCommentService(db *gorm.DB) *CommentService {
	userRepo := repository.NewUserRepository(db)
	isAdmin := func(ctx context.Context, userID uint) (bool, error) {
		user, err := userRepo.GetByID(ctx, userID)
		if err != nil {
			return false, err
		}
		return user.IsAdmin, nil
	}
	return NewCommentService(
		repository.NewCommentRepository(db),
		repository.NewPostRepository(db),
		db,
		isAdmin,
	)
}

func createComment(t *testing.T, svc *CommentService, userID, postID uint, parentID *uint, text string) *models.CommentResponse {
	t.Helper()
	comment, err := svc.Create(context.Background(), CreateCommentInput{
		UserID:   userID,
		PostID:   postID,
		ParentID: parentID,
		Text:     text,
	})
	require.NoError(t, err)
	return comment
}

func TestCommentService_Create(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestCommentService(db)
	user := createUser(t, db, "alice@example.com", false)
	post := createPost(t, db)
	ctx := context.Background()

	t.Run("top-level comment", func(t *testing.T) {
		comment := createComment(t, svc, user.ID, post.ID, nil, "First!")
		assert.Equal(t, "First!", comment.Text)
		assert.Equal(t, post.ID, comment.PostID)
		assert.Nil(t, comment.ParentID)
		assert.Zero(t, comment.Upvotes)
		// author is joined into the response
		assert.Equal(t, user.ID, comment.User.ID)
		assert.Equal(t, "alice@example.com", comment.User.Email)
	})

	t.Run("reply to existing comment", func(t *testing.T) {
		parent := createComment(t, svc, user.ID, post.ID, nil, "Parent")
		reply := createComment(t, svc, user.ID, post.ID, &parent.ID, "Child")
		require.NotNil(t, reply.ParentID)
		assert.Equal(t, parent.ID, *reply.ParentID)
	})

	t.Run("empty text", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateCommentInput{UserID: user.ID, PostID: post.ID, Text: ""})
		assert.Equal(t, models.CodeValidation, appErrCode(t, err))
	})

	t.Run("oversized text", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateCommentInput{
			UserID: user.ID, PostID: post.ID, Text: strings.Repeat("x", 5001),
		})
		assert.Equal(t, models.CodeValidation, appErrCode(t, err))
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateCommentInput{UserID: user.ID, PostID: 9999, Text: "hi"})
		assert.Equal(t, models.CodeNotFound, appErrCode(t, err))
	})

	t.Run("missing parent", func(t *testing.T) {
		missing := uint(9999)
		_, err := svc.Create(ctx, CreateCommentInput{
			UserID: user.ID, PostID: post.ID, ParentID: &missing, Text: "hi",
		})
		assert.Equal(t, models.CodeValidation, appErrCode(t, err))
	})

	t.Run("parent on another post", func(t *testing.T) {
		otherPost := createPost(t, db)
		parent := createComment(t, svc, user.ID, otherPost.ID, nil, "Elsewhere")
		_, err := svc.Create(ctx, CreateCommentInput{
			UserID: user.ID, PostID: post.ID, ParentID: &parent.ID, Text: "hi",
		})
		assert.Equal(t, models.CodeValidation, appErrCode(t, err))
	})
}

func TestCommentService_ListSorting(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestCommentService(db)
	user := createUser(t, db, "alice@example.com", false)
	post := createPost(t, db)
	ctx := context.Background()

	// three comments with distinct timestamps and vote counts
	base := time.Now().Add(-time.Hour)
	for i, tc := range []struct {
		text    string
		upvotes int
	}{
		{"oldest comment", 1},
		{"middle comment", 5},
		{"newest comment", 3},
	} {
		comment := createComment(t, svc, user.ID, post.ID, nil, tc.text)
		require.NoError(t, db.Model(&models.Comment{}).
			Where("id = ?", comment.ID).
			Updates(map[string]any{
				"created_at": base.Add(time.Duration(i) * time.Minute),
				"upvotes":    tc.upvotes,
			}).Error)
	}

	texts := func(comments []*models.CommentResponse) []string {
		out := make([]string, len(comments))
		for i, c := range comments {
			out[i] = c.Text
		}
		return out
	}

	newest, err := svc.List(ctx, post.ID, repository.SortNewest)
	require.NoError(t, err)
	assert.Equal(t, []string{"newest comment", "middle comment", "oldest comment"}, texts(newest))

	oldest, err := svc.List(ctx, post.ID, repository.SortOldest)
	require.NoError(t, err)
	assert.Equal(t, []string{"oldest comment", "middle comment", "newest comment"}, texts(oldest))

	upvotes, err := svc.List(ctx, post.ID, repository.SortUpvotes)
	require.NoError(t, err)
	assert.Equal(t, []string{"middle comment", "newest comment", "oldest comment"}, texts(upvotes))

	// unknown sort falls back to newest
	fallback, err := svc.List(ctx, post.ID, "bogus")
	require.NoError(t, err)
	assert.Equal(t, texts(newest), texts(fallback))

	// listing an unknown post yields an empty list, not an error
	empty, err := svc.List(ctx, 9999, repository.SortNewest)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCommentService_DeleteAuthorization(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestCommentService(db)
	author := createUser(t, db, "author@example.com", false)
	stranger := createUser(t, db, "stranger@example.com", false)
	admin := createUser(t, db, "admin@example.com", true)
	post := createPost(t, db)
	ctx := context.Background()

	t.Run("missing comment", func(t *testing.T) {
		err := svc.Delete(ctx, DeleteCommentInput{UserID: author.ID, CommentID: 9999})
		assert.Equal(t, models.CodeNotFound, appErrCode(t, err))
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		comment := createComment(t, svc, author.ID, post.ID, nil, "mine")
		err := svc.Delete(ctx, DeleteCommentInput{UserID: stranger.ID, CommentID: comment.ID})
		assert.Equal(t, models.CodeForbidden, appErrCode(t, err))
	})

	t.Run("author may delete", func(t *testing.T) {
		comment := createComment(t, svc, author.ID, post.ID, nil, "mine")
		require.NoError(t, svc.Delete(ctx, DeleteCommentInput{UserID: author.ID, CommentID: comment.ID}))
	})

	t.Run("admin may delete anyone's", func(t *testing.T) {
		comment := createComment(t, svc, author.ID, post.ID, nil, "mine")
		require.NoError(t, svc.Delete(ctx, DeleteCommentInput{UserID: admin.ID, CommentID: comment.ID}))
	})
}

func TestCommentService_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestCommentService(db)
	user := createUser(t, db, "alice@example.com", false)
	voter := createUser(t, db, "bob@example.com", false)
	post := createPost(t, db)
	ctx := context.Background()

	// root -> child -> grandchild, plus an unrelated sibling tree
	root := createComment(t, svc, user.ID, post.ID, nil, "root")
	child := createComment(t, svc, user.ID, post.ID, &root.ID, "child")
	grandchild := createComment(t, svc, user.ID, post.ID, &child.ID, "grandchild")
	survivor := createComment(t, svc, user.ID, post.ID, nil, "survivor")
	survivorChild := createComment(t, svc, user.ID, post.ID, &survivor.ID, "survivor child")

	// votes scattered across the doomed subtree and the survivor
	for _, commentID := range []uint{root.ID, child.ID, grandchild.ID, survivor.ID} {
		require.NoError(t, db.Create(&models.Vote{
			UserID: voter.ID, CommentID: commentID, VoteType: models.VoteUp,
		}).Error)
	}

	require.NoError(t, svc.Delete(ctx, DeleteCommentInput{UserID: user.ID, CommentID: root.ID}))

	// the whole subtree is gone
	var commentCount int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&commentCount).Error)
	assert.Equal(t, int64(2), commentCount)

	var remaining []models.Comment
	require.NoError(t, db.Find(&remaining).Error)
	for _, c := range remaining {
		assert.Contains(t, []uint{survivor.ID, survivorChild.ID}, c.ID)
	}

	// no vote outlives its comment
	var voteCount int64
	require.NoError(t, db.Model(&models.Vote{}).Count(&voteCount).Error)
	assert.Equal(t, int64(1), voteCount)

	var vote models.Vote
	require.NoError(t, db.First(&vote).Error)
	assert.Equal(t, survivor.ID, vote.CommentID)
}
