// Package seed creates demo data for local development. Not wired into
// the API server; run via cmd/seed.
package seed

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"colloquy/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options controls the shape of the generated dataset.
type Options struct {
	Users           int
	Posts           int
	CommentsPerPost int
	ReplyChance     float64 // probability a comment is a reply to an earlier one
	VotesPerComment int     // upper bound; actual count is random
}

// DefaultOptions returns a dataset sized for local development.
func DefaultOptions() Options {
	return Options{
		Users:           12,
		Posts:           8,
		CommentsPerPost: 10,
		ReplyChance:     0.4,
		VotesPerComment: 6,
	}
}

// Factory builds domain entities and persists them.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
}

// NewFactory creates a Factory bound to the given database.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		opts: opts,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Seed wipes existing data and builds a fresh dataset: verified users
// (one admin), posts, threaded comments, and votes with counters
// recomputed from the vote table.
func Seed(db *gorm.DB, opts Options) error {
	f := NewFactory(db, opts)

	if err := f.clearData(); err != nil {
		return fmt.Errorf("failed to clear data: %w", err)
	}

	users, err := f.createUsers()
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	slog.Info("seeded users", "count", len(users))

	posts, err := f.createPosts()
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	slog.Info("seeded posts", "count", len(posts))

	comments, err := f.createComments(users, posts)
	if err != nil {
		return fmt.Errorf("failed to create comments: %w", err)
	}
	slog.Info("seeded comments", "count", len(comments))

	votes, err := f.createVotes(users, comments)
	if err != nil {
		return fmt.Errorf("failed to create votes: %w", err)
	}
	slog.Info("seeded votes", "count", votes)

	if err := f.recountVotes(comments); err != nil {
		return fmt.Errorf("failed to recount votes: %w", err)
	}

	slog.Info("database seeding complete")
	return nil
}

// clearData deletes in child-first order so foreign keys hold.
func (f *Factory) clearData() error {
	for _, table := range []string{"votes", "comments", "posts", "users"} {
		if err := f.db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}

// CreateUser persists a verified user. Overrides run before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:       gofakeit.Name(),
		Email:      gofakeit.Email(),
		Password:   string(hashed),
		Avatar:     fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		IsVerified: true,
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (f *Factory) createUsers() ([]*models.User, error) {
	users := make([]*models.User, 0, f.opts.Users)

	admin, err := f.CreateUser(func(u *models.User) {
		u.Name = "Admin"
		u.Email = "admin@example.com"
		u.IsAdmin = true
	})
	if err != nil {
		return nil, err
	}
	users = append(users, admin)

	for i := 1; i < f.opts.Users; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// CreatePost persists a post with generated content.
func (f *Factory) CreatePost(overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		Title:   gofakeit.Sentence(6),
		Content: gofakeit.Paragraph(2, 4, 8, "\n"),
		Author:  gofakeit.Name(),
		Image:   fmt.Sprintf("https://picsum.photos/seed/%s/800/400", gofakeit.UUID()),
	}
	for _, override := range overrides {
		override(post)
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

func (f *Factory) createPosts() ([]*models.Post, error) {
	posts := make([]*models.Post, 0, f.opts.Posts)
	for i := 0; i < f.opts.Posts; i++ {
		post, err := f.CreatePost()
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (f *Factory) createComments(users []*models.User, posts []*models.Post) ([]*models.Comment, error) {
	var all []*models.Comment
	for _, post := range posts {
		var onThisPost []*models.Comment
		for i := 0; i < f.opts.CommentsPerPost; i++ {
			comment := &models.Comment{
				Text:   gofakeit.Sentence(12),
				UserID: users[f.rng.Intn(len(users))].ID,
				PostID: post.ID,
			}
			// replies always target an earlier comment on the same post
			if len(onThisPost) > 0 && f.rng.Float64() < f.opts.ReplyChance {
				parent := onThisPost[f.rng.Intn(len(onThisPost))]
				comment.ParentID = &parent.ID
			}
			if err := f.db.Create(comment).Error; err != nil {
				return nil, err
			}
			onThisPost = append(onThisPost, comment)
		}
		all = append(all, onThisPost...)
	}
	return all, nil
}

func (f *Factory) createVotes(users []*models.User, comments []*models.Comment) (int, error) {
	created := 0
	for _, comment := range comments {
		n := f.rng.Intn(f.opts.VotesPerComment + 1)
		// each voter votes at most once per comment
		voters := f.rng.Perm(len(users))
		if n > len(voters) {
			n = len(voters)
		}
		for _, vi := range voters[:n] {
			voteType := models.VoteUp
			if f.rng.Float64() < 0.3 {
				voteType = models.VoteDown
			}
			vote := &models.Vote{
				UserID:    users[vi].ID,
				CommentID: comment.ID,
				VoteType:  voteType,
			}
			if err := f.db.Create(vote).Error; err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

// recountVotes overwrites each comment's counters from the vote table,
// the same way the API recomputes them after a mutation.
func (f *Factory) recountVotes(comments []*models.Comment) error {
	for _, comment := range comments {
		var up, down int64
		if err := f.db.Model(&models.Vote{}).
			Where("comment_id = ? AND vote_type = ?", comment.ID, models.VoteUp).
			Count(&up).Error; err != nil {
			return err
		}
		if err := f.db.Model(&models.Vote{}).
			Where("comment_id = ? AND vote_type = ?", comment.ID, models.VoteDown).
			Count(&down).Error; err != nil {
			return err
		}
		err := f.db.Model(&models.Comment{}).
			Where("id = ?", comment.ID).
			Updates(map[string]any{"upvotes": up, "downvotes": down}).Error
		if err != nil {
			return err
		}
	}
	return nil
}
