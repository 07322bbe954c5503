package service

import (
	"context"
	"errors"

	"colloquy/internal/models"
	"colloquy/internal/repository"
	"colloquy/internal/validation"

	"gorm.io/gorm"
)

// PostService handles post creation and retrieval. Posts are immutable
// once created; there are no update or delete operations.
type PostService struct {
	postRepo repository.PostRepository
}

// NewPostService creates a new PostService.
func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

type CreatePostInput struct {
	Title   string
	Content string
	Author  string
	Image   string
}

func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.Title == "" || in.Content == "" || in.Author == "" {
		return nil, models.NewValidationError("Title, content, and author are required")
	}
	if err := validation.ValidatePostTitle(in.Title); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePostContent(in.Content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post := &models.Post{
		Title:   in.Title,
		Content: in.Content,
		Author:  in.Author,
		Image:   in.Image,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) List(ctx context.Context) ([]*models.Post, error) {
	return s.postRepo.List(ctx)
}

func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, err
	}
	return post, nil
}
