package server

import (
	"colloquy/internal/models"
	"colloquy/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListPosts returns every post, newest first.
func (s *Server) ListPosts(c *fiber.Ctx) error {
	posts, err := s.posts.List(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return models.RespondWithList(c, len(posts), posts)
}

// GetPost returns a single post by id.
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	post, err := s.posts.Get(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "", post)
}

// CreatePost creates a post. Admin only.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		Author  string `json:"author"`
		Image   string `json:"image"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("Invalid request body"))
	}

	post, err := s.posts.Create(c.Context(), service.CreatePostInput{
		Title:   req.Title,
		Content: req.Content,
		Author:  req.Author,
		Image:   req.Image,
	})
	if err != nil {
		return fail(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, "Post created", post)
}
