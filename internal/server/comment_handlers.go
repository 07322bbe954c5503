package server

import (
	"strconv"

	"colloquy/internal/models"
	"colloquy/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListComments returns a post's comments. The post_id query parameter is
// required; sortBy is newest (default), oldest, or upvotes.
func (s *Server) ListComments(c *fiber.Ctx) error {
	rawPostID := c.Query("post_id")
	if rawPostID == "" {
		return fail(c, models.NewValidationError("post_id query parameter is required"))
	}
	postID, err := strconv.ParseUint(rawPostID, 10, 32)
	if err != nil || postID == 0 {
		return fail(c, models.NewValidationError("Invalid post_id"))
	}

	comments, err := s.comments.List(c.Context(), uint(postID), c.Query("sortBy"))
	if err != nil {
		return fail(c, err)
	}
	return models.RespondWithList(c, len(comments), comments)
}

// CreateComment creates a top-level comment or a reply.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		PostID   uint   `json:"post_id"`
		ParentID *uint  `json:"parent_id"`
		Text     string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("Invalid request body"))
	}

	comment, err := s.comments.Create(c.Context(), service.CreateCommentInput{
		UserID:   userID,
		PostID:   req.PostID,
		ParentID: req.ParentID,
		Text:     req.Text,
	})
	if err != nil {
		return fail(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, "Comment created", comment)
}

// DeleteComment removes a comment and its whole reply subtree. Only the
// author or an admin may delete.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	err = s.comments.Delete(c.Context(), service.DeleteCommentInput{
		UserID:    userID,
		CommentID: id,
	})
	if err != nil {
		return fail(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Comment deleted", nil)
}

// VoteComment applies an upvote or downvote and returns the comment's
// recomputed counters.
func (s *Server) VoteComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var req struct {
		VoteType int `json:"vote_type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("Invalid request body"))
	}

	counts, err := s.votes.Vote(c.Context(), service.VoteInput{
		UserID:    userID,
		CommentID: id,
		VoteType:  req.VoteType,
	})
	if err != nil {
		return fail(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Vote recorded", counts)
}
