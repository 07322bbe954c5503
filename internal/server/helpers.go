package server

import (
	"context"
	"strconv"

	"colloquy/internal/models"

	"github.com/gofiber/fiber/v2"
)

// parseID parses a positive integer route parameter.
func parseID(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewValidationError("Invalid " + name)
	}
	return uint(id), nil
}

// statusForError maps service error codes to HTTP statuses.
func statusForError(err error) int {
	appErr, ok := err.(*models.AppError)
	if !ok {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case models.CodeValidation, models.CodeOTPExpired, models.CodeOTPInvalid:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeForbidden:
		return fiber.StatusForbidden
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes the error envelope with the status derived from the error.
func fail(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, statusForError(err), err)
}

// isAdminByUserID answers whether the user currently holds the admin
// flag in the database.
func (s *Server) isAdminByUserID(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}
