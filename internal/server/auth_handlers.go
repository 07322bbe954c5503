package server

import (
	"time"

	"colloquy/internal/models"
	"colloquy/internal/service"

	"github.com/gofiber/fiber/v2"
)

// sessionCookie builds the session cookie carrying the JWT. SameSite=None
// with Secure so the browser sends it on cross-origin API calls.
func sessionCookie(token string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     "token",
		Value:    token,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteNoneMode,
		Path:     "/",
	}
}

// Register handles new account registration and sends the OTP email.
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Avatar   string `json:"avatar"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("Invalid request body"))
	}

	err := s.auth.Register(c.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Avatar:   req.Avatar,
	})
	if err != nil {
		return fail(c, err)
	}

	return models.RespondWithData(c, fiber.StatusCreated,
		"Registration started, check your email for the verification code", nil)
}

// VerifyOTP confirms the emailed code and marks the account verified.
func (s *Server) VerifyOTP(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("Invalid request body"))
	}

	if err := s.auth.VerifyOTP(c.Context(), req.Email, req.OTP); err != nil {
		return fail(c, err)
	}

	return models.RespondWithData(c, fiber.StatusOK, "Email verified, you can now log in", nil)
}

// Login authenticates a verified user and issues the session token as
// both an httpOnly cookie and a body field.
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("Invalid request body"))
	}

	user, token, err := s.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}

	c.Cookie(sessionCookie(token, time.Now().Add(service.TokenTTL)))

	return models.RespondWithData(c, fiber.StatusOK, "Login successful", fiber.Map{
		"token": token,
		"user":  user.Public(),
	})
}

// Me returns the authenticated user's public profile.
func (s *Server) Me(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	user, err := s.auth.CurrentUser(c.Context(), userID)
	if err != nil {
		return fail(c, err)
	}

	return models.RespondWithData(c, fiber.StatusOK, "", user.Public())
}

// Logout clears the session cookie. Tokens are stateless, so an
// already-issued token stays valid until it expires; logout only
// removes the browser's copy.
func (s *Server) Logout(c *fiber.Ctx) error {
	c.Cookie(sessionCookie("", time.Now().Add(-time.Hour)))
	return models.RespondWithData(c, fiber.StatusOK, "Logged out", nil)
}
