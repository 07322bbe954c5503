// Package service contains the application's business logic.
package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"colloquy/internal/mail"
	"colloquy/internal/models"
	"colloquy/internal/observability"
	"colloquy/internal/repository"
	"colloquy/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenTTL is the session token lifetime and cookie lifetime.
	TokenTTL = 7 * 24 * time.Hour
	// OTPTTL is how long a registration code stays valid.
	OTPTTL = 10 * time.Minute

	tokenIssuer   = "colloquy-api"
	tokenAudience = "colloquy-client"
)

// AuthService handles registration, OTP verification and login.
// The email-domain allowlist and the JWT secret are injected at
// construction time, never read from process environment at call time.
type AuthService struct {
	userRepo       repository.UserRepository
	mailer         mail.Mailer
	jwtSecret      string
	allowedDomains []string
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, mailer mail.Mailer, jwtSecret string, allowedDomains []string) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		mailer:         mailer,
		jwtSecret:      jwtSecret,
		allowedDomains: allowedDomains,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Avatar   string
}

// Register creates (or refreshes) a pending unverified user and sends the
// OTP by email. A verified user holding the email is a conflict; an
// unverified one is silently overwritten with rotated credentials.
// Mail dispatch failure aborts the registration.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) error {
	if in.Name == "" || in.Email == "" || in.Password == "" || in.Avatar == "" {
		return models.NewValidationError("Name, email, password, and avatar are required")
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.ValidateEmail(email); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmailDomain(email, s.allowedDomains); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil && existing.IsVerified {
		return models.NewConflictError("User already exists with this email")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}

	code, err := generateOTP()
	if err != nil {
		return models.NewInternalError(err)
	}
	otpHash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	expires := time.Now().Add(OTPTTL)

	if existing != nil {
		// Re-registration of a pending account rotates everything.
		existing.Name = in.Name
		existing.Password = string(passwordHash)
		existing.Avatar = in.Avatar
		existing.OTPHash = string(otpHash)
		existing.OTPExpiresAt = &expires
		if err := s.userRepo.Update(ctx, existing); err != nil {
			return err
		}
	} else {
		user := &models.User{
			Name:         in.Name,
			Email:        email,
			Password:     string(passwordHash),
			Avatar:       in.Avatar,
			OTPHash:      string(otpHash),
			OTPExpiresAt: &expires,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return err
		}
	}

	body, err := mail.RenderOTPEmail(code, int(OTPTTL.Minutes()))
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.mailer.Send(ctx, email, "Your Colloquy verification code", body); err != nil {
		return models.NewInternalError(err)
	}
	observability.OTPEmailsSent.Inc()

	return nil
}

// VerifyOTP completes email verification. The unverified -> verified
// transition is one-way; OTP state is cleared on success.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) error {
	if email == "" || code == "" {
		return models.NewValidationError("Email and OTP are required")
	}
	if err := validation.ValidateOTP(code); err != nil {
		return models.NewOTPInvalidError()
	}

	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewNotFoundError("User", email)
	}
	if user.OTPHash == "" || user.OTPExpiresAt == nil {
		return models.NewValidationError("No pending verification for this email")
	}
	if time.Now().After(*user.OTPExpiresAt) {
		return models.NewOTPExpiredError()
	}
	if bcrypt.CompareHashAndPassword([]byte(user.OTPHash), []byte(code)) != nil {
		return models.NewOTPInvalidError()
	}

	user.IsVerified = true
	user.OTPHash = ""
	user.OTPExpiresAt = nil
	return s.userRepo.Update(ctx, user)
}

// Login authenticates credentials and issues a signed session token.
// Absent, unverified, and wrong-password all yield the same 401 message.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", models.NewValidationError("Email and password are required")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if user == nil || !user.IsVerified {
		return nil, "", models.NewUnauthorizedError("Invalid credentials or user not verified")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", models.NewUnauthorizedError("Invalid credentials")
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}
	return user, token, nil
}

// CurrentUser fetches the caller's profile.
func (s *AuthService) CurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, models.NewNotFoundError("User", userID)
	}
	return user, nil
}

// generateToken creates a signed JWT embedding the user id and admin flag.
func (s *AuthService) generateToken(user *models.User) (string, error) {
	if s.jwtSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     strconv.FormatUint(uint64(user.ID), 10),
		"isAdmin": user.IsAdmin,
		"iss":     tokenIssuer,
		"aud":     tokenAudience,
		"exp":     now.Add(TokenTTL).Unix(),
		"iat":     now.Unix(),
		"nbf":     now.Unix(),
		"jti":     fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8]),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// generateOTP returns a 6-digit numeric code from crypto/rand.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
