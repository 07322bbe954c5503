package service

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"colloquy/internal/models"
	"colloquy/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a fresh in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Post{}, &models.Comment{}, &models.Vote{},
	))
	return db
}

var otpPattern = regexp.MustCompile(`\d{6}`)

// recordingMailer captures sent mail so tests can extract the OTP.
type recordingMailer struct {
	mu     sync.Mutex
	sent   int
	lastTo string
	bodies []string
	fail   bool
}

func (m *recordingMailer) Send(_ context.Context, to, _, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errSMTPDown
	}
	m.sent++
	m.lastTo = to
	m.bodies = append(m.bodies, htmlBody)
	return nil
}

// lastOTP pulls the 6-digit code out of the most recent email body.
func (m *recordingMailer) lastOTP(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.bodies)
	code := otpPattern.FindString(m.bodies[len(m.bodies)-1])
	require.Len(t, code, 6)
	return code
}

var errSMTPDown = &smtpDownError{}

type smtpDownError struct{}

func (*smtpDownError) Error() string { return "smtp relay unreachable" }

// newTestAuthService wires an AuthService against the given database.
func newTestAuthService(db *gorm.DB, mailer *recordingMailer) *AuthService {
	return NewAuthService(repository.NewUserRepository(db), mailer, "test-secret", []string{"example.com"})
}

// mustRegisterVerified runs the whole registration flow and returns the
// verified user.
func mustRegisterVerified(t *testing.T, db *gorm.DB, auth *AuthService, mailer *recordingMailer, email string) *models.User {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, auth.Register(ctx, RegisterInput{
		Name:     "Test User",
		Email:    email,
		Password: "password123",
		Avatar:   "https://i.pravatar.cc/150?u=test",
	}))
	require.NoError(t, auth.VerifyOTP(ctx, email, mailer.lastOTP(t)))

	var user models.User
	require.NoError(t, db.Where("email = ?", email).First(&user).Error)
	return &user
}

// createUser inserts a verified user directly, bypassing registration.
func createUser(t *testing.T, db *gorm.DB, email string, isAdmin bool) *models.User {
	t.Helper()
	user := &models.User{
		Name:       "Seeded User",
		Email:      email,
		Password:   "irrelevant",
		Avatar:     "https://i.pravatar.cc/150?u=seed",
		IsAdmin:    isAdmin,
		IsVerified: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// createPost inserts a post directly.
func createPost(t *testing.T, db *gorm.DB) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:   "A discussion-worthy title",
		Content: "Some content that is long enough to pass validation.",
		Author:  "Editorial Team",
	}
	require.NoError(t, db.Create(post).Error)
	return post
}
