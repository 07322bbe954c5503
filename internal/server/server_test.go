package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"

	"colloquy/internal/config"
	"colloquy/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The Prometheus middleware registers collectors globally, so the test
// app is built once and shared by every test in this package.
var (
	setupOnce  sync.Once
	testApp    *fiber.App
	testDB     *gorm.DB
	testMailer *capturingMailer
)

type capturingMailer struct {
	mu     sync.Mutex
	bodies []string
}

func (m *capturingMailer) Send(_ context.Context, _, _, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies = append(m.bodies, htmlBody)
	return nil
}

var otpPattern = regexp.MustCompile(`\d{6}`)

func (m *capturingMailer) lastOTP(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.bodies)
	code := otpPattern.FindString(m.bodies[len(m.bodies)-1])
	require.Len(t, code, 6)
	return code
}

func setup(t *testing.T) {
	t.Helper()
	setupOnce.Do(func() {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			panic(err)
		}
		if err := db.AutoMigrate(
			&models.User{}, &models.Post{}, &models.Comment{}, &models.Vote{},
		); err != nil {
			panic(err)
		}

		cfg := &config.Config{
			Port:                "0",
			JWTSecret:           "test-secret",
			AllowedOrigins:      "http://localhost:5173",
			AllowedEmailDomains: "example.com",
			Env:                 "test",
		}

		testDB = db
		testMailer = &capturingMailer{}
		srv := NewServerWithDeps(cfg, db, nil, testMailer)

		testApp = fiber.New(fiber.Config{
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				if fe, ok := err.(*fiber.Error); ok {
					return models.RespondWithError(c, fe.Code, models.NewValidationError(fe.Message))
				}
				return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
			},
		})
		srv.SetupMiddleware(testApp)
		srv.SetupRoutes(testApp)
	})
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type reqOptions struct {
	bearer string
	cookie string
}

func doRequest(t *testing.T, method, path string, body any, opts reqOptions) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+opts.bearer)
	}
	if opts.cookie != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: opts.cookie})
	}

	resp, err := testApp.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var env envelope
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), "body: %s", raw)
	}
	return resp, env
}

// registerAndLogin walks a fresh user through the whole flow and
// returns the session token.
func registerAndLogin(t *testing.T, email string) string {
	t.Helper()

	resp, _ := doRequest(t, "POST", "/api/v1/auth/register", fiber.Map{
		"name":     "Flow User",
		"email":    email,
		"password": "password123",
		"avatar":   "https://i.pravatar.cc/150?u=" + email,
	}, reqOptions{})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, _ = doRequest(t, "POST", "/api/v1/auth/verify-otp", fiber.Map{
		"email": email,
		"otp":   testMailer.lastOTP(t),
	}, reqOptions{})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, env := doRequest(t, "POST", "/api/v1/auth/login", fiber.Map{
		"email":    email,
		"password": "password123",
	}, reqOptions{})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

// seedAdmin inserts a verified admin directly and returns a token for it.
func seedAdmin(t *testing.T, email string) string {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("admin-pass-123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, testDB.Create(&models.User{
		Name:       "Admin",
		Email:      email,
		Password:   string(hashed),
		Avatar:     "https://i.pravatar.cc/150?u=" + email,
		IsAdmin:    true,
		IsVerified: true,
	}).Error)

	resp, env := doRequest(t, "POST", "/api/v1/auth/login", fiber.Map{
		"email":    email,
		"password": "admin-pass-123",
	}, reqOptions{})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Token
}

// createTestPost creates a post through the API using an admin token.
func createTestPost(t *testing.T, adminToken string) uint {
	t.Helper()
	resp, env := doRequest(t, "POST", "/api/v1/posts", fiber.Map{
		"title":   "A post for testing",
		"content": "Long enough content for the validators to accept.",
		"author":  "Editorial Team",
	}, reqOptions{bearer: adminToken})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var post models.Post
	require.NoError(t, json.Unmarshal(env.Data, &post))
	require.NotZero(t, post.ID)
	return post.ID
}

func sessionCookieFrom(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func commentsPath(postID uint, sortBy string) string {
	path := fmt.Sprintf("/api/v1/comments?post_id=%d", postID)
	if sortBy != "" {
		path += "&sortBy=" + sortBy
	}
	return path
}
