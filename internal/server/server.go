// Package server contains the HTTP handlers and routing for the API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"colloquy/internal/cache"
	"colloquy/internal/config"
	"colloquy/internal/database"
	"colloquy/internal/mail"
	"colloquy/internal/middleware"
	"colloquy/internal/models"
	"colloquy/internal/repository"
	"colloquy/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config      *config.Config
	db          *gorm.DB
	redis       *redis.Client
	prom        *fiberprometheus.FiberPrometheus
	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository

	auth     *service.AuthService
	posts    *service.PostService
	comments *service.CommentService
	votes    *service.VoteService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	var mailer mail.Mailer
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		mailer = mail.LogMailer{}
	}

	return NewServerWithDeps(cfg, db, cache.GetClient(), mailer), nil
}

// NewServerWithDeps wires a server from already-constructed dependencies.
// Tests use it to inject an in-memory database and a recording mailer.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, mailer mail.Mailer) *Server {
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	s := &Server{
		config:      cfg,
		db:          db,
		redis:       redisClient,
		prom:        middleware.InitMetrics("colloquy-api"),
		userRepo:    userRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
	}

	s.auth = service.NewAuthService(userRepo, mailer, cfg.JWTSecret, cfg.EmailDomains())
	s.posts = service.NewPostService(postRepo)
	s.comments = service.NewCommentService(commentRepo, postRepo, db, s.isAdminByUserID)
	s.votes = service.NewVoteService(commentRepo, db)

	return s
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())

	// Request ID for log correlation
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	s.prom.RegisterAt(app, "/metrics")
	app.Use(middleware.MetricsMiddleware(s.prom))

	// Security headers
	app.Use(helmet.New())

	// Structured logging middleware
	app.Use(middleware.StructuredLogger())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.HealthLive)
	app.Get("/health/ready", s.HealthReady)

	// Live in-process stats dashboard; Prometheus scrapes /metrics.
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Colloquy Metrics",
	}))

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/register", s.Register)
	auth.Post("/verify-otp", s.VerifyOTP)
	auth.Post("/login", s.Login)
	auth.Post("/logout", s.Logout)
	auth.Get("/me", s.AuthRequired(), s.Me)

	posts := api.Group("/posts")
	posts.Get("/", s.ListPosts)
	posts.Get("/:id", s.GetPost)
	posts.Post("/", s.AuthRequired(), s.AdminRequired(), s.CreatePost)

	comments := api.Group("/comments")
	comments.Get("/", s.ListComments)
	comments.Post("/", s.AuthRequired(), s.CreateComment)
	comments.Delete("/:id", s.AuthRequired(), s.DeleteComment)
	comments.Post("/:id/vote", s.AuthRequired(), s.VoteComment)
}

// HealthLive reports process liveness only.
func (s *Server) HealthLive(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "time": time.Now()})
}

// HealthReady checks the database and Redis before reporting ready.
func (s *Server) HealthReady(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status": "ok",
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// tokenFromRequest extracts the session token. Precedence: cookie,
// then a "token" field in the JSON body, then the Bearer header.
func tokenFromRequest(c *fiber.Ctx) string {
	if t := c.Cookies("token"); t != "" {
		return t
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&body); err == nil && body.Token != "" {
		return body.Token
	}

	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}

	return ""
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(s.config.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token claims"))
		}

		if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != "colloquy-api" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token issuer"))
		}
		if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != "colloquy-client" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token audience"))
		}

		sub, ok := claims["sub"].(string)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid subject claim"))
		}
		userID, err := strconv.ParseUint(sub, 10, 32)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid user ID in token"))
		}

		c.Locals("userID", uint(userID))
		if isAdmin, ok := claims["isAdmin"].(bool); ok {
			c.Locals("isAdmin", isAdmin)
		}

		return c.Next()
	}
}

// AdminRequired gates a route behind the is_admin flag. It re-reads the
// flag from the database so a demotion takes effect before the token
// expires.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userID").(uint)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		isAdmin, err := s.isAdminByUserID(c.Context(), userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		}
		if !isAdmin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin privileges required"))
		}

		return c.Next()
	}
}

// Shutdown releases the server's connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			slog.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			slog.Error("error closing redis", "error", rerr)
		}
	}

	slog.InfoContext(ctx, "server shutdown complete")
	return nil
}
