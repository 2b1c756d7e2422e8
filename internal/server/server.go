// Package server contains the HTTP handlers and routes of the forum API.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	_ "usof/docs" // swagger docs
	"usof/internal/cache"
	"usof/internal/config"
	"usof/internal/database"
	"usof/internal/middleware"
	"usof/internal/models"
	"usof/internal/repository"
	"usof/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config          *config.Config
	db              *gorm.DB
	redis           *redis.Client
	app             *fiber.App
	promMiddleware  *fiberprometheus.FiberPrometheus
	userService     *service.UserService
	categoryService *service.CategoryService
	postService     *service.PostService
	commentService  *service.CommentService
	reactionService *service.ReactionService
	accountService  *service.AccountService
}

// Option adjusts a Server built by NewServerWithDeps.
type Option func(*serverOptions)

type serverOptions struct {
	mailer service.Mailer
}

// WithMailer replaces the default LogMailer for account links.
func WithMailer(m service.Mailer) Option {
	return func(o *serverOptions) { o.mailer = m }
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, cache.ConnectOptional(context.Background(), cfg.RedisURL))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil redis client falls back to an in-process token blacklist and disables
// the redis-backed auth rate limit.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, opts ...Option) (*Server, error) {
	if db == nil {
		return nil, errors.New("server requires a database")
	}
	o := serverOptions{mailer: service.LogMailer{BaseURL: cfg.PublicBaseURL}}
	for _, opt := range opts {
		opt(&o)
	}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	likeRepo := repository.NewLikeRepository(db)

	blacklist := cache.NewTokenBlacklist(redisClient)
	userService := service.NewUserService(userRepo, blacklist)

	return &Server{
		config:          cfg,
		db:              db,
		redis:           redisClient,
		promMiddleware:  middleware.InitMetrics("usof-api"),
		userService:     userService,
		categoryService: service.NewCategoryService(categoryRepo),
		postService:     service.NewPostService(postRepo, userRepo, userService.IsAdmin),
		commentService:  service.NewCommentService(commentRepo, postRepo, userRepo, userService.IsAdmin),
		reactionService: service.NewReactionService(likeRepo, userRepo, postRepo, commentRepo, userService.IsAdmin),
		accountService:  service.NewAccountService(userRepo, blacklist, o.mailer, cfg.JWTSecret),
	}, nil
}

// NewApp builds a fiber app with the error handler, middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "usof API",
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// errorHandler renders errors that escaped a handler in the standard envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled request error", "error", err)
	return respondWithAppError(c, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger("/health", "/metrics", "/swagger"))

	// CORS runs before the limiter so throttled responses still carry CORS headers.
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

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/swagger/*", swagger.HandlerDefault)

	api := app.Group("/api")
	authRequired := s.AuthRequired()

	authLimit := func(name string) fiber.Handler {
		return middleware.RateLimit(s.redis, middleware.RateLimitConfig{
			Name:     name,
			Limit:    s.config.AuthRateLimit,
			Window:   time.Duration(s.config.AuthRateWindowSeconds) * time.Second,
			Disabled: s.config.Env == "test",
		})
	}
	auth := api.Group("/auth")
	auth.Post("/register", authLimit("register"), s.Register)
	auth.Post("/login", authLimit("login"), s.Login)
	auth.Post("/logout", authRequired, s.Logout)
	auth.Get("/verify", authRequired, s.Verify)
	auth.Get("/verify-email", s.VerifyEmail)
	auth.Post("/verify-email/resend", authRequired, authLimit("verify-email"), s.ResendVerification)
	auth.Post("/password-reset-request", authLimit("password-reset-request"), s.RequestPasswordReset)
	auth.Post("/password-reset", authLimit("password-reset"), s.ResetPassword)

	users := api.Group("/users")
	users.Get("/", authRequired, s.AdminRequired(), s.ListUsers)
	users.Get("/me", authRequired, s.GetMyProfile)
	users.Put("/me", authRequired, s.UpdateMyProfile)
	users.Get("/username/:username", s.GetUserByUsername)
	users.Get("/email/:email", authRequired, s.GetUserByEmail)
	users.Get("/:id", s.GetUser)
	users.Delete("/:id", authRequired, s.DeleteUser)

	categories := api.Group("/categories")
	categories.Get("/", s.ListCategories)
	categories.Get("/:id", s.GetCategory)
	categories.Post("/", authRequired, s.AdminRequired(), s.CreateCategory)
	categories.Put("/:id", authRequired, s.AdminRequired(), s.UpdateCategory)
	categories.Delete("/:id", authRequired, s.AdminRequired(), s.DeleteCategory)

	// specific /user/:userId before the generic /:id
	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Get("/user/:userId", s.GetUserPosts)
	posts.Get("/:id", s.GetPost)
	posts.Post("/", authRequired, s.CreatePost)
	posts.Put("/:id", authRequired, s.UpdatePost)
	posts.Delete("/:id", authRequired, s.DeletePost)

	comments := api.Group("/comments")
	comments.Get("/", s.GetComments)
	comments.Get("/post/:postId", s.GetPostComments)
	comments.Get("/:id/replies", s.GetCommentReplies)
	comments.Get("/:id", s.GetComment)
	comments.Post("/", authRequired, s.CreateComment)
	comments.Put("/:id", authRequired, s.UpdateComment)
	comments.Delete("/:id", authRequired, s.DeleteComment)

	likes := api.Group("/likes")
	likes.Get("/:kind/:id/count", s.CountReactions)
	likes.Get("/:kind/:id/check", authRequired, s.CheckReaction)
	likes.Post("/:kind/:id", authRequired, s.ToggleReaction)
	likes.Put("/:kind/:id", authRequired, s.CreateReaction)
	likes.Delete("/:id", authRequired, s.DeleteReaction)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: without
// it revoked tokens only live in process memory, so it reports "degraded".
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	switch {
	case dbStatus != "healthy":
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	case redisStatus != "healthy":
		overall = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired validates the bearer token, rejects revoked tokens and stores
// the caller's id and claims in locals.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := middleware.BearerToken(c)
		if !ok {
			return respondWithAppError(c, models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := middleware.ParseToken(s.config.JWTSecret, token)
		if err != nil {
			return respondWithAppError(c, models.NewUnauthorizedError("Invalid or expired token"))
		}

		revoked, err := s.userService.IsRevoked(c.UserContext(), token)
		if err != nil {
			middleware.Logger.ErrorContext(c.UserContext(), "blacklist lookup failed", "error", err)
			return respondWithAppError(c, models.NewInternalError(err))
		}
		if revoked {
			return respondWithAppError(c, models.NewUnauthorizedError("Token has been revoked"))
		}

		c.Locals("userID", claims.UserID())
		c.Locals("claims", claims)
		c.Locals("token", token)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), claims.UserID()))

		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, err := s.userService.IsAdmin(c.UserContext(), currentUserID(c))
		if err != nil && !errors.Is(err, models.ErrUserNotFound) {
			return respondWithAppError(c, err)
		}
		if !admin {
			return respondWithAppError(c, models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
