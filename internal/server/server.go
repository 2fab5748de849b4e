// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "socialhub/docs" // swagger docs
	"socialhub/internal/ai"
	"socialhub/internal/auth"
	"socialhub/internal/bootstrap"
	"socialhub/internal/cache"
	"socialhub/internal/config"
	"socialhub/internal/middleware"
	"socialhub/internal/models"
	"socialhub/internal/notifications"
	"socialhub/internal/repository"
	"socialhub/internal/service"
	"socialhub/internal/storage"

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

// orphanMinAge keeps the sweeper away from artifacts whose DB write may still be in flight.
const orphanMinAge = time.Hour

// Deps are optional collaborators for NewServerWithDeps. Zero values are
// replaced by the configured defaults.
type Deps struct {
	Generator ai.Generator
	Store     *storage.DiskStore
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	tokens      *auth.TokenManager
	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository
	fileRepo    repository.FileRepository
	store       *storage.DiskStore
	sweeper     *storage.Sweeper

	notifier *notifications.Notifier
	hub      *notifications.Hub
	events   *notifications.Dispatcher

	authService    *service.AuthService
	postService    *service.PostService
	commentService *service.CommentService
	followService  *service.FollowService
	userService    *service.UserService
	aiService      *service.AIService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(context.Background(), cfg, bootstrap.Options{SeedDemo: cfg.SeedDemoData})
	if err != nil {
		return nil, err
	}

	var gen ai.Generator
	if cfg.GeminiAPIKey == "" {
		middleware.Logger.Warn("GEMINI_API_KEY not set, AI endpoints will report upstream errors")
	} else {
		gemini, err := ai.NewGeminiGenerator(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		gen = gemini
	}

	return NewServerWithDeps(cfg, db, redisClient, Deps{Generator: gen})
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, deps Deps) (*Server, error) {
	store := deps.Store
	if store == nil {
		var err error
		store, err = storage.NewDiskStore(cfg.UploadDir, cfg.UploadURLPrefix)
		if err != nil {
			return nil, fmt.Errorf("media store: %w", err)
		}
	}
	cache.SetClient(redisClient)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("socialhub-api"),
		tokens:         auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL()),
		userRepo:       repository.NewUserRepository(db),
		postRepo:       repository.NewPostRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		followRepo:     repository.NewFollowRepository(db),
		fileRepo:       repository.NewFileRepository(db),
		store:          store,
		notifier:       notifications.NewNotifier(redisClient),
		hub:            notifications.NewHub(),
	}
	s.events = notifications.NewDispatcher(s.hub, s.notifier)
	s.sweeper = storage.NewSweeper(store, s.fileRepo, orphanMinAge)

	maxUpload := cfg.MaxUploadBytes()
	s.authService = service.NewAuthService(s.userRepo, s.tokens)
	s.postService = service.NewPostService(s.postRepo, store, maxUpload)
	s.commentService = service.NewCommentService(s.commentRepo, s.postRepo, s.events)
	s.followService = service.NewFollowService(s.followRepo, s.userRepo, s.events)
	s.userService = service.NewUserService(s.userRepo, s.followRepo, s.fileRepo, store, maxUpload,
		service.ProfileImageOptions{MaxPx: cfg.ProfileImageMaxPx, Quality: cfg.ProfileImageQual})
	s.aiService = service.NewAIService(deps.Generator, s.postRepo, service.AIConfig{
		TextModel:     cfg.AITextModel,
		AnalysisModel: cfg.AIAnalysisModel,
		Timeout:       cfg.AITimeout(),
	})

	models.ExposeErrorDetails = !cfg.IsProduction()
	return s, nil
}

// NewApp builds the Fiber application with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "SocialHub API",
		BodyLimit: int(s.config.MaxUploadBytes())*storage.MaxFilesPerPost + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return models.RespondWithError(c, fe.Code, &models.AppError{Code: codeForStatus(fe.Code), Message: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "path", c.Path(), "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return models.CodeNotFound
	case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge, fiber.StatusUpgradeRequired:
		return models.CodeValidation
	case fiber.StatusUnauthorized:
		return models.CodeUnauthorized
	case fiber.StatusForbidden:
		return models.CodeForbidden
	default:
		return models.CodeInternal
	}
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Uploaded media is loaded cross-origin by the SPA.
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rate-limited responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP), off in test and stress
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.RateLimitsDisabled()
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Message: "Too many requests, please try again later.",
				Code:    "RATE_LIMITED",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Static(strings.TrimSuffix(s.store.URLFor(""), "/"), s.store.Dir(), fiber.Static{MaxAge: 3600})

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	requireAuth := s.AuthRequired()

	authGroup := api.Group("/auth")
	authGroup.Post("/register", middleware.RateLimit(s.redis, 5, time.Hour, "register"), s.Register)
	authGroup.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	authGroup.Post("/logout", s.Logout)

	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Get("/me", requireAuth, s.GetMyPosts)
	posts.Post("/", requireAuth, middleware.RateLimit(s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Delete("/:id", requireAuth, s.DeletePost)
	posts.Get("/:postId/comments", s.GetComments)
	posts.Post("/:postId/comments", requireAuth,
		middleware.RateLimit(s.redis, 20, time.Minute, "create_comment"), s.CreateComment)

	api.Delete("/comments/:id", requireAuth, s.DeleteComment)

	follow := api.Group("/follow")
	follow.Post("/:id/follow", requireAuth, s.FollowUser)
	follow.Post("/:id/unfollow", requireAuth, s.UnfollowUser)
	follow.Get("/:id/followers", s.GetFollowers)
	follow.Get("/:id/following", s.GetFollowing)
	follow.Get("/:id/status", requireAuth, s.GetFollowStatus)

	users := api.Group("/users", requireAuth)
	users.Get("/profile/:id", s.GetProfile)
	users.Put("/profile", s.UpdateProfile)
	users.Delete("/profile-pic", s.DeleteProfilePicture)

	api.Post("/upload", requireAuth, middleware.RateLimit(s.redis, 10, 10*time.Minute, "upload"), s.UploadProfilePicture)

	aiGroup := api.Group("/ai", middleware.RateLimit(s.redis, 20, time.Minute, "ai"))
	aiGroup.Post("/summarize", s.SummarizeComments)
	aiGroup.Post("/suggest", s.SuggestReply)
	aiGroup.Post("/analyze-resume", s.AnalyzeResume)

	api.Get("/ws", requireUpgrade, s.AuthRequiredForWebSocket(), s.WebsocketHandler())
}

// AuthRequired returns the bearer-token authentication middleware.
func (s *Server) AuthRequired() fiber.Handler {
	return middleware.AuthRequired(s.tokens, s.userRepo)
}

// AuthRequiredForWebSocket also accepts ?token= since browsers cannot set headers on WebSocket upgrades.
func (s *Server) AuthRequiredForWebSocket() fiber.Handler {
	return middleware.AuthRequired(s.tokens, s.userRepo, middleware.AuthOptions{AllowQueryToken: true})
}

// LivenessCheck handles liveness check requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness check requests. Redis is optional, so only
// the database decides readiness.
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

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus == "unhealthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database":    dbStatus,
			"redis":       redisStatus,
			"connections": s.hub.ConnectionCount(),
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.notifier.Enabled() {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			middleware.Logger.Error("failed to start notification wiring", "error", err)
		}
	}

	if err := s.sweeper.Start(s.config.MediaSweepSchedule); err != nil {
		return fmt.Errorf("media sweeper: %w", err)
	}

	middleware.Logger.Info("Server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	s.sweeper.Stop(ctx)

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down notification hub", "error", err)
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

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
