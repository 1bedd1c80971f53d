// Package server contains the HTTP handlers for the marketplace API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "tradehub/docs" // swagger docs
	"tradehub/internal/auth"
	"tradehub/internal/cache"
	"tradehub/internal/config"
	"tradehub/internal/database"
	"tradehub/internal/featureflags"
	"tradehub/internal/middleware"
	"tradehub/internal/models"
	"tradehub/internal/notifications"
	"tradehub/internal/repository"
	"tradehub/internal/service"
	"tradehub/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	featureFlags  *featureflags.Manager
	notifier      *notifications.Notifier
	storage       storage.Storage
	authenticator *auth.Authenticator

	authService     *service.AuthService
	tradeService    *service.TradeService
	forumService    *service.ForumService
	wishlistService *service.WishlistService
	eventService    *service.EventService
	commentService  *service.CommentService
	reactionService *service.ReactionService
	userService     *service.UserService
	moderation      *service.ModerationService
	uploadService   *service.UploadService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	store, err := storage.NewLocalStorage(storage.Config{
		BasePath: cfg.UploadDir,
		BaseURL:  cfg.UploadBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("upload storage: %w", err)
	}

	flags := featureflags.NewManager(cfg.FeatureFlags, featureflags.Defaults)

	var sinks []notifications.Sink
	if flags.Enabled(featureflags.AuditLog, 0) {
		if sink := notifications.NewKafkaSink(cfg.KafkaBrokerList(), cfg.KafkaAuditTopic); sink != nil {
			sinks = append(sinks, sink)
		}
	}
	notifier := notifications.NewNotifier(redisClient, sinks...)

	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	trades := repository.NewTradeRepository(db)
	posts := repository.NewForumRepository(db)
	wishlist := repository.NewWishlistRepository(db)
	events := repository.NewEventRepository(db)
	comments := repository.NewCommentRepository(db)
	reactions := repository.NewReactionRepository(db)
	reports := repository.NewReportRepository(db)
	vouches := repository.NewVouchRepository(db)

	tokens := auth.NewTokenIssuer(cfg)
	lifecycle := service.NewLifecycleService(repository.NewLifecycleRepository(db), trades, posts, wishlist, events, comments, store)
	engagement := service.NewEngagement(reactions, comments)

	server := &Server{
		config:          cfg,
		db:              db,
		redis:           redisClient,
		promMiddleware:  middleware.InitMetrics("tradehub-api"),
		featureFlags:    flags,
		notifier:        notifier,
		storage:         store,
		authenticator:   auth.NewAuthenticator(tokens, users, sessions),
		authService:     service.NewAuthService(users, sessions, tokens),
		tradeService:    service.NewTradeService(trades, engagement, lifecycle),
		forumService:    service.NewForumService(posts, engagement, lifecycle, notifier),
		wishlistService: service.NewWishlistService(wishlist, lifecycle),
		eventService:    service.NewEventService(events, engagement, lifecycle),
		commentService:  service.NewCommentService(comments, posts, lifecycle),
		reactionService: service.NewReactionService(reactions, lifecycle),
		userService:     service.NewUserService(users, vouches),
		moderation:      service.NewModerationService(reports, users, vouches, lifecycle, notifier),
		uploadService:   service.NewUploadService(store, cfg),
	}

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
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

	// Global rate limiting (200 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        200,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  models.CodeRateLimited,
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

	if strings.HasPrefix(s.config.UploadBaseURL, "/") {
		app.Static(s.config.UploadBaseURL, s.config.UploadDir)
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Tradehub Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	optional := s.OptionalAuth()
	protected := s.AuthRequired()

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "register"), s.Register)
	authRoutes.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	authRoutes.Post("/logout", protected, s.Logout)
	authRoutes.Post("/logout-all", protected, s.LogoutAll)
	authRoutes.Get("/me", protected, s.Me)

	trades := api.Group("/trades")
	trades.Get("/", optional, s.ListTrades)
	trades.Post("/", protected, middleware.RateLimit(
		s.redis, 10, 10*time.Minute, "create_trade"), s.CreateTrade)
	trades.Post("/:id/vote", protected, s.VoteTrade)
	trades.Get("/:id/comments", s.commentListHandler(models.ResourceTrade))
	trades.Post("/:id/comments", protected, middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.commentCreateHandler(models.ResourceTrade))
	trades.Get("/:id", optional, s.GetTrade)
	trades.Put("/:id", protected, s.UpdateTrade)
	trades.Delete("/:id", protected, s.DeleteTrade)

	forum := api.Group("/forum")
	forum.Get("/", optional, s.ListForumPosts)
	forum.Post("/", protected, middleware.RateLimit(
		s.redis, 10, 10*time.Minute, "create_post"), s.CreateForumPost)
	forum.Post("/:id/vote", protected, s.VoteForumPost)
	forum.Post("/:id/pin", protected, s.StaffRequired(), s.PinForumPost)
	forum.Post("/:id/lock", protected, s.StaffRequired(), s.LockForumPost)
	forum.Get("/:id/comments", s.commentListHandler(models.ResourceForumPost))
	forum.Post("/:id/comments", protected, middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.commentCreateHandler(models.ResourceForumPost))
	forum.Get("/:id", optional, s.GetForumPost)
	forum.Put("/:id", protected, s.UpdateForumPost)
	forum.Delete("/:id", protected, s.DeleteForumPost)

	events := api.Group("/events")
	events.Get("/", optional, s.ListEvents)
	events.Post("/", protected, s.CreateEvent)
	events.Post("/:id/like", protected, s.LikeEvent)
	events.Get("/:id/comments", s.commentListHandler(models.ResourceEvent))
	events.Post("/:id/comments", protected, middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.commentCreateHandler(models.ResourceEvent))
	events.Get("/:id", optional, s.GetEvent)
	events.Put("/:id", protected, s.UpdateEvent)
	events.Delete("/:id", protected, s.DeleteEvent)

	wishlist := api.Group("/wishlist")
	wishlist.Get("/", s.ListWishlist)
	// Define /me before the generic /:id route
	wishlist.Get("/me", protected, s.GetMyWishlist)
	wishlist.Post("/", protected, s.CreateWishlistItem)
	wishlist.Get("/:id", s.GetWishlistItem)
	wishlist.Put("/:id", protected, s.UpdateWishlistItem)
	wishlist.Delete("/:id", protected, s.DeleteWishlistItem)

	api.Delete("/comments/:id", protected, s.DeleteComment)

	api.Post("/reports", protected, middleware.RateLimit(
		s.redis, 10, 10*time.Minute, "file_report"), s.FileReport)

	users := api.Group("/users")
	users.Put("/me", protected, s.UpdateMyProfile)
	users.Post("/me/verification-request", protected, s.RequestVerification)
	users.Get("/:id/wishlist", s.GetUserWishlist)
	users.Get("/:id/vouches", s.FeatureRequired(featureflags.Vouches), s.ListVouches)
	users.Post("/:id/vouch", protected, s.FeatureRequired(featureflags.Vouches), middleware.RateLimit(
		s.redis, 10, time.Hour, "vouch"), s.VouchForUser)
	users.Get("/:id", optional, s.GetUserProfile)

	api.Post("/uploads", protected, s.FeatureRequired(featureflags.Uploads), middleware.RateLimit(
		s.redis, 20, 10*time.Minute, "upload"), s.UploadImage)

	admin := api.Group("/admin", protected, s.StaffRequired())
	admin.Get("/reports", s.ListReports)
	admin.Get("/reports/flagged", s.ListFlaggedContent)
	admin.Post("/reports/:id/resolve", s.ResolveReport)
	admin.Get("/users", s.ListUsers)
	admin.Get("/users/:id", s.GetAdminUserDetail)
	admin.Post("/users/:id/ban", s.BanUser)
	admin.Put("/users/:id/role", s.AdminRequired(), s.SetUserRole)
	admin.Put("/users/:id/active", s.AdminRequired(), s.SetUserActive)
	admin.Post("/users/:id/verification", s.ResolveVerification)
	admin.Get("/verification-requests", s.ListVerificationRequests)
	admin.Get("/feature-flags", s.AdminRequired(), s.GetFeatureFlags)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
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
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Tradehub API",
		BodyLimit: int(s.uploadService.MaxUploadSize()) + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message, Code: codeForStatus(fe.Code)})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.NewApp()

	if err := s.notifier.StartAuditSubscriber(s.shutdownCtx, s.logAuditEvent); err != nil {
		middleware.Logger.Warn("audit subscriber unavailable", slog.String("error", err.Error()))
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

func (s *Server) logAuditEvent(event notifications.AuditEvent) {
	middleware.Logger.Info("moderation audit",
		slog.String("action", event.Action),
		slog.Uint64("actor_id", uint64(event.ActorID)),
		slog.String("target", event.Key()))
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.notifier.Close(); err != nil {
		middleware.Logger.Error("error closing audit sinks", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
