// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	_ "murmur/docs" // swagger docs
	"murmur/internal/bootstrap"
	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/observability"
	"murmur/internal/repository"
	"murmur/internal/service"

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

const (
	defaultOrigins   = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	defaultTokenTTL  = 24 * time.Hour
	revokedKeyPrefix = "blacklist:"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	network        *service.Network
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	archive        repository.NotificationRepository
	notifier       *notifications.Notifier
	hub            *notifications.Hub
}

// NewServer initializes the runtime (stores, network, optional demo data)
// and wires every delivery sink.
func NewServer(cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedDemo: cfg.SeedDemo})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, rt.Network, rt.DB, rt.Redis)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// db and redisClient may be nil; the archive and Redis fan-out are then
// disabled and the hub receives notifications directly.
func NewServerWithDeps(cfg *config.Config, network *service.Network, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if network == nil {
		return nil, errors.New("network is required")
	}

	s := &Server{
		config:         cfg,
		network:        network,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("murmur-api"),
		hub:            notifications.NewHub(),
	}

	if redisClient != nil {
		// The hub is fed from the Redis subscription so every replica's
		// sockets see the notification.
		s.notifier = notifications.NewNotifier(redisClient)
		network.AddSink(s.notifier)
	} else {
		network.AddSink(s.hub)
	}

	if db != nil {
		s.archive = repository.NewNotificationRepository(db, network.Name(), network.InstanceID())
		network.AddSink(s.archive)
	}

	return s, nil
}

// Network returns the engine served by s.
func (s *Server) Network() *service.Network {
	return s.network
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so throttled responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = defaultOrigins
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	api.Get("/network", s.GetNetworkSummary)

	accounts := api.Group("/accounts")
	accounts.Get("/", s.GetAccounts)
	accounts.Get("/:name/followers", s.GetFollowers)
	accounts.Get("/:name/following", s.GetFollowing)
	accounts.Get("/:name/posts", s.GetAccountPosts)
	accounts.Post("/:name/follow", s.AuthRequired(), s.Follow)
	accounts.Delete("/:name/follow", s.AuthRequired(), s.Unfollow)
	accounts.Get("/:name", s.GetAccount)

	notificationRoutes := api.Group("/notifications", s.AuthRequired())
	notificationRoutes.Get("/archive", s.GetArchivedNotifications)
	notificationRoutes.Get("/", s.GetNotifications)

	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Post("/", s.AuthRequired(), s.CreatePost)
	// Specific /:id/:resource routes before the generic /:id route.
	posts.Get("/:id/render", s.RenderPost)
	posts.Get("/:id/media", s.GetPostMedia)
	posts.Post("/:id/like", s.AuthRequired(), s.LikePost)
	posts.Post("/:id/comments", s.AuthRequired(), middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.CommentOnPost)
	posts.Post("/:id/discount", s.AuthRequired(), s.DiscountPost)
	posts.Post("/:id/sold", s.AuthRequired(), s.MarkPostSold)
	posts.Get("/:id", s.GetPost)

	api.Get("/ws", s.AuthRequired(), s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. The database and Redis
// are optional; they only fail readiness when configured and unreachable.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "disabled"
	if s.db != nil {
		dbStatus = "healthy"
		if err := database.Ping(ctx, s.db); err != nil {
			dbStatus = "unhealthy"
		}
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	graphStatus := "healthy"
	if err := s.network.CheckGraph(); err != nil {
		graphStatus = "unhealthy"
		observability.GlobalLogger.ErrorContext(ctx, "follow graph inconsistent", slog.String("error", err.Error()))
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" || graphStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"network": s.network.Name(),
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"graph":    graphStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired returns the authentication middleware. The token must be valid,
// not revoked, and its account must still be logged in to the network.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Browsers cannot set headers on WebSocket upgrades.
		allowQuery := c.Path() == "/api/ws"
		tokenString := middleware.BearerToken(c, allowQuery)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := middleware.ParseToken(s.config.JWTSecret, tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		if claims.JTI != "" && s.redis != nil {
			revoked, rerr := s.redis.Exists(c.UserContext(), revokedKeyPrefix+claims.JTI).Result()
			if rerr == nil && revoked > 0 {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Token has been revoked"))
			}
		}

		// Account IDs are reused by every new network instance.
		if claims.Instance != s.network.InstanceID() {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token was issued by another network instance"))
		}

		account, err := s.network.SessionAccount(claims.AccountID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		if claims.Name != account.Name {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token does not match the account"))
		}

		c.Locals("accountID", account.ID)
		c.Locals("account", account)
		c.Locals("claims", claims)
		c.SetUserContext(observability.WithAccountID(c.UserContext(), account.ID))

		return c.Next()
	}
}

// Start builds the Fiber app, starts Redis wiring and listens on the
// configured port.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.NewApp()
	s.app = app

	if err := s.StartWiring(ctx); err != nil {
		observability.GlobalLogger.Error("failed to start notification wiring",
			slog.String("hub", s.hub.Name()), slog.String("error", err.Error()))
	}

	observability.GlobalLogger.Info("server starting",
		slog.String("port", s.config.Port), slog.String("network", s.network.Name()))
	return app.Listen(":" + s.config.Port)
}

// NewApp returns a Fiber app with the middleware stack and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Murmur API",
		BodyLimit: 1 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			observability.GlobalLogger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// StartWiring subscribes the hub to Redis notifications. It is a no-op
// without Redis, where the hub is a direct sink.
func (s *Server) StartWiring(ctx context.Context) error {
	if s.notifier == nil {
		return nil
	}
	return s.hub.StartWiring(ctx, s.notifier)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			observability.GlobalLogger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		observability.GlobalLogger.Error("error shutting down hub",
			slog.String("hub", s.hub.Name()), slog.String("error", err.Error()))
	}

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				observability.GlobalLogger.Error("error closing sql DB", slog.String("error", cerr.Error()))
			}
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			observability.GlobalLogger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	observability.GlobalLogger.Info("server shutdown complete")
	return nil
}
