package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/referralhq/referral-api/internal/api/handler"
	"github.com/referralhq/referral-api/internal/api/middleware"
	"github.com/referralhq/referral-api/internal/core/ports"
	"github.com/referralhq/referral-api/internal/core/service"
	mongorepo "github.com/referralhq/referral-api/internal/infrastructure/db/mongo"
	redisrepo "github.com/referralhq/referral-api/internal/infrastructure/db/redis"
	"github.com/referralhq/referral-api/internal/pkg/config"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// The notifier is constructed and started by the caller so its lifecycle is
// owned by main, not by the router.
func NewRouter(db *mongo.Database, rdb *redis.Client, notifier ports.Notifier, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("referral"))

	// --- Dependencies ---
	userRepo := mongorepo.NewUserRepository(db)
	tokenRepo := redisrepo.NewTokenCache(rdb, mongorepo.NewTokenRepository(db), log)

	verification := service.NewVerificationService(userRepo, cfg.VerifWindow(), log)
	invites := service.NewInviteService(userRepo, log)
	authService := service.NewAuthService(userRepo, tokenRepo, verification, invites, notifier, cfg.JWTSecret, log)
	userService := service.NewUserService(userRepo, invites, log)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	authMiddleware := middleware.Auth(cfg.JWTSecret, tokenRepo)

	// --- Auth routes ---
	e.POST("/auth/registration/", authHandler.Register)
	e.POST("/auth/verification/", authHandler.Verify)

	// --- User routes ---
	e.GET("/users/", userHandler.List)
	e.GET("/users/:id/", userHandler.Get)
	e.PATCH("/users/:id/", userHandler.Update, authMiddleware)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
