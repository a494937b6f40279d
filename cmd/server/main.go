package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/config"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/database"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/identity"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/logging"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/qr"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/routes"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/services"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/tenant"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logging.Setup(cfg.AppEnv)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBDriver != "sqlite" && cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required", "driver", cfg.DBDriver)
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Database log sink (ERROR+ async batch)
	dbLogHandler := logging.NewDBHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.Default().Handler(),
		dbLogHandler,
	)))

	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cfg.LogRetentionDays, cleanupDone)

	// Business registry
	registry, err := tenant.Load(database.DB)
	if err != nil {
		slog.Error("failed to load business registry", "error", err)
		os.Exit(1)
	}
	slog.Info("business registry loaded", "businesses", len(registry.All()))

	signer, err := identity.NewSigner(cfg.QRSecret, cfg.QRTokenTTL)
	if err != nil {
		slog.Error("invalid qr signing config", "error", err)
		os.Exit(1)
	}

	// Services
	authService := services.NewAuthService(database.DB, cfg)
	identityService := services.NewIdentityService(database.DB, signer, cfg.QRRequireSignature)
	ledgerService := services.NewLedgerService(database.DB)
	rewardService := services.NewRewardService(database.DB)
	settingsService := services.NewSettingsService(database.DB)
	businessService := services.NewBusinessService(database.DB, registry, settingsService)
	seedService := services.NewSeedService(database.DB, registry, settingsService)

	// Handlers
	h := routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService),
		Health:   handlers.NewHealthHandler(database.DB, registry),
		Business: handlers.NewBusinessHandler(rewardService, settingsService),
		Customer: handlers.NewCustomerHandler(identityService, ledgerService, settingsService, qr.NewEncoder(), int64(cfg.QRTokenTTL.Seconds())),
		Scan:     handlers.NewScanHandler(identityService, ledgerService, settingsService, qr.NewDecoder()),
		Reward:   handlers.NewRewardHandler(rewardService, identityService),
		Settings: handlers.NewSettingsHandler(settingsService),
		Admin:    handlers.NewAdminHandler(businessService),
		Seed:     handlers.NewSeedHandler(seedService),
	}

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routes.Setup(app, cfg, database.DB, registry, h)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "seed_enabled", cfg.SeedEnabled)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
