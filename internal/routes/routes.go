package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/config"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/models"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Health   *handlers.HealthHandler
	Business *handlers.BusinessHandler
	Customer *handlers.CustomerHandler
	Scan     *handlers.ScanHandler
	Reward   *handlers.RewardHandler
	Settings *handlers.SettingsHandler
	Admin    *handlers.AdminHandler
	Seed     *handlers.SeedHandler
}

func Setup(app *fiber.App, cfg *config.Config, db *gorm.DB, registry *tenant.Registry, h Handlers) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)
	if cfg.SeedEnabled {
		api.Get("/seed", h.Seed.Seed)
	}

	// Auth: stricter limit, 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/customer/register", h.Auth.Register)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Post("/logout", middleware.JWTProtected(cfg), h.Auth.Logout)
	auth.Post("/:kind/login", h.Auth.Login)

	api.Get("/me", middleware.JWTProtected(cfg), h.Auth.Me)

	customerOnly := []fiber.Handler{middleware.JWTProtected(cfg), middleware.RequireKind(models.KindCustomer)}
	api.Get("/customer/transactions", append(customerOnly, h.Customer.Transactions)...)

	// Tenant routes: :slug resolves to the business before any handler runs
	biz := api.Group("/business/:slug", middleware.BusinessScope(registry, db))
	biz.Get("/", h.Business.Get)
	biz.Get("/config", h.Business.Config)
	biz.Get("/rewards", h.Business.Rewards)

	biz.Get("/customer/identity", append(customerOnly, h.Customer.Identity)...)
	biz.Get("/customer/qr.png", append(customerOnly, h.Customer.QRCode)...)

	staff := []fiber.Handler{middleware.JWTProtected(cfg), middleware.RequireStaff()}
	biz.Post("/scan", append(staff, h.Scan.Scan)...)
	biz.Post("/scan/image", append(staff, h.Scan.ScanImage)...)
	biz.Post("/verify", append(staff, h.Scan.Verify)...)
	biz.Get("/customers", append(staff, h.Scan.SearchCustomers)...)
	biz.Post("/customers/:id/points", append(staff, h.Scan.AdjustPoints)...)
	biz.Post("/rewards/:id/redeem", append(staff, h.Reward.Redeem)...)

	owner := []fiber.Handler{middleware.JWTProtected(cfg), middleware.RequireOwner(db)}
	biz.Post("/rewards", append(owner, h.Reward.Create)...)
	biz.Put("/config/:key", append(owner, h.Settings.SetKey)...)
	biz.Delete("/config/:key", append(owner, h.Settings.DeleteKey)...)

	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.RequireKind(models.KindSuperAdmin))
	admin.Get("/businesses", h.Admin.ListBusinesses)
	admin.Post("/businesses", h.Admin.CreateBusiness)
}
