package middleware

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/dto"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// BusinessScope resolves the :slug route param to a business and stores it
// in the request context. Unknown slugs get a 404.
func BusinessScope(registry *tenant.Registry, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("slug")
		if slug == "" {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Business slug is required",
			})
		}

		business, err := registry.Lookup(db.WithContext(c.UserContext()), slug)
		if err != nil {
			if errors.Is(err, tenant.ErrUnknownBusiness) {
				return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
					Error: true, Message: "Business not found",
				})
			}
			slog.Error("business lookup failed", "business_slug", slug, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}

		tenant.SetBusiness(c, business)
		return c.Next()
	}
}
