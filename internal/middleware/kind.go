package middleware

import (
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/dto"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/models"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequireKind admits only tokens issued to one of kinds.
func RequireKind(kinds ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := tenant.GetClaims(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		for _, k := range kinds {
			if claims.Kind == k {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "This account type cannot access this resource",
		})
	}
}

// RequireStaff admits business users of the business in the route. It must
// run after BusinessScope.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := tenant.GetClaims(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		business := tenant.GetBusiness(c)
		if claims.Kind != models.KindBusiness || business == nil || claims.BusinessID != business.ID {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Staff access to this business required",
			})
		}
		return c.Next()
	}
}

// RequireOwner admits owners of the business in the route. The role is read
// from the database so a demotion takes effect before the token expires.
func RequireOwner(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := tenant.GetClaims(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		business := tenant.GetBusiness(c)
		if claims.Kind == models.KindBusiness && business != nil {
			var user models.BusinessUser
			err := db.WithContext(c.UserContext()).
				Where("id = ? AND business_id = ?", claims.ActorID, business.ID).
				First(&user).Error
			if err == nil && user.Role == models.RoleOwner {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Owner access required",
		})
	}
}
