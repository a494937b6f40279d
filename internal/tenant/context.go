package tenant

import (
	"errors"
	"strconv"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the typed view of an access token.
type Claims struct {
	ActorID      uint
	Kind         string
	BusinessID   uint
	BusinessSlug string
}

// GetClaims extracts the access token claims stored by the JWT middleware.
func GetClaims(c *fiber.Ctx) (*Claims, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return nil, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, errors.New("missing sub claim")
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return nil, errors.New("invalid sub claim")
	}

	kind, _ := claims["kind"].(string)
	if kind == "" {
		return nil, errors.New("missing kind claim")
	}

	out := &Claims{ActorID: uint(id), Kind: kind}
	// JSON numbers decode as float64
	if bid, ok := claims["business_id"].(float64); ok {
		out.BusinessID = uint(bid)
	}
	out.BusinessSlug, _ = claims["business_slug"].(string)
	return out, nil
}

func GetActorID(c *fiber.Ctx) (uint, error) {
	claims, err := GetClaims(c)
	if err != nil {
		return 0, err
	}
	return claims.ActorID, nil
}

func GetKind(c *fiber.Ctx) string {
	claims, err := GetClaims(c)
	if err != nil {
		return ""
	}
	return claims.Kind
}

func SetBusiness(c *fiber.Ctx, b *models.Business) {
	c.Locals("business", b)
	c.Locals("business_slug", b.Slug)
}

// GetBusiness returns the business resolved from the :slug route param.
func GetBusiness(c *fiber.Ctx) *models.Business {
	if b, ok := c.Locals("business").(*models.Business); ok {
		return b
	}
	return nil
}

func GetBusinessSlug(c *fiber.Ctx) string {
	if slug, ok := c.Locals("business_slug").(string); ok {
		return slug
	}
	return ""
}
