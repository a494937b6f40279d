package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/dto"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/services"
	"github.com/gofiber/fiber/v2"
)

// AdminHandler lets superadmins manage tenants.
type AdminHandler struct {
	businesses *services.BusinessService
}

func NewAdminHandler(businesses *services.BusinessService) *AdminHandler {
	return &AdminHandler{businesses: businesses}
}

func (h *AdminHandler) ListBusinesses(c *fiber.Ctx) error {
	rows, err := h.businesses.List(c.UserContext())
	if err != nil {
		return internalError(c, "list_businesses", err)
	}
	return c.JSON(fiber.Map{"businesses": rows})
}

func (h *AdminHandler) CreateBusiness(c *fiber.Ctx) error {
	var req dto.CreateBusinessRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	business, owner, err := h.businesses.Create(c.UserContext(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidBusiness),
			errors.Is(err, services.ErrInvalidSlug),
			errors.Is(err, services.ErrWeakPassword):
			return badRequest(c, err.Error())
		case errors.Is(err, services.ErrBusinessExists), errors.Is(err, services.ErrUsernameTaken):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return internalError(c, "create_business", err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.CreateBusinessResponse{Business: business, Owner: owner})
}
