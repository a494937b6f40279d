package handlers

import (
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/dto"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/services"
	"github.com/gofiber/fiber/v2"
)

type SeedHandler struct {
	seed *services.SeedService
}

func NewSeedHandler(seed *services.SeedService) *SeedHandler {
	return &SeedHandler{seed: seed}
}

func (h *SeedHandler) Seed(c *fiber.Ctx) error {
	res, err := h.seed.Seed(c.UserContext())
	if err != nil {
		return internalError(c, "seed", err)
	}

	message := "Demo data created successfully"
	if len(res.Created) == 0 {
		message = "Demo data already exists"
	}
	return c.JSON(dto.SeedResponse{
		Success:  true,
		Message:  message,
		Customer: res.Customer.Phone,
		Business: res.Business.Slug,
	})
}
