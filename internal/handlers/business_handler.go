package handlers

import (
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/services"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

// BusinessHandler serves the public, unauthenticated view of a tenant.
type BusinessHandler struct {
	rewards  *services.RewardService
	settings *services.SettingsService
}

func NewBusinessHandler(rewards *services.RewardService, settings *services.SettingsService) *BusinessHandler {
	return &BusinessHandler{rewards: rewards, settings: settings}
}

func (h *BusinessHandler) Get(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":  true,
		"business": tenant.GetBusiness(c),
	})
}

func (h *BusinessHandler) Config(c *fiber.Ctx) error {
	values, err := h.settings.Get(c.UserContext(), tenant.GetBusiness(c).ID)
	if err != nil {
		return internalError(c, "get_config", err)
	}
	return c.JSON(values)
}

func (h *BusinessHandler) Rewards(c *fiber.Ctx) error {
	rewards, err := h.rewards.List(c.UserContext(), tenant.GetBusiness(c).ID, true)
	if err != nil {
		return internalError(c, "list_rewards", err)
	}
	return c.JSON(fiber.Map{"rewards": rewards})
}
