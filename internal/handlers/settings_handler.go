package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/dto"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/services"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

// SettingsHandler lets owners manage their business settings.
type SettingsHandler struct {
	settings *services.SettingsService
}

func NewSettingsHandler(settings *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// SetKey sets or updates a setting (owner only)
func (h *SettingsHandler) SetKey(c *fiber.Ctx) error {
	key := c.Params("key")
	if key == "" {
		return badRequest(c, "Key parameter is required")
	}

	var payload dto.SetSettingRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "Invalid request body")
	}

	business := tenant.GetBusiness(c)
	setting, err := h.settings.Set(c.UserContext(), business.ID, key, payload.Value, payload.Type)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSetting) {
			return badRequest(c, err.Error())
		}
		return internalError(c, "set_config", err)
	}

	return c.JSON(fiber.Map{
		"error":   false,
		"message": "Config updated successfully",
		"config":  setting,
	})
}

// DeleteKey removes a setting, restoring its default if it has one (owner only)
func (h *SettingsHandler) DeleteKey(c *fiber.Ctx) error {
	business := tenant.GetBusiness(c)
	if err := h.settings.Delete(c.UserContext(), business.ID, c.Params("key")); err != nil {
		if errors.Is(err, services.ErrSettingNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Config not found",
			})
		}
		return internalError(c, "delete_config", err)
	}

	return c.JSON(fiber.Map{
		"error":   false,
		"message": "Config deleted successfully",
	})
}
