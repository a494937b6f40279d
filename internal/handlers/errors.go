package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/dto"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/services"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

func internalError(c *fiber.Ctx, action string, err error) error {
	slog.Error(action+" failed",
		"action", action,
		"error", err,
		"business_slug", tenant.GetBusinessSlug(c),
		"trace_id", c.GetRespHeader(fiber.HeaderXRequestID),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}

// ledgerError maps resolver and ledger errors to responses. Resolver
// rejections carry a machine-readable reason.
func ledgerError(c *fiber.Ctx, action string, err error) error {
	if reason := services.RejectionReason(err); reason != "" {
		slog.Info("identity rejected", "action", action, "reason", reason, "business_slug", tenant.GetBusinessSlug(c))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(), Reason: reason,
		})
	}

	switch {
	case errors.Is(err, services.ErrInsufficientPoints):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(), Reason: "insufficient_points",
		})
	case errors.Is(err, services.ErrZeroDelta),
		errors.Is(err, services.ErrInvalidReward):
		return badRequest(c, err.Error())
	case errors.Is(err, services.ErrRewardNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrRewardInactive):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return internalError(c, action, err)
}
