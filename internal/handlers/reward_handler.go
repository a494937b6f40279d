package handlers

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/dto"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/services"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type RewardHandler struct {
	rewards  *services.RewardService
	identity *services.IdentityService
}

func NewRewardHandler(rewards *services.RewardService, identity *services.IdentityService) *RewardHandler {
	return &RewardHandler{rewards: rewards, identity: identity}
}

func (h *RewardHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateRewardRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	reward, err := h.rewards.Create(c.UserContext(), tenant.GetBusiness(c).ID, &req)
	if err != nil {
		return ledgerError(c, "create_reward", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "reward": reward})
}

// Redeem spends points on a reward. The customer is named either by a
// scanned payload or by id.
func (h *RewardHandler) Redeem(c *fiber.Ctx) error {
	rewardID, err := c.ParamsInt("id")
	if err != nil || rewardID <= 0 {
		return badRequest(c, "Invalid reward id")
	}

	var req dto.RedeemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	business := tenant.GetBusiness(c)
	customerID := req.CustomerID
	if strings.TrimSpace(req.Payload) != "" {
		customer, _, err := h.identity.Resolve(c.UserContext(), req.Payload, business)
		if err != nil {
			return ledgerError(c, "redeem", err)
		}
		customerID = customer.ID
	}
	if customerID == 0 {
		return badRequest(c, "Payload or customer_id is required")
	}

	redemption, balance, err := h.rewards.Redeem(c.UserContext(), business.ID, uint(rewardID), customerID)
	if err != nil {
		return ledgerError(c, "redeem", err)
	}
	return c.JSON(dto.RedeemResponse{Success: true, Redemption: redemption, Balance: balance})
}
