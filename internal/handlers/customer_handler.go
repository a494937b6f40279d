package handlers

import (
	"errors"
	"strconv"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/dto"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/qr"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/services"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

// CustomerHandler serves a logged-in customer's own identity code and ledger.
type CustomerHandler struct {
	identity *services.IdentityService
	ledger   *services.LedgerService
	settings *services.SettingsService
	encoder  *qr.Encoder
	ttl      int64
}

func NewCustomerHandler(identity *services.IdentityService, ledger *services.LedgerService, settings *services.SettingsService, encoder *qr.Encoder, ttlSeconds int64) *CustomerHandler {
	return &CustomerHandler{
		identity: identity,
		ledger:   ledger,
		settings: settings,
		encoder:  encoder,
		ttl:      ttlSeconds,
	}
}

// Identity returns the sealed payload the customer presents at the business.
func (h *CustomerHandler) Identity(c *fiber.Ctx) error {
	customerID, err := tenant.GetActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	raw, _, err := h.identity.Issue(c.UserContext(), customerID, tenant.GetBusiness(c))
	if err != nil {
		if errors.Is(err, services.ErrCustomerNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return internalError(c, "issue_identity", err)
	}

	return c.JSON(dto.IdentityResponse{Payload: raw, ExpiresIn: h.ttl})
}

// QRCode renders the sealed payload as a PNG using the business's QR settings.
func (h *CustomerHandler) QRCode(c *fiber.Ctx) error {
	customerID, err := tenant.GetActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	business := tenant.GetBusiness(c)
	raw, _, err := h.identity.Issue(c.UserContext(), customerID, business)
	if err != nil {
		if errors.Is(err, services.ErrCustomerNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return internalError(c, "issue_identity", err)
	}

	opts, err := h.settings.QROptions(c.UserContext(), business.ID)
	if err != nil {
		return internalError(c, "qr_options", err)
	}
	if size := c.QueryInt("size"); size >= qr.MinSize && size <= qr.MaxSize {
		opts.Size = size
	}

	png, err := h.encoder.PNG(raw, opts)
	if err != nil {
		return internalError(c, "render_qr", err)
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Set("X-Expires-In", strconv.FormatInt(h.ttl, 10))
	return c.Send(png)
}

func (h *CustomerHandler) Transactions(c *fiber.Ctx) error {
	customerID, err := tenant.GetActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	balance, err := h.ledger.Balance(c.UserContext(), customerID)
	if err != nil {
		if errors.Is(err, services.ErrCustomerNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return internalError(c, "balance", err)
	}

	rows, err := h.ledger.History(c.UserContext(), customerID, limit, offset)
	if err != nil {
		return internalError(c, "history", err)
	}

	return c.JSON(dto.TransactionListResponse{
		Balance:      balance,
		Transactions: rows,
		Limit:        limit,
		Offset:       offset,
	})
}
