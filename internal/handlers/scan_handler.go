package handlers

import (
	"errors"
	"strings"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/dto"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/qr"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/scanner"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/services"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const maxScanUpload = 4 * 1024 * 1024

// ScanHandler serves the staff side: resolving scanned codes and changing
// point balances.
type ScanHandler struct {
	identity *services.IdentityService
	ledger   *services.LedgerService
	settings *services.SettingsService
	decoder  *qr.Decoder
}

func NewScanHandler(identity *services.IdentityService, ledger *services.LedgerService, settings *services.SettingsService, decoder *qr.Decoder) *ScanHandler {
	return &ScanHandler{
		identity: identity,
		ledger:   ledger,
		settings: settings,
		decoder:  decoder,
	}
}

// Scan resolves a payload read by the staff's camera.
func (h *ScanHandler) Scan(c *fiber.Ctx) error {
	var req dto.ScanRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Payload) == "" {
		return badRequest(c, "Payload is required")
	}

	customer, p, err := h.identity.Resolve(c.UserContext(), req.Payload, tenant.GetBusiness(c))
	if err != nil {
		return ledgerError(c, "scan", err)
	}
	return c.JSON(dto.ScanResponse{Success: true, Customer: customer, Signed: p.Signed()})
}

// ScanImage decodes an uploaded picture of a code and resolves it.
func (h *ScanHandler) ScanImage(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return badRequest(c, "Image file is required")
	}
	if fh.Size > maxScanUpload {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{
			Error: true, Message: "Image is too large",
		})
	}

	f, err := fh.Open()
	if err != nil {
		return internalError(c, "open_upload", err)
	}
	defer f.Close()

	raw, _, err := scanner.ScanImage(h.decoder, f)
	if err != nil {
		switch {
		case errors.Is(err, qr.ErrNoCode):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
				Error: true, Message: "No customer QR code found in image", Reason: "no_code",
			})
		case errors.Is(err, qr.ErrBadImage):
			return badRequest(c, "Unreadable image")
		}
		return internalError(c, "scan_image", err)
	}

	customer, p, err := h.identity.Resolve(c.UserContext(), raw, tenant.GetBusiness(c))
	if err != nil {
		return ledgerError(c, "scan_image", err)
	}
	return c.JSON(dto.ScanResponse{Success: true, Customer: customer, Signed: p.Signed()})
}

// Verify resolves a payload and credits the customer in one request.
func (h *ScanHandler) Verify(c *fiber.Ctx) error {
	var req dto.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Payload) == "" {
		return badRequest(c, "Payload is required")
	}

	business := tenant.GetBusiness(c)
	customer, _, err := h.identity.Resolve(c.UserContext(), req.Payload, business)
	if err != nil {
		return ledgerError(c, "verify", err)
	}

	points := 0
	if req.Points != nil {
		points = *req.Points
	} else if points, err = h.settings.PointsPerScan(c.UserContext(), business.ID); err != nil {
		return internalError(c, "points_per_scan", err)
	}

	description := req.Description
	if description == "" {
		description = "Visit at " + business.Name
	}
	return h.apply(c, "verify", services.Mutation{
		CustomerID:  customer.ID,
		BusinessID:  business.ID,
		Delta:       points,
		Amount:      amountOrZero(req.Amount),
		Description: description,
	})
}

// AdjustPoints applies a manual change to a customer found by search.
func (h *ScanHandler) AdjustPoints(c *fiber.Ctx) error {
	customerID, err := c.ParamsInt("id")
	if err != nil || customerID <= 0 {
		return badRequest(c, "Invalid customer id")
	}

	var req dto.AdjustPointsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	business := tenant.GetBusiness(c)
	description := req.Description
	if description == "" {
		description = "Manual adjustment"
	}
	return h.apply(c, "adjust_points", services.Mutation{
		CustomerID:  uint(customerID),
		BusinessID:  business.ID,
		Delta:       req.Points,
		Amount:      amountOrZero(req.Amount),
		Description: description,
	})
}

func (h *ScanHandler) apply(c *fiber.Ctx, action string, m services.Mutation) error {
	txn, balance, err := h.ledger.Apply(c.UserContext(), m)
	if err != nil {
		return ledgerError(c, action, err)
	}

	customer, err := h.ledger.Customer(c.UserContext(), m.CustomerID)
	if err != nil {
		return internalError(c, action, err)
	}
	return c.JSON(dto.LedgerResponse{
		Success:     true,
		Customer:    customer,
		Balance:     balance,
		Transaction: txn,
	})
}

// SearchCustomers finds customers by a fragment of their phone number.
func (h *ScanHandler) SearchCustomers(c *fiber.Ctx) error {
	phone := c.Query("phone")
	if strings.TrimSpace(phone) == "" {
		return badRequest(c, "Phone query is required")
	}

	customers, err := h.ledger.SearchCustomers(c.UserContext(), phone, c.QueryInt("limit", 20))
	if err != nil {
		return internalError(c, "search_customers", err)
	}
	return c.JSON(fiber.Map{"customers": customers})
}

func amountOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
