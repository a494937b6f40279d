package dto

import (
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/models"
	"github.com/shopspring/decimal"
)

type IdentityResponse struct {
	Payload   string `json:"payload"`
	ExpiresIn int64  `json:"expires_in"`
}

type ScanRequest struct {
	Payload string `json:"payload"`
}

type ScanResponse struct {
	Success  bool             `json:"success"`
	Customer *models.Customer `json:"customer"`
	Signed   bool             `json:"signed"`
}

// VerifyRequest resolves a payload and applies Points to the customer.
// Points falls back to the business's points_per_scan setting when nil.
type VerifyRequest struct {
	Payload     string           `json:"payload"`
	Points      *int             `json:"points,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Description string           `json:"description"`
}

type AdjustPointsRequest struct {
	Points      int              `json:"points"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Description string           `json:"description"`
}

type LedgerResponse struct {
	Success     bool                `json:"success"`
	Customer    *models.Customer    `json:"customer"`
	Balance     int                 `json:"balance"`
	Transaction *models.Transaction `json:"transaction"`
}

type TransactionListResponse struct {
	Balance      int                  `json:"balance"`
	Transactions []models.Transaction `json:"transactions"`
	Limit        int                  `json:"limit"`
	Offset       int                  `json:"offset"`
}

type CreateRewardRequest struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	PointsRequired int     `json:"points_required"`
	ImageURL       *string `json:"image_url,omitempty"`
}

type RedeemRequest struct {
	Payload    string `json:"payload"`
	CustomerID uint   `json:"customer_id"`
}

type RedeemResponse struct {
	Success    bool               `json:"success"`
	Redemption *models.Redemption `json:"redemption"`
	Balance    int                `json:"balance"`
}

type SetSettingRequest struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

type CreateBusinessRequest struct {
	Name          string  `json:"name"`
	Slug          string  `json:"slug"`
	Phone         string  `json:"phone"`
	Email         *string `json:"email,omitempty"`
	Address       *string `json:"address,omitempty"`
	OwnerUsername string  `json:"owner_username"`
	OwnerPassword string  `json:"owner_password"`
	OwnerName     string  `json:"owner_name"`
}

type CreateBusinessResponse struct {
	Business *models.Business     `json:"business"`
	Owner    *models.BusinessUser `json:"owner"`
}

type SeedResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Customer string `json:"customer"`
	Business string `json:"business"`
}
