package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction records one ledger mutation. PointsEarned is negative for redemptions.
type Transaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	BusinessID      uint            `gorm:"not null;index" json:"business_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"amount"`
	PointsEarned    int             `gorm:"not null;default:0" json:"points_earned"`
	Description     string          `gorm:"type:text" json:"description"`
	TransactionDate time.Time       `gorm:"autoCreateTime" json:"transaction_date"`
	BusinessName    string          `gorm:"->;-:migration" json:"business_name,omitempty"`
}

type Reward struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	BusinessID     uint      `gorm:"not null;index" json:"business_id"`
	Title          string    `gorm:"size:100;not null" json:"title"`
	Description    string    `gorm:"type:text" json:"description"`
	PointsRequired int       `gorm:"not null" json:"points_required"`
	ImageURL       *string   `gorm:"type:text" json:"image_url"`
	Active         bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

const (
	RedemptionPending   = "pending"
	RedemptionCompleted = "completed"
)

type Redemption struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	RewardID    uint      `gorm:"not null;index" json:"reward_id"`
	PointsSpent int       `gorm:"not null" json:"points_spent"`
	Status      string    `gorm:"size:20;default:'pending'" json:"status"`
	RedeemedAt  time.Time `gorm:"autoCreateTime" json:"redeemed_at"`
}
