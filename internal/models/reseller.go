package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Reseller struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Username       string          `gorm:"size:50;not null;uniqueIndex" json:"username"`
	PasswordHash   string          `gorm:"size:255;not null" json:"-"`
	Name           string          `gorm:"size:100;not null" json:"name"`
	Email          *string         `gorm:"size:100" json:"email"`
	Phone          *string         `gorm:"size:20" json:"phone"`
	CommissionRate decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"commission_rate"`
	Active         bool            `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (r *Reseller) AccountID() uint        { return r.ID }
func (r *Reseller) AccountKind() string    { return KindReseller }
func (r *Reseller) HashedPassword() string { return r.PasswordHash }
func (r *Reseller) IsActive() bool         { return r.Active }

type SuperAdmin struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        *string   `gorm:"size:100" json:"email"`
	CreatedAt    time.Time `json:"created_at"`
}

func (SuperAdmin) TableName() string { return "superadmins" }

func (a *SuperAdmin) AccountID() uint        { return a.ID }
func (a *SuperAdmin) AccountKind() string    { return KindSuperAdmin }
func (a *SuperAdmin) HashedPassword() string { return a.PasswordHash }
func (a *SuperAdmin) IsActive() bool         { return true }
