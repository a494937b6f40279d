package models

import "time"

// Business is a tenant. Its slug is used in every tenant-scoped URL.
type Business struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Slug      string    `gorm:"size:100;not null;uniqueIndex" json:"slug"`
	Phone     string    `gorm:"size:20;not null;uniqueIndex" json:"phone"`
	Email     *string   `gorm:"size:100" json:"email"`
	Address   *string   `gorm:"type:text" json:"address"`
	LogoURL   *string   `gorm:"type:text" json:"logo_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	RoleOwner = "owner"
	RoleStaff = "staff"
)

// BusinessUser is an owner or staff member of exactly one Business.
type BusinessUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	BusinessID   uint      `gorm:"not null;index" json:"business_id"`
	Username     string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Role         string    `gorm:"size:20;default:'staff'" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	Business     *Business `gorm:"foreignKey:BusinessID;constraint:OnDelete:CASCADE" json:"business,omitempty"`
}

func (u *BusinessUser) AccountID() uint        { return u.ID }
func (u *BusinessUser) AccountKind() string    { return KindBusiness }
func (u *BusinessUser) HashedPassword() string { return u.PasswordHash }
func (u *BusinessUser) IsActive() bool         { return true }
