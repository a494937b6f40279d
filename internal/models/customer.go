package models

import "time"

// Customer is a loyalty club member. The table keeps its historical name.
type Customer struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Phone        string    `gorm:"size:20;not null;uniqueIndex" json:"phone"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        *string   `gorm:"size:100" json:"email"`
	Points       int       `gorm:"not null;default:0" json:"points"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Customer) TableName() string { return "users" }

func (c *Customer) AccountID() uint        { return c.ID }
func (c *Customer) AccountKind() string    { return KindCustomer }
func (c *Customer) HashedPassword() string { return c.PasswordHash }
func (c *Customer) IsActive() bool         { return true }
