package models

import (
	"time"

	"github.com/google/uuid"
)

// BusinessSetting is a typed key/value pair scoped to one business.
type BusinessSetting struct {
	ID         uuid.UUID `gorm:"size:36;primaryKey" json:"id"`
	BusinessID uint      `gorm:"not null;uniqueIndex:idx_business_setting_key" json:"business_id"`
	Key        string    `gorm:"column:setting_key;size:100;not null;uniqueIndex:idx_business_setting_key" json:"key"`
	Value      string    `gorm:"type:text" json:"value"`
	Type       string    `gorm:"size:10;default:'string'" json:"type"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
