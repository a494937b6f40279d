package models

import (
	"time"

	"github.com/google/uuid"
)

type RefreshToken struct {
	ID        uuid.UUID `gorm:"size:36;primaryKey" json:"id"`
	ActorKind string    `gorm:"size:20;not null;index:idx_refresh_actor" json:"actor_kind"`
	ActorID   uint      `gorm:"not null;index:idx_refresh_actor" json:"actor_id"`
	TokenHash string    `gorm:"uniqueIndex;not null;size:64" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}
