package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog records admin-console and security relevant actions.
type AuditLog struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	ActorID    *string   `gorm:"type:uuid;index" json:"actor_id"`
	Action     string    `gorm:"not null;index" json:"action"`
	Resource   string    `gorm:"index" json:"resource"`
	ResourceID string    `json:"resource_id,omitempty"`
	Details    string    `gorm:"type:json" json:"details,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
