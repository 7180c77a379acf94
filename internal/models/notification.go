package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification represents an in-app notification for an account. Rows are
// append-only from the producer side; only the read flag is ever mutated.
type Notification struct {
	BaseModel

	UserID  string `gorm:"type:uuid;index;not null" json:"user_id"`
	ActorID string `gorm:"type:uuid" json:"actor_id,omitempty"`

	Type    string `gorm:"type:varchar(64);not null" json:"type"`
	Title   string `gorm:"type:varchar(255);not null" json:"title"`
	Message string `gorm:"type:text" json:"message"`

	Link     string         `gorm:"type:text" json:"link,omitempty"`
	Metadata datatypes.JSON `json:"metadata,omitempty"`

	IsRead bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`
}
