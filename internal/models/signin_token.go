package models

import "time"

// SignInToken backs the passwordless sign-in flow: a hashed single-use token
// emailed as a magic link. Rows are consumed on redemption and swept once
// expired.
type SignInToken struct {
	BaseModel

	Email     string     `gorm:"not null;index" json:"email"`
	TokenHash string     `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"index" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`

	// InviteCode optionally rides along the sign-in link so invitation
	// acceptance can follow authentication.
	InviteCode string `json:"invite_code,omitempty"`
}
