package models

import "time"

// Invitation statuses. Expiry is primarily a derived property checked at
// acceptance time; the maintenance sweep eventually transitions long-expired
// pending rows to InviteExpired.
const (
	InvitePending  = "pending"
	InviteAccepted = "accepted"
	InviteExpired  = "expired"
)

// Invitation is a single-use, time-limited code that lets a new account join
// the sender's tree, optionally attaching to a pre-existing placeholder member.
type Invitation struct {
	BaseModel

	SenderID       string  `gorm:"type:uuid;not null;index" json:"sender_id"`
	FamilyMemberID *string `gorm:"type:uuid;index" json:"family_member_id,omitempty"`
	RecipientEmail string  `json:"recipient_email,omitempty"`
	Message        string  `gorm:"type:text" json:"message,omitempty"`

	InviteCode string `gorm:"uniqueIndex;not null" json:"invite_code"`
	Status     string `gorm:"type:varchar(16);default:'pending';index" json:"status"`

	ExpiresAt  time.Time  `gorm:"index" json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	AcceptedBy *string    `gorm:"type:uuid" json:"accepted_by,omitempty"`

	FamilyMember *FamilyMember `gorm:"foreignKey:FamilyMemberID" json:"family_member,omitempty"`
}
