package models

import "time"

// Profile roles and statuses recognised by the application.
const (
	RoleMember = "member"
	RoleStaff  = "staff"
	RoleAdmin  = "admin"

	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// Profile describes an authenticated account and its onboarding state.
// The identifier is established by the sign-in flow and mirrored onto every
// record the account creates.
type Profile struct {
	BaseModel

	Email string `gorm:"uniqueIndex;not null" json:"email"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Gender    string `json:"gender,omitempty"`
	Headline  string `json:"headline,omitempty"`
	City      string `json:"city,omitempty"`

	// Password is only populated for admin-console accounts; member sign-in is
	// passwordless.
	Password string `json:"-"`

	Role   string `gorm:"type:varchar(16);default:'member';index" json:"role"`
	Status string `gorm:"type:varchar(16);default:'active'" json:"status"`

	OnboardingCompleted bool `gorm:"default:false" json:"onboarding_completed"`

	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

// FullName joins the name parts for display contexts.
func (p *Profile) FullName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	default:
		return p.LastName
	}
}

// IsAdminConsoleUser reports whether the profile may enter the admin console.
func (p *Profile) IsAdminConsoleUser() bool {
	return (p.Role == RoleAdmin || p.Role == RoleStaff) && p.Status == StatusActive
}
