package models

// FamilyMember is one node in the family graph. A member either represents
// the account that created it (UserID set) or a placeholder for a person who
// has not signed in yet (UserID nil until an invitation links them).
type FamilyMember struct {
	BaseModel

	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `json:"last_name"`
	Gender    string `json:"gender,omitempty"`

	// UserID is the owning account once the represented person has
	// authenticated. Set exactly once; never reversed.
	UserID *string `gorm:"type:uuid;uniqueIndex" json:"user_id,omitempty"`

	// CreatedBy is the account whose action caused this node to exist.
	CreatedBy string `gorm:"type:uuid;index;not null" json:"created_by"`

	// Hidden excludes the member from default listings without deleting the
	// node or its edges.
	Hidden bool `gorm:"default:false" json:"hidden"`
}

// IsPlaceholder reports whether the node still awaits its real-world person.
func (m *FamilyMember) IsPlaceholder() bool {
	return m.UserID == nil || *m.UserID == ""
}
