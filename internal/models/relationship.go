package models

// Relationship edge types stored in the graph. Parent edges are directed
// (parent -> child, stored once); sibling and spouse relations are symmetric
// and materialized as two reciprocal rows so either endpoint can query its
// relations without a directionless join.
const (
	RelationshipParent  = "parent"
	RelationshipSibling = "sibling"
	RelationshipSpouse  = "spouse"
)

// Relationship is a typed directed edge between two family members.
type Relationship struct {
	BaseModel

	ParentID         string `gorm:"type:uuid;not null;index;uniqueIndex:idx_relationship_edge" json:"parent_id"`
	ChildID          string `gorm:"type:uuid;not null;index;uniqueIndex:idx_relationship_edge" json:"child_id"`
	RelationshipType string `gorm:"type:varchar(16);not null;uniqueIndex:idx_relationship_edge" json:"relationship_type"`

	Parent *FamilyMember `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Child  *FamilyMember `gorm:"foreignKey:ChildID" json:"child,omitempty"`
}
