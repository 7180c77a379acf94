package services

import (
	"fmt"

	"github.com/familyconnect/familyconnect/internal/models"
)

// RelationKind is the closed set of declared relationships supported during
// onboarding. Edge construction switches exhaustively over this type so a new
// kind is a compile-time extension, not a string comparison chain.
type RelationKind uint8

const (
	RelationUnknown RelationKind = iota
	RelationParent
	RelationSibling
	RelationSpouse
	RelationChild
	RelationOther
)

// ParseRelationKind converts the wire-level relation label into a RelationKind.
func ParseRelationKind(value string) (RelationKind, error) {
	switch value {
	case "parent":
		return RelationParent, nil
	case "sibling":
		return RelationSibling, nil
	case "spouse":
		return RelationSpouse, nil
	case "child":
		return RelationChild, nil
	case "other":
		return RelationOther, nil
	default:
		return RelationUnknown, fmt.Errorf("unknown relation kind %q", value)
	}
}

func (k RelationKind) String() string {
	switch k {
	case RelationParent:
		return "parent"
	case RelationSibling:
		return "sibling"
	case RelationSpouse:
		return "spouse"
	case RelationChild:
		return "child"
	case RelationOther:
		return "other"
	default:
		return "unknown"
	}
}

// edgesFor returns the relationship rows implied by declaring relativeID as
// the given kind of relative of selfID. Sibling and spouse relations yield a
// reciprocal pair; parent and child yield a single directed edge; other yields
// none.
func edgesFor(kind RelationKind, selfID, relativeID string) ([]models.Relationship, error) {
	switch kind {
	case RelationParent:
		return []models.Relationship{
			{ParentID: relativeID, ChildID: selfID, RelationshipType: models.RelationshipParent},
		}, nil
	case RelationChild:
		return []models.Relationship{
			{ParentID: selfID, ChildID: relativeID, RelationshipType: models.RelationshipParent},
		}, nil
	case RelationSibling:
		return []models.Relationship{
			{ParentID: relativeID, ChildID: selfID, RelationshipType: models.RelationshipSibling},
			{ParentID: selfID, ChildID: relativeID, RelationshipType: models.RelationshipSibling},
		}, nil
	case RelationSpouse:
		return []models.Relationship{
			{ParentID: relativeID, ChildID: selfID, RelationshipType: models.RelationshipSpouse},
			{ParentID: selfID, ChildID: relativeID, RelationshipType: models.RelationshipSpouse},
		}, nil
	case RelationOther:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported relation kind %d", kind)
	}
}
