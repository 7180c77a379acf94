package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/familyconnect/familyconnect/internal/database/testutil"
	"github.com/familyconnect/familyconnect/internal/models"
)

func seedMember(t *testing.T, db *gorm.DB, name string) string {
	t.Helper()
	member := models.FamilyMember{FirstName: name, CreatedBy: "fixture"}
	require.NoError(t, db.Create(&member).Error)
	return member.ID
}

func seedParentEdge(t *testing.T, db *gorm.DB, parentID, childID string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Relationship{
		ParentID:         parentID,
		ChildID:          childID,
		RelationshipType: models.RelationshipParent,
	}).Error)
}

func newKinshipFixture(t *testing.T) (*KinshipService, *gorm.DB) {
	t.Helper()
	db := testutil.MustOpenTestDB(t)
	svc, err := NewKinshipService(db)
	require.NoError(t, err)
	return svc, db
}

func TestRelateSelf(t *testing.T) {
	svc, db := newKinshipFixture(t)
	a := seedMember(t, db, "Ada")

	rel, err := svc.Relate(context.Background(), a, a)
	require.NoError(t, err)
	assert.Equal(t, "self", rel.Label)
	assert.Equal(t, 0, rel.Distance)
}

func TestRelateDirectSiblingEdge(t *testing.T) {
	svc, db := newKinshipFixture(t)
	a := seedMember(t, db, "Ada")
	b := seedMember(t, db, "Sam")
	require.NoError(t, db.Create(&models.Relationship{
		ParentID: a, ChildID: b, RelationshipType: models.RelationshipSibling,
	}).Error)

	rel, err := svc.Relate(context.Background(), b, a)
	require.NoError(t, err)
	assert.Equal(t, "sibling", rel.Label)
}

func TestRelateSpouseEdge(t *testing.T) {
	svc, db := newKinshipFixture(t)
	a := seedMember(t, db, "Ada")
	b := seedMember(t, db, "William")
	require.NoError(t, db.Create(&models.Relationship{
		ParentID: a, ChildID: b, RelationshipType: models.RelationshipSpouse,
	}).Error)

	rel, err := svc.Relate(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, "spouse", rel.Label)
	assert.Equal(t, 1, rel.Distance)
}

func TestRelateSiblingThroughSharedParent(t *testing.T) {
	svc, db := newKinshipFixture(t)
	parent := seedMember(t, db, "Jane")
	a := seedMember(t, db, "Ada")
	b := seedMember(t, db, "Sam")
	seedParentEdge(t, db, parent, a)
	seedParentEdge(t, db, parent, b)

	rel, err := svc.Relate(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, "sibling", rel.Label)
	assert.Equal(t, []string{a, parent, b}, rel.Path)
}

func TestRelateGrandparentAndGrandchild(t *testing.T) {
	svc, db := newKinshipFixture(t)
	grandparent := seedMember(t, db, "Mary")
	parent := seedMember(t, db, "Jane")
	child := seedMember(t, db, "Ada")
	seedParentEdge(t, db, grandparent, parent)
	seedParentEdge(t, db, parent, child)

	up, err := svc.Relate(context.Background(), child, grandparent)
	require.NoError(t, err)
	assert.Equal(t, "grandparent", up.Label)
	assert.Equal(t, 2, up.Distance)

	down, err := svc.Relate(context.Background(), grandparent, child)
	require.NoError(t, err)
	assert.Equal(t, "grandchild", down.Label)
}

func TestRelateGreatGrandparent(t *testing.T) {
	svc, db := newKinshipFixture(t)
	ids := make([]string, 4)
	for i := range ids {
		ids[i] = seedMember(t, db, "Gen")
	}
	for i := 0; i < len(ids)-1; i++ {
		seedParentEdge(t, db, ids[i], ids[i+1])
	}

	rel, err := svc.Relate(context.Background(), ids[3], ids[0])
	require.NoError(t, err)
	assert.Equal(t, "great-grandparent", rel.Label)
}

func TestRelateAuntThroughGrandparent(t *testing.T) {
	svc, db := newKinshipFixture(t)
	grandparent := seedMember(t, db, "Mary")
	parent := seedMember(t, db, "Jane")
	aunt := seedMember(t, db, "Joan")
	child := seedMember(t, db, "Ada")
	seedParentEdge(t, db, grandparent, parent)
	seedParentEdge(t, db, grandparent, aunt)
	seedParentEdge(t, db, parent, child)

	rel, err := svc.Relate(context.Background(), child, aunt)
	require.NoError(t, err)
	assert.Equal(t, "aunt/uncle", rel.Label)

	back, err := svc.Relate(context.Background(), aunt, child)
	require.NoError(t, err)
	assert.Equal(t, "niece/nephew", back.Label)
}

func TestRelateFirstCousin(t *testing.T) {
	svc, db := newKinshipFixture(t)
	grandparent := seedMember(t, db, "Mary")
	parentA := seedMember(t, db, "Jane")
	parentB := seedMember(t, db, "Joan")
	a := seedMember(t, db, "Ada")
	b := seedMember(t, db, "Beth")
	seedParentEdge(t, db, grandparent, parentA)
	seedParentEdge(t, db, grandparent, parentB)
	seedParentEdge(t, db, parentA, a)
	seedParentEdge(t, db, parentB, b)

	rel, err := svc.Relate(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, "1st cousin", rel.Label)
	assert.Equal(t, 4, rel.Distance)
	assert.Equal(t, []string{a, parentA, grandparent, parentB, b}, rel.Path)
}

func TestRelateThirdCousinTwiceRemoved(t *testing.T) {
	svc, db := newKinshipFixture(t)
	ancestor := seedMember(t, db, "Root")

	// Branch one: four generations down from the ancestor.
	lineA := ancestor
	var a string
	for i := 0; i < 4; i++ {
		a = seedMember(t, db, "A")
		seedParentEdge(t, db, lineA, a)
		lineA = a
	}

	// Branch two: six generations down.
	lineB := ancestor
	var b string
	for i := 0; i < 6; i++ {
		b = seedMember(t, db, "B")
		seedParentEdge(t, db, lineB, b)
		lineB = b
	}

	rel, err := svc.Relate(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, "3rd cousin twice removed", rel.Label)
	assert.Equal(t, 10, rel.Distance)
}

func TestRelateUnconnectedMembers(t *testing.T) {
	svc, db := newKinshipFixture(t)
	a := seedMember(t, db, "Ada")
	b := seedMember(t, db, "Stranger")

	_, err := svc.Relate(context.Background(), a, b)
	assert.ErrorIs(t, err, ErrNoRelation)
}
