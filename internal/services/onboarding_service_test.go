package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/familyconnect/familyconnect/internal/database/testutil"
	"github.com/familyconnect/familyconnect/internal/models"
)

func seedProfile(t *testing.T, db *gorm.DB) *models.Profile {
	t.Helper()
	profile := &models.Profile{
		Email:  uuid.NewString() + "@example.test",
		Role:   models.RoleMember,
		Status: models.StatusActive,
	}
	require.NoError(t, db.Create(profile).Error)
	return profile
}

func TestBootstrapSelfCreatesRootMember(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewOnboardingService(db)
	require.NoError(t, err)
	account := seedProfile(t, db)

	member, err := svc.BootstrapSelf(context.Background(), account.ID, BootstrapInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Gender:    "female",
	})
	require.NoError(t, err)
	require.NotNil(t, member.UserID)
	assert.Equal(t, account.ID, *member.UserID)
	assert.Equal(t, "Ada", member.FirstName)
	assert.Equal(t, "Lovelace", member.LastName)
	assert.False(t, member.IsPlaceholder())

	var stored models.Profile
	require.NoError(t, db.First(&stored, "id = ?", account.ID).Error)
	assert.Equal(t, "Ada", stored.FirstName)
	assert.Equal(t, "Lovelace", stored.LastName)
}

func TestBootstrapSelfIsIdempotent(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewOnboardingService(db)
	require.NoError(t, err)
	account := seedProfile(t, db)

	first, err := svc.BootstrapSelf(context.Background(), account.ID, BootstrapInput{FirstName: "Ada"})
	require.NoError(t, err)
	second, err := svc.BootstrapSelf(context.Background(), account.ID, BootstrapInput{
		FirstName: "Ada",
		LastName:  "Byron",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Byron", second.LastName)

	var count int64
	require.NoError(t, db.Model(&models.FamilyMember{}).
		Where("user_id = ?", account.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestBootstrapSelfRequiresFirstName(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewOnboardingService(db)
	require.NoError(t, err)
	account := seedProfile(t, db)

	_, err = svc.BootstrapSelf(context.Background(), account.ID, BootstrapInput{FirstName: "   "})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.FamilyMember{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestAddParentCreatesMemberAndEdge(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewOnboardingService(db)
	require.NoError(t, err)
	account := seedProfile(t, db)

	self, err := svc.BootstrapSelf(context.Background(), account.ID, BootstrapInput{FirstName: "Alex"})
	require.NoError(t, err)

	record, err := svc.AddParent(context.Background(), account.ID, ParentMother, "Jane Smith")
	require.NoError(t, err)
	require.NotNil(t, record)

	var mother models.FamilyMember
	require.NoError(t, db.First(&mother, "id = ?", record.MemberID).Error)
	assert.Equal(t, "Jane", mother.FirstName)
	assert.Equal(t, "Smith", mother.LastName)
	assert.Equal(t, "female", mother.Gender)
	assert.True(t, mother.IsPlaceholder())

	var edges []models.Relationship
	require.NoError(t, db.Find(&edges).Error)
	require.Len(t, edges, 1)
	assert.Equal(t, mother.ID, edges[0].ParentID)
	assert.Equal(t, self.ID, edges[0].ChildID)
	assert.Equal(t, models.RelationshipParent, edges[0].RelationshipType)
}

func TestAddParentBlankNameIsSkipped(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewOnboardingService(db)
	require.NoError(t, err)
	account := seedProfile(t, db)

	_, err = svc.BootstrapSelf(context.Background(), account.ID, BootstrapInput{FirstName: "Alex"})
	require.NoError(t, err)

	record, err := svc.AddParent(context.Background(), account.ID, ParentFather, "  ")
	require.NoError(t, err)
	assert.Nil(t, record)

	var count int64
	require.NoError(t, db.Model(&models.FamilyMember{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	require.NoError(t, db.Model(&models.Relationship{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestAddRelativeSiblingWritesReciprocalEdges(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewOnboardingService(db)
	require.NoError(t, err)
	account := seedProfile(t, db)

	self, err := svc.BootstrapSelf(context.Background(), account.ID, BootstrapInput{FirstName: "Alex"})
	require.NoError(t, err)

	record, err := svc.AddRelative(context.Background(), account.ID, RelationSibling, "Sam Lee")
	require.NoError(t, err)
	assert.Equal(t, "sibling", record.Kind)

	var edges []models.Relationship
	require.NoError(t, db.Where("relationship_type = ?", models.RelationshipSibling).Find(&edges).Error)
	require.Len(t, edges, 2)

	pairs := map[string]bool{}
	for _, edge := range edges {
		pairs[edge.ParentID+">"+edge.ChildID] = true
	}
	assert.True(t, pairs[self.ID+">"+record.MemberID])
	assert.True(t, pairs[record.MemberID+">"+self.ID])
}

func TestAddRelativeOtherCreatesNodeWithoutEdges(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewOnboardingService(db)
	require.NoError(t, err)
	account := seedProfile(t, db)

	_, err = svc.BootstrapSelf(context.Background(), account.ID, BootstrapInput{FirstName: "Alex"})
	require.NoError(t, err)

	record, err := svc.AddRelative(context.Background(), account.ID, RelationOther, "Family Friend")
	require.NoError(t, err)
	require.NotNil(t, record)

	var count int64
	require.NoError(t, db.Model(&models.Relationship{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestAddRelativeRejectsUnknownKind(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewOnboardingService(db)
	require.NoError(t, err)
	account := seedProfile(t, db)

	_, err = svc.BootstrapSelf(context.Background(), account.ID, BootstrapInput{FirstName: "Alex"})
	require.NoError(t, err)

	_, err = svc.AddRelative(context.Background(), account.ID, RelationUnknown, "Mystery Person")
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.FamilyMember{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAddRelativeRequiresBootstrap(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewOnboardingService(db)
	require.NoError(t, err)
	account := seedProfile(t, db)

	_, err = svc.AddRelative(context.Background(), account.ID, RelationSibling, "Sam Lee")
	assert.ErrorIs(t, err, ErrSelfMemberMissing)
}

func TestCompleteOnboardingFlagsProfileAndCounts(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewOnboardingService(db)
	require.NoError(t, err)
	account := seedProfile(t, db)

	_, err = svc.BootstrapSelf(context.Background(), account.ID, BootstrapInput{FirstName: "Ada"})
	require.NoError(t, err)
	_, err = svc.AddParent(context.Background(), account.ID, ParentMother, "Jane Smith")
	require.NoError(t, err)

	stats, err := svc.CompleteOnboarding(context.Background(), account.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.MemberCount)
	assert.Equal(t, 1, stats.Generations)

	var stored models.Profile
	require.NoError(t, db.First(&stored, "id = ?", account.ID).Error)
	assert.True(t, stored.OnboardingCompleted)
}

func TestCompleteOnboardingGenerationEstimate(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewOnboardingService(db)
	require.NoError(t, err)
	account := seedProfile(t, db)

	_, err = svc.BootstrapSelf(context.Background(), account.ID, BootstrapInput{FirstName: "Ada"})
	require.NoError(t, err)
	_, err = svc.AddParent(context.Background(), account.ID, ParentMother, "Jane Smith")
	require.NoError(t, err)
	_, err = svc.AddParent(context.Background(), account.ID, ParentFather, "John Smith")
	require.NoError(t, err)
	_, err = svc.AddRelative(context.Background(), account.ID, RelationSibling, "Sam Lee")
	require.NoError(t, err)

	stats, err := svc.CompleteOnboarding(context.Background(), account.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.MemberCount)
	assert.Equal(t, 2, stats.Generations)
}
