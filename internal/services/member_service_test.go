package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/familyconnect/familyconnect/internal/database/testutil"
	apperrors "github.com/familyconnect/familyconnect/pkg/errors"
)

func TestListForAccountReturnsOwnGraphOnly(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewMemberService(db)
	require.NoError(t, err)
	onboarding, err := NewOnboardingService(db)
	require.NoError(t, err)

	account := seedProfile(t, db)
	other := seedProfile(t, db)

	_, err = onboarding.BootstrapSelf(context.Background(), account.ID, BootstrapInput{FirstName: "Ada"})
	require.NoError(t, err)
	_, err = onboarding.AddParent(context.Background(), account.ID, ParentMother, "Jane Smith")
	require.NoError(t, err)
	_, err = onboarding.BootstrapSelf(context.Background(), other.ID, BootstrapInput{FirstName: "Zed"})
	require.NoError(t, err)

	members, err := svc.ListForAccount(context.Background(), account.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	for _, member := range members {
		assert.Equal(t, account.ID, member.CreatedBy)
	}
}

func TestTreeIncludesEdgesBetweenVisibleMembers(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewMemberService(db)
	require.NoError(t, err)
	onboarding, err := NewOnboardingService(db)
	require.NoError(t, err)

	account := seedProfile(t, db)
	_, err = onboarding.BootstrapSelf(context.Background(), account.ID, BootstrapInput{FirstName: "Ada"})
	require.NoError(t, err)
	_, err = onboarding.AddParent(context.Background(), account.ID, ParentMother, "Jane Smith")
	require.NoError(t, err)
	_, err = onboarding.AddRelative(context.Background(), account.ID, RelationSibling, "Sam Lee")
	require.NoError(t, err)

	tree, err := svc.Tree(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Len(t, tree.Members, 3)
	// One parent edge plus a reciprocal sibling pair.
	assert.Len(t, tree.Edges, 3)
}

func TestRemoveMemberSoftHides(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewMemberService(db)
	require.NoError(t, err)
	onboarding, err := NewOnboardingService(db)
	require.NoError(t, err)

	account := seedProfile(t, db)
	_, err = onboarding.BootstrapSelf(context.Background(), account.ID, BootstrapInput{FirstName: "Ada"})
	require.NoError(t, err)
	record, err := onboarding.AddRelative(context.Background(), account.ID, RelationSibling, "Sam Lee")
	require.NoError(t, err)

	require.NoError(t, svc.RemoveMember(context.Background(), account.ID, record.MemberID))

	members, err := svc.ListForAccount(context.Background(), account.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)

	// Edges survive the hide so kinship paths keep resolving.
	tree, err := svc.Tree(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Len(t, tree.Members, 1)

	kinship, err := NewKinshipService(db)
	require.NoError(t, err)
	self := members[0]
	rel, err := kinship.Relate(context.Background(), self.ID, record.MemberID)
	require.NoError(t, err)
	assert.Equal(t, "sibling", rel.Label)
}

func TestRemoveMemberRejectsForeignGraph(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewMemberService(db)
	require.NoError(t, err)
	onboarding, err := NewOnboardingService(db)
	require.NoError(t, err)

	owner := seedProfile(t, db)
	intruder := seedProfile(t, db)
	_, err = onboarding.BootstrapSelf(context.Background(), owner.ID, BootstrapInput{FirstName: "Ada"})
	require.NoError(t, err)
	record, err := onboarding.AddRelative(context.Background(), owner.ID, RelationSibling, "Sam Lee")
	require.NoError(t, err)

	err = svc.RemoveMember(context.Background(), intruder.ID, record.MemberID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMemberStats(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewMemberService(db)
	require.NoError(t, err)
	onboarding, err := NewOnboardingService(db)
	require.NoError(t, err)

	account := seedProfile(t, db)
	_, err = onboarding.BootstrapSelf(context.Background(), account.ID, BootstrapInput{FirstName: "Ada"})
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background(), account.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.MemberCount)
	assert.Equal(t, 1, stats.Generations)
}
