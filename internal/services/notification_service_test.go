package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/familyconnect/familyconnect/internal/database/testutil"
	apperrors "github.com/familyconnect/familyconnect/pkg/errors"
)

func TestIconForKnownAndUnknownTypes(t *testing.T) {
	assert.Equal(t, "paper-plane", IconFor(TypeInvitationSent))
	assert.Equal(t, "user-check", IconFor(TypeInvitationAccepted))
	assert.Equal(t, "link", IconFor(TypeConnectionFound))
	assert.Equal(t, "bell", IconFor("something_new"))
	assert.Equal(t, "bell", IconFor(""))
}

func TestCreateAndListNotifications(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)
	recipient := seedProfile(t, db)
	actor := seedProfile(t, db)

	created, err := svc.Create(context.Background(), CreateNotificationInput{
		UserID:  recipient.ID,
		ActorID: actor.ID,
		Type:    TypeNewMember,
		Title:   "New family member",
		Message: "Jane Smith joined your tree",
		Metadata: map[string]any{
			"member_name": "Jane Smith",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "user-plus", created.Icon)
	assert.False(t, created.IsRead)

	items, err := svc.ListForUser(context.Background(), ListNotificationsInput{UserID: recipient.ID})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "New family member", items[0].Title)
	assert.Equal(t, "Jane Smith", items[0].Metadata["member_name"])

	// The actor's own feed stays empty.
	items, err = svc.ListForUser(context.Background(), ListNotificationsInput{UserID: actor.ID})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCreateRequiresRecipientAndType(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateNotificationInput{Type: TypeNewMember})
	assert.Error(t, err)

	recipient := seedProfile(t, db)
	_, err = svc.Create(context.Background(), CreateNotificationInput{UserID: recipient.ID})
	assert.Error(t, err)
}

func TestUnreadCountAndMarkRead(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)
	recipient := seedProfile(t, db)

	first, err := svc.Create(context.Background(), CreateNotificationInput{
		UserID: recipient.ID, Type: TypePostCreated, Title: "New post",
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateNotificationInput{
		UserID: recipient.ID, Type: TypeCommentAdded, Title: "New comment",
	})
	require.NoError(t, err)

	count, err := svc.UnreadCount(context.Background(), recipient.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	read, err := svc.MarkRead(context.Background(), recipient.ID, first.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	require.NotNil(t, read.ReadAt)

	count, err = svc.UnreadCount(context.Background(), recipient.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestMarkReadScopedToRecipient(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)
	recipient := seedProfile(t, db)
	other := seedProfile(t, db)

	created, err := svc.Create(context.Background(), CreateNotificationInput{
		UserID: recipient.ID, Type: TypePhotoAdded, Title: "New photo",
	})
	require.NoError(t, err)

	_, err = svc.MarkRead(context.Background(), other.ID, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	count, err := svc.UnreadCount(context.Background(), recipient.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestMarkAllReadZeroesUnreadCount(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)
	recipient := seedProfile(t, db)

	for i := 0; i < 3; i++ {
		_, err = svc.Create(context.Background(), CreateNotificationInput{
			UserID: recipient.ID, Type: TypeEventCreated, Title: "Reunion",
		})
		require.NoError(t, err)
	}

	require.NoError(t, svc.MarkAllRead(context.Background(), recipient.ID))

	count, err := svc.UnreadCount(context.Background(), recipient.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestListForUserUnreadOnlyFilter(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)
	recipient := seedProfile(t, db)

	first, err := svc.Create(context.Background(), CreateNotificationInput{
		UserID: recipient.ID, Type: TypeRSVPUpdate, Title: "RSVP",
	})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), CreateNotificationInput{
		UserID: recipient.ID, Type: TypeProfileUpdate, Title: "Profile",
	})
	require.NoError(t, err)

	_, err = svc.MarkRead(context.Background(), recipient.ID, first.ID)
	require.NoError(t, err)

	items, err := svc.ListForUser(context.Background(), ListNotificationsInput{
		UserID:     recipient.ID,
		UnreadOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, second.ID, items[0].ID)
}
