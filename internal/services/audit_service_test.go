package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/familyconnect/familyconnect/internal/auditctx"
	"github.com/familyconnect/familyconnect/internal/database/testutil"
	"github.com/familyconnect/familyconnect/internal/models"
)

func TestAuditRecordAndList(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)
	admin := seedProfile(t, db)

	svc.Record(context.Background(), AuditEntry{
		ActorID:  admin.ID,
		Action:   AuditActionLogin,
		Resource: "session",
		Details:  map[string]any{"method": "password"},
	})
	svc.Record(context.Background(), AuditEntry{
		ActorID:    admin.ID,
		Action:     AuditActionMemberHide,
		Resource:   "family_member",
		ResourceID: "some-member",
	})

	rows, total, err := svc.List(context.Background(), ListAuditInput{ActorID: admin.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, rows, 2)

	rows, total, err = svc.List(context.Background(), ListAuditInput{Action: AuditActionLogin})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Contains(t, rows[0].Details, "password")
}

func TestAuditRecordFillsActorFromContext(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	ctx := auditctx.WithActor(context.Background(), auditctx.Actor{
		UserID:    "ctx-actor",
		IPAddress: "203.0.113.7",
	})
	svc.Record(ctx, AuditEntry{Action: AuditActionLogout, Resource: "session"})

	var row models.AuditLog
	require.NoError(t, db.First(&row).Error)
	require.NotNil(t, row.ActorID)
	assert.Equal(t, "ctx-actor", *row.ActorID)
	assert.Equal(t, "203.0.113.7", row.IPAddress)
}

func TestAuditRecordIgnoresBlankAction(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	svc.Record(context.Background(), AuditEntry{Resource: "session"})

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestAuditPruneRemovesOldRows(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	old := models.AuditLog{Action: AuditActionLogout, CreatedAt: time.Now().Add(-48 * time.Hour)}
	require.NoError(t, db.Create(&old).Error)
	svc.Record(context.Background(), AuditEntry{Action: AuditActionLogin})

	removed, err := svc.Prune(context.Background(), time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
