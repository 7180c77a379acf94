package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/familyconnect/familyconnect/internal/models"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported database driver")
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	require.NoError(t, Migrate(db))

	for _, table := range []string{"profiles", "family_members", "relationships", "invitations", "notifications", "sign_in_tokens", "audit_logs"} {
		require.True(t, db.Migrator().HasTable(table), "expected table %s", table)
	}
}

func TestMigrateNilHandle(t *testing.T) {
	require.Error(t, Migrate(nil))
}

func TestRelationshipEdgeUniqueness(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	require.NoError(t, Migrate(db))

	a := models.FamilyMember{FirstName: "Edge", LastName: "A", CreatedBy: "acct-edge"}
	b := models.FamilyMember{FirstName: "Edge", LastName: "B", CreatedBy: "acct-edge"}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Create(&b).Error)

	edge := models.Relationship{ParentID: a.ID, ChildID: b.ID, RelationshipType: models.RelationshipParent}
	require.NoError(t, db.Create(&edge).Error)

	dup := models.Relationship{ParentID: a.ID, ChildID: b.ID, RelationshipType: models.RelationshipParent}
	require.Error(t, db.Create(&dup).Error)
}
