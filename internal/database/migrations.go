package database

import (
	"gorm.io/gorm"

	"github.com/familyconnect/familyconnect/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Profile{},
		&models.FamilyMember{},
		&models.Relationship{},
		&models.Invitation{},
		&models.Notification{},
		&models.SignInToken{},
		&models.AuditLog{},
	)
}
