package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/familyconnect/familyconnect/internal/models"
	"github.com/familyconnect/familyconnect/internal/services"
	"github.com/familyconnect/familyconnect/pkg/crypto"
	apperrors "github.com/familyconnect/familyconnect/pkg/errors"
)

// AdminLoginInput carries the admin-console credentials.
type AdminLoginInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IPAddress string `json:"-"`
}

// AdminService handles password sign-in for the admin console. Member
// sign-in stays passwordless; only admin and staff roles may authenticate
// here, and every attempt lands in the audit trail.
type AdminService struct {
	db    *gorm.DB
	jwt   *JWTService
	audit *services.AuditService
}

// NewAdminService constructs an AdminService.
func NewAdminService(db *gorm.DB, jwtService *JWTService, audit *services.AuditService) (*AdminService, error) {
	if db == nil {
		return nil, errors.New("admin auth: db is required")
	}
	if jwtService == nil {
		return nil, errors.New("admin auth: jwt service is required")
	}
	return &AdminService{db: db, jwt: jwtService, audit: audit}, nil
}

// Login verifies the credentials and returns a bearer token for the console.
func (s *AdminService) Login(ctx context.Context, input AdminLoginInput) (*models.Profile, string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	var profile models.Profile
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.recordFailure(ctx, "", email, input.IPAddress)
		return nil, "", apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("admin auth: load profile: %w", err)
	}

	if !profile.IsAdminConsoleUser() || profile.Password == "" {
		s.recordFailure(ctx, profile.ID, email, input.IPAddress)
		return nil, "", apperrors.ErrInvalidCredentials
	}
	if !crypto.VerifyPassword(profile.Password, input.Password) {
		s.recordFailure(ctx, profile.ID, email, input.IPAddress)
		return nil, "", apperrors.ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateAccessToken(AccessTokenInput{
		UserID: profile.ID,
		Email:  profile.Email,
		Role:   profile.Role,
	})
	if err != nil {
		return nil, "", err
	}

	if s.audit != nil {
		s.audit.Record(ctx, services.AuditEntry{
			ActorID:   profile.ID,
			Action:    services.AuditActionLogin,
			Resource:  "session",
			IPAddress: input.IPAddress,
		})
	}
	return &profile, token, nil
}

// SetPassword hashes and stores a console password for an admin or staff
// profile.
func (s *AdminService) SetPassword(ctx context.Context, profileID, password string) error {
	if len(password) < 8 {
		return apperrors.NewBadRequest("password must be at least 8 characters")
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("admin auth: hash password: %w", err)
	}

	result := s.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ? AND role IN ?", profileID, []string{models.RoleAdmin, models.RoleStaff}).
		Update("password", hash)
	if result.Error != nil {
		return fmt.Errorf("admin auth: store password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *AdminService) recordFailure(ctx context.Context, actorID, email, ip string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, services.AuditEntry{
		ActorID:   actorID,
		Action:    services.AuditActionLoginFailed,
		Resource:  "session",
		Details:   map[string]any{"email": email},
		IPAddress: ip,
	})
}
