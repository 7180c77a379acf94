package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/familyconnect/familyconnect/internal/models"
	apperrors "github.com/familyconnect/familyconnect/pkg/errors"
)

const directoryPageSize = 12

// DirectoryEntry is a public directory card.
type DirectoryEntry struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Headline string `json:"headline,omitempty"`
	City     string `json:"city,omitempty"`
}

// CreateProfileInput defines attributes for a directory entry created through
// the API rather than the sign-in flow.
type CreateProfileInput struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"`
	Headline  string `json:"headline"`
	City      string `json:"city"`
}

// ProfileService backs the public directory and profile lookups.
type ProfileService struct {
	db *gorm.DB
}

// NewProfileService constructs a ProfileService.
func NewProfileService(db *gorm.DB) (*ProfileService, error) {
	if db == nil {
		return nil, errors.New("profile service: db is required")
	}
	return &ProfileService{db: db}, nil
}

// Directory returns the first page of directory entries, oldest first.
func (s *ProfileService) Directory(ctx context.Context) ([]DirectoryEntry, error) {
	ctx = ensureContext(ctx)

	var profiles []models.Profile
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.StatusActive).
		Order("created_at ASC").
		Limit(directoryPageSize).
		Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("profile service: list directory: %w", err)
	}

	entries := make([]DirectoryEntry, 0, len(profiles))
	for _, profile := range profiles {
		entries = append(entries, DirectoryEntry{
			ID:       profile.ID,
			FullName: profile.FullName(),
			Headline: profile.Headline,
			City:     profile.City,
		})
	}
	return entries, nil
}

// Get loads one profile by id.
func (s *ProfileService) Get(ctx context.Context, profileID string) (*models.Profile, error) {
	ctx = ensureContext(ctx)

	var profile models.Profile
	if err := s.db.WithContext(ctx).First(&profile, "id = ?", profileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("profile service: load profile: %w", err)
	}
	return &profile, nil
}

// GetByEmail loads one profile by its unique email.
func (s *ProfileService) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	ctx = ensureContext(ctx)

	var profile models.Profile
	err := s.db.WithContext(ctx).
		First(&profile, "email = ?", normalizeEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile service: load profile by email: %w", err)
	}
	return &profile, nil
}

// Create inserts a directory entry. Duplicate emails map to a conflict error.
func (s *ProfileService) Create(ctx context.Context, input CreateProfileInput) (*models.Profile, error) {
	ctx = ensureContext(ctx)

	profile := models.Profile{
		Email:     normalizeEmail(input.Email),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Headline:  strings.TrimSpace(input.Headline),
		City:      strings.TrimSpace(input.City),
		Role:      models.RoleMember,
		Status:    models.StatusActive,
	}
	if profile.Email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if profile.FirstName == "" {
		return nil, apperrors.NewBadRequest("first name is required")
	}

	if err := s.db.WithContext(ctx).Create(&profile).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewConflict("a profile with this email already exists")
		}
		return nil, fmt.Errorf("profile service: create profile: %w", err)
	}
	return &profile, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
