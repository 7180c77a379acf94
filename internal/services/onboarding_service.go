package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/familyconnect/familyconnect/internal/models"
	apperrors "github.com/familyconnect/familyconnect/pkg/errors"
	"github.com/familyconnect/familyconnect/pkg/metrics"
)

// ErrSelfMemberMissing indicates the account has not completed identity
// bootstrap yet, so no root member exists to attach relatives to.
var ErrSelfMemberMissing = errors.New("onboarding: self member not created yet")

// ParentRole distinguishes the two independent parent inputs of the
// onboarding flow. The role label also determines the inferred gender of the
// created placeholder.
type ParentRole string

const (
	ParentMother ParentRole = "mother"
	ParentFather ParentRole = "father"
)

func (r ParentRole) inferredGender() string {
	if r == ParentMother {
		return "female"
	}
	return "male"
}

// BootstrapInput carries the self-reported identity of a new account.
type BootstrapInput struct {
	FirstName string
	LastName  string
	Gender    string
}

// RelativeRecord summarises one relative added during onboarding; it backs the
// caller's display list and is not authoritative over the stored rows.
type RelativeRecord struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
}

// TreeStats feeds the onboarding summary screen.
type TreeStats struct {
	MemberCount int64 `json:"member_count"`
	Generations int   `json:"generations"`
}

// OnboardingService builds the initial relationship graph for a new account:
// the root member, declared parents and relatives, and the completion flag.
type OnboardingService struct {
	db *gorm.DB
}

// NewOnboardingService constructs an OnboardingService.
func NewOnboardingService(db *gorm.DB) (*OnboardingService, error) {
	if db == nil {
		return nil, errors.New("onboarding service: db is required")
	}
	return &OnboardingService{db: db}, nil
}

// BootstrapSelf creates the account's root member, or updates it in place when
// the step is re-run. Exactly one root member ever exists per account; the
// guard is keyed on the owning-account link. Name and gender are mirrored onto
// the profile record so downstream displays need not re-derive them.
func (s *OnboardingService) BootstrapSelf(ctx context.Context, accountID string, input BootstrapInput) (*models.FamilyMember, error) {
	ctx = ensureContext(ctx)

	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	firstName := strings.TrimSpace(input.FirstName)
	if firstName == "" {
		return nil, apperrors.NewBadRequest("first name is required")
	}
	lastName := strings.TrimSpace(input.LastName)
	gender := strings.TrimSpace(input.Gender)

	var member models.FamilyMember
	err := s.db.WithContext(ctx).Where("user_id = ?", accountID).First(&member).Error
	switch {
	case err == nil:
		member.FirstName = firstName
		member.LastName = lastName
		member.Gender = gender
		if err := s.db.WithContext(ctx).Save(&member).Error; err != nil {
			return nil, fmt.Errorf("onboarding: update self member: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		member = models.FamilyMember{
			FirstName: firstName,
			LastName:  lastName,
			Gender:    gender,
			UserID:    &accountID,
			CreatedBy: accountID,
		}
		if err := s.db.WithContext(ctx).Create(&member).Error; err != nil {
			return nil, fmt.Errorf("onboarding: create self member: %w", err)
		}
		metrics.MembersCreated.WithLabelValues("self").Inc()
	default:
		return nil, fmt.Errorf("onboarding: load self member: %w", err)
	}

	updates := map[string]any{
		"first_name": firstName,
		"last_name":  lastName,
		"gender":     gender,
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", accountID).
		Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("onboarding: mirror profile fields: %w", err)
	}

	return &member, nil
}

// AddParent records one named parent of the account's root member. A blank
// name is a deliberate skip: no placeholder, no edge, no error. Mother and
// father are independent operations; a failure in one never blocks the other.
func (s *OnboardingService) AddParent(ctx context.Context, accountID string, role ParentRole, name string) (*RelativeRecord, error) {
	ctx = ensureContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	if role != ParentMother && role != ParentFather {
		return nil, apperrors.NewBadRequest("parent role must be mother or father")
	}

	self, err := s.selfMember(ctx, accountID)
	if err != nil {
		return nil, err
	}

	first, last := splitFullName(name)
	parent := models.FamilyMember{
		FirstName: first,
		LastName:  last,
		Gender:    role.inferredGender(),
		CreatedBy: accountID,
	}
	if err := s.db.WithContext(ctx).Create(&parent).Error; err != nil {
		return nil, fmt.Errorf("onboarding: create %s: %w", role, err)
	}
	metrics.MembersCreated.WithLabelValues("parent").Inc()

	edges, err := edgesFor(RelationParent, self.ID, parent.ID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&edges).Error; err != nil {
		return nil, fmt.Errorf("onboarding: link %s: %w", role, err)
	}

	return &RelativeRecord{MemberID: parent.ID, Name: name, Kind: string(role)}, nil
}

// AddRelative records one ad-hoc relative of the account's root member. The
// edge shape follows the declared kind; "other" creates a node without any
// relationship semantics. The member insert must succeed before any edge is
// written; a failed insert produces no edges.
func (s *OnboardingService) AddRelative(ctx context.Context, accountID string, kind RelationKind, fullName string) (*RelativeRecord, error) {
	ctx = ensureContext(ctx)

	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}

	self, err := s.selfMember(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if kind == RelationUnknown {
		return nil, apperrors.NewBadRequest("unknown relation type")
	}

	first, last := splitFullName(fullName)
	relative := models.FamilyMember{
		FirstName: first,
		LastName:  last,
		CreatedBy: accountID,
	}
	if err := s.db.WithContext(ctx).Create(&relative).Error; err != nil {
		return nil, fmt.Errorf("onboarding: create relative: %w", err)
	}
	metrics.MembersCreated.WithLabelValues("relative").Inc()

	edges, err := edgesFor(kind, self.ID, relative.ID)
	if err != nil {
		return nil, err
	}
	if len(edges) > 0 {
		if err := s.db.WithContext(ctx).Create(&edges).Error; err != nil {
			return nil, fmt.Errorf("onboarding: link relative: %w", err)
		}
	}

	return &RelativeRecord{MemberID: relative.ID, Name: fullName, Kind: kind.String()}, nil
}

// CompleteOnboarding flips the profile completion flag and returns the tree
// stats shown on the summary screen.
func (s *OnboardingService) CompleteOnboarding(ctx context.Context, accountID string) (*TreeStats, error) {
	ctx = ensureContext(ctx)

	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	if err := s.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", accountID).
		Update("onboarding_completed", true).Error; err != nil {
		return nil, fmt.Errorf("onboarding: set completion flag: %w", err)
	}

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.FamilyMember{}).
		Where("created_by = ? OR user_id = ?", accountID, accountID).
		Where("hidden = ?", false).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("onboarding: count members: %w", err)
	}

	generations := 1
	if count > 3 {
		generations = 2
	}

	return &TreeStats{MemberCount: count, Generations: generations}, nil
}

func (s *OnboardingService) selfMember(ctx context.Context, accountID string) (*models.FamilyMember, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	var member models.FamilyMember
	if err := s.db.WithContext(ctx).Where("user_id = ?", accountID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSelfMemberMissing
		}
		return nil, fmt.Errorf("onboarding: load self member: %w", err)
	}
	return &member, nil
}
