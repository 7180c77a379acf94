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

// MemberDTO is the API shape of a family member.
type MemberDTO struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id,omitempty"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name,omitempty"`
	Gender        string `json:"gender,omitempty"`
	CreatedBy     string `json:"created_by"`
	IsPlaceholder bool   `json:"is_placeholder"`
}

// EdgeDTO is one directed relationship edge for the tree view.
type EdgeDTO struct {
	ParentID string `json:"parent_id"`
	ChildID  string `json:"child_id"`
	Type     string `json:"type"`
}

// FamilyTree bundles the visible members of an account's graph with the edges
// connecting them.
type FamilyTree struct {
	Members []MemberDTO `json:"members"`
	Edges   []EdgeDTO   `json:"edges"`
}

// MemberService answers read queries over the member graph and handles the
// soft-hide removal. Edge writes stay in OnboardingService.
type MemberService struct {
	db *gorm.DB
}

// NewMemberService constructs a MemberService.
func NewMemberService(db *gorm.DB) (*MemberService, error) {
	if db == nil {
		return nil, errors.New("member service: db is required")
	}
	return &MemberService{db: db}, nil
}

// Get loads one member by id.
func (s *MemberService) Get(ctx context.Context, memberID string) (*MemberDTO, error) {
	ctx = ensureContext(ctx)

	var member models.FamilyMember
	if err := s.db.WithContext(ctx).First(&member, "id = ?", memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("member service: load member: %w", err)
	}
	dto := mapMember(member)
	return &dto, nil
}

// ListForAccount returns visible members the account created or owns.
func (s *MemberService) ListForAccount(ctx context.Context, accountID string) ([]MemberDTO, error) {
	ctx = ensureContext(ctx)

	members, err := s.visibleMembers(ctx, accountID)
	if err != nil {
		return nil, err
	}

	items := make([]MemberDTO, 0, len(members))
	for _, member := range members {
		items = append(items, mapMember(member))
	}
	return items, nil
}

// Tree returns the account's visible members plus every edge between them.
func (s *MemberService) Tree(ctx context.Context, accountID string) (*FamilyTree, error) {
	ctx = ensureContext(ctx)

	members, err := s.visibleMembers(ctx, accountID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(members))
	dtos := make([]MemberDTO, 0, len(members))
	for _, member := range members {
		ids = append(ids, member.ID)
		dtos = append(dtos, mapMember(member))
	}

	tree := &FamilyTree{Members: dtos, Edges: []EdgeDTO{}}
	if len(ids) == 0 {
		return tree, nil
	}

	var edges []models.Relationship
	if err := s.db.WithContext(ctx).
		Where("parent_id IN ? AND child_id IN ?", ids, ids).
		Find(&edges).Error; err != nil {
		return nil, fmt.Errorf("member service: load edges: %w", err)
	}
	for _, edge := range edges {
		tree.Edges = append(tree.Edges, EdgeDTO{
			ParentID: edge.ParentID,
			ChildID:  edge.ChildID,
			Type:     edge.RelationshipType,
		})
	}
	return tree, nil
}

// Stats returns the finish-screen counters for the account's graph.
func (s *MemberService) Stats(ctx context.Context, accountID string) (*TreeStats, error) {
	ctx = ensureContext(ctx)

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.FamilyMember{}).
		Where("(created_by = ? OR user_id = ?) AND hidden = ?", accountID, accountID, false).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("member service: count members: %w", err)
	}

	generations := 1
	if count > 3 {
		generations = 2
	}
	return &TreeStats{MemberCount: count, Generations: generations}, nil
}

// RemoveMember soft-hides a member. Edges are kept so kinship paths through
// the node keep resolving; the member just disappears from listings.
func (s *MemberService) RemoveMember(ctx context.Context, accountID, memberID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Model(&models.FamilyMember{}).
		Where("id = ? AND (created_by = ? OR user_id = ?)", memberID, accountID, accountID).
		Update("hidden", true)
	if result.Error != nil {
		return fmt.Errorf("member service: hide member: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *MemberService) visibleMembers(ctx context.Context, accountID string) ([]models.FamilyMember, error) {
	var members []models.FamilyMember
	if err := s.db.WithContext(ctx).
		Where("(created_by = ? OR user_id = ?) AND hidden = ?", accountID, accountID, false).
		Order("created_at ASC").
		Find(&members).Error; err != nil {
		return nil, fmt.Errorf("member service: list members: %w", err)
	}
	return members, nil
}

func mapMember(member models.FamilyMember) MemberDTO {
	dto := MemberDTO{
		ID:            member.ID,
		FirstName:     member.FirstName,
		LastName:      member.LastName,
		Gender:        member.Gender,
		CreatedBy:     member.CreatedBy,
		IsPlaceholder: member.IsPlaceholder(),
	}
	if member.UserID != nil {
		dto.UserID = strings.TrimSpace(*member.UserID)
	}
	return dto
}
