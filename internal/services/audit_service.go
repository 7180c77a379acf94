package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/familyconnect/familyconnect/internal/auditctx"
	"github.com/familyconnect/familyconnect/internal/models"
	"github.com/familyconnect/familyconnect/pkg/logger"
)

// Audit actions recorded from the admin console and the auth flow.
const (
	AuditActionLogin         = "auth.login"
	AuditActionLoginFailed   = "auth.login_failed"
	AuditActionLogout        = "auth.logout"
	AuditActionProfileUpdate = "admin.profile_update"
	AuditActionMemberHide    = "admin.member_hide"
	AuditActionInviteExpire  = "maintenance.invite_expire"
)

// AuditEntry describes one action to record.
type AuditEntry struct {
	ActorID    string
	Action     string
	Resource   string
	ResourceID string
	Details    map[string]any
	IPAddress  string
}

// ListAuditInput filters the admin audit listing.
type ListAuditInput struct {
	ActorID  string
	Action   string
	Resource string
	Limit    int
	Offset   int
}

// AuditService appends and queries the audit trail. Recording is best effort:
// a failed write is logged and never propagated to the caller's operation.
type AuditService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewAuditService constructs an AuditService.
func NewAuditService(db *gorm.DB) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db, log: logger.WithModule("audit")}, nil
}

// Record appends one audit row. Errors are swallowed after logging so audit
// failures never break the recorded action.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	ctx = ensureContext(ctx)

	if actor, ok := auditctx.FromContext(ctx); ok {
		if entry.ActorID == "" {
			entry.ActorID = actor.UserID
		}
		if entry.IPAddress == "" {
			entry.IPAddress = actor.IPAddress
		}
	}

	row := models.AuditLog{
		Action:     strings.TrimSpace(entry.Action),
		Resource:   strings.TrimSpace(entry.Resource),
		ResourceID: strings.TrimSpace(entry.ResourceID),
		IPAddress:  strings.TrimSpace(entry.IPAddress),
	}
	if row.Action == "" {
		return
	}
	if actor := strings.TrimSpace(entry.ActorID); actor != "" {
		row.ActorID = &actor
	}
	if entry.Details != nil {
		data, err := json.Marshal(entry.Details)
		if err == nil {
			row.Details = string(data)
		}
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		s.log.Warn("audit record failed",
			zap.String("action", row.Action),
			zap.Error(err))
	}
}

// List returns audit rows newest first with optional filters.
func (s *AuditService) List(ctx context.Context, input ListAuditInput) ([]models.AuditLog, int64, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if actor := strings.TrimSpace(input.ActorID); actor != "" {
		query = query.Where("actor_id = ?", actor)
	}
	if action := strings.TrimSpace(input.Action); action != "" {
		query = query.Where("action = ?", action)
	}
	if resource := strings.TrimSpace(input.Resource); resource != "" {
		query = query.Where("resource = ?", resource)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: count logs: %w", err)
	}

	limit := input.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	var rows []models.AuditLog
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: list logs: %w", err)
	}
	return rows, total, nil
}

// Prune deletes audit rows older than the cutoff and returns the count.
func (s *AuditService) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("audit service: prune logs: %w", result.Error)
	}
	return result.RowsAffected, nil
}
