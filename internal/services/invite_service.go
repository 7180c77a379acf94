package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/familyconnect/familyconnect/internal/models"
	"github.com/familyconnect/familyconnect/pkg/crypto"
	"github.com/familyconnect/familyconnect/pkg/logger"
	"github.com/familyconnect/familyconnect/pkg/mail"
	"github.com/familyconnect/familyconnect/pkg/metrics"
)

const (
	defaultInviteExpiry    = 7 * 24 * time.Hour
	defaultInviteCodeBytes = 16
	maxCodeAttempts        = 5
)

var (
	// ErrInviteInvalid covers a missing code and a code that is no longer
	// pending; callers surface both as "invalid or expired invitation".
	ErrInviteInvalid = errors.New("invite: invalid or not pending")
	// ErrInviteExpired indicates the code was found pending but its expiry
	// timestamp has passed. Distinct from ErrInviteInvalid for user messaging.
	ErrInviteExpired = errors.New("invite: expired")
)

// InviteOption customises InviteService behaviour.
type InviteOption func(*InviteService)

// WithInviteBaseURL configures the base URL used to build shareable links.
func WithInviteBaseURL(url string) InviteOption {
	return func(s *InviteService) {
		s.baseURL = strings.TrimRight(url, "/")
	}
}

// WithInviteExpiry overrides the invitation lifetime.
func WithInviteExpiry(d time.Duration) InviteOption {
	return func(s *InviteService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithInviteCodeSize adjusts the random code length in bytes.
func WithInviteCodeSize(size int) InviteOption {
	return func(s *InviteService) {
		if size > 0 {
			s.codeLength = size
		}
	}
}

// WithInviteClock injects a custom clock primarily for testing.
func WithInviteClock(clock func() time.Time) InviteOption {
	return func(s *InviteService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// IssueInviteInput describes an outgoing invitation. All fields beyond the
// sender are optional: a bare invitation is a plain "join my tree" link with
// no pre-linked placeholder.
type IssueInviteInput struct {
	TargetMemberID string
	RecipientEmail string
	Message        string
}

// InviteService manages the invitation lifecycle: issuing single-use codes
// and the atomic pending -> accepted transition that links placeholder
// members to newly authenticated accounts.
type InviteService struct {
	db            *gorm.DB
	mailer        mail.Mailer
	notifications *NotificationService
	baseURL       string
	expiry        time.Duration
	codeLength    int
	now           func() time.Time
	log           *zap.Logger
}

// NewInviteService constructs an InviteService with the provided dependencies.
// The mailer and notification service may be nil; the corresponding side
// effects are then skipped.
func NewInviteService(db *gorm.DB, mailer mail.Mailer, notifications *NotificationService, opts ...InviteOption) (*InviteService, error) {
	if db == nil {
		return nil, errors.New("invite service: db is required")
	}

	service := &InviteService{
		db:            db,
		mailer:        mailer,
		notifications: notifications,
		expiry:        defaultInviteExpiry,
		codeLength:    defaultInviteCodeBytes,
		now:           time.Now,
		log:           logger.WithModule("invites"),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// Issue creates a new invitation for the sender and returns it together with
// the shareable URL embedding the code.
func (s *InviteService) Issue(ctx context.Context, senderID string, input IssueInviteInput) (*models.Invitation, string, error) {
	ctx = ensureContext(ctx)

	senderID = strings.TrimSpace(senderID)
	if senderID == "" {
		return nil, "", errors.New("invite service: sender is required")
	}

	var targetID *string
	if target := strings.TrimSpace(input.TargetMemberID); target != "" {
		var member models.FamilyMember
		if err := s.db.WithContext(ctx).First(&member, "id = ?", target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, "", fmt.Errorf("invite service: target member %s not found", target)
			}
			return nil, "", fmt.Errorf("invite service: load target member: %w", err)
		}
		targetID = &member.ID
	}

	now := s.now()
	invite := models.Invitation{
		SenderID:       senderID,
		FamilyMemberID: targetID,
		RecipientEmail: strings.ToLower(strings.TrimSpace(input.RecipientEmail)),
		Message:        strings.TrimSpace(input.Message),
		Status:         models.InvitePending,
		ExpiresAt:      now.Add(s.expiry),
	}

	if err := s.createWithFreshCode(ctx, &invite); err != nil {
		return nil, "", err
	}

	link := s.inviteLink(invite.InviteCode)

	if s.mailer != nil && invite.RecipientEmail != "" {
		message := mail.Message{
			To:      []string{invite.RecipientEmail},
			Subject: "Join our family tree on FamilyConnect",
			Body:    s.inviteBody(link, invite.Message),
		}
		if mailErr := s.mailer.Send(ctx, message); mailErr != nil && !errors.Is(mailErr, mail.ErrSMTPDisabled) {
			// Best-effort tail step: the invitation row is already
			// committed, so delivery failure must not fail the issuance.
			s.log.Warn("invitation email failed",
				zap.String("invitation_id", invite.ID),
				zap.Error(mailErr),
			)
		}
	}

	if s.notifications != nil && targetID != nil {
		if _, err := s.notifications.Create(ctx, CreateNotificationInput{
			UserID:  senderID,
			ActorID: senderID,
			Type:    TypeInvitationSent,
			Title:   "Invitation Sent",
			Message: "Your family tree invitation is on its way.",
		}); err != nil {
			s.log.Warn("invitation_sent notification failed", zap.Error(err))
		}
	}

	return &invite, link, nil
}

// Accept consumes a pending invitation on behalf of the accepting account.
// The status transition and the placeholder link run in one transaction so
// invitation consumption and member linking cannot diverge (stronger than a
// fetch-then-update sequence). Exactly one of two concurrent attempts can win
// the conditional update; the loser observes ErrInviteInvalid.
func (s *InviteService) Accept(ctx context.Context, code, accountID string) (*models.Invitation, error) {
	ctx = ensureContext(ctx)

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInviteInvalid
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, errors.New("invite service: accepting account is required")
	}

	var invite models.Invitation
	if err := s.db.WithContext(ctx).Where("invite_code = ?", code).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.InviteOutcomes.WithLabelValues("invalid").Inc()
			return nil, ErrInviteInvalid
		}
		return nil, fmt.Errorf("invite service: find invitation: %w", err)
	}

	if invite.Status != models.InvitePending {
		metrics.InviteOutcomes.WithLabelValues("invalid").Inc()
		return nil, ErrInviteInvalid
	}

	now := s.now()
	if invite.ExpiresAt.Before(now) {
		// Left pending on purpose; the maintenance sweep transitions stale
		// rows to expired later.
		metrics.InviteOutcomes.WithLabelValues("expired").Inc()
		return nil, ErrInviteExpired
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Invitation{}).
			Where("id = ? AND status = ?", invite.ID, models.InvitePending).
			Updates(map[string]any{
				"status":      models.InviteAccepted,
				"accepted_at": now,
				"accepted_by": accountID,
			})
		if result.Error != nil {
			return fmt.Errorf("invite service: mark accepted: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrInviteInvalid
		}

		if invite.FamilyMemberID != nil {
			link := tx.Model(&models.FamilyMember{}).
				Where("id = ? AND (user_id IS NULL OR user_id = '')", *invite.FamilyMemberID).
				Update("user_id", accountID)
			if link.Error != nil {
				return fmt.Errorf("invite service: link member: %w", link.Error)
			}
			if link.RowsAffected == 0 {
				s.log.Warn("placeholder already linked",
					zap.String("invitation_id", invite.ID),
					zap.String("member_id", *invite.FamilyMemberID),
				)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInviteInvalid) {
			metrics.InviteOutcomes.WithLabelValues("invalid").Inc()
		}
		return nil, err
	}

	invite.Status = models.InviteAccepted
	invite.AcceptedAt = &now
	invite.AcceptedBy = &accountID
	metrics.InviteOutcomes.WithLabelValues("accepted").Inc()

	if s.notifications != nil {
		if _, notifyErr := s.notifications.Create(ctx, CreateNotificationInput{
			UserID:  invite.SenderID,
			ActorID: accountID,
			Type:    TypeInvitationAccepted,
			Title:   "Invitation Accepted",
			Message: "Someone accepted your family tree invitation!",
		}); notifyErr != nil {
			// Best-effort tail step: the acceptance itself is committed.
			s.log.Warn("invitation_accepted notification failed",
				zap.String("invitation_id", invite.ID),
				zap.Error(notifyErr),
			)
		}
	}

	return &invite, nil
}

// ExpireStale transitions pending invitations whose expiry passed before the
// cutoff into the expired status. Used by the maintenance sweep.
func (s *InviteService) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("status = ? AND expires_at < ?", models.InvitePending, cutoff).
		Update("status", models.InviteExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("invite service: expire stale: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ListForSender returns the sender's invitations, newest first.
func (s *InviteService) ListForSender(ctx context.Context, senderID string, limit int) ([]models.Invitation, error) {
	ctx = ensureContext(ctx)

	if limit <= 0 || limit > 100 {
		limit = 25
	}

	var invites []models.Invitation
	if err := s.db.WithContext(ctx).
		Where("sender_id = ?", senderID).
		Order("created_at DESC").
		Limit(limit).
		Find(&invites).Error; err != nil {
		return nil, fmt.Errorf("invite service: list invitations: %w", err)
	}
	return invites, nil
}

// GetForSender loads one of the sender's invitations by code. A missing code
// and another sender's code are indistinguishable to the caller.
func (s *InviteService) GetForSender(ctx context.Context, code, senderID string) (*models.Invitation, error) {
	ctx = ensureContext(ctx)

	code = strings.TrimSpace(code)
	senderID = strings.TrimSpace(senderID)
	if code == "" || senderID == "" {
		return nil, ErrInviteInvalid
	}

	var invite models.Invitation
	err := s.db.WithContext(ctx).
		Where("invite_code = ? AND sender_id = ?", code, senderID).
		First(&invite).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInviteInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("invite service: find invitation: %w", err)
	}
	return &invite, nil
}

// InviteLink rebuilds the shareable URL for an existing code.
func (s *InviteService) InviteLink(code string) string {
	return s.inviteLink(code)
}

func (s *InviteService) createWithFreshCode(ctx context.Context, invite *models.Invitation) error {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := crypto.GenerateToken(s.codeLength)
		if err != nil {
			return fmt.Errorf("invite service: generate code: %w", err)
		}
		invite.InviteCode = code

		err = s.db.WithContext(ctx).Create(invite).Error
		if err == nil {
			return nil
		}
		if !isUniqueConstraintError(err) {
			return fmt.Errorf("invite service: create invitation: %w", err)
		}
		invite.ID = ""
	}
	return errors.New("invite service: could not generate a unique code")
}

func (s *InviteService) inviteLink(code string) string {
	if s.baseURL == "" {
		return code
	}
	return fmt.Sprintf("%s/auth?invite=%s", s.baseURL, code)
}

func (s *InviteService) inviteBody(link, personal string) string {
	var b strings.Builder
	b.WriteString("Hi!\n\nI've started building our family tree on FamilyConnect. Join me!\n\n")
	if personal != "" {
		b.WriteString(personal)
		b.WriteString("\n\n")
	}
	b.WriteString(link)
	b.WriteString("\n")
	return b.String()
}
