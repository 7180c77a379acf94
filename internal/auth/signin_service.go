package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/familyconnect/familyconnect/internal/models"
	"github.com/familyconnect/familyconnect/pkg/crypto"
	apperrors "github.com/familyconnect/familyconnect/pkg/errors"
	"github.com/familyconnect/familyconnect/pkg/logger"
	"github.com/familyconnect/familyconnect/pkg/mail"
)

const (
	defaultLinkExpiry    = 15 * time.Minute
	signinTokenByteCount = 32
)

// ErrSignInTokenInvalid covers unknown, spent, and expired sign-in tokens.
// A single sentinel keeps the redeem endpoint from leaking which case hit.
var ErrSignInTokenInvalid = &apperrors.AppError{
	Code:       "SIGNIN_TOKEN_INVALID",
	Message:    "This sign-in link is invalid or has expired",
	StatusCode: 401,
}

// SignInOption customises a SignInService.
type SignInOption func(*SignInService)

// WithSignInBaseURL sets the public base used to build magic links.
func WithSignInBaseURL(base string) SignInOption {
	return func(s *SignInService) {
		s.baseURL = strings.TrimRight(base, "/")
	}
}

// WithSignInExpiry overrides the link validity window.
func WithSignInExpiry(d time.Duration) SignInOption {
	return func(s *SignInService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithSignInClock injects a clock for tests.
func WithSignInClock(clock func() time.Time) SignInOption {
	return func(s *SignInService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// RedeemResult bundles the outcome of a successful redemption.
type RedeemResult struct {
	Profile     *models.Profile
	AccessToken string

	// InviteCode echoes the code that rode along the link so the client can
	// follow up with invitation acceptance.
	InviteCode string
}

// SignInService implements passwordless sign-in: it issues single-use,
// short-lived tokens delivered as magic links and redeems them for a JWT,
// creating the profile on first sign-in.
type SignInService struct {
	db      *gorm.DB
	mailer  mail.Mailer
	jwt     *JWTService
	baseURL string
	expiry  time.Duration
	now     func() time.Time
	log     *zap.Logger
}

// NewSignInService constructs a SignInService. The mailer may be nil; links
// are then only returned to the caller, never emailed.
func NewSignInService(db *gorm.DB, jwtService *JWTService, mailer mail.Mailer, opts ...SignInOption) (*SignInService, error) {
	if db == nil {
		return nil, errors.New("signin: db is required")
	}
	if jwtService == nil {
		return nil, errors.New("signin: jwt service is required")
	}

	service := &SignInService{
		db:     db,
		mailer: mailer,
		jwt:    jwtService,
		expiry: defaultLinkExpiry,
		now:    time.Now,
		log:    logger.WithModule("signin"),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// RequestLink issues a sign-in token for the email and sends the magic link
// when mail delivery is configured. The raw token never touches the database;
// only its hash is stored.
func (s *SignInService) RequestLink(ctx context.Context, email, inviteCode string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperrors.NewBadRequest("email is required")
	}

	raw, err := crypto.GenerateToken(signinTokenByteCount)
	if err != nil {
		return "", fmt.Errorf("signin: generate token: %w", err)
	}

	record := models.SignInToken{
		Email:      email,
		TokenHash:  hashToken(raw),
		ExpiresAt:  s.now().Add(s.expiry),
		InviteCode: strings.TrimSpace(inviteCode),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("signin: store token: %w", err)
	}

	link := s.signinLink(raw, record.InviteCode)
	if s.mailer != nil {
		message := mail.Message{
			To:      []string{email},
			Subject: "Your FamilyConnect sign-in link",
			Body:    signinBody(link),
		}
		if err := s.mailer.Send(ctx, message); err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
			s.log.Warn("sign-in email failed", zap.String("email", email), zap.Error(err))
		}
	}

	return link, nil
}

// Redeem consumes a sign-in token, upserts the profile for its email, and
// returns a bearer token. Each token redeems at most once.
func (s *SignInService) Redeem(ctx context.Context, rawToken string) (*RedeemResult, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, ErrSignInTokenInvalid
	}

	var record models.SignInToken
	err := s.db.WithContext(ctx).
		Where("token_hash = ?", hashToken(rawToken)).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSignInTokenInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("signin: find token: %w", err)
	}

	now := s.now()
	if record.UsedAt != nil || record.ExpiresAt.Before(now) {
		return nil, ErrSignInTokenInvalid
	}

	// Conditional update so two racing redemptions of the same link cannot
	// both succeed.
	claim := s.db.WithContext(ctx).
		Model(&models.SignInToken{}).
		Where("id = ? AND used_at IS NULL", record.ID).
		Update("used_at", now)
	if claim.Error != nil {
		return nil, fmt.Errorf("signin: consume token: %w", claim.Error)
	}
	if claim.RowsAffected == 0 {
		return nil, ErrSignInTokenInvalid
	}

	profile, err := s.upsertProfile(ctx, record.Email)
	if err != nil {
		return nil, err
	}
	if profile.Status != models.StatusActive {
		return nil, apperrors.ErrForbidden
	}

	token, err := s.jwt.GenerateAccessToken(AccessTokenInput{
		UserID: profile.ID,
		Email:  profile.Email,
		Role:   profile.Role,
	})
	if err != nil {
		return nil, err
	}

	return &RedeemResult{
		Profile:     profile,
		AccessToken: token,
		InviteCode:  record.InviteCode,
	}, nil
}

// PurgeExpired deletes spent and expired sign-in tokens. Used by the
// maintenance sweep.
func (s *SignInService) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ? OR used_at IS NOT NULL", cutoff).
		Delete(&models.SignInToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("signin: purge tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *SignInService) upsertProfile(ctx context.Context, email string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&profile).Error
	switch {
	case err == nil:
		now := s.now()
		if updateErr := s.db.WithContext(ctx).
			Model(&profile).
			Update("last_seen_at", now).Error; updateErr != nil {
			s.log.Warn("last seen update failed", zap.String("email", email), zap.Error(updateErr))
		}
		return &profile, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		profile = models.Profile{
			Email:  email,
			Role:   models.RoleMember,
			Status: models.StatusActive,
		}
		if createErr := s.db.WithContext(ctx).Create(&profile).Error; createErr != nil {
			return nil, fmt.Errorf("signin: create profile: %w", createErr)
		}
		return &profile, nil
	default:
		return nil, fmt.Errorf("signin: load profile: %w", err)
	}
}

func (s *SignInService) signinLink(token, inviteCode string) string {
	if s.baseURL == "" {
		return token
	}
	link := fmt.Sprintf("%s/auth?token=%s", s.baseURL, url.QueryEscape(token))
	if inviteCode != "" {
		link += "&invite=" + url.QueryEscape(inviteCode)
	}
	return link
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func signinBody(link string) string {
	var b strings.Builder
	b.WriteString("Hello,\n\n")
	b.WriteString("Use the link below to sign in to FamilyConnect. ")
	b.WriteString("The link works once and expires shortly.\n\n")
	b.WriteString(link)
	b.WriteString("\n\nIf you did not request this, you can ignore this email.\n")
	return b.String()
}
