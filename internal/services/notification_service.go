package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/familyconnect/familyconnect/internal/models"
	"github.com/familyconnect/familyconnect/internal/notifications"
	apperrors "github.com/familyconnect/familyconnect/pkg/errors"
	"github.com/familyconnect/familyconnect/pkg/metrics"
)

// Notification types consumed by the icon/display mapping. The set is closed;
// unknown types render with the generic fallback icon rather than failing.
const (
	TypeNewMember          = "new_member"
	TypePhotoAdded         = "photo_added"
	TypeEventCreated       = "event_created"
	TypeEventUpdated       = "event_updated"
	TypeRSVPUpdate         = "rsvp_update"
	TypeBusinessAdded      = "business_added"
	TypePostCreated        = "post_created"
	TypeCommentAdded       = "comment_added"
	TypeProfileUpdate      = "profile_update"
	TypeInvitationSent     = "invitation_sent"
	TypeInvitationAccepted = "invitation_accepted"
	TypeConnectionFound    = "connection_found"
)

var notificationIcons = map[string]string{
	TypeNewMember:          "user-plus",
	TypePhotoAdded:         "image",
	TypeEventCreated:       "calendar-plus",
	TypeEventUpdated:       "calendar-check",
	TypeRSVPUpdate:         "check-circle",
	TypeBusinessAdded:      "store",
	TypePostCreated:        "file-alt",
	TypeCommentAdded:       "comment",
	TypeProfileUpdate:      "user-edit",
	TypeInvitationSent:     "paper-plane",
	TypeInvitationAccepted: "user-check",
	TypeConnectionFound:    "link",
}

// IconFor maps a notification type to its display icon tag, falling back to
// the generic bell for unknown types.
func IconFor(notificationType string) string {
	if icon, ok := notificationIcons[notificationType]; ok {
		return icon
	}
	return "bell"
}

// NotificationDTO represents the API-friendly notification payload.
type NotificationDTO struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	ActorID   string         `json:"actor_id,omitempty"`
	Type      string         `json:"type"`
	Icon      string         `json:"icon"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Link      string         `json:"link,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	IsRead    bool           `json:"is_read"`
	CreatedAt time.Time      `json:"created_at"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
}

// CreateNotificationInput defines attributes required to persist a notification.
type CreateNotificationInput struct {
	UserID   string
	ActorID  string
	Type     string
	Title    string
	Message  string
	Link     string
	Metadata map[string]any
}

// ListNotificationsInput defines filters for querying user notifications.
type ListNotificationsInput struct {
	UserID     string
	Limit      int
	UnreadOnly bool
}

// NotificationService is the append-only notification sink plus its read-flag
// mutations. A polling badge consumes UnreadCount; the optional hub pushes
// the same events live.
type NotificationService struct {
	db  *gorm.DB
	hub *notifications.Hub
}

// NewNotificationService constructs a NotificationService. The hub may be nil
// when live streaming is disabled.
func NewNotificationService(db *gorm.DB, hub *notifications.Hub) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	return &NotificationService{db: db, hub: hub}, nil
}

// Create appends a notification row and broadcasts it to live subscribers.
func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("notification service: recipient is required")
	}
	notificationType := strings.TrimSpace(input.Type)
	if notificationType == "" {
		return nil, errors.New("notification service: type is required")
	}

	notification := models.Notification{
		UserID:  userID,
		ActorID: strings.TrimSpace(input.ActorID),
		Type:    notificationType,
		Title:   strings.TrimSpace(input.Title),
		Message: strings.TrimSpace(input.Message),
		Link:    strings.TrimSpace(input.Link),
	}

	if input.Metadata != nil {
		data, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, fmt.Errorf("notification service: marshal metadata: %w", err)
		}
		notification.Metadata = datatypes.JSON(data)
	}

	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("notification service: create notification: %w", err)
	}
	metrics.NotificationsEmitted.WithLabelValues(notificationType).Inc()

	dto := mapNotification(notification)
	s.broadcast(userID, notifications.Event{
		Event:        "notification.created",
		Notification: &dto,
	})
	return &dto, nil
}

// ListForUser returns notifications for the supplied user ordered by recency.
func (s *NotificationService) ListForUser(ctx context.Context, input ListNotificationsInput) ([]NotificationDTO, error) {
	ctx = ensureContext(ctx)

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("notification service: user id is required")
	}

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if input.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var rows []models.Notification
	if err := query.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: list notifications: %w", err)
	}

	items := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapNotification(row))
	}
	return items, nil
}

// UnreadCount returns the number of unread notifications for the user. The
// polling badge refreshes this on a fixed interval.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	ctx = ensureContext(ctx)

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("notification service: unread count: %w", err)
	}
	return count, nil
}

// MarkRead sets the read flag on one notification owned by the user.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)

	var notification models.Notification
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("notification service: load notification: %w", err)
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&notification).
		Updates(map[string]any{
			"is_read": true,
			"read_at": now,
		}).Error; err != nil {
		return nil, fmt.Errorf("notification service: mark read: %w", err)
	}

	notification.IsRead = true
	notification.ReadAt = &now
	dto := mapNotification(notification)

	s.broadcast(userID, notifications.Event{
		Event:          "notification.read",
		NotificationID: notification.ID,
	})
	return &dto, nil
}

// MarkAllRead marks every unread notification for the user as read. The
// effect is synchronous: a count query issued afterwards sees zero unread.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	ctx = ensureContext(ctx)

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{
			"is_read": true,
			"read_at": now,
		}).Error; err != nil {
		return fmt.Errorf("notification service: mark all read: %w", err)
	}

	s.broadcast(userID, notifications.Event{Event: "notification.read_all"})
	return nil
}

// PurgeRead deletes read notifications older than the cutoff. Used by the
// maintenance sweep; unread rows are never purged.
func (s *NotificationService) PurgeRead(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: purge read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *NotificationService) broadcast(userID string, event notifications.Event) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(userID, event)
}

func mapNotification(row models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        row.ID,
		UserID:    row.UserID,
		ActorID:   row.ActorID,
		Type:      row.Type,
		Icon:      IconFor(row.Type),
		Title:     row.Title,
		Message:   row.Message,
		Link:      row.Link,
		Metadata:  decodeJSON(row.Metadata),
		IsRead:    row.IsRead,
		CreatedAt: row.CreatedAt,
		ReadAt:    row.ReadAt,
	}
}

func decodeJSON(data datatypes.JSON) map[string]any {
	if len(data) == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
