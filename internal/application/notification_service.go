package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// NotificationService exposes per-user notification queries and read-state
// mutations. Notifications are created by the Recorder; this service never
// creates them.
type NotificationService struct {
	notifications NotificationRepository
	logger        *slog.Logger
}

// NewNotificationService wires dependencies for the notification service.
func NewNotificationService(notifications NotificationRepository) *NotificationService {
	return NewNotificationServiceWithLogger(notifications, nil)
}

// NewNotificationServiceWithLogger constructs a notification service with a specified logger.
func NewNotificationServiceWithLogger(notifications NotificationRepository, logger *slog.Logger) *NotificationService {
	return &NotificationService{notifications: notifications, logger: defaultLogger(logger)}
}

func (s *NotificationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "NotificationService", operation, attrs...)
}

// ListForUser returns the principal's notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, principal Principal) ([]Notification, error) {
	if s == nil || s.notifications == nil {
		return nil, fmt.Errorf("notification repository not configured")
	}

	notifications, err := s.notifications.ListNotificationsForUser(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	out := make([]Notification, len(notifications))
	copy(out, notifications)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

// UnreadCount returns how many of the principal's notifications are unread.
func (s *NotificationService) UnreadCount(ctx context.Context, principal Principal) (int, error) {
	if s == nil || s.notifications == nil {
		return 0, fmt.Errorf("notification repository not configured")
	}

	notifications, err := s.notifications.ListNotificationsForUser(ctx, principal.UserID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, notification := range notifications {
		if !notification.Read {
			count++
		}
	}
	return count, nil
}

// MarkRead flips a single notification to read. Only the owner may mark it.
func (s *NotificationService) MarkRead(ctx context.Context, principal Principal, notificationID string) (err error) {
	if s == nil || s.notifications == nil {
		return fmt.Errorf("notification repository not configured")
	}

	logger := s.loggerWith(ctx, "MarkRead",
		"principal_id", principal.UserID,
		"notification_id", notificationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to mark notification read", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	notification, err := s.notifications.GetNotification(ctx, notificationID)
	if err != nil {
		return mapLookupError(err)
	}
	if notification.UserID != principal.UserID {
		return ErrUnauthorized
	}
	if notification.Read {
		return nil
	}

	notification.Read = true
	_, err = s.notifications.UpdateNotification(ctx, notification)
	return err
}

// MarkAllRead flips every unread notification of the principal to read.
func (s *NotificationService) MarkAllRead(ctx context.Context, principal Principal) error {
	if s == nil || s.notifications == nil {
		return fmt.Errorf("notification repository not configured")
	}

	notifications, err := s.notifications.ListNotificationsForUser(ctx, principal.UserID)
	if err != nil {
		return err
	}

	for _, notification := range notifications {
		if notification.Read {
			continue
		}
		notification.Read = true
		if _, err := s.notifications.UpdateNotification(ctx, notification); err != nil {
			return err
		}
	}
	return nil
}
