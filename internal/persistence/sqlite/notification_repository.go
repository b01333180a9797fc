package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/audreydng/QueueSmart/internal/persistence"
)

// NotificationRepository implements persistence.NotificationRepository using SQLite
type NotificationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewNotificationRepository creates a new SQLite notification repository
func NewNotificationRepository(pool *ConnectionPool) *NotificationRepository {
	return &NotificationRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateNotification inserts a new notification into the database
func (r *NotificationRepository) CreateNotification(ctx context.Context, notification persistence.Notification) error {
	if notification.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO notifications (id, user_id, title, message, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		notification.ID,
		notification.UserID,
		notification.Title,
		notification.Message,
		notification.Read,
		notification.CreatedAt.UTC().Format(time.RFC3339),
	)

	if err != nil {
		if containsAny(err.Error(), []string{"UNIQUE constraint failed"}) {
			return persistence.ErrDuplicate
		}
		return r.mapper.MapError(err)
	}

	return nil
}

// UpdateNotification updates the read flag of an existing notification
func (r *NotificationRepository) UpdateNotification(ctx context.Context, notification persistence.Notification) error {
	query := `
		UPDATE notifications
		SET title = ?, message = ?, read = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		notification.Title,
		notification.Message,
		notification.Read,
		notification.ID,
	)

	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// GetNotification retrieves a notification by ID from the database
func (r *NotificationRepository) GetNotification(ctx context.Context, id string) (persistence.Notification, error) {
	if id == "" {
		return persistence.Notification{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, selectNotificationQuery+" WHERE id = ?", id)

	notification, err := r.scanNotification(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Notification{}, persistence.ErrNotFound
		}
		return persistence.Notification{}, err
	}

	return notification, nil
}

// ListNotificationsForUser returns a user's notifications newest first
func (r *NotificationRepository) ListNotificationsForUser(ctx context.Context, userID string) ([]persistence.Notification, error) {
	query := selectNotificationQuery + `
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.helper.Query(ctx, query, userID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var notifications []persistence.Notification
	for rows.Next() {
		notification, err := r.scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return notifications, nil
}

const selectNotificationQuery = `
	SELECT id, user_id, title, message, read, created_at
	FROM notifications`

func (r *NotificationRepository) scanNotification(scanner rowScanner) (persistence.Notification, error) {
	var notification persistence.Notification
	var createdAtStr string

	err := scanner.Scan(
		&notification.ID,
		&notification.UserID,
		&notification.Title,
		&notification.Message,
		&notification.Read,
		&createdAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Notification{}, err
		}
		return persistence.Notification{}, r.mapper.MapError(err)
	}

	if notification.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Notification{}, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return notification, nil
}
