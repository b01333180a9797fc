package application

import (
	"context"
	"log/slog"
	"time"
)

// NotificationRepository captures the persistence operations for notifications.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification Notification) (Notification, error)
	GetNotification(ctx context.Context, id string) (Notification, error)
	UpdateNotification(ctx context.Context, notification Notification) (Notification, error)
	ListNotificationsForUser(ctx context.Context, userID string) ([]Notification, error)
}

// HistoryRepository captures the persistence operations for audit history.
type HistoryRepository interface {
	CreateHistory(ctx context.Context, entry HistoryEntry) (HistoryEntry, error)
	ListHistoryForUser(ctx context.Context, userID string) ([]HistoryEntry, error)
	ListHistorySince(ctx context.Context, since time.Time) ([]HistoryEntry, error)
}

// Recorder emits the side effects of state-changing operations: one
// notification per operation and, for terminal queue transitions, one
// immutable history entry. It runs inside the same logical operation as the
// mutation that triggered it; there is no separate commit or retry phase.
type Recorder struct {
	notifications NotificationRepository
	history       HistoryRepository
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewRecorder wires dependencies for the emitter.
func NewRecorder(notifications NotificationRepository, history HistoryRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *Recorder {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &Recorder{
		notifications: notifications,
		history:       history,
		idGenerator:   idGenerator,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

// Notify appends an unread notification for the user.
func (r *Recorder) Notify(ctx context.Context, userID, title, message string) (Notification, error) {
	if r == nil || r.notifications == nil {
		return Notification{}, nil
	}

	notification := Notification{
		ID:        r.idGenerator(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Read:      false,
		CreatedAt: r.now(),
	}

	persisted, err := r.notifications.CreateNotification(ctx, notification)
	if err != nil {
		serviceLogger(ctx, r.logger, "Recorder", "Notify", "user_id", userID).
			ErrorContext(ctx, "failed to append notification", "error", err)
		return Notification{}, err
	}
	return persisted, nil
}

// RecordTerminal appends the audit snapshot for an entry leaving the active
// subset. Every active-to-terminal transition is recorded, including
// operator-initiated removals.
func (r *Recorder) RecordTerminal(ctx context.Context, entry QueueEntry, locationLabel string, status QueueStatus) (HistoryEntry, error) {
	if r == nil || r.history == nil {
		return HistoryEntry{}, nil
	}

	record := HistoryEntry{
		ID:            r.idGenerator(),
		UserID:        entry.UserID,
		LocationID:    entry.LocationID,
		LocationLabel: locationLabel,
		Status:        status,
		JoinedAt:      entry.JoinedAt,
		CompletedAt:   r.now(),
	}

	persisted, err := r.history.CreateHistory(ctx, record)
	if err != nil {
		serviceLogger(ctx, r.logger, "Recorder", "RecordTerminal", "entry_id", entry.ID).
			ErrorContext(ctx, "failed to append history entry", "error", err)
		return HistoryEntry{}, err
	}
	return persisted, nil
}
