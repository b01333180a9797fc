package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/audreydng/QueueSmart/internal/persistence"
)

// HistoryRepository implements persistence.HistoryRepository using SQLite
type HistoryRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewHistoryRepository creates a new SQLite history repository
func NewHistoryRepository(pool *ConnectionPool) *HistoryRepository {
	return &HistoryRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateHistory inserts a terminal queue outcome into the database
func (r *HistoryRepository) CreateHistory(ctx context.Context, entry persistence.HistoryEntry) error {
	if entry.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO queue_history (id, user_id, location_id, location_label, status, joined_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.LocationID,
		entry.LocationLabel,
		entry.Status,
		entry.JoinedAt.UTC().Format(time.RFC3339),
		entry.CompletedAt.UTC().Format(time.RFC3339),
	)

	if err != nil {
		if containsAny(err.Error(), []string{"UNIQUE constraint failed"}) {
			return persistence.ErrDuplicate
		}
		return r.mapper.MapError(err)
	}

	return nil
}

// ListHistoryForUser returns the history entries for a user ordered by
// completion timestamp descending
func (r *HistoryRepository) ListHistoryForUser(ctx context.Context, userID string) ([]persistence.HistoryEntry, error) {
	query := selectHistoryQuery + `
		WHERE user_id = ?
		ORDER BY completed_at DESC, id DESC
	`

	return r.listHistory(ctx, query, userID)
}

// ListHistorySince returns history entries completed at or after the given time
func (r *HistoryRepository) ListHistorySince(ctx context.Context, since time.Time) ([]persistence.HistoryEntry, error) {
	query := selectHistoryQuery + `
		WHERE completed_at >= ?
		ORDER BY completed_at DESC, id DESC
	`

	return r.listHistory(ctx, query, since.UTC().Format(time.RFC3339))
}

const selectHistoryQuery = `
	SELECT id, user_id, location_id, location_label, status, joined_at, completed_at
	FROM queue_history`

func (r *HistoryRepository) listHistory(ctx context.Context, query string, args ...interface{}) ([]persistence.HistoryEntry, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var entries []persistence.HistoryEntry
	for rows.Next() {
		var entry persistence.HistoryEntry
		var joinedAtStr, completedAtStr string

		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.LocationID,
			&entry.LocationLabel,
			&entry.Status,
			&joinedAtStr,
			&completedAtStr,
		)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}

		if entry.JoinedAt, err = time.Parse(time.RFC3339, joinedAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse joined_at: %w", err)
		}
		if entry.CompletedAt, err = time.Parse(time.RFC3339, completedAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse completed_at: %w", err)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return entries, nil
}
