package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/audreydng/QueueSmart/internal/persistence"
)

// QueueRepository implements persistence.QueueRepository using SQLite
type QueueRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewQueueRepository creates a new SQLite queue repository
func NewQueueRepository(pool *ConnectionPool) *QueueRepository {
	return &QueueRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateEntry inserts a new queue entry into the database
func (r *QueueRepository) CreateEntry(ctx context.Context, entry persistence.QueueEntry) error {
	if entry.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO queue_entries (id, user_id, location_id, position, status, joined_at, served_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.LocationID,
		entry.Position,
		entry.Status,
		entry.JoinedAt.UTC().Format(time.RFC3339),
		nullableTime(entry.ServedAt),
	)

	if err != nil {
		return r.mapQueueError(err)
	}

	return nil
}

// UpdateEntry updates the mutable fields of an existing queue entry
func (r *QueueRepository) UpdateEntry(ctx context.Context, entry persistence.QueueEntry) error {
	result, err := r.helper.Exec(ctx, updateEntryQuery,
		entry.Position,
		entry.Status,
		nullableTime(entry.ServedAt),
		entry.ID,
	)

	if err != nil {
		return r.mapQueueError(err)
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

// UpdateEntries applies a batch of entry updates within a single transaction.
// Position renumbering after a departure relies on this being atomic.
func (r *QueueRepository) UpdateEntries(ctx context.Context, entries []persistence.QueueEntry) error {
	if len(entries) == 0 {
		return nil
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, entry := range entries {
			result, err := r.helper.ExecTx(tx, updateEntryQuery,
				entry.Position,
				entry.Status,
				nullableTime(entry.ServedAt),
				entry.ID,
			)
			if err != nil {
				return r.mapQueueError(err)
			}

			rowsAffected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}

			if rowsAffected == 0 {
				return persistence.ErrNotFound
			}
		}

		return nil
	})
}

const updateEntryQuery = `
	UPDATE queue_entries
	SET position = ?, status = ?, served_at = ?
	WHERE id = ?
`

// GetEntry retrieves a queue entry by ID from the database
func (r *QueueRepository) GetEntry(ctx context.Context, id string) (persistence.QueueEntry, error) {
	if id == "" {
		return persistence.QueueEntry{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, selectEntryQuery+" WHERE id = ?", id)

	entry, err := r.scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.QueueEntry{}, persistence.ErrNotFound
		}
		return persistence.QueueEntry{}, err
	}

	return entry, nil
}

// ListActiveEntries returns the active entries for a location ordered by position
func (r *QueueRepository) ListActiveEntries(ctx context.Context, locationID string) ([]persistence.QueueEntry, error) {
	query := selectEntryQuery + `
		WHERE location_id = ? AND status IN ('waiting', 'almost-ready')
		ORDER BY position ASC, joined_at ASC, id ASC
	`

	rows, err := r.helper.Query(ctx, query, locationID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var entries []persistence.QueueEntry
	for rows.Next() {
		entry, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return entries, nil
}

// ActiveEntryForUser returns the user's active entry across all locations
func (r *QueueRepository) ActiveEntryForUser(ctx context.Context, userID string) (persistence.QueueEntry, error) {
	query := selectEntryQuery + `
		WHERE user_id = ? AND status IN ('waiting', 'almost-ready')
	`

	row := r.helper.QueryRow(ctx, query, userID)

	entry, err := r.scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.QueueEntry{}, persistence.ErrNotFound
		}
		return persistence.QueueEntry{}, err
	}

	return entry, nil
}

// ActiveLocationIDs returns the IDs of locations that have at least one active entry
func (r *QueueRepository) ActiveLocationIDs(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT location_id
		FROM queue_entries
		WHERE status IN ('waiting', 'almost-ready')
		ORDER BY location_id ASC
	`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, r.mapper.MapError(err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return ids, nil
}

const selectEntryQuery = `
	SELECT id, user_id, location_id, position, status, joined_at, served_at
	FROM queue_entries`

func (r *QueueRepository) scanEntry(scanner rowScanner) (persistence.QueueEntry, error) {
	var entry persistence.QueueEntry
	var joinedAtStr string
	var servedAt sql.NullString

	err := scanner.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.LocationID,
		&entry.Position,
		&entry.Status,
		&joinedAtStr,
		&servedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.QueueEntry{}, err
		}
		return persistence.QueueEntry{}, r.mapper.MapError(err)
	}

	if entry.JoinedAt, err = time.Parse(time.RFC3339, joinedAtStr); err != nil {
		return persistence.QueueEntry{}, fmt.Errorf("failed to parse joined_at: %w", err)
	}

	if servedAt.Valid {
		if entry.ServedAt, err = parseTimePtr(servedAt.String); err != nil {
			return persistence.QueueEntry{}, fmt.Errorf("failed to parse served_at: %w", err)
		}
	}

	return entry, nil
}

// mapQueueError maps SQLite errors to appropriate persistence errors for queue operations
func (r *QueueRepository) mapQueueError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	if containsAny(errStr, []string{"UNIQUE constraint failed"}) {
		return persistence.ErrDuplicate
	}

	if containsAny(errStr, []string{"FOREIGN KEY constraint failed"}) {
		return persistence.ErrForeignKeyViolation
	}

	if containsAny(errStr, []string{"CHECK constraint failed"}) {
		return persistence.ErrConstraintViolation
	}

	return r.mapper.MapError(err)
}
