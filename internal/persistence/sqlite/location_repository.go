package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/audreydng/QueueSmart/internal/persistence"
)

// LocationRepository implements persistence.LocationRepository using SQLite
type LocationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewLocationRepository creates a new SQLite location repository
func NewLocationRepository(pool *ConnectionPool) *LocationRepository {
	return &LocationRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateLocation inserts a new location into the database
func (r *LocationRepository) CreateLocation(ctx context.Context, location persistence.Location) error {
	if location.ID == "" {
		return persistence.ErrConstraintViolation
	}

	if location.CreatedAt.IsZero() {
		location.CreatedAt = time.Now().UTC()
	}
	if location.UpdatedAt.IsZero() {
		location.UpdatedAt = location.CreatedAt
	}

	query := `
		INSERT INTO locations (id, name, zip_code, description, expected_duration, priority, is_open, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		location.ID,
		location.Name,
		location.ZipCode,
		location.Description,
		location.ExpectedDuration,
		location.Priority,
		location.IsOpen,
		location.CreatedAt.UTC().Format(time.RFC3339),
		location.UpdatedAt.UTC().Format(time.RFC3339),
	)

	if err != nil {
		return r.mapLocationError(err)
	}

	return nil
}

// UpdateLocation updates an existing location in the database
func (r *LocationRepository) UpdateLocation(ctx context.Context, location persistence.Location) error {
	if location.ID == "" {
		return persistence.ErrConstraintViolation
	}

	location.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE locations
		SET name = ?, zip_code = ?, description = ?, expected_duration = ?, priority = ?, is_open = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		location.Name,
		location.ZipCode,
		location.Description,
		location.ExpectedDuration,
		location.Priority,
		location.IsOpen,
		location.UpdatedAt.Format(time.RFC3339),
		location.ID,
	)

	if err != nil {
		return r.mapLocationError(err)
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

// GetLocation retrieves a location by ID from the database
func (r *LocationRepository) GetLocation(ctx context.Context, id string) (persistence.Location, error) {
	if id == "" {
		return persistence.Location{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, selectLocationQuery+" WHERE id = ?", id)

	location, err := r.scanLocation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Location{}, persistence.ErrNotFound
		}
		return persistence.Location{}, err
	}

	return location, nil
}

// ListLocations returns all locations ordered by name then ID
func (r *LocationRepository) ListLocations(ctx context.Context) ([]persistence.Location, error) {
	rows, err := r.helper.Query(ctx, selectLocationQuery+" ORDER BY name ASC, id ASC")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var locations []persistence.Location
	for rows.Next() {
		location, err := r.scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, location)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return locations, nil
}

const selectLocationQuery = `
	SELECT id, name, zip_code, description, expected_duration, priority, is_open, created_at, updated_at
	FROM locations`

func (r *LocationRepository) scanLocation(scanner rowScanner) (persistence.Location, error) {
	var location persistence.Location
	var createdAtStr, updatedAtStr string

	err := scanner.Scan(
		&location.ID,
		&location.Name,
		&location.ZipCode,
		&location.Description,
		&location.ExpectedDuration,
		&location.Priority,
		&location.IsOpen,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Location{}, err
		}
		return persistence.Location{}, r.mapper.MapError(err)
	}

	if location.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Location{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if location.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Location{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return location, nil
}

// mapLocationError maps SQLite errors to appropriate persistence errors for location operations
func (r *LocationRepository) mapLocationError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	if containsAny(errStr, []string{"UNIQUE constraint failed"}) {
		return persistence.ErrDuplicate
	}

	if containsAny(errStr, []string{"CHECK constraint failed"}) {
		return persistence.ErrConstraintViolation
	}

	return r.mapper.MapError(err)
}
