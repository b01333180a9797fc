package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/audreydng/QueueSmart/internal/persistence"
)

// AppointmentRepository implements persistence.AppointmentRepository using SQLite
type AppointmentRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAppointmentRepository creates a new SQLite appointment repository
func NewAppointmentRepository(pool *ConnectionPool) *AppointmentRepository {
	return &AppointmentRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateAppointment inserts a new appointment into the database
func (r *AppointmentRepository) CreateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	if appointment.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO appointments (id, user_id, location_id, date, time, duration, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		appointment.ID,
		appointment.UserID,
		appointment.LocationID,
		appointment.Date,
		appointment.Time,
		appointment.Duration,
		appointment.Status,
		appointment.CreatedAt.UTC().Format(time.RFC3339),
	)

	if err != nil {
		return r.mapAppointmentError(err)
	}

	return nil
}

// UpdateAppointment updates the mutable fields of an existing appointment
func (r *AppointmentRepository) UpdateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	query := `
		UPDATE appointments
		SET date = ?, time = ?, duration = ?, status = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		appointment.Date,
		appointment.Time,
		appointment.Duration,
		appointment.Status,
		appointment.ID,
	)

	if err != nil {
		return r.mapAppointmentError(err)
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

// GetAppointment retrieves an appointment by ID from the database
func (r *AppointmentRepository) GetAppointment(ctx context.Context, id string) (persistence.Appointment, error) {
	if id == "" {
		return persistence.Appointment{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, selectAppointmentQuery+" WHERE id = ?", id)

	appointment, err := r.scanAppointment(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Appointment{}, persistence.ErrNotFound
		}
		return persistence.Appointment{}, err
	}

	return appointment, nil
}

// ListAppointmentsForUser returns a user's appointments ordered by date and time
func (r *AppointmentRepository) ListAppointmentsForUser(ctx context.Context, userID string) ([]persistence.Appointment, error) {
	query := selectAppointmentQuery + `
		WHERE user_id = ?
		ORDER BY date ASC, time ASC, id ASC
	`

	return r.listAppointments(ctx, query, userID)
}

// ListAppointmentsForLocationDate returns the appointments at a location on a date
func (r *AppointmentRepository) ListAppointmentsForLocationDate(ctx context.Context, locationID, date string) ([]persistence.Appointment, error) {
	query := selectAppointmentQuery + `
		WHERE location_id = ? AND date = ?
		ORDER BY time ASC, id ASC
	`

	return r.listAppointments(ctx, query, locationID, date)
}

const selectAppointmentQuery = `
	SELECT id, user_id, location_id, date, time, duration, status, created_at
	FROM appointments`

func (r *AppointmentRepository) listAppointments(ctx context.Context, query string, args ...interface{}) ([]persistence.Appointment, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var appointments []persistence.Appointment
	for rows.Next() {
		appointment, err := r.scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, appointment)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return appointments, nil
}

func (r *AppointmentRepository) scanAppointment(scanner rowScanner) (persistence.Appointment, error) {
	var appointment persistence.Appointment
	var createdAtStr string

	err := scanner.Scan(
		&appointment.ID,
		&appointment.UserID,
		&appointment.LocationID,
		&appointment.Date,
		&appointment.Time,
		&appointment.Duration,
		&appointment.Status,
		&createdAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Appointment{}, err
		}
		return persistence.Appointment{}, r.mapper.MapError(err)
	}

	if appointment.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Appointment{}, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return appointment, nil
}

// mapAppointmentError maps SQLite errors to appropriate persistence errors for appointment operations
func (r *AppointmentRepository) mapAppointmentError(err error) error {
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
