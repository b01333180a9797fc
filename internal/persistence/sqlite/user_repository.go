package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/audreydng/QueueSmart/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite
type UserRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateUser inserts a new user into the database
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	normalizedEmail := normalizeEmail(user.Email)

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}

	query := `
		INSERT INTO users (id, email, name, role, location_id, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		user.ID,
		normalizedEmail,
		user.Name,
		user.Role,
		nullableString(user.LocationID),
		user.PasswordHash,
		user.CreatedAt.UTC().Format(time.RFC3339),
		user.UpdatedAt.UTC().Format(time.RFC3339),
	)

	if err != nil {
		return r.mapUserError(err)
	}

	return nil
}

// UpdateUser updates an existing user in the database
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	normalizedEmail := normalizeEmail(user.Email)
	user.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET email = ?, name = ?, role = ?, location_id = ?, password_hash = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		normalizedEmail,
		user.Name,
		user.Role,
		nullableString(user.LocationID),
		user.PasswordHash,
		user.UpdatedAt.Format(time.RFC3339),
		user.ID,
	)

	if err != nil {
		return r.mapUserError(err)
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

// GetUser retrieves a user by ID from the database
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, selectUserQuery+" WHERE id = ?", id)
	return r.scanUser(row)
}

// GetUserByEmail retrieves a user by email address from the database
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	if email == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, selectUserQuery+" WHERE email = ?", normalizeEmail(email))
	return r.scanUser(row)
}

// ListUsers returns all users ordered by creation timestamp then ID
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.helper.Query(ctx, selectUserQuery+" ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := r.scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return users, nil
}

// DeleteUser removes a user by ID together with their sessions
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(tx, "DELETE FROM sessions WHERE user_id = ?", id); err != nil {
			return r.mapper.MapError(err)
		}

		result, err := r.helper.ExecTx(tx, "DELETE FROM users WHERE id = ?", id)
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
	})
}

const selectUserQuery = `
	SELECT id, email, name, role, location_id, password_hash, created_at, updated_at
	FROM users`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *UserRepository) scanUser(row *sql.Row) (persistence.User, error) {
	user, err := r.scanUserRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, err
	}
	return user, nil
}

func (r *UserRepository) scanUserRow(scanner rowScanner) (persistence.User, error) {
	var user persistence.User
	var locationID sql.NullString
	var createdAtStr, updatedAtStr string

	err := scanner.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&locationID,
		&user.PasswordHash,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.User{}, err
		}
		return persistence.User{}, r.mapper.MapError(err)
	}

	if locationID.Valid {
		value := locationID.String
		user.LocationID = &value
	}

	if user.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if user.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return user, nil
}

// mapUserError maps SQLite errors to appropriate persistence errors for user operations
func (r *UserRepository) mapUserError(err error) error {
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

// normalizeEmail normalizes email addresses for consistent storage and lookup
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// nullableString converts an optional string to a sql.NullString
func nullableString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

// nullableTime converts an optional time to a sql.NullString in RFC3339 form
func nullableTime(value *time.Time) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: value.UTC().Format(time.RFC3339), Valid: true}
}
