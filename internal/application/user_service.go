package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/audreydng/QueueSmart/internal/persistence"
)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]User, error)
}

// PasswordHasher derives a storable hash from a plain password.
type PasswordHasher func(password string) (string, error)

// UserService orchestrates staff provisioning and account lookups.
type UserService struct {
	users        UserRepository
	hashPassword PasswordHasher
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, hash PasswordHasher, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, hash, idGenerator, now, nil)
}

// NewUserServiceWithLogger constructs a user service with a specified logger.
func NewUserServiceWithLogger(users UserRepository, hash PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if hash == nil {
		hash = func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		}
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, hashPassword: hash, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateStaffMember provisions a staff account attached to a home location.
// Administrators only; the email must be unused (case-insensitive).
func (s *UserService) CreateStaffMember(ctx context.Context, params CreateStaffParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateStaffMember",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create staff member", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "staff member created")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	email := normalizeEmail(params.Input.Email)
	name := strings.TrimSpace(params.Input.Name)

	vErr := &ValidationError{}
	if email == "" {
		vErr.add("email", "email is required")
	} else if _, parseErr := mail.ParseAddress(email); parseErr != nil {
		vErr.add("email", "email is invalid")
	}
	if name == "" {
		vErr.add("name", "name is required")
	}
	if params.Input.Password == "" {
		vErr.add("password", "password is required")
	}
	if strings.TrimSpace(params.Input.LocationID) == "" {
		vErr.add("location_id", "location is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if _, lookupErr := s.users.GetUserByEmail(ctx, email); lookupErr == nil {
		err = ErrEmailTaken
		return
	} else if !isNotFound(lookupErr) {
		err = lookupErr
		return
	}

	hash, err := s.hashPassword(params.Input.Password)
	if err != nil {
		return
	}

	locationID := strings.TrimSpace(params.Input.LocationID)
	user = User{
		ID:         s.idGenerator(),
		Email:      email,
		Name:       name,
		Role:       RoleStaff,
		LocationID: &locationID,
		CreatedAt:  s.now(),
	}
	user.UpdatedAt = user.CreatedAt

	user, err = s.users.CreateUser(ctx, user, hash)
	if err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			err = ErrEmailTaken
		}
		return
	}
	return
}

// RemoveStaffMember deletes a staff account. Administrators only; the target
// must exist, hold the staff role, and not be the acting principal.
func (s *UserService) RemoveStaffMember(ctx context.Context, principal Principal, userID string) (err error) {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}

	logger := s.loggerWith(ctx, "RemoveStaffMember",
		"principal_id", principal.UserID,
		"user_id", userID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to remove staff member", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "staff member removed")
	}()

	if !principal.IsAdmin() {
		return ErrUnauthorized
	}
	if principal.UserID == userID {
		return ErrCannotRemoveSelf
	}

	target, err := s.users.GetUser(ctx, userID)
	if err != nil {
		err = mapLookupError(err)
		return
	}
	if target.Role != RoleStaff {
		return ErrNotStaff
	}

	if err = s.users.DeleteUser(ctx, userID); err != nil {
		err = mapLookupError(err)
		return
	}
	return nil
}

// ListStaff returns staff accounts sorted by email for administrators.
func (s *UserService) ListStaff(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if s.users == nil {
		return nil, nil
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	staff := make([]User, 0, len(users))
	for _, user := range users {
		if user.Role == RoleStaff {
			staff = append(staff, user)
		}
	}

	sort.Slice(staff, func(i, j int) bool {
		if strings.EqualFold(staff[i].Email, staff[j].Email) {
			return staff[i].ID < staff[j].ID
		}
		return strings.ToLower(staff[i].Email) < strings.ToLower(staff[j].Email)
	})

	return staff, nil
}

// GetUser returns an account by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (User, error) {
	if s == nil || s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return User{}, mapLookupError(err)
	}
	return user, nil
}

// DisplayName resolves an account's display name, falling back to a generic
// label when the account no longer exists.
func (s *UserService) DisplayName(ctx context.Context, id string) string {
	if s == nil || s.users == nil {
		return "Unknown User"
	}
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return "Unknown User"
	}
	return user.Name
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}
