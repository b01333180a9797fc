package application

import "errors"

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when a referenced resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrNotActive is returned when an operation targets a queue entry outside the active subset.
	ErrNotActive = errors.New("application: queue entry not active")
	// ErrLocationClosed is returned when a join is attempted on a closed location.
	ErrLocationClosed = errors.New("application: location closed")
	// ErrAlreadyInQueue is returned when a user with an active entry attempts another join.
	ErrAlreadyInQueue = errors.New("application: already in a queue")
	// ErrAtBoundary is returned when a reorder would move an entry past the edge of its queue.
	ErrAtBoundary = errors.New("application: entry already at boundary")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrEmailTaken is returned when a registration reuses an existing email address.
	ErrEmailTaken = errors.New("application: email already registered")
	// ErrCannotRemoveSelf is returned when an administrator attempts to remove their own account.
	ErrCannotRemoveSelf = errors.New("application: cannot remove own account")
	// ErrNotStaff is returned when a staff removal targets a non-staff account.
	ErrNotStaff = errors.New("application: user is not staff")
	// ErrSessionExpired is returned when a session token is past its validity window.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session token has been revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
