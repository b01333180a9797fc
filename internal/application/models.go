package application

import (
	"fmt"
	"time"
)

// Role identifies the access level granted to an account.
type Role string

const (
	// RoleUser is a regular customer account.
	RoleUser Role = "user"
	// RoleStaff is an operator account attached to a home location.
	RoleStaff Role = "staff"
	// RoleAdministrator manages locations, staff, and every queue.
	RoleAdministrator Role = "administrator"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID     string
	Role       Role
	LocationID *string
}

// IsAdmin reports whether the principal holds administrator privileges.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdministrator
}

// IsOperator reports whether the principal may invoke staff-level queue
// operations. Administrators are always operators.
func (p Principal) IsOperator() bool {
	return p.Role == RoleStaff || p.Role == RoleAdministrator
}

// User represents an account exposed by the application services.
type User struct {
	ID         string
	Email      string
	Name       string
	Role       Role
	LocationID *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// Priority classifies how busy a location is expected to be. It affects
// reporting and staffing focus, never the order of customers inside a queue.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidPriority reports whether the value is one of the known levels.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Location represents a service center site offering a queue and appointments.
type Location struct {
	ID               string
	Name             string
	ZipCode          string
	Description      string
	ExpectedDuration int
	Priority         Priority
	IsOpen           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Label renders the display form used in notifications and history snapshots.
func (l Location) Label() string {
	return fmt.Sprintf("%s (%s)", l.Name, l.ZipCode)
}

// QueueStatus is the lifecycle state of a queue entry.
type QueueStatus string

const (
	StatusWaiting     QueueStatus = "waiting"
	StatusAlmostReady QueueStatus = "almost-ready"
	StatusServed      QueueStatus = "served"
	StatusLeft        QueueStatus = "left"
)

// Active reports whether the status keeps the entry in the active subset of
// its location's queue.
func (s QueueStatus) Active() bool {
	return s == StatusWaiting || s == StatusAlmostReady
}

// Terminal reports whether the status ends the entry's lifecycle.
func (s QueueStatus) Terminal() bool {
	return s == StatusServed || s == StatusLeft
}

// ValidQueueStatus reports whether the value is one of the known states.
func ValidQueueStatus(s QueueStatus) bool {
	switch s {
	case StatusWaiting, StatusAlmostReady, StatusServed, StatusLeft:
		return true
	}
	return false
}

// QueueEntry represents one customer's membership in a location queue.
//
// Positions of the active entries of a location always form the dense
// sequence 1..N; only the queue service may assign or renumber them.
type QueueEntry struct {
	ID         string
	UserID     string
	LocationID string
	Position   int
	Status     QueueStatus
	JoinedAt   time.Time
	ServedAt   *time.Time
}

// HistoryEntry is the immutable audit snapshot written when a queue entry
// reaches a terminal state.
type HistoryEntry struct {
	ID            string
	UserID        string
	LocationID    string
	LocationLabel string
	Status        QueueStatus
	JoinedAt      time.Time
	CompletedAt   time.Time
}

// Notification is a per-user message created by state-changing operations.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Read      bool
	CreatedAt time.Time
}

// AppointmentStatus is the lifecycle state of a booked appointment.
type AppointmentStatus string

const (
	AppointmentUpcoming  AppointmentStatus = "upcoming"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Appointment represents a booked slot at a location. Appointments are
// independent of queue membership.
type Appointment struct {
	ID         string
	UserID     string
	LocationID string
	Date       string // calendar date, YYYY-MM-DD
	Time       string // slot label, e.g. "14:00"
	Duration   int
	Status     AppointmentStatus
	CreatedAt  time.Time
}

// ReorderDirection selects the neighbour a queue entry swaps with.
type ReorderDirection string

const (
	ReorderUp   ReorderDirection = "up"
	ReorderDown ReorderDirection = "down"
)

// LocationInput captures caller provided location fields.
type LocationInput struct {
	Name             string
	ZipCode          string
	Description      string
	ExpectedDuration int
	Priority         Priority
}

// CreateLocationParams wraps the data required to create a location.
type CreateLocationParams struct {
	Principal Principal
	Input     LocationInput
}

// UpdateLocationParams wraps the data required to update an existing location.
type UpdateLocationParams struct {
	Principal  Principal
	LocationID string
	Input      LocationInput
}

// StaffInput captures caller provided staff member attributes.
type StaffInput struct {
	Name       string
	Email      string
	Password   string
	LocationID string
}

// CreateStaffParams wraps the data required to provision a staff member.
type CreateStaffParams struct {
	Principal Principal
	Input     StaffInput
}

// RegisterParams captures the data required to register a new account.
type RegisterParams struct {
	Email    string
	Password string
	Name     string
	Role     Role
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful login or
// registration.
type AuthenticateResult struct {
	User    User
	Session Session
}

// BookAppointmentParams wraps the data required to book an appointment.
type BookAppointmentParams struct {
	Principal  Principal
	LocationID string
	Date       string
	Time       string
}

// LocationServedCount pairs a location with the number of customers served
// there during the reporting window.
type LocationServedCount struct {
	LocationID   string
	LocationName string
	Count        int
}

// UsageStats aggregates the dashboard figures derived from current state.
type UsageStats struct {
	ServedToday      int
	CurrentlyQueued  int
	OpenLocations    int
	ServedByLocation []LocationServedCount
}
