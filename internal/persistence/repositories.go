package persistence

import "context"
import "time"

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// LocationRepository exposes CRUD operations for locations.
type LocationRepository interface {
	CreateLocation(ctx context.Context, location Location) error
	UpdateLocation(ctx context.Context, location Location) error
	GetLocation(ctx context.Context, id string) (Location, error)
	ListLocations(ctx context.Context) ([]Location, error)
}

// QueueRepository stores queue entries and supports batched position updates.
type QueueRepository interface {
	CreateEntry(ctx context.Context, entry QueueEntry) error
	UpdateEntry(ctx context.Context, entry QueueEntry) error
	UpdateEntries(ctx context.Context, entries []QueueEntry) error
	GetEntry(ctx context.Context, id string) (QueueEntry, error)
	ListActiveEntries(ctx context.Context, locationID string) ([]QueueEntry, error)
	ActiveEntryForUser(ctx context.Context, userID string) (QueueEntry, error)
	ActiveLocationIDs(ctx context.Context) ([]string, error)
}

// HistoryRepository stores terminal queue outcomes.
type HistoryRepository interface {
	CreateHistory(ctx context.Context, entry HistoryEntry) error
	ListHistoryForUser(ctx context.Context, userID string) ([]HistoryEntry, error)
	ListHistorySince(ctx context.Context, since time.Time) ([]HistoryEntry, error)
}

// NotificationRepository stores per-user notifications.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification Notification) error
	UpdateNotification(ctx context.Context, notification Notification) error
	GetNotification(ctx context.Context, id string) (Notification, error)
	ListNotificationsForUser(ctx context.Context, userID string) ([]Notification, error)
}

// AppointmentRepository stores booked appointment slots.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appointment Appointment) error
	UpdateAppointment(ctx context.Context, appointment Appointment) error
	GetAppointment(ctx context.Context, id string) (Appointment, error)
	ListAppointmentsForUser(ctx context.Context, userID string) ([]Appointment, error)
	ListAppointmentsForLocationDate(ctx context.Context, locationID, date string) ([]Appointment, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
