package persistence

import "time"

// User is the persisted representation of an account, credentials included.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         string
	LocationID   *string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Location is the persisted representation of a service center site.
type Location struct {
	ID               string
	Name             string
	ZipCode          string
	Description      string
	ExpectedDuration int
	Priority         string
	IsOpen           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// QueueEntry is the persisted representation of a queue membership.
type QueueEntry struct {
	ID         string
	UserID     string
	LocationID string
	Position   int
	Status     string
	JoinedAt   time.Time
	ServedAt   *time.Time
}

// HistoryEntry is the persisted audit snapshot of a finished queue membership.
type HistoryEntry struct {
	ID            string
	UserID        string
	LocationID    string
	LocationLabel string
	Status        string
	JoinedAt      time.Time
	CompletedAt   time.Time
}

// Notification is the persisted representation of a per-user message.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Read      bool
	CreatedAt time.Time
}

// Appointment is the persisted representation of a booked slot.
type Appointment struct {
	ID         string
	UserID     string
	LocationID string
	Date       string
	Time       string
	Duration   int
	Status     string
	CreatedAt  time.Time
}

// Session is the persisted representation of an authentication session.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
