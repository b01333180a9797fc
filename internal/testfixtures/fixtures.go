package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/audreydng/QueueSmart/internal/application"
	"github.com/audreydng/QueueSmart/internal/persistence"
)

var (
	userCounter        uint64
	locationCounter    uint64
	entryCounter       uint64
	appointmentCounter uint64
	sessionCounter     uint64
)

var referenceTime = time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic account record that can be
// materialised for application or persistence tests.
type UserFixture struct {
	ID           string
	Email        string
	Name         string
	Role         application.Role
	LocationID   *string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		Name:         fmt.Sprintf("User %03d", idx),
		Role:         application.RoleUser,
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserName overrides the generated display name.
func WithUserName(name string) UserOption {
	return func(f *UserFixture) {
		f.Name = name
	}
}

// WithUserRole sets the role on the generated fixture.
func WithUserRole(role application.Role) UserOption {
	return func(f *UserFixture) {
		f.Role = role
	}
}

// WithUserLocation pins the fixture to a home location, as staff accounts are.
func WithUserLocation(locationID string) UserOption {
	return func(f *UserFixture) {
		f.LocationID = &locationID
	}
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// WithUserTimestamps sets both created and updated timestamps on the fixture.
func WithUserTimestamps(created, updated time.Time) UserOption {
	return func(f *UserFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:         f.ID,
		Email:      f.Email,
		Name:       f.Name,
		Role:       f.Role,
		LocationID: f.LocationID,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

// Credentials returns the fixture as application.UserCredentials.
func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{
		User:         f.Application(),
		PasswordHash: f.PasswordHash,
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, Role: f.Role, LocationID: f.LocationID}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		Name:         f.Name,
		Role:         string(f.Role),
		LocationID:   f.LocationID,
		PasswordHash: f.PasswordHash,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// --------------------------- Location fixtures ---------------------------

// LocationFixture represents a deterministic service center record.
type LocationFixture struct {
	ID               string
	Name             string
	ZipCode          string
	Description      string
	ExpectedDuration int
	Priority         application.Priority
	IsOpen           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// LocationOption configures the generated location fixture.
type LocationOption func(*LocationFixture)

// NewLocationFixture returns a deterministic location fixture with optional
// overrides. Locations start open.
func NewLocationFixture(opts ...LocationOption) LocationFixture {
	idx := atomic.AddUint64(&locationCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := LocationFixture{
		ID:               fmt.Sprintf("location-%03d", idx),
		Name:             fmt.Sprintf("Service Center %03d", idx),
		ZipCode:          fmt.Sprintf("77%03d", idx),
		Description:      fmt.Sprintf("Center %03d description", idx),
		ExpectedDuration: 15,
		Priority:         application.PriorityMedium,
		IsOpen:           true,
		CreatedAt:        created,
		UpdatedAt:        created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithLocationID overrides the generated location ID.
func WithLocationID(id string) LocationOption {
	return func(f *LocationFixture) {
		f.ID = id
	}
}

// WithLocationName overrides the generated location name.
func WithLocationName(name string) LocationOption {
	return func(f *LocationFixture) {
		f.Name = name
	}
}

// WithLocationZip overrides the generated zip code.
func WithLocationZip(zip string) LocationOption {
	return func(f *LocationFixture) {
		f.ZipCode = zip
	}
}

// WithLocationOpen sets the open flag on the generated fixture.
func WithLocationOpen(open bool) LocationOption {
	return func(f *LocationFixture) {
		f.IsOpen = open
	}
}

// WithLocationPriority sets the priority on the generated fixture.
func WithLocationPriority(priority application.Priority) LocationOption {
	return func(f *LocationFixture) {
		f.Priority = priority
	}
}

// WithLocationExpectedDuration sets the expected service duration in minutes.
func WithLocationExpectedDuration(minutes int) LocationOption {
	return func(f *LocationFixture) {
		f.ExpectedDuration = minutes
	}
}

// Application returns the fixture as an application.Location value.
func (f LocationFixture) Application() application.Location {
	return application.Location{
		ID:               f.ID,
		Name:             f.Name,
		ZipCode:          f.ZipCode,
		Description:      f.Description,
		ExpectedDuration: f.ExpectedDuration,
		Priority:         f.Priority,
		IsOpen:           f.IsOpen,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Location value.
func (f LocationFixture) Persistence() persistence.Location {
	return persistence.Location{
		ID:               f.ID,
		Name:             f.Name,
		ZipCode:          f.ZipCode,
		Description:      f.Description,
		ExpectedDuration: f.ExpectedDuration,
		Priority:         string(f.Priority),
		IsOpen:           f.IsOpen,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.UpdatedAt,
	}
}

// -------------------------- Queue entry fixtures --------------------------

// EntryFixture represents a deterministic queue membership record.
type EntryFixture struct {
	ID         string
	UserID     string
	LocationID string
	Position   int
	Status     application.QueueStatus
	JoinedAt   time.Time
	ServedAt   *time.Time
}

// EntryOption configures the generated queue entry fixture.
type EntryOption func(*EntryFixture)

// NewEntryFixture returns a deterministic waiting queue entry with optional
// overrides.
func NewEntryFixture(opts ...EntryOption) EntryFixture {
	idx := atomic.AddUint64(&entryCounter, 1)
	fixture := EntryFixture{
		ID:         fmt.Sprintf("entry-%03d", idx),
		UserID:     fmt.Sprintf("user-%03d", idx),
		LocationID: "location-001",
		Position:   int(idx),
		Status:     application.StatusWaiting,
		JoinedAt:   referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEntryID overrides the generated entry ID.
func WithEntryID(id string) EntryOption {
	return func(f *EntryFixture) {
		f.ID = id
	}
}

// WithEntryUser ties the entry to a specific user.
func WithEntryUser(userID string) EntryOption {
	return func(f *EntryFixture) {
		f.UserID = userID
	}
}

// WithEntryLocation ties the entry to a specific location.
func WithEntryLocation(locationID string) EntryOption {
	return func(f *EntryFixture) {
		f.LocationID = locationID
	}
}

// WithEntryPosition sets the queue position on the generated fixture.
func WithEntryPosition(position int) EntryOption {
	return func(f *EntryFixture) {
		f.Position = position
	}
}

// WithEntryStatus sets the status on the generated fixture.
func WithEntryStatus(status application.QueueStatus) EntryOption {
	return func(f *EntryFixture) {
		f.Status = status
	}
}

// WithEntryJoinedAt sets the join timestamp on the generated fixture.
func WithEntryJoinedAt(t time.Time) EntryOption {
	return func(f *EntryFixture) {
		f.JoinedAt = t
	}
}

// WithEntryServedAt sets the served timestamp on the generated fixture.
func WithEntryServedAt(t time.Time) EntryOption {
	return func(f *EntryFixture) {
		f.ServedAt = &t
	}
}

// Application returns the fixture as an application.QueueEntry value.
func (f EntryFixture) Application() application.QueueEntry {
	return application.QueueEntry{
		ID:         f.ID,
		UserID:     f.UserID,
		LocationID: f.LocationID,
		Position:   f.Position,
		Status:     f.Status,
		JoinedAt:   f.JoinedAt,
		ServedAt:   f.ServedAt,
	}
}

// Persistence returns the fixture as a persistence.QueueEntry value.
func (f EntryFixture) Persistence() persistence.QueueEntry {
	return persistence.QueueEntry{
		ID:         f.ID,
		UserID:     f.UserID,
		LocationID: f.LocationID,
		Position:   f.Position,
		Status:     string(f.Status),
		JoinedAt:   f.JoinedAt,
		ServedAt:   f.ServedAt,
	}
}

// -------------------------- Appointment fixtures --------------------------

// AppointmentFixture represents a deterministic booked slot record.
type AppointmentFixture struct {
	ID         string
	UserID     string
	LocationID string
	Date       string
	Time       string
	Duration   int
	Status     application.AppointmentStatus
	CreatedAt  time.Time
}

// AppointmentOption configures the generated appointment fixture.
type AppointmentOption func(*AppointmentFixture)

// NewAppointmentFixture returns a deterministic upcoming appointment with
// optional overrides.
func NewAppointmentFixture(opts ...AppointmentOption) AppointmentFixture {
	idx := atomic.AddUint64(&appointmentCounter, 1)
	fixture := AppointmentFixture{
		ID:         fmt.Sprintf("appointment-%03d", idx),
		UserID:     fmt.Sprintf("user-%03d", idx),
		LocationID: "location-001",
		Date:       "2026-01-20",
		Time:       "10:00",
		Duration:   15,
		Status:     application.AppointmentUpcoming,
		CreatedAt:  referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithAppointmentUser ties the appointment to a specific user.
func WithAppointmentUser(userID string) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.UserID = userID
	}
}

// WithAppointmentLocation ties the appointment to a specific location.
func WithAppointmentLocation(locationID string) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.LocationID = locationID
	}
}

// WithAppointmentSlot sets the calendar date and slot label.
func WithAppointmentSlot(date, slot string) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.Date = date
		f.Time = slot
	}
}

// WithAppointmentStatus sets the status on the generated fixture.
func WithAppointmentStatus(status application.AppointmentStatus) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.Status = status
	}
}

// Application returns the fixture as an application.Appointment value.
func (f AppointmentFixture) Application() application.Appointment {
	return application.Appointment{
		ID:         f.ID,
		UserID:     f.UserID,
		LocationID: f.LocationID,
		Date:       f.Date,
		Time:       f.Time,
		Duration:   f.Duration,
		Status:     f.Status,
		CreatedAt:  f.CreatedAt,
	}
}

// Persistence returns the fixture as a persistence.Appointment value.
func (f AppointmentFixture) Persistence() persistence.Appointment {
	return persistence.Appointment{
		ID:         f.ID,
		UserID:     f.UserID,
		LocationID: f.LocationID,
		Date:       f.Date,
		Time:       f.Time,
		Duration:   f.Duration,
		Status:     string(f.Status),
		CreatedAt:  f.CreatedAt,
	}
}

// ---------------------------- Session fixtures ----------------------------

// SessionFixture represents a deterministic authentication session record.
type SessionFixture struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic active session with optional
// overrides. Sessions expire 24 hours after the reference time.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    fmt.Sprintf("user-%03d", idx),
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: created.Add(24 * time.Hour),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionUser ties the session to a specific user.
func WithSessionUser(userID string) SessionOption {
	return func(f *SessionFixture) {
		f.UserID = userID
	}
}

// WithSessionToken overrides the generated token.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiresAt sets the expiry timestamp on the generated fixture.
func WithSessionExpiresAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = t
	}
}

// WithSessionRevokedAt marks the session as revoked at the given time.
func WithSessionRevokedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.RevokedAt = &t
	}
}

// Application returns the fixture as an application.Session value.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		RevokedAt: f.RevokedAt,
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		RevokedAt: f.RevokedAt,
	}
}
