package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/audreydng/QueueSmart/internal/persistence"
)

// Store provides an in-memory persistence layer implementation. It backs
// development setups and tests where no SQLite DSN is configured.
type Store struct {
	mu            sync.RWMutex
	users         map[string]persistence.User
	locations     map[string]persistence.Location
	entries       map[string]persistence.QueueEntry
	history       map[string]persistence.HistoryEntry
	notifications map[string]persistence.Notification
	appointments  map[string]persistence.Appointment
	sessions      map[string]persistence.Session
}

// Open returns a new empty Store.
func Open() *Store {
	return &Store{
		users:         make(map[string]persistence.User),
		locations:     make(map[string]persistence.Location),
		entries:       make(map[string]persistence.QueueEntry),
		history:       make(map[string]persistence.HistoryEntry),
		notifications: make(map[string]persistence.Notification),
		appointments:  make(map[string]persistence.Appointment),
		sessions:      make(map[string]persistence.Session),
	}
}

// Close releases resources held by the store. No-op for the in-memory implementation.
func (s *Store) Close() error {
	return nil
}

// --- UserRepository implementation ---

// CreateUser stores a new user.
func (s *Store) CreateUser(ctx context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("memory: user %s already exists", user.ID)
	}

	if err := s.ensureUniqueEmailLocked(user.ID, user.Email); err != nil {
		return err
	}

	s.users[user.ID] = cloneUser(user)
	return nil
}

// UpdateUser updates an existing user.
func (s *Store) UpdateUser(ctx context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return persistence.ErrNotFound
	}

	if err := s.ensureUniqueEmailLocked(user.ID, user.Email); err != nil {
		return err
	}

	s.users[user.ID] = cloneUser(user)
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}

	return cloneUser(user), nil
}

// GetUserByEmail retrieves a user by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(email)
	for _, user := range s.users {
		if strings.ToLower(user.Email) == lower {
			return cloneUser(user), nil
		}
	}

	return persistence.User{}, persistence.ErrNotFound
}

// ListUsers returns all users ordered by CreatedAt ascending.
func (s *Store) ListUsers(ctx context.Context) ([]persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]persistence.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, cloneUser(user))
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})

	return users, nil
}

// DeleteUser removes a user by ID together with their sessions.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return persistence.ErrNotFound
	}

	delete(s.users, id)

	for token, session := range s.sessions {
		if session.UserID == id {
			delete(s.sessions, token)
		}
	}

	return nil
}

func (s *Store) ensureUniqueEmailLocked(id, email string) error {
	lower := strings.ToLower(email)
	for existingID, user := range s.users {
		if existingID == id {
			continue
		}
		if strings.ToLower(user.Email) == lower {
			return fmt.Errorf("memory: email %s already exists: %w", email, persistence.ErrDuplicate)
		}
	}
	return nil
}

// --- LocationRepository implementation ---

// CreateLocation stores a new location.
func (s *Store) CreateLocation(ctx context.Context, location persistence.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.locations[location.ID]; ok {
		return fmt.Errorf("memory: location %s already exists", location.ID)
	}

	s.locations[location.ID] = location
	return nil
}

// UpdateLocation updates an existing location.
func (s *Store) UpdateLocation(ctx context.Context, location persistence.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.locations[location.ID]
	if !ok {
		return persistence.ErrNotFound
	}

	location.CreatedAt = existing.CreatedAt
	s.locations[location.ID] = location
	return nil
}

// GetLocation retrieves a location by ID.
func (s *Store) GetLocation(ctx context.Context, id string) (persistence.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	location, ok := s.locations[id]
	if !ok {
		return persistence.Location{}, persistence.ErrNotFound
	}

	return location, nil
}

// ListLocations returns all locations ordered by name.
func (s *Store) ListLocations(ctx context.Context) ([]persistence.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	locations := make([]persistence.Location, 0, len(s.locations))
	for _, location := range s.locations {
		locations = append(locations, location)
	}

	sort.Slice(locations, func(i, j int) bool {
		if locations[i].Name == locations[j].Name {
			return locations[i].ID < locations[j].ID
		}
		return locations[i].Name < locations[j].Name
	})

	return locations, nil
}

// --- QueueRepository implementation ---

// CreateEntry stores a new queue entry. A user may hold at most one active
// entry across all locations.
func (s *Store) CreateEntry(ctx context.Context, entry persistence.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[entry.ID]; ok {
		return fmt.Errorf("memory: queue entry %s already exists", entry.ID)
	}

	if _, ok := s.users[entry.UserID]; !ok {
		return fmt.Errorf("memory: user %s does not exist: %w", entry.UserID, persistence.ErrForeignKeyViolation)
	}

	if _, ok := s.locations[entry.LocationID]; !ok {
		return fmt.Errorf("memory: location %s does not exist: %w", entry.LocationID, persistence.ErrForeignKeyViolation)
	}

	if activeStatus(entry.Status) {
		for _, existing := range s.entries {
			if existing.UserID == entry.UserID && activeStatus(existing.Status) {
				return fmt.Errorf("memory: user %s already has an active queue entry: %w", entry.UserID, persistence.ErrDuplicate)
			}
		}
	}

	s.entries[entry.ID] = cloneEntry(entry)
	return nil
}

// UpdateEntry updates an existing queue entry.
func (s *Store) UpdateEntry(ctx context.Context, entry persistence.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateEntryLocked(entry)
}

// UpdateEntries applies a batch of entry updates. Either all entries exist
// and are written, or nothing is.
func (s *Store) UpdateEntries(ctx context.Context, entries []persistence.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range entries {
		if _, ok := s.entries[entry.ID]; !ok {
			return persistence.ErrNotFound
		}
	}

	for _, entry := range entries {
		if err := s.updateEntryLocked(entry); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) updateEntryLocked(entry persistence.QueueEntry) error {
	existing, ok := s.entries[entry.ID]
	if !ok {
		return persistence.ErrNotFound
	}

	entry.UserID = existing.UserID
	entry.LocationID = existing.LocationID
	entry.JoinedAt = existing.JoinedAt
	s.entries[entry.ID] = cloneEntry(entry)
	return nil
}

// GetEntry retrieves a queue entry by ID.
func (s *Store) GetEntry(ctx context.Context, id string) (persistence.QueueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return persistence.QueueEntry{}, persistence.ErrNotFound
	}

	return cloneEntry(entry), nil
}

// ListActiveEntries returns the active entries for a location ordered by position.
func (s *Store) ListActiveEntries(ctx context.Context, locationID string) ([]persistence.QueueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]persistence.QueueEntry, 0)
	for _, entry := range s.entries {
		if entry.LocationID != locationID || !activeStatus(entry.Status) {
			continue
		}
		entries = append(entries, cloneEntry(entry))
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Position != entries[j].Position {
			return entries[i].Position < entries[j].Position
		}
		if !entries[i].JoinedAt.Equal(entries[j].JoinedAt) {
			return entries[i].JoinedAt.Before(entries[j].JoinedAt)
		}
		return entries[i].ID < entries[j].ID
	})

	return entries, nil
}

// ActiveEntryForUser returns the user's active entry across all locations.
func (s *Store) ActiveEntryForUser(ctx context.Context, userID string) (persistence.QueueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.entries {
		if entry.UserID == userID && activeStatus(entry.Status) {
			return cloneEntry(entry), nil
		}
	}

	return persistence.QueueEntry{}, persistence.ErrNotFound
}

// ActiveLocationIDs returns the IDs of locations that have at least one active entry.
func (s *Store) ActiveLocationIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, entry := range s.entries {
		if !activeStatus(entry.Status) {
			continue
		}
		if _, ok := seen[entry.LocationID]; ok {
			continue
		}
		seen[entry.LocationID] = struct{}{}
		ids = append(ids, entry.LocationID)
	}

	sort.Strings(ids)
	return ids, nil
}

// --- HistoryRepository implementation ---

// CreateHistory stores a terminal queue outcome.
func (s *Store) CreateHistory(ctx context.Context, entry persistence.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.history[entry.ID]; ok {
		return fmt.Errorf("memory: history entry %s already exists", entry.ID)
	}

	s.history[entry.ID] = entry
	return nil
}

// ListHistoryForUser returns the history entries for a user ordered by
// CompletedAt descending.
func (s *Store) ListHistoryForUser(ctx context.Context, userID string) ([]persistence.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]persistence.HistoryEntry, 0)
	for _, entry := range s.history {
		if entry.UserID != userID {
			continue
		}
		entries = append(entries, entry)
	}

	sortHistory(entries)
	return entries, nil
}

// ListHistorySince returns history entries completed at or after the given time.
func (s *Store) ListHistorySince(ctx context.Context, since time.Time) ([]persistence.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]persistence.HistoryEntry, 0)
	for _, entry := range s.history {
		if entry.CompletedAt.Before(since) {
			continue
		}
		entries = append(entries, entry)
	}

	sortHistory(entries)
	return entries, nil
}

// --- NotificationRepository implementation ---

// CreateNotification stores a new notification.
func (s *Store) CreateNotification(ctx context.Context, notification persistence.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notifications[notification.ID]; ok {
		return fmt.Errorf("memory: notification %s already exists", notification.ID)
	}

	s.notifications[notification.ID] = notification
	return nil
}

// UpdateNotification updates an existing notification.
func (s *Store) UpdateNotification(ctx context.Context, notification persistence.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.notifications[notification.ID]
	if !ok {
		return persistence.ErrNotFound
	}

	notification.UserID = existing.UserID
	notification.CreatedAt = existing.CreatedAt
	s.notifications[notification.ID] = notification
	return nil
}

// GetNotification retrieves a notification by ID.
func (s *Store) GetNotification(ctx context.Context, id string) (persistence.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	notification, ok := s.notifications[id]
	if !ok {
		return persistence.Notification{}, persistence.ErrNotFound
	}

	return notification, nil
}

// ListNotificationsForUser returns a user's notifications ordered by
// CreatedAt descending.
func (s *Store) ListNotificationsForUser(ctx context.Context, userID string) ([]persistence.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	notifications := make([]persistence.Notification, 0)
	for _, notification := range s.notifications {
		if notification.UserID != userID {
			continue
		}
		notifications = append(notifications, notification)
	}

	sort.Slice(notifications, func(i, j int) bool {
		if notifications[i].CreatedAt.Equal(notifications[j].CreatedAt) {
			return notifications[i].ID > notifications[j].ID
		}
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})

	return notifications, nil
}

// --- AppointmentRepository implementation ---

// CreateAppointment stores a new appointment.
func (s *Store) CreateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.appointments[appointment.ID]; ok {
		return fmt.Errorf("memory: appointment %s already exists", appointment.ID)
	}

	if _, ok := s.locations[appointment.LocationID]; !ok {
		return fmt.Errorf("memory: location %s does not exist: %w", appointment.LocationID, persistence.ErrForeignKeyViolation)
	}

	s.appointments[appointment.ID] = appointment
	return nil
}

// UpdateAppointment updates an existing appointment.
func (s *Store) UpdateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.appointments[appointment.ID]
	if !ok {
		return persistence.ErrNotFound
	}

	appointment.UserID = existing.UserID
	appointment.CreatedAt = existing.CreatedAt
	s.appointments[appointment.ID] = appointment
	return nil
}

// GetAppointment retrieves an appointment by ID.
func (s *Store) GetAppointment(ctx context.Context, id string) (persistence.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appointment, ok := s.appointments[id]
	if !ok {
		return persistence.Appointment{}, persistence.ErrNotFound
	}

	return appointment, nil
}

// ListAppointmentsForUser returns a user's appointments ordered by date and time.
func (s *Store) ListAppointmentsForUser(ctx context.Context, userID string) ([]persistence.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appointments := make([]persistence.Appointment, 0)
	for _, appointment := range s.appointments {
		if appointment.UserID != userID {
			continue
		}
		appointments = append(appointments, appointment)
	}

	sortAppointments(appointments)
	return appointments, nil
}

// ListAppointmentsForLocationDate returns the appointments at a location on a date.
func (s *Store) ListAppointmentsForLocationDate(ctx context.Context, locationID, date string) ([]persistence.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appointments := make([]persistence.Appointment, 0)
	for _, appointment := range s.appointments {
		if appointment.LocationID != locationID || appointment.Date != date {
			continue
		}
		appointments = append(appointments, appointment)
	}

	sortAppointments(appointments)
	return appointments, nil
}

// --- SessionRepository implementation ---

// CreateSession stores a new session keyed by token.
func (s *Store) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.Token]; ok {
		return persistence.Session{}, fmt.Errorf("memory: session token already exists: %w", persistence.ErrDuplicate)
	}

	s.sessions[session.Token] = cloneSession(session)
	return cloneSession(session), nil
}

// GetSession retrieves a session by token.
func (s *Store) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}

	return cloneSession(session), nil
}

// UpdateSession updates an existing session.
func (s *Store) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.sessions[session.Token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}

	session.CreatedAt = existing.CreatedAt
	s.sessions[session.Token] = cloneSession(session)
	return cloneSession(session), nil
}

// RevokeSession marks a session revoked at the given time.
func (s *Store) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}

	session.RevokedAt = &revokedAt
	session.UpdatedAt = revokedAt
	s.sessions[token] = cloneSession(session)
	return cloneSession(session), nil
}

// DeleteExpiredSessions removes sessions that expired before the reference time.
func (s *Store) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if session.ExpiresAt.Before(reference) {
			delete(s.sessions, token)
		}
	}

	return nil
}

// --- Helpers ---

func activeStatus(status string) bool {
	return status == "waiting" || status == "almost-ready"
}

func cloneUser(user persistence.User) persistence.User {
	if user.LocationID != nil {
		id := *user.LocationID
		user.LocationID = &id
	}
	return user
}

func cloneEntry(entry persistence.QueueEntry) persistence.QueueEntry {
	if entry.ServedAt != nil {
		served := *entry.ServedAt
		entry.ServedAt = &served
	}
	return entry
}

func cloneSession(session persistence.Session) persistence.Session {
	if session.RevokedAt != nil {
		revoked := *session.RevokedAt
		session.RevokedAt = &revoked
	}
	return session
}

func sortHistory(entries []persistence.HistoryEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CompletedAt.Equal(entries[j].CompletedAt) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].CompletedAt.After(entries[j].CompletedAt)
	})
}

func sortAppointments(appointments []persistence.Appointment) {
	sort.Slice(appointments, func(i, j int) bool {
		if appointments[i].Date != appointments[j].Date {
			return appointments[i].Date < appointments[j].Date
		}
		if appointments[i].Time != appointments[j].Time {
			return appointments[i].Time < appointments[j].Time
		}
		return appointments[i].ID < appointments[j].ID
	})
}
