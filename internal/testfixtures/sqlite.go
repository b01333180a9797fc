package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/audreydng/QueueSmart/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Pool          *sqlite.ConnectionPool
	Users         *sqlite.UserRepository
	Locations     *sqlite.LocationRepository
	Queue         *sqlite.QueueRepository
	History       *sqlite.HistoryRepository
	Notifications *sqlite.NotificationRepository
	Appointments  *sqlite.AppointmentRepository
	Sessions      *sqlite.SessionRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "queuesmart.db")

	pool, err := sqlite.NewConnectionPool(sqlite.DefaultConfig(path))
	if err != nil {
		tb.Fatalf("failed to open database: %v", err)
	}

	if err := pool.Migrate(context.Background()); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate database: %v", err)
	}

	harness := &SQLiteHarness{
		Pool:          pool,
		Users:         sqlite.NewUserRepository(pool),
		Locations:     sqlite.NewLocationRepository(pool),
		Queue:         sqlite.NewQueueRepository(pool),
		History:       sqlite.NewHistoryRepository(pool),
		Notifications: sqlite.NewNotificationRepository(pool),
		Appointments:  sqlite.NewAppointmentRepository(pool),
		Sessions:      sqlite.NewSessionRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
