package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/audreydng/QueueSmart/internal/persistence"
)

type queueRepoStub struct {
	mu      sync.Mutex
	entries map[string]QueueEntry

	createErr  error
	updateErr  error
	activeErr  error
	batchCalls [][]QueueEntry
}

func newQueueRepoStub(entries ...QueueEntry) *queueRepoStub {
	stub := &queueRepoStub{entries: make(map[string]QueueEntry)}
	for _, entry := range entries {
		stub.entries[entry.ID] = entry
	}
	return stub
}

func (r *queueRepoStub) CreateEntry(ctx context.Context, entry QueueEntry) (QueueEntry, error) {
	if r.createErr != nil {
		return QueueEntry{}, r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ID] = entry
	return entry, nil
}

func (r *queueRepoStub) GetEntry(ctx context.Context, id string) (QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return QueueEntry{}, persistence.ErrNotFound
	}
	return entry, nil
}

func (r *queueRepoStub) UpdateEntry(ctx context.Context, entry QueueEntry) (QueueEntry, error) {
	if r.updateErr != nil {
		return QueueEntry{}, r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[entry.ID]; !ok {
		return QueueEntry{}, persistence.ErrNotFound
	}
	r.entries[entry.ID] = entry
	return entry, nil
}

func (r *queueRepoStub) UpdateEntries(ctx context.Context, entries []QueueEntry) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range entries {
		if _, ok := r.entries[entry.ID]; !ok {
			return persistence.ErrNotFound
		}
	}
	for _, entry := range entries {
		r.entries[entry.ID] = entry
	}
	r.batchCalls = append(r.batchCalls, append([]QueueEntry(nil), entries...))
	return nil
}

func (r *queueRepoStub) ListActiveEntries(ctx context.Context, locationID string) ([]QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	active := make([]QueueEntry, 0)
	for _, entry := range r.entries {
		if entry.LocationID == locationID && entry.Status.Active() {
			active = append(active, entry)
		}
	}
	return active, nil
}

func (r *queueRepoStub) ActiveEntryForUser(ctx context.Context, userID string) (QueueEntry, error) {
	if r.activeErr != nil {
		return QueueEntry{}, r.activeErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range r.entries {
		if entry.UserID == userID && entry.Status.Active() {
			return entry, nil
		}
	}
	return QueueEntry{}, persistence.ErrNotFound
}

func (r *queueRepoStub) ActiveLocationIDs(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, entry := range r.entries {
		if entry.Status.Active() && !seen[entry.LocationID] {
			seen[entry.LocationID] = true
			ids = append(ids, entry.LocationID)
		}
	}
	return ids, nil
}

func (r *queueRepoStub) get(t *testing.T, id string) QueueEntry {
	t.Helper()
	entry, err := r.GetEntry(context.Background(), id)
	if err != nil {
		t.Fatalf("entry %s not found: %v", id, err)
	}
	return entry
}

type locationDirectoryStub struct {
	locations map[string]Location
}

func (d *locationDirectoryStub) GetLocation(ctx context.Context, id string) (Location, error) {
	location, ok := d.locations[id]
	if !ok {
		return Location{}, persistence.ErrNotFound
	}
	return location, nil
}

type notificationRepoStub struct {
	mu        sync.Mutex
	created   []Notification
	createErr error
}

func (r *notificationRepoStub) CreateNotification(ctx context.Context, notification Notification) (Notification, error) {
	if r.createErr != nil {
		return Notification{}, r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, notification)
	return notification, nil
}

func (r *notificationRepoStub) GetNotification(ctx context.Context, id string) (Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, notification := range r.created {
		if notification.ID == id {
			return notification, nil
		}
	}
	return Notification{}, persistence.ErrNotFound
}

func (r *notificationRepoStub) UpdateNotification(ctx context.Context, notification Notification) (Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.created {
		if r.created[i].ID == notification.ID {
			r.created[i] = notification
			return notification, nil
		}
	}
	return Notification{}, persistence.ErrNotFound
}

func (r *notificationRepoStub) ListNotificationsForUser(ctx context.Context, userID string) ([]Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, 0)
	for i := len(r.created) - 1; i >= 0; i-- {
		if r.created[i].UserID == userID {
			out = append(out, r.created[i])
		}
	}
	return out, nil
}

func (r *notificationRepoStub) lastFor(t *testing.T, userID string) Notification {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.created) - 1; i >= 0; i-- {
		if r.created[i].UserID == userID {
			return r.created[i]
		}
	}
	t.Fatalf("no notification recorded for user %s", userID)
	return Notification{}
}

type historyRepoStub struct {
	mu        sync.Mutex
	created   []HistoryEntry
	createErr error
}

func (r *historyRepoStub) CreateHistory(ctx context.Context, entry HistoryEntry) (HistoryEntry, error) {
	if r.createErr != nil {
		return HistoryEntry{}, r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, entry)
	return entry, nil
}

func (r *historyRepoStub) ListHistoryForUser(ctx context.Context, userID string) ([]HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]HistoryEntry, 0)
	for _, entry := range r.created {
		if entry.UserID == userID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *historyRepoStub) ListHistorySince(ctx context.Context, since time.Time) ([]HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]HistoryEntry, 0)
	for _, entry := range r.created {
		if !entry.CompletedAt.Before(since) {
			out = append(out, entry)
		}
	}
	return out, nil
}

type queueHarness struct {
	service       *QueueService
	repo          *queueRepoStub
	notifications *notificationRepoStub
	history       *historyRepoStub
	now           time.Time
}

func newQueueHarness(entries ...QueueEntry) *queueHarness {
	repo := newQueueRepoStub(entries...)
	notifications := &notificationRepoStub{}
	history := &historyRepoStub{}

	counter := 0
	idGen := func() string {
		counter++
		return fmt.Sprintf("generated-%d", counter)
	}
	now := time.Date(2026, time.February, 10, 10, 0, 0, 0, time.UTC)
	nowFn := func() time.Time { return now }

	locations := &locationDirectoryStub{locations: map[string]Location{
		"loc-1": {ID: "loc-1", Name: "Houston Service Center", ZipCode: "77002", IsOpen: true},
		"loc-2": {ID: "loc-2", Name: "Pasadena Service Center", ZipCode: "77501", IsOpen: true},
		"loc-closed": {ID: "loc-closed", Name: "Sugar Land Service Center", ZipCode: "77478", IsOpen: false},
	}}

	recorder := NewRecorder(notifications, history, idGen, nowFn, nil)
	service := NewQueueService(repo, locations, recorder, idGen, nowFn)

	return &queueHarness{
		service:       service,
		repo:          repo,
		notifications: notifications,
		history:       history,
		now:           now,
	}
}

func waitingEntry(id, userID, locationID string, position int, joined time.Time) QueueEntry {
	return QueueEntry{
		ID:         id,
		UserID:     userID,
		LocationID: locationID,
		Position:   position,
		Status:     StatusWaiting,
		JoinedAt:   joined,
	}
}

func assertDensePositions(t *testing.T, repo *queueRepoStub, locationID string, want []string) {
	t.Helper()
	active, err := repo.ListActiveEntries(context.Background(), locationID)
	if err != nil {
		t.Fatalf("list active entries: %v", err)
	}
	if len(active) != len(want) {
		t.Fatalf("expected %d active entries, got %d", len(want), len(active))
	}
	byPosition := make(map[int]QueueEntry, len(active))
	for _, entry := range active {
		if _, dup := byPosition[entry.Position]; dup {
			t.Fatalf("duplicate position %d", entry.Position)
		}
		byPosition[entry.Position] = entry
	}
	for i, id := range want {
		entry, ok := byPosition[i+1]
		if !ok {
			t.Fatalf("no entry at position %d, positions are not dense", i+1)
		}
		if entry.ID != id {
			t.Fatalf("expected %s at position %d, got %s", id, i+1, entry.ID)
		}
	}
}

func TestQueueService_Join(t *testing.T) {
	ctx := context.Background()
	joined := time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC)

	t.Run("appends at the tail of the queue", func(t *testing.T) {
		h := newQueueHarness(
			waitingEntry("entry-1", "user-1", "loc-1", 1, joined),
			waitingEntry("entry-2", "user-2", "loc-1", 2, joined.Add(time.Minute)),
		)

		entry, err := h.service.Join(ctx, Principal{UserID: "user-3", Role: RoleUser}, "loc-1")
		if err != nil {
			t.Fatalf("join failed: %v", err)
		}
		if entry.Position != 3 {
			t.Fatalf("expected position 3, got %d", entry.Position)
		}
		if entry.Status != StatusWaiting {
			t.Fatalf("expected waiting status, got %s", entry.Status)
		}

		notification := h.notifications.lastFor(t, "user-3")
		if notification.Title != "Joined Queue" {
			t.Fatalf("unexpected notification title %q", notification.Title)
		}
		if notification.Message != "You joined the queue for Houston Service Center (77002). Your position is #3." {
			t.Fatalf("unexpected notification message %q", notification.Message)
		}
	})

	t.Run("join positions grow monotonically even after departures", func(t *testing.T) {
		h := newQueueHarness(
			waitingEntry("entry-1", "user-1", "loc-1", 1, joined),
			waitingEntry("entry-2", "user-2", "loc-1", 2, joined.Add(time.Minute)),
		)

		staff := Principal{UserID: "staff-1", Role: RoleStaff}
		if err := h.service.Leave(ctx, staff, "entry-1"); err != nil {
			t.Fatalf("leave failed: %v", err)
		}

		entry, err := h.service.Join(ctx, Principal{UserID: "user-3", Role: RoleUser}, "loc-1")
		if err != nil {
			t.Fatalf("join failed: %v", err)
		}
		if entry.Position != 2 {
			t.Fatalf("expected position 2 after densification, got %d", entry.Position)
		}
		assertDensePositions(t, h.repo, "loc-1", []string{"entry-2", entry.ID})
	})

	t.Run("rejects a closed location", func(t *testing.T) {
		h := newQueueHarness()

		_, err := h.service.Join(ctx, Principal{UserID: "user-1", Role: RoleUser}, "loc-closed")
		if !errors.Is(err, ErrLocationClosed) {
			t.Fatalf("expected ErrLocationClosed, got %v", err)
		}
	})

	t.Run("rejects an unknown location", func(t *testing.T) {
		h := newQueueHarness()

		_, err := h.service.Join(ctx, Principal{UserID: "user-1", Role: RoleUser}, "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("rejects a user who is already queued anywhere", func(t *testing.T) {
		h := newQueueHarness(
			waitingEntry("entry-1", "user-1", "loc-2", 1, joined),
		)

		_, err := h.service.Join(ctx, Principal{UserID: "user-1", Role: RoleUser}, "loc-1")
		if !errors.Is(err, ErrAlreadyInQueue) {
			t.Fatalf("expected ErrAlreadyInQueue, got %v", err)
		}
	})

	t.Run("treats either not-found sentinel as no membership", func(t *testing.T) {
		h := newQueueHarness()
		h.repo.activeErr = ErrNotFound

		entry, err := h.service.Join(ctx, Principal{UserID: "user-1", Role: RoleUser}, "loc-1")
		if err != nil {
			t.Fatalf("join failed: %v", err)
		}
		if entry.Position != 1 {
			t.Fatalf("expected position 1, got %d", entry.Position)
		}
	})

	t.Run("maps a store membership conflict to ErrAlreadyInQueue", func(t *testing.T) {
		h := newQueueHarness()
		h.repo.createErr = fmt.Errorf("user already has an active queue entry: %w", persistence.ErrDuplicate)

		_, err := h.service.Join(ctx, Principal{UserID: "user-1", Role: RoleUser}, "loc-1")
		if !errors.Is(err, ErrAlreadyInQueue) {
			t.Fatalf("expected ErrAlreadyInQueue, got %v", err)
		}
	})
}

func TestQueueService_Leave(t *testing.T) {
	ctx := context.Background()
	joined := time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC)

	t.Run("renumbers the remainder after a middle departure", func(t *testing.T) {
		h := newQueueHarness(
			waitingEntry("entry-1", "user-1", "loc-1", 1, joined),
			waitingEntry("entry-2", "user-2", "loc-1", 2, joined.Add(time.Minute)),
			waitingEntry("entry-3", "user-3", "loc-1", 3, joined.Add(2*time.Minute)),
		)

		if err := h.service.Leave(ctx, Principal{UserID: "user-2", Role: RoleUser}, "entry-2"); err != nil {
			t.Fatalf("leave failed: %v", err)
		}

		if got := h.repo.get(t, "entry-2").Status; got != StatusLeft {
			t.Fatalf("expected left status, got %s", got)
		}
		assertDensePositions(t, h.repo, "loc-1", []string{"entry-1", "entry-3"})

		records, err := h.history.ListHistoryForUser(ctx, "user-2")
		if err != nil || len(records) != 1 {
			t.Fatalf("expected one history record, got %d (err %v)", len(records), err)
		}
		if records[0].Status != StatusLeft {
			t.Fatalf("expected left history status, got %s", records[0].Status)
		}
		if records[0].LocationLabel != "Houston Service Center (77002)" {
			t.Fatalf("unexpected location label %q", records[0].LocationLabel)
		}

		notification := h.notifications.lastFor(t, "user-2")
		if notification.Title != "Left Queue" {
			t.Fatalf("unexpected notification title %q", notification.Title)
		}
		if notification.Message != "You left the queue for Houston Service Center (77002)." {
			t.Fatalf("unexpected notification message %q", notification.Message)
		}
	})

	t.Run("rejects leaving another user's entry", func(t *testing.T) {
		h := newQueueHarness(
			waitingEntry("entry-1", "user-1", "loc-1", 1, joined),
		)

		err := h.service.Leave(ctx, Principal{UserID: "user-2", Role: RoleUser}, "entry-1")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("staff may retire any entry", func(t *testing.T) {
		h := newQueueHarness(
			waitingEntry("entry-1", "user-1", "loc-1", 1, joined),
		)

		if err := h.service.Leave(ctx, Principal{UserID: "staff-1", Role: RoleStaff}, "entry-1"); err != nil {
			t.Fatalf("leave failed: %v", err)
		}
	})

	t.Run("rejects an entry that already reached a terminal state", func(t *testing.T) {
		served := waitingEntry("entry-1", "user-1", "loc-1", 1, joined)
		served.Status = StatusServed
		h := newQueueHarness(served)

		err := h.service.Leave(ctx, Principal{UserID: "user-1", Role: RoleUser}, "entry-1")
		if !errors.Is(err, ErrNotActive) {
			t.Fatalf("expected ErrNotActive, got %v", err)
		}
	})

	t.Run("rejects an unknown entry", func(t *testing.T) {
		h := newQueueHarness()

		err := h.service.Leave(ctx, Principal{UserID: "user-1", Role: RoleUser}, "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestQueueService_Remove(t *testing.T) {
	ctx := context.Background()
	joined := time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC)

	t.Run("requires operator privileges", func(t *testing.T) {
		h := newQueueHarness(
			waitingEntry("entry-1", "user-1", "loc-1", 1, joined),
		)

		err := h.service.Remove(ctx, Principal{UserID: "user-2", Role: RoleUser}, "entry-1")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("notifies the removed user", func(t *testing.T) {
		h := newQueueHarness(
			waitingEntry("entry-1", "user-1", "loc-1", 1, joined),
		)

		if err := h.service.Remove(ctx, Principal{UserID: "staff-1", Role: RoleStaff}, "entry-1"); err != nil {
			t.Fatalf("remove failed: %v", err)
		}

		notification := h.notifications.lastFor(t, "user-1")
		if notification.Title != "Removed from Queue" {
			t.Fatalf("unexpected notification title %q", notification.Title)
		}
		if notification.Message != "An administrator removed you from the queue." {
			t.Fatalf("unexpected notification message %q", notification.Message)
		}
	})
}

func TestQueueService_ServeNext(t *testing.T) {
	ctx := context.Background()
	joined := time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC)
	staff := Principal{UserID: "staff-1", Role: RoleStaff}

	t.Run("serves the head and promotes the successor", func(t *testing.T) {
		h := newQueueHarness(
			waitingEntry("entry-1", "user-1", "loc-1", 1, joined),
			waitingEntry("entry-2", "user-2", "loc-1", 2, joined.Add(time.Minute)),
			waitingEntry("entry-3", "user-3", "loc-1", 3, joined.Add(2*time.Minute)),
		)

		served, err := h.service.ServeNext(ctx, staff, "loc-1")
		if err != nil {
			t.Fatalf("serve-next failed: %v", err)
		}
		if served.ID != "entry-1" || served.Status != StatusServed {
			t.Fatalf("unexpected served entry: %+v", served)
		}
		if served.ServedAt == nil || !served.ServedAt.Equal(h.now) {
			t.Fatalf("expected served timestamp %v, got %v", h.now, served.ServedAt)
		}

		assertDensePositions(t, h.repo, "loc-1", []string{"entry-2", "entry-3"})
		if got := h.repo.get(t, "entry-2").Status; got != StatusAlmostReady {
			t.Fatalf("expected promoted head, got status %s", got)
		}
		if got := h.repo.get(t, "entry-3").Status; got != StatusWaiting {
			t.Fatalf("expected waiting tail, got status %s", got)
		}

		servedNotification := h.notifications.lastFor(t, "user-1")
		if servedNotification.Title != "You Were Served" {
			t.Fatalf("unexpected notification title %q", servedNotification.Title)
		}
		nextNotification := h.notifications.lastFor(t, "user-2")
		if nextNotification.Title != "Almost Ready" {
			t.Fatalf("unexpected notification title %q", nextNotification.Title)
		}
		if nextNotification.Message != "You are next in line for Houston Service Center (77002)!" {
			t.Fatalf("unexpected notification message %q", nextNotification.Message)
		}

		records, err := h.history.ListHistoryForUser(ctx, "user-1")
		if err != nil || len(records) != 1 {
			t.Fatalf("expected one history record, got %d (err %v)", len(records), err)
		}
		if records[0].Status != StatusServed {
			t.Fatalf("expected served history status, got %s", records[0].Status)
		}
	})

	t.Run("fails on an empty queue", func(t *testing.T) {
		h := newQueueHarness()

		_, err := h.service.ServeNext(ctx, staff, "loc-1")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("requires operator privileges", func(t *testing.T) {
		h := newQueueHarness(
			waitingEntry("entry-1", "user-1", "loc-1", 1, joined),
		)

		_, err := h.service.ServeNext(ctx, Principal{UserID: "user-1", Role: RoleUser}, "loc-1")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestQueueService_SetStatus(t *testing.T) {
	ctx := context.Background()
	joined := time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC)
	staff := Principal{UserID: "staff-1", Role: RoleStaff}

	t.Run("requires operator privileges", func(t *testing.T) {
		h := newQueueHarness(
			waitingEntry("entry-1", "user-1", "loc-1", 1, joined),
		)

		err := h.service.SetStatus(ctx, Principal{UserID: "user-1", Role: RoleUser}, "entry-1", StatusServed)
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("rejects unknown status values", func(t *testing.T) {
		h := newQueueHarness(
			waitingEntry("entry-1", "user-1", "loc-1", 1, joined),
		)

		err := h.service.SetStatus(ctx, staff, "entry-1", QueueStatus("paused"))
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["status"]; !ok {
			t.Fatalf("expected status validation error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("served transition densifies without promoting the new head", func(t *testing.T) {
		h := newQueueHarness(
			waitingEntry("entry-1", "user-1", "loc-1", 1, joined),
			waitingEntry("entry-2", "user-2", "loc-1", 2, joined.Add(time.Minute)),
		)

		if err := h.service.SetStatus(ctx, staff, "entry-1", StatusServed); err != nil {
			t.Fatalf("set status failed: %v", err)
		}

		servedEntry := h.repo.get(t, "entry-1")
		if servedEntry.Status != StatusServed || servedEntry.ServedAt == nil {
			t.Fatalf("unexpected served entry: %+v", servedEntry)
		}
		assertDensePositions(t, h.repo, "loc-1", []string{"entry-2"})
		if got := h.repo.get(t, "entry-2").Status; got != StatusWaiting {
			t.Fatalf("expected new head to stay waiting, got %s", got)
		}

		notification := h.notifications.lastFor(t, "user-1")
		if notification.Title != "You Were Served" {
			t.Fatalf("unexpected notification title %q", notification.Title)
		}
		if notification.Message != "You have been served." {
			t.Fatalf("unexpected notification message %q", notification.Message)
		}
	})

	t.Run("left transition behaves like a removal", func(t *testing.T) {
		h := newQueueHarness(
			waitingEntry("entry-1", "user-1", "loc-1", 1, joined),
			waitingEntry("entry-2", "user-2", "loc-1", 2, joined.Add(time.Minute)),
		)

		if err := h.service.SetStatus(ctx, staff, "entry-1", StatusLeft); err != nil {
			t.Fatalf("set status failed: %v", err)
		}

		if got := h.repo.get(t, "entry-1").Status; got != StatusLeft {
			t.Fatalf("expected left status, got %s", got)
		}
		assertDensePositions(t, h.repo, "loc-1", []string{"entry-2"})

		notification := h.notifications.lastFor(t, "user-1")
		if notification.Title != "Left Queue" {
			t.Fatalf("unexpected notification title %q", notification.Title)
		}
		if notification.Message != "You were removed from the queue." {
			t.Fatalf("unexpected notification message %q", notification.Message)
		}
	})

	t.Run("transitions between active states keep positions", func(t *testing.T) {
		h := newQueueHarness(
			waitingEntry("entry-1", "user-1", "loc-1", 1, joined),
			waitingEntry("entry-2", "user-2", "loc-1", 2, joined.Add(time.Minute)),
		)

		if err := h.service.SetStatus(ctx, staff, "entry-2", StatusAlmostReady); err != nil {
			t.Fatalf("set status failed: %v", err)
		}

		updated := h.repo.get(t, "entry-2")
		if updated.Status != StatusAlmostReady {
			t.Fatalf("expected almost-ready, got %s", updated.Status)
		}
		if updated.Position != 2 {
			t.Fatalf("expected position to stay 2, got %d", updated.Position)
		}
	})

	t.Run("terminal entries are immutable", func(t *testing.T) {
		served := waitingEntry("entry-1", "user-1", "loc-1", 1, joined)
		served.Status = StatusServed
		h := newQueueHarness(served)

		err := h.service.SetStatus(ctx, staff, "entry-1", StatusWaiting)
		if !errors.Is(err, ErrNotActive) {
			t.Fatalf("expected ErrNotActive, got %v", err)
		}
	})
}

func TestQueueService_Reorder(t *testing.T) {
	ctx := context.Background()
	joined := time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC)
	staff := Principal{UserID: "staff-1", Role: RoleStaff}

	t.Run("swaps an entry with its predecessor", func(t *testing.T) {
		h := newQueueHarness(
			waitingEntry("entry-1", "user-1", "loc-1", 1, joined),
			waitingEntry("entry-2", "user-2", "loc-1", 2, joined.Add(time.Minute)),
			waitingEntry("entry-3", "user-3", "loc-1", 3, joined.Add(2*time.Minute)),
		)

		if err := h.service.Reorder(ctx, staff, "loc-1", "entry-2", ReorderUp); err != nil {
			t.Fatalf("reorder failed: %v", err)
		}
		assertDensePositions(t, h.repo, "loc-1", []string{"entry-2", "entry-1", "entry-3"})
	})

	t.Run("rejects moving the head further up", func(t *testing.T) {
		h := newQueueHarness(
			waitingEntry("entry-1", "user-1", "loc-1", 1, joined),
			waitingEntry("entry-2", "user-2", "loc-1", 2, joined.Add(time.Minute)),
		)

		err := h.service.Reorder(ctx, staff, "loc-1", "entry-1", ReorderUp)
		if !errors.Is(err, ErrAtBoundary) {
			t.Fatalf("expected ErrAtBoundary, got %v", err)
		}
	})

	t.Run("rejects moving the tail further down", func(t *testing.T) {
		h := newQueueHarness(
			waitingEntry("entry-1", "user-1", "loc-1", 1, joined),
			waitingEntry("entry-2", "user-2", "loc-1", 2, joined.Add(time.Minute)),
		)

		err := h.service.Reorder(ctx, staff, "loc-1", "entry-2", ReorderDown)
		if !errors.Is(err, ErrAtBoundary) {
			t.Fatalf("expected ErrAtBoundary, got %v", err)
		}
	})

	t.Run("rejects unknown directions", func(t *testing.T) {
		h := newQueueHarness(
			waitingEntry("entry-1", "user-1", "loc-1", 1, joined),
		)

		err := h.service.Reorder(ctx, staff, "loc-1", "entry-1", ReorderDirection("sideways"))
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("requires operator privileges", func(t *testing.T) {
		h := newQueueHarness(
			waitingEntry("entry-1", "user-1", "loc-1", 1, joined),
		)

		err := h.service.Reorder(ctx, Principal{UserID: "user-1", Role: RoleUser}, "loc-1", "entry-1", ReorderUp)
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("rejects entries outside the active subset", func(t *testing.T) {
		served := waitingEntry("entry-1", "user-1", "loc-1", 1, joined)
		served.Status = StatusServed
		h := newQueueHarness(served)

		err := h.service.Reorder(ctx, staff, "loc-1", "entry-1", ReorderDown)
		if !errors.Is(err, ErrNotActive) {
			t.Fatalf("expected ErrNotActive, got %v", err)
		}
	})
}

func TestQueueService_PromoteReady(t *testing.T) {
	ctx := context.Background()
	joined := time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC)

	t.Run("promotes waiting heads across locations", func(t *testing.T) {
		almostReady := waitingEntry("entry-3", "user-3", "loc-2", 1, joined)
		almostReady.Status = StatusAlmostReady
		h := newQueueHarness(
			waitingEntry("entry-1", "user-1", "loc-1", 1, joined),
			waitingEntry("entry-2", "user-2", "loc-1", 2, joined.Add(time.Minute)),
			almostReady,
		)

		promoted, err := h.service.PromoteReady(ctx)
		if err != nil {
			t.Fatalf("promotion sweep failed: %v", err)
		}
		if promoted != 1 {
			t.Fatalf("expected 1 promotion, got %d", promoted)
		}
		if got := h.repo.get(t, "entry-1").Status; got != StatusAlmostReady {
			t.Fatalf("expected promoted head, got %s", got)
		}
		if got := h.repo.get(t, "entry-2").Status; got != StatusWaiting {
			t.Fatalf("expected waiting successor, got %s", got)
		}
	})

	t.Run("no-op on idle locations", func(t *testing.T) {
		h := newQueueHarness()

		promoted, err := h.service.PromoteReady(ctx)
		if err != nil {
			t.Fatalf("promotion sweep failed: %v", err)
		}
		if promoted != 0 {
			t.Fatalf("expected no promotions, got %d", promoted)
		}
	})
}

func TestQueueService_ActiveEntryForUser(t *testing.T) {
	ctx := context.Background()
	joined := time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC)

	t.Run("returns the live entry", func(t *testing.T) {
		h := newQueueHarness(
			waitingEntry("entry-1", "user-1", "loc-1", 1, joined),
		)

		entry, err := h.service.ActiveEntryForUser(ctx, "user-1")
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
		if entry.ID != "entry-1" {
			t.Fatalf("unexpected entry %q", entry.ID)
		}
	})

	t.Run("maps a missing entry to ErrNotFound", func(t *testing.T) {
		h := newQueueHarness()

		_, err := h.service.ActiveEntryForUser(ctx, "user-1")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
