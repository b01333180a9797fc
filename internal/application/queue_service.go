package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/audreydng/QueueSmart/internal/persistence"
)

// QueueRepository captures the persistence operations needed by the queue service.
type QueueRepository interface {
	CreateEntry(ctx context.Context, entry QueueEntry) (QueueEntry, error)
	GetEntry(ctx context.Context, id string) (QueueEntry, error)
	UpdateEntry(ctx context.Context, entry QueueEntry) (QueueEntry, error)
	// UpdateEntries applies a batch of entry updates atomically with respect
	// to concurrent readers.
	UpdateEntries(ctx context.Context, entries []QueueEntry) error
	ListActiveEntries(ctx context.Context, locationID string) ([]QueueEntry, error)
	ActiveEntryForUser(ctx context.Context, userID string) (QueueEntry, error)
	ActiveLocationIDs(ctx context.Context) ([]string, error)
}

// LocationDirectory exposes the location lookups the queue service depends on.
type LocationDirectory interface {
	GetLocation(ctx context.Context, id string) (Location, error)
}

// QueueService is the ordering engine for location queues. It owns position
// sequencing: the active entries of a location always carry the dense
// positions 1..N, and every mutation that removes an entry from the active
// subset renumbers the remainder before returning.
//
// Mutations on the same location are serialized through a per-location mutex;
// operations on different locations proceed independently.
type QueueService struct {
	entries     QueueRepository
	locations   LocationDirectory
	recorder    *Recorder
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger

	locks sync.Map // locationID -> *sync.Mutex
}

// NewQueueService wires dependencies for the queue service.
func NewQueueService(entries QueueRepository, locations LocationDirectory, recorder *Recorder, idGenerator func() string, now func() time.Time) *QueueService {
	return NewQueueServiceWithLogger(entries, locations, recorder, idGenerator, now, nil)
}

// NewQueueServiceWithLogger constructs a queue service with a specified logger.
func NewQueueServiceWithLogger(entries QueueRepository, locations LocationDirectory, recorder *Recorder, idGenerator func() string, now func() time.Time, logger *slog.Logger) *QueueService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &QueueService{
		entries:     entries,
		locations:   locations,
		recorder:    recorder,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *QueueService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "QueueService", operation, attrs...)
}

// lockLocation serializes mutations against one location's active subset.
func (s *QueueService) lockLocation(locationID string) func() {
	value, _ := s.locks.LoadOrStore(locationID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Join appends the principal to a location's queue at position N+1.
//
// The location must exist and be open, and the user must not hold an active
// entry anywhere else; a user queues at one location at a time.
func (s *QueueService) Join(ctx context.Context, principal Principal, locationID string) (entry QueueEntry, err error) {
	if s == nil {
		err = fmt.Errorf("QueueService is nil")
		return
	}
	if s.entries == nil || s.locations == nil {
		err = fmt.Errorf("queue repositories not configured")
		return
	}

	logger := s.loggerWith(ctx, "Join",
		"principal_id", principal.UserID,
		"location_id", locationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to join queue", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("entry_id", entry.ID, "position", entry.Position).InfoContext(ctx, "joined queue")
	}()

	var location Location
	location, err = s.locations.GetLocation(ctx, locationID)
	if err != nil {
		err = mapLookupError(err)
		return
	}
	if !location.IsOpen {
		err = ErrLocationClosed
		return
	}

	unlock := s.lockLocation(locationID)
	defer unlock()

	if _, lookupErr := s.entries.ActiveEntryForUser(ctx, principal.UserID); lookupErr == nil {
		err = ErrAlreadyInQueue
		return
	} else if !isNotFound(lookupErr) {
		err = lookupErr
		return
	}

	var active []QueueEntry
	active, err = s.listActiveOrdered(ctx, locationID)
	if err != nil {
		return
	}

	entry = QueueEntry{
		ID:         s.idGenerator(),
		UserID:     principal.UserID,
		LocationID: locationID,
		Position:   len(active) + 1,
		Status:     StatusWaiting,
		JoinedAt:   s.now(),
	}

	entry, err = s.entries.CreateEntry(ctx, entry)
	if err != nil {
		// The stores reject a second active entry per user, which closes the
		// race between the membership check and the insert.
		if errors.Is(err, persistence.ErrDuplicate) {
			err = ErrAlreadyInQueue
		}
		return
	}

	_, err = s.recorder.Notify(ctx, principal.UserID, "Joined Queue",
		fmt.Sprintf("You joined the queue for %s. Your position is #%d.", location.Label(), entry.Position))
	return
}

// Leave removes the principal's entry from its queue and renumbers the
// remaining active entries. A history record with status "left" is written.
// Operators may leave on behalf of any user.
func (s *QueueService) Leave(ctx context.Context, principal Principal, entryID string) error {
	return s.retire(ctx, principal, entryID, retireLeave)
}

// Remove is the operator-initiated removal of an entry. It shares the
// densification contract of Leave and notifies the affected user that an
// operator removed them.
func (s *QueueService) Remove(ctx context.Context, principal Principal, entryID string) error {
	if !principal.IsOperator() {
		return ErrUnauthorized
	}
	return s.retire(ctx, principal, entryID, retireRemove)
}

type retireMode int

const (
	retireLeave retireMode = iota
	retireRemove
	retireStatusLeft
)

// retire takes an entry out of the active subset with status "left" and
// densifies the remainder of its location's queue.
func (s *QueueService) retire(ctx context.Context, principal Principal, entryID string, mode retireMode) (err error) {
	if s == nil {
		return fmt.Errorf("QueueService is nil")
	}
	if s.entries == nil {
		return fmt.Errorf("queue repository not configured")
	}

	operation := "Leave"
	if mode == retireRemove {
		operation = "Remove"
	}
	logger := s.loggerWith(ctx, operation,
		"principal_id", principal.UserID,
		"entry_id", entryID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to retire queue entry", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "queue entry retired")
	}()

	entry, err := s.entries.GetEntry(ctx, entryID)
	if err != nil {
		return mapLookupError(err)
	}
	if mode == retireLeave && entry.UserID != principal.UserID && !principal.IsOperator() {
		return ErrUnauthorized
	}

	unlock := s.lockLocation(entry.LocationID)
	defer unlock()

	// Re-read under the lock; a concurrent mutation may have retired it.
	entry, err = s.entries.GetEntry(ctx, entryID)
	if err != nil {
		return mapLookupError(err)
	}
	if !entry.Status.Active() {
		return ErrNotActive
	}

	entry.Status = StatusLeft
	updates := []QueueEntry{entry}

	remaining, err := s.activeExcluding(ctx, entry.LocationID, entry.ID)
	if err != nil {
		return err
	}
	updates = append(updates, densify(remaining)...)

	if err = s.entries.UpdateEntries(ctx, updates); err != nil {
		return err
	}

	label := s.locationLabel(ctx, entry.LocationID)
	if _, err = s.recorder.RecordTerminal(ctx, entry, label, StatusLeft); err != nil {
		return err
	}

	switch mode {
	case retireRemove:
		_, err = s.recorder.Notify(ctx, entry.UserID, "Removed from Queue", "An administrator removed you from the queue.")
	case retireStatusLeft:
		_, err = s.recorder.Notify(ctx, entry.UserID, "Left Queue", "You were removed from the queue.")
	default:
		_, err = s.recorder.Notify(ctx, entry.UserID, "Left Queue", fmt.Sprintf("You left the queue for %s.", label))
	}
	return err
}

// ServeNext serves the head of a location's queue: the lowest-position active
// entry transitions to served, the remainder renumbers to 1..N-1, and the new
// head is promoted to almost-ready and told it is next.
func (s *QueueService) ServeNext(ctx context.Context, principal Principal, locationID string) (served QueueEntry, err error) {
	if s == nil {
		err = fmt.Errorf("QueueService is nil")
		return
	}
	if s.entries == nil {
		err = fmt.Errorf("queue repository not configured")
		return
	}
	if !principal.IsOperator() {
		err = ErrUnauthorized
		return
	}

	logger := s.loggerWith(ctx, "ServeNext",
		"principal_id", principal.UserID,
		"location_id", locationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to serve next", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("entry_id", served.ID, "user_id", served.UserID).InfoContext(ctx, "served next in queue")
	}()

	unlock := s.lockLocation(locationID)
	defer unlock()

	var active []QueueEntry
	active, err = s.listActiveOrdered(ctx, locationID)
	if err != nil {
		return
	}
	if len(active) == 0 {
		err = ErrNotFound
		return
	}

	head := active[0]
	servedAt := s.now()
	head.Status = StatusServed
	head.ServedAt = &servedAt

	remaining := densifyAll(active[1:])
	if len(remaining) > 0 && remaining[0].Status == StatusWaiting {
		remaining[0].Status = StatusAlmostReady
	}

	updates := append([]QueueEntry{head}, remaining...)
	if err = s.entries.UpdateEntries(ctx, updates); err != nil {
		return
	}

	label := s.locationLabel(ctx, locationID)
	if _, err = s.recorder.RecordTerminal(ctx, head, label, StatusServed); err != nil {
		return
	}
	if _, err = s.recorder.Notify(ctx, head.UserID, "You Were Served",
		fmt.Sprintf("You have been served for %s.", label)); err != nil {
		return
	}
	if len(remaining) > 0 {
		if _, err = s.recorder.Notify(ctx, remaining[0].UserID, "Almost Ready",
			fmt.Sprintf("You are next in line for %s!", label)); err != nil {
			return
		}
	}

	served = head
	return
}

// SetStatus applies a direct status transition to an entry.
//
// A transition to "left" behaves like an operator removal of the entry into
// the left state; a transition to "served" records history and renumbers the
// queue but, unlike ServeNext, never promotes the new head. The periodic
// promotion sweep reconciles the head shortly after. Transitions between the
// two active states update the entry in place without resequencing.
func (s *QueueService) SetStatus(ctx context.Context, principal Principal, entryID string, status QueueStatus) (err error) {
	if s == nil {
		return fmt.Errorf("QueueService is nil")
	}
	if s.entries == nil {
		return fmt.Errorf("queue repository not configured")
	}
	if !principal.IsOperator() {
		return ErrUnauthorized
	}
	if !ValidQueueStatus(status) {
		vErr := &ValidationError{}
		vErr.add("status", "status is invalid")
		return vErr
	}

	if status == StatusLeft {
		return s.retire(ctx, principal, entryID, retireStatusLeft)
	}

	logger := s.loggerWith(ctx, "SetStatus",
		"principal_id", principal.UserID,
		"entry_id", entryID,
		"status", string(status),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to set queue entry status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "queue entry status updated")
	}()

	entry, err := s.entries.GetEntry(ctx, entryID)
	if err != nil {
		return mapLookupError(err)
	}

	unlock := s.lockLocation(entry.LocationID)
	defer unlock()

	entry, err = s.entries.GetEntry(ctx, entryID)
	if err != nil {
		return mapLookupError(err)
	}
	if !entry.Status.Active() {
		return ErrNotActive
	}

	if status == StatusServed {
		servedAt := s.now()
		entry.Status = StatusServed
		entry.ServedAt = &servedAt
		updates := []QueueEntry{entry}

		remaining, listErr := s.activeExcluding(ctx, entry.LocationID, entry.ID)
		if listErr != nil {
			return listErr
		}
		updates = append(updates, densify(remaining)...)

		if err = s.entries.UpdateEntries(ctx, updates); err != nil {
			return err
		}

		label := s.locationLabel(ctx, entry.LocationID)
		if _, err = s.recorder.RecordTerminal(ctx, entry, label, StatusServed); err != nil {
			return err
		}
		_, err = s.recorder.Notify(ctx, entry.UserID, "You Were Served", "You have been served.")
		return err
	}

	entry.Status = status
	_, err = s.entries.UpdateEntry(ctx, entry)
	return err
}

// Reorder swaps an active entry with its immediate neighbour in position
// order. Only single-step adjacent swaps are supported; moving past the edge
// of the queue fails with ErrAtBoundary. No status changes or notifications.
func (s *QueueService) Reorder(ctx context.Context, principal Principal, locationID, entryID string, direction ReorderDirection) (err error) {
	if s == nil {
		return fmt.Errorf("QueueService is nil")
	}
	if s.entries == nil {
		return fmt.Errorf("queue repository not configured")
	}
	if !principal.IsOperator() {
		return ErrUnauthorized
	}
	if direction != ReorderUp && direction != ReorderDown {
		vErr := &ValidationError{}
		vErr.add("direction", "direction must be up or down")
		return vErr
	}

	logger := s.loggerWith(ctx, "Reorder",
		"principal_id", principal.UserID,
		"location_id", locationID,
		"entry_id", entryID,
		"direction", string(direction),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to reorder queue entry", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "queue entry reordered")
	}()

	unlock := s.lockLocation(locationID)
	defer unlock()

	active, err := s.listActiveOrdered(ctx, locationID)
	if err != nil {
		return err
	}

	idx := -1
	for i, candidate := range active {
		if candidate.ID == entryID {
			idx = i
			break
		}
	}
	if idx == -1 {
		entry, lookupErr := s.entries.GetEntry(ctx, entryID)
		if lookupErr != nil {
			return mapLookupError(lookupErr)
		}
		if !entry.Status.Active() || entry.LocationID != locationID {
			return ErrNotActive
		}
		return ErrNotFound
	}

	swapIdx := idx - 1
	if direction == ReorderDown {
		swapIdx = idx + 1
	}
	if swapIdx < 0 || swapIdx >= len(active) {
		return ErrAtBoundary
	}

	active[idx], active[swapIdx] = active[swapIdx], active[idx]
	return s.entries.UpdateEntries(ctx, densify(active))
}

// PromoteReady is the periodic promotion sweep: for every location with
// active entries, the position-1 entry moves from waiting to almost-ready.
// The sweep takes the same per-location lock as every other writer, so it
// cannot interleave with ServeNext's own promotion. It returns the number of
// entries promoted.
func (s *QueueService) PromoteReady(ctx context.Context) (promoted int, err error) {
	if s == nil {
		return 0, fmt.Errorf("QueueService is nil")
	}
	if s.entries == nil {
		return 0, fmt.Errorf("queue repository not configured")
	}

	locationIDs, err := s.entries.ActiveLocationIDs(ctx)
	if err != nil {
		return 0, err
	}

	for _, locationID := range locationIDs {
		n, promoteErr := s.promoteHead(ctx, locationID)
		if promoteErr != nil {
			s.loggerWith(ctx, "PromoteReady", "location_id", locationID).
				ErrorContext(ctx, "failed to promote queue head", "error", promoteErr)
			err = promoteErr
			continue
		}
		promoted += n
	}
	return promoted, err
}

func (s *QueueService) promoteHead(ctx context.Context, locationID string) (int, error) {
	unlock := s.lockLocation(locationID)
	defer unlock()

	active, err := s.listActiveOrdered(ctx, locationID)
	if err != nil {
		return 0, err
	}
	if len(active) == 0 || active[0].Status != StatusWaiting {
		return 0, nil
	}

	head := active[0]
	head.Status = StatusAlmostReady
	if _, err := s.entries.UpdateEntry(ctx, head); err != nil {
		return 0, err
	}
	return 1, nil
}

// QueueForLocation returns the active queue of a location ordered by position.
func (s *QueueService) QueueForLocation(ctx context.Context, locationID string) ([]QueueEntry, error) {
	if s == nil || s.entries == nil {
		return nil, fmt.Errorf("queue repository not configured")
	}
	return s.listActiveOrdered(ctx, locationID)
}

// ActiveEntryForUser returns the user's current active entry, if any. Users
// hold at most one active entry system-wide.
func (s *QueueService) ActiveEntryForUser(ctx context.Context, userID string) (QueueEntry, error) {
	if s == nil || s.entries == nil {
		return QueueEntry{}, fmt.Errorf("queue repository not configured")
	}
	entry, err := s.entries.ActiveEntryForUser(ctx, userID)
	if err != nil {
		return QueueEntry{}, mapLookupError(err)
	}
	return entry, nil
}

// listActiveOrdered fetches a location's active subset in canonical order:
// ascending position, ties broken by earliest join then entry ID.
func (s *QueueService) listActiveOrdered(ctx context.Context, locationID string) ([]QueueEntry, error) {
	active, err := s.entries.ListActiveEntries(ctx, locationID)
	if err != nil {
		return nil, err
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].Position != active[j].Position {
			return active[i].Position < active[j].Position
		}
		if !active[i].JoinedAt.Equal(active[j].JoinedAt) {
			return active[i].JoinedAt.Before(active[j].JoinedAt)
		}
		return active[i].ID < active[j].ID
	})
	return active, nil
}

func (s *QueueService) activeExcluding(ctx context.Context, locationID, entryID string) ([]QueueEntry, error) {
	active, err := s.listActiveOrdered(ctx, locationID)
	if err != nil {
		return nil, err
	}
	remaining := active[:0]
	for _, candidate := range active {
		if candidate.ID != entryID {
			remaining = append(remaining, candidate)
		}
	}
	return remaining, nil
}

func (s *QueueService) locationLabel(ctx context.Context, locationID string) string {
	if s.locations == nil {
		return "Unknown"
	}
	location, err := s.locations.GetLocation(ctx, locationID)
	if err != nil {
		return "Unknown"
	}
	return location.Label()
}

// densify returns the entries whose position must change for the slice to
// carry the dense sequence 1..N in its current order.
func densify(ordered []QueueEntry) []QueueEntry {
	changed := make([]QueueEntry, 0, len(ordered))
	for i := range ordered {
		if ordered[i].Position != i+1 {
			ordered[i].Position = i + 1
			changed = append(changed, ordered[i])
		}
	}
	return changed
}

// densifyAll renumbers every entry to 1..N regardless of its current position.
func densifyAll(ordered []QueueEntry) []QueueEntry {
	renumbered := make([]QueueEntry, len(ordered))
	copy(renumbered, ordered)
	for i := range renumbered {
		renumbered[i].Position = i + 1
	}
	return renumbered
}

// mapLookupError normalizes repository not-found errors onto the application
// sentinel.
func mapLookupError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
