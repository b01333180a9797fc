package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// StatsService derives the administrator dashboard figures and per-user
// history from current store state. Every query recomputes from the
// repositories; nothing is cached.
type StatsService struct {
	history   HistoryRepository
	entries   QueueRepository
	locations LocationRepository
	now       func() time.Time
	logger    *slog.Logger
}

// NewStatsService wires dependencies for the stats service.
func NewStatsService(history HistoryRepository, entries QueueRepository, locations LocationRepository, now func() time.Time) *StatsService {
	return NewStatsServiceWithLogger(history, entries, locations, now, nil)
}

// NewStatsServiceWithLogger constructs a stats service with a specified logger.
func NewStatsServiceWithLogger(history HistoryRepository, entries QueueRepository, locations LocationRepository, now func() time.Time, logger *slog.Logger) *StatsService {
	if now == nil {
		now = time.Now
	}
	return &StatsService{history: history, entries: entries, locations: locations, now: now, logger: defaultLogger(logger)}
}

// UsageStats aggregates today's served count, the live queue population, the
// number of open locations, and a served-per-location breakdown.
// Administrators only.
func (s *StatsService) UsageStats(ctx context.Context, principal Principal) (stats UsageStats, err error) {
	if s == nil {
		err = fmt.Errorf("StatsService is nil")
		return
	}
	if !principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}
	if s.history == nil || s.entries == nil || s.locations == nil {
		err = fmt.Errorf("stats repositories not configured")
		return
	}

	logger := serviceLogger(ctx, s.logger, "StatsService", "UsageStats", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute usage stats", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	now := s.now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var recent []HistoryEntry
	recent, err = s.history.ListHistorySince(ctx, todayStart)
	if err != nil {
		return
	}

	servedByLocation := make(map[string]int)
	for _, record := range recent {
		if record.Status != StatusServed {
			continue
		}
		stats.ServedToday++
		servedByLocation[record.LocationID]++
	}

	var locationIDs []string
	locationIDs, err = s.entries.ActiveLocationIDs(ctx)
	if err != nil {
		return
	}
	for _, locationID := range locationIDs {
		var active []QueueEntry
		active, err = s.entries.ListActiveEntries(ctx, locationID)
		if err != nil {
			return
		}
		stats.CurrentlyQueued += len(active)
	}

	var locations []Location
	locations, err = s.locations.ListLocations(ctx)
	if err != nil {
		return
	}
	for _, location := range locations {
		if location.IsOpen {
			stats.OpenLocations++
		}
		stats.ServedByLocation = append(stats.ServedByLocation, LocationServedCount{
			LocationID:   location.ID,
			LocationName: location.Name,
			Count:        servedByLocation[location.ID],
		})
	}

	sort.Slice(stats.ServedByLocation, func(i, j int) bool {
		return stats.ServedByLocation[i].LocationName < stats.ServedByLocation[j].LocationName
	})
	return stats, nil
}

// HistoryForUser returns the principal's audit history, newest first.
func (s *StatsService) HistoryForUser(ctx context.Context, principal Principal) ([]HistoryEntry, error) {
	if s == nil || s.history == nil {
		return nil, fmt.Errorf("history repository not configured")
	}

	records, err := s.history.ListHistoryForUser(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	out := make([]HistoryEntry, len(records))
	copy(out, records)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})

	return out, nil
}
