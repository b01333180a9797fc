package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStatsService_UsageStats(t *testing.T) {
	ctx := context.Background()
	admin := Principal{UserID: "admin-1", Role: RoleAdministrator}
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	todayStart := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	t.Run("aggregates served counts, queue population, and open locations", func(t *testing.T) {
		history := &historyRepoStub{created: []HistoryEntry{
			{ID: "h-1", UserID: "user-1", LocationID: "loc-1", Status: StatusServed, CompletedAt: todayStart.Add(time.Hour)},
			{ID: "h-2", UserID: "user-2", LocationID: "loc-1", Status: StatusServed, CompletedAt: todayStart.Add(2 * time.Hour)},
			{ID: "h-3", UserID: "user-3", LocationID: "loc-2", Status: StatusLeft, CompletedAt: todayStart.Add(3 * time.Hour)},
			{ID: "h-4", UserID: "user-4", LocationID: "loc-2", Status: StatusServed, CompletedAt: todayStart.Add(-time.Hour)},
		}}
		entries := newQueueRepoStub(
			waitingEntry("entry-1", "user-5", "loc-1", 1, now),
			waitingEntry("entry-2", "user-6", "loc-1", 2, now),
			waitingEntry("entry-3", "user-7", "loc-2", 1, now),
		)
		locations := newLocationRepoStub(
			Location{ID: "loc-1", Name: "Houston Service Center", IsOpen: true},
			Location{ID: "loc-2", Name: "Pasadena Service Center", IsOpen: false},
		)
		service := NewStatsService(history, entries, locations, func() time.Time { return now })

		stats, err := service.UsageStats(ctx, admin)
		if err != nil {
			t.Fatalf("stats failed: %v", err)
		}
		if stats.ServedToday != 2 {
			t.Fatalf("expected 2 served today, got %d", stats.ServedToday)
		}
		if stats.CurrentlyQueued != 3 {
			t.Fatalf("expected 3 queued, got %d", stats.CurrentlyQueued)
		}
		if stats.OpenLocations != 1 {
			t.Fatalf("expected 1 open location, got %d", stats.OpenLocations)
		}
		if len(stats.ServedByLocation) != 2 {
			t.Fatalf("expected a row per location, got %d", len(stats.ServedByLocation))
		}
		if stats.ServedByLocation[0].LocationName != "Houston Service Center" || stats.ServedByLocation[0].Count != 2 {
			t.Fatalf("unexpected first row %+v", stats.ServedByLocation[0])
		}
		if stats.ServedByLocation[1].Count != 0 {
			t.Fatalf("expected zero served for the second location, got %d", stats.ServedByLocation[1].Count)
		}
	})

	t.Run("requires administrator privileges", func(t *testing.T) {
		service := NewStatsService(&historyRepoStub{}, newQueueRepoStub(), newLocationRepoStub(), func() time.Time { return now })

		_, err := service.UsageStats(ctx, Principal{UserID: "staff-1", Role: RoleStaff})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestStatsService_HistoryForUser(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	history := &historyRepoStub{created: []HistoryEntry{
		{ID: "h-1", UserID: "user-1", Status: StatusServed, CompletedAt: base},
		{ID: "h-2", UserID: "user-1", Status: StatusLeft, CompletedAt: base.Add(time.Hour)},
		{ID: "h-3", UserID: "user-2", Status: StatusServed, CompletedAt: base.Add(2 * time.Hour)},
	}}
	service := NewStatsService(history, newQueueRepoStub(), newLocationRepoStub(), nil)

	records, err := service.HistoryForUser(ctx, Principal{UserID: "user-1", Role: RoleUser})
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "h-2" || records[1].ID != "h-1" {
		t.Fatalf("expected newest first, got %s, %s", records[0].ID, records[1].ID)
	}
}
