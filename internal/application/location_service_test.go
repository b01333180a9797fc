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

type locationRepoStub struct {
	mu        sync.Mutex
	locations map[string]Location

	createErr error
	updateErr error
	listErr   error
}

func newLocationRepoStub(locations ...Location) *locationRepoStub {
	stub := &locationRepoStub{locations: make(map[string]Location)}
	for _, location := range locations {
		stub.locations[location.ID] = location
	}
	return stub
}

func (r *locationRepoStub) CreateLocation(ctx context.Context, location Location) (Location, error) {
	if r.createErr != nil {
		return Location{}, r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locations[location.ID] = location
	return location, nil
}

func (r *locationRepoStub) GetLocation(ctx context.Context, id string) (Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	location, ok := r.locations[id]
	if !ok {
		return Location{}, persistence.ErrNotFound
	}
	return location, nil
}

func (r *locationRepoStub) UpdateLocation(ctx context.Context, location Location) (Location, error) {
	if r.updateErr != nil {
		return Location{}, r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.locations[location.ID]; !ok {
		return Location{}, persistence.ErrNotFound
	}
	r.locations[location.ID] = location
	return location, nil
}

func (r *locationRepoStub) ListLocations(ctx context.Context) ([]Location, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Location, 0, len(r.locations))
	for _, location := range r.locations {
		out = append(out, location)
	}
	return out, nil
}

func newLocationService(repo *locationRepoStub) (*LocationService, time.Time) {
	counter := 0
	idGen := func() string {
		counter++
		return fmt.Sprintf("loc-%d", counter)
	}
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	return NewLocationService(repo, idGen, func() time.Time { return now }), now
}

func validLocationInput() LocationInput {
	return LocationInput{
		Name:             "Houston Service Center",
		ZipCode:          "77002",
		Description:      "Downtown branch",
		ExpectedDuration: 15,
		Priority:         PriorityHigh,
	}
}

func TestLocationService_CreateLocation(t *testing.T) {
	ctx := context.Background()
	admin := Principal{UserID: "admin-1", Role: RoleAdministrator}

	t.Run("persists an open location", func(t *testing.T) {
		repo := newLocationRepoStub()
		service, now := newLocationService(repo)

		location, err := service.CreateLocation(ctx, CreateLocationParams{Principal: admin, Input: validLocationInput()})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if !location.IsOpen {
			t.Fatal("expected a new location to be open")
		}
		if !location.CreatedAt.Equal(now) || !location.UpdatedAt.Equal(now) {
			t.Fatalf("unexpected timestamps: %v / %v", location.CreatedAt, location.UpdatedAt)
		}
		if _, err := repo.GetLocation(ctx, location.ID); err != nil {
			t.Fatalf("location was not persisted: %v", err)
		}
	})

	t.Run("requires administrator privileges", func(t *testing.T) {
		service, _ := newLocationService(newLocationRepoStub())

		_, err := service.CreateLocation(ctx, CreateLocationParams{
			Principal: Principal{UserID: "staff-1", Role: RoleStaff},
			Input:     validLocationInput(),
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validates the input", func(t *testing.T) {
		service, _ := newLocationService(newLocationRepoStub())

		tests := []struct {
			name  string
			input LocationInput
			field string
		}{
			{"missing name", func() LocationInput { in := validLocationInput(); in.Name = "  "; return in }(), "name"},
			{"missing zip", func() LocationInput { in := validLocationInput(); in.ZipCode = ""; return in }(), "zip_code"},
			{"short zip", func() LocationInput { in := validLocationInput(); in.ZipCode = "7700"; return in }(), "zip_code"},
			{"non-numeric zip", func() LocationInput { in := validLocationInput(); in.ZipCode = "77a02"; return in }(), "zip_code"},
			{"zero duration", func() LocationInput { in := validLocationInput(); in.ExpectedDuration = 0; return in }(), "expected_duration"},
			{"excessive duration", func() LocationInput { in := validLocationInput(); in.ExpectedDuration = 481; return in }(), "expected_duration"},
			{"bad priority", func() LocationInput { in := validLocationInput(); in.Priority = Priority("urgent"); return in }(), "priority"},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				_, err := service.CreateLocation(ctx, CreateLocationParams{Principal: admin, Input: tc.input})
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if _, ok := vErr.FieldErrors[tc.field]; !ok {
					t.Fatalf("expected field error for %q, got %v", tc.field, vErr.FieldErrors)
				}
			})
		}
	})
}

func TestLocationService_UpdateLocation(t *testing.T) {
	ctx := context.Background()
	admin := Principal{UserID: "admin-1", Role: RoleAdministrator}
	created := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	t.Run("applies the new fields and keeps identity", func(t *testing.T) {
		repo := newLocationRepoStub(Location{
			ID: "loc-1", Name: "Old Name", ZipCode: "77002", ExpectedDuration: 15,
			Priority: PriorityLow, IsOpen: false, CreatedAt: created, UpdatedAt: created,
		})
		service, now := newLocationService(repo)

		input := validLocationInput()
		input.Name = "Renamed Center"
		location, err := service.UpdateLocation(ctx, UpdateLocationParams{Principal: admin, LocationID: "loc-1", Input: input})
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if location.Name != "Renamed Center" {
			t.Fatalf("unexpected name %q", location.Name)
		}
		if location.IsOpen {
			t.Fatal("expected the open flag to survive an update")
		}
		if !location.CreatedAt.Equal(created) {
			t.Fatalf("expected creation time to survive, got %v", location.CreatedAt)
		}
		if !location.UpdatedAt.Equal(now) {
			t.Fatalf("expected update time %v, got %v", now, location.UpdatedAt)
		}
	})

	t.Run("rejects an unknown location", func(t *testing.T) {
		service, _ := newLocationService(newLocationRepoStub())

		_, err := service.UpdateLocation(ctx, UpdateLocationParams{Principal: admin, LocationID: "missing", Input: validLocationInput()})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("requires administrator privileges", func(t *testing.T) {
		service, _ := newLocationService(newLocationRepoStub())

		_, err := service.UpdateLocation(ctx, UpdateLocationParams{
			Principal:  Principal{UserID: "user-1", Role: RoleUser},
			LocationID: "loc-1",
			Input:      validLocationInput(),
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestLocationService_ToggleOpen(t *testing.T) {
	ctx := context.Background()
	admin := Principal{UserID: "admin-1", Role: RoleAdministrator}

	t.Run("flips the open flag both ways", func(t *testing.T) {
		repo := newLocationRepoStub(Location{ID: "loc-1", Name: "Center", ZipCode: "77002", ExpectedDuration: 15, Priority: PriorityLow, IsOpen: true})
		service, _ := newLocationService(repo)

		location, err := service.ToggleOpen(ctx, admin, "loc-1")
		if err != nil {
			t.Fatalf("toggle failed: %v", err)
		}
		if location.IsOpen {
			t.Fatal("expected the location to close")
		}

		location, err = service.ToggleOpen(ctx, admin, "loc-1")
		if err != nil {
			t.Fatalf("toggle failed: %v", err)
		}
		if !location.IsOpen {
			t.Fatal("expected the location to reopen")
		}
	})

	t.Run("requires administrator privileges", func(t *testing.T) {
		service, _ := newLocationService(newLocationRepoStub())

		_, err := service.ToggleOpen(ctx, Principal{UserID: "staff-1", Role: RoleStaff}, "loc-1")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("rejects an unknown location", func(t *testing.T) {
		service, _ := newLocationService(newLocationRepoStub())

		_, err := service.ToggleOpen(ctx, admin, "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestLocationService_ListLocations(t *testing.T) {
	ctx := context.Background()

	repo := newLocationRepoStub(
		Location{ID: "loc-1", Name: "Pasadena Service Center", ZipCode: "77501", ExpectedDuration: 20, Priority: PriorityMedium, IsOpen: true},
		Location{ID: "loc-2", Name: "houston Service Center", ZipCode: "77002", ExpectedDuration: 15, Priority: PriorityHigh, IsOpen: false},
	)
	service, _ := newLocationService(repo)

	locations, err := service.ListLocations(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(locations) != 2 {
		t.Fatalf("expected 2 locations, got %d", len(locations))
	}
	if locations[0].ID != "loc-2" || locations[1].ID != "loc-1" {
		t.Fatalf("expected case-insensitive name order, got %s, %s", locations[0].ID, locations[1].ID)
	}
	if !locations[1].IsOpen && !locations[0].IsOpen {
		t.Fatal("expected closed locations to still be listed")
	}
}
