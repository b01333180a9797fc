package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/audreydng/QueueSmart/internal/persistence"
)

// LocationRepository captures the persistence operations needed by the location service.
type LocationRepository interface {
	CreateLocation(ctx context.Context, location Location) (Location, error)
	GetLocation(ctx context.Context, id string) (Location, error)
	UpdateLocation(ctx context.Context, location Location) (Location, error)
	ListLocations(ctx context.Context) ([]Location, error)
}

// Expected service duration bounds in minutes.
const (
	MinExpectedDuration = 1
	MaxExpectedDuration = 480
)

var zipCodePattern = regexp.MustCompile(`^\d{5}$`)

// LocationService orchestrates validation, authorization, and persistence for
// locations. Locations are never hard-deleted; administrators close them
// instead, which stops new queue joins.
type LocationService struct {
	locations   LocationRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewLocationService wires dependencies for the location service.
func NewLocationService(locations LocationRepository, idGenerator func() string, now func() time.Time) *LocationService {
	return NewLocationServiceWithLogger(locations, idGenerator, now, nil)
}

// NewLocationServiceWithLogger constructs a location service with a specified logger.
func NewLocationServiceWithLogger(locations LocationRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *LocationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &LocationService{locations: locations, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *LocationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "LocationService", operation, attrs...)
}

// CreateLocation validates input and persists a new open location for administrators.
func (s *LocationService) CreateLocation(ctx context.Context, params CreateLocationParams) (location Location, err error) {
	if s == nil {
		err = fmt.Errorf("LocationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateLocation",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create location", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("location_id", location.ID).InfoContext(ctx, "location created")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	normalized := normalizeLocationInput(params.Input)
	vErr := validateLocationInput(normalized)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	location = Location{
		ID:               s.idGenerator(),
		Name:             normalized.Name,
		ZipCode:          normalized.ZipCode,
		Description:      normalized.Description,
		ExpectedDuration: normalized.ExpectedDuration,
		Priority:         normalized.Priority,
		IsOpen:           true,
		CreatedAt:        s.now(),
	}
	location.UpdatedAt = location.CreatedAt

	if s.locations == nil {
		return
	}

	var persisted Location
	persisted, err = s.locations.CreateLocation(ctx, location)
	if err != nil {
		err = mapLocationRepoError(err)
		return
	}

	location = persisted
	return
}

// UpdateLocation validates input and updates an existing location for administrators.
func (s *LocationService) UpdateLocation(ctx context.Context, params UpdateLocationParams) (location Location, err error) {
	if s == nil {
		err = fmt.Errorf("LocationService is nil")
		return
	}
	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}
	if s.locations == nil {
		err = fmt.Errorf("location repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateLocation",
		"principal_id", params.Principal.UserID,
		"location_id", params.LocationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update location", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("location_id", location.ID).InfoContext(ctx, "location updated")
	}()

	var existing Location
	existing, err = s.locations.GetLocation(ctx, params.LocationID)
	if err != nil {
		err = mapLocationRepoError(err)
		return
	}

	normalized := normalizeLocationInput(params.Input)
	vErr := validateLocationInput(normalized)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Name = normalized.Name
	updated.ZipCode = normalized.ZipCode
	updated.Description = normalized.Description
	updated.ExpectedDuration = normalized.ExpectedDuration
	updated.Priority = normalized.Priority
	updated.UpdatedAt = s.now()

	location, err = s.locations.UpdateLocation(ctx, updated)
	if err != nil {
		err = mapLocationRepoError(err)
		return
	}

	return
}

// ToggleOpen flips whether a location accepts new queue joins.
func (s *LocationService) ToggleOpen(ctx context.Context, principal Principal, locationID string) (location Location, err error) {
	if s == nil {
		err = fmt.Errorf("LocationService is nil")
		return
	}
	if !principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}
	if s.locations == nil {
		err = fmt.Errorf("location repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ToggleOpen",
		"principal_id", principal.UserID,
		"location_id", locationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to toggle location", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("location_id", location.ID, "is_open", location.IsOpen).InfoContext(ctx, "location toggled")
	}()

	var existing Location
	existing, err = s.locations.GetLocation(ctx, locationID)
	if err != nil {
		err = mapLocationRepoError(err)
		return
	}

	existing.IsOpen = !existing.IsOpen
	existing.UpdatedAt = s.now()

	location, err = s.locations.UpdateLocation(ctx, existing)
	if err != nil {
		err = mapLocationRepoError(err)
		return
	}
	return
}

// GetLocation returns a location by ID.
func (s *LocationService) GetLocation(ctx context.Context, id string) (Location, error) {
	if s == nil || s.locations == nil {
		return Location{}, fmt.Errorf("location repository not configured")
	}
	location, err := s.locations.GetLocation(ctx, id)
	if err != nil {
		return Location{}, mapLocationRepoError(err)
	}
	return location, nil
}

// ListLocations returns every location sorted by name. Any caller may list;
// closed locations are included so dashboards can show their state.
func (s *LocationService) ListLocations(ctx context.Context) (locations []Location, err error) {
	if s == nil || s.locations == nil {
		return nil, nil
	}

	var raw []Location
	raw, err = s.locations.ListLocations(ctx)
	if err != nil {
		return nil, err
	}

	locations = make([]Location, len(raw))
	copy(locations, raw)

	sort.Slice(locations, func(i, j int) bool {
		if strings.EqualFold(locations[i].Name, locations[j].Name) {
			return locations[i].ID < locations[j].ID
		}
		return strings.ToLower(locations[i].Name) < strings.ToLower(locations[j].Name)
	})

	return locations, nil
}

func normalizeLocationInput(input LocationInput) LocationInput {
	return LocationInput{
		Name:             strings.TrimSpace(input.Name),
		ZipCode:          strings.TrimSpace(input.ZipCode),
		Description:      strings.TrimSpace(input.Description),
		ExpectedDuration: input.ExpectedDuration,
		Priority:         input.Priority,
	}
}

func validateLocationInput(input LocationInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if input.ZipCode == "" {
		vErr.add("zip_code", "zip code is required")
	} else if !zipCodePattern.MatchString(input.ZipCode) {
		vErr.add("zip_code", "zip code must be five digits")
	}
	if input.ExpectedDuration < MinExpectedDuration || input.ExpectedDuration > MaxExpectedDuration {
		vErr.add("expected_duration", "expected duration must be between 1 and 480 minutes")
	}
	if !ValidPriority(input.Priority) {
		vErr.add("priority", "priority must be low, medium, or high")
	}

	return vErr
}

func mapLocationRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("expected_duration", "expected duration must be between 1 and 480 minutes")
		return vErr
	}
	return err
}
