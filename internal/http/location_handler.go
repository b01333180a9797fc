package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/audreydng/QueueSmart/internal/application"
)

type locationService interface {
	CreateLocation(ctx context.Context, params application.CreateLocationParams) (application.Location, error)
	UpdateLocation(ctx context.Context, params application.UpdateLocationParams) (application.Location, error)
	ToggleOpen(ctx context.Context, principal application.Principal, locationID string) (application.Location, error)
	ListLocations(ctx context.Context) ([]application.Location, error)
}

type LocationHandler struct {
	service   locationService
	responder responder
	logger    *slog.Logger
}

func NewLocationHandler(service locationService, logger *slog.Logger) *LocationHandler {
	base := defaultLogger(logger)
	return &LocationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *LocationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "LocationHandler", operation, attrs...)
}

func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode location request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	location, err := h.service.CreateLocation(r.Context(), application.CreateLocationParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "location creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("location_id", location.ID).InfoContext(r.Context(), "location created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, locationResponse{Location: toLocationDTO(location)})
}

func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	locationID, ok := LocationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(locationID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing location id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidLocationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "location_id", locationID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode location update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "location_id", locationID)

	location, err := h.service.UpdateLocation(r.Context(), application.UpdateLocationParams{
		Principal:  principal,
		LocationID: locationID,
		Input:      req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "location update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "location updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, locationResponse{Location: toLocationDTO(location)})
}

func (h *LocationHandler) ToggleOpen(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	locationID, ok := LocationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(locationID) == "" {
		h.log(r.Context(), "ToggleOpen", "error_kind", "bad_request").ErrorContext(r.Context(), "missing location id for toggle")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidLocationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ToggleOpen", "principal_id", principal.UserID, "location_id", locationID)

	location, err := h.service.ToggleOpen(r.Context(), principal, locationID)
	if err != nil {
		logger.ErrorContext(r.Context(), "location toggle failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("is_open", location.IsOpen).InfoContext(r.Context(), "location availability toggled")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, locationResponse{Location: toLocationDTO(location)})
}

func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok || strings.TrimSpace(principal.UserID) == "" {
		h.log(r.Context(), "List", "error_kind", "unauthorized").ErrorContext(r.Context(), "missing authenticated principal")
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	locations, err := h.service.ListLocations(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "location list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(locations)).InfoContext(r.Context(), "locations listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listLocationsResponse{Locations: toLocationDTOs(locations)})
}

type locationRequest struct {
	Name             string `json:"name"`
	ZipCode          string `json:"zip_code"`
	Description      string `json:"description"`
	ExpectedDuration int    `json:"expected_duration"`
	Priority         string `json:"priority"`
}

func (r locationRequest) toInput() application.LocationInput {
	return application.LocationInput{
		Name:             strings.TrimSpace(r.Name),
		ZipCode:          strings.TrimSpace(r.ZipCode),
		Description:      strings.TrimSpace(r.Description),
		ExpectedDuration: r.ExpectedDuration,
		Priority:         application.Priority(strings.TrimSpace(r.Priority)),
	}
}

type locationResponse struct {
	Location locationDTO `json:"location"`
}

type listLocationsResponse struct {
	Locations []locationDTO `json:"locations"`
}

type locationDTO struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	ZipCode          string `json:"zip_code"`
	Description      string `json:"description,omitempty"`
	ExpectedDuration int    `json:"expected_duration"`
	Priority         string `json:"priority"`
	IsOpen           bool   `json:"is_open"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

func toLocationDTO(location application.Location) locationDTO {
	return locationDTO{
		ID:               location.ID,
		Name:             location.Name,
		ZipCode:          location.ZipCode,
		Description:      location.Description,
		ExpectedDuration: location.ExpectedDuration,
		Priority:         string(location.Priority),
		IsOpen:           location.IsOpen,
		CreatedAt:        location.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:        location.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toLocationDTOs(locations []application.Location) []locationDTO {
	if len(locations) == 0 {
		return nil
	}
	out := make([]locationDTO, 0, len(locations))
	for _, location := range locations {
		out = append(out, toLocationDTO(location))
	}
	return out
}
