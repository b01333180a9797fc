package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/audreydng/QueueSmart/internal/application"
)

type queueService interface {
	Join(ctx context.Context, principal application.Principal, locationID string) (application.QueueEntry, error)
	Leave(ctx context.Context, principal application.Principal, entryID string) error
	Remove(ctx context.Context, principal application.Principal, entryID string) error
	ServeNext(ctx context.Context, principal application.Principal, locationID string) (application.QueueEntry, error)
	SetStatus(ctx context.Context, principal application.Principal, entryID string, status application.QueueStatus) error
	Reorder(ctx context.Context, principal application.Principal, locationID, entryID string, direction application.ReorderDirection) error
	QueueForLocation(ctx context.Context, locationID string) ([]application.QueueEntry, error)
	ActiveEntryForUser(ctx context.Context, userID string) (application.QueueEntry, error)
}

type userDirectory interface {
	DisplayName(ctx context.Context, id string) string
}

type QueueHandler struct {
	service   queueService
	names     userDirectory
	responder responder
	logger    *slog.Logger
}

func NewQueueHandler(service queueService, names userDirectory, logger *slog.Logger) *QueueHandler {
	base := defaultLogger(logger)
	return &QueueHandler{service: service, names: names, responder: newResponder(base), logger: base}
}

func (h *QueueHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "QueueHandler", operation, attrs...)
}

func (h *QueueHandler) Join(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req joinQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Join", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode join request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	locationID := strings.TrimSpace(req.LocationID)
	if locationID == "" {
		h.log(r.Context(), "Join", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "missing location id for join")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidLocationID)
		return
	}

	logger := h.log(r.Context(), "Join", "principal_id", principal.UserID, "location_id", locationID)

	entry, err := h.service.Join(r.Context(), principal, locationID)
	if err != nil {
		logger.ErrorContext(r.Context(), "queue join failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("entry_id", entry.ID, "position", entry.Position).InfoContext(r.Context(), "queue joined")
	dto := h.toEntryDTO(r.Context(), entry)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, queueEntryResponse{Entry: &dto})
}

func (h *QueueHandler) Current(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Current", "principal_id", principal.UserID)

	entry, err := h.service.ActiveEntryForUser(r.Context(), principal.UserID)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			h.responder.writeJSON(r.Context(), w, http.StatusOK, queueEntryResponse{})
			return
		}
		logger.ErrorContext(r.Context(), "active entry lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dto := h.toEntryDTO(r.Context(), entry)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, queueEntryResponse{Entry: &dto})
}

func (h *QueueHandler) Leave(w http.ResponseWriter, r *http.Request) {
	h.retire(w, r, "Leave", h.serviceLeave)
}

func (h *QueueHandler) Remove(w http.ResponseWriter, r *http.Request) {
	h.retire(w, r, "Remove", h.serviceRemove)
}

func (h *QueueHandler) serviceLeave(ctx context.Context, principal application.Principal, entryID string) error {
	return h.service.Leave(ctx, principal, entryID)
}

func (h *QueueHandler) serviceRemove(ctx context.Context, principal application.Principal, entryID string) error {
	return h.service.Remove(ctx, principal, entryID)
}

func (h *QueueHandler) retire(w http.ResponseWriter, r *http.Request, operation string, call func(context.Context, application.Principal, string) error) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	entryID, ok := EntryIDFromContext(r.Context())
	if !ok || strings.TrimSpace(entryID) == "" {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "missing entry id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntryID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), operation, "principal_id", principal.UserID, "entry_id", entryID)

	if err := call(r.Context(), principal, entryID); err != nil {
		logger.ErrorContext(r.Context(), "queue departure failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "queue entry retired")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *QueueHandler) ServeNext(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	locationID, ok := LocationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(locationID) == "" {
		h.log(r.Context(), "ServeNext", "error_kind", "bad_request").ErrorContext(r.Context(), "missing location id for serve-next")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidLocationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ServeNext", "principal_id", principal.UserID, "location_id", locationID)

	served, err := h.service.ServeNext(r.Context(), principal, locationID)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			logger.InfoContext(r.Context(), "serve-next on empty queue")
			h.responder.writeJSON(r.Context(), w, http.StatusNotFound, errorResponse{
				ErrorCode: "QUEUE_EMPTY",
				Message:   "the queue is empty",
			})
			return
		}
		logger.ErrorContext(r.Context(), "serve-next failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("entry_id", served.ID, "user_id", served.UserID).InfoContext(r.Context(), "customer served")
	dto := h.toEntryDTO(r.Context(), served)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, queueEntryResponse{Entry: &dto})
}

func (h *QueueHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	entryID, ok := EntryIDFromContext(r.Context())
	if !ok || strings.TrimSpace(entryID) == "" {
		h.log(r.Context(), "SetStatus", "error_kind", "bad_request").ErrorContext(r.Context(), "missing entry id for status change")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntryID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "SetStatus", "principal_id", principal.UserID, "entry_id", entryID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode status request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	status := application.QueueStatus(strings.TrimSpace(req.Status))
	logger := h.log(r.Context(), "SetStatus", "principal_id", principal.UserID, "entry_id", entryID, "status", string(status))

	if err := h.service.SetStatus(r.Context(), principal, entryID, status); err != nil {
		logger.ErrorContext(r.Context(), "status change failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "entry status changed")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *QueueHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	entryID, ok := EntryIDFromContext(r.Context())
	if !ok || strings.TrimSpace(entryID) == "" {
		h.log(r.Context(), "Reorder", "error_kind", "bad_request").ErrorContext(r.Context(), "missing entry id for reorder")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntryID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Reorder", "principal_id", principal.UserID, "entry_id", entryID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reorder request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	locationID := strings.TrimSpace(req.LocationID)
	if locationID == "" {
		h.log(r.Context(), "Reorder", "principal_id", principal.UserID, "entry_id", entryID, "error_kind", "bad_request").ErrorContext(r.Context(), "missing location id for reorder")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidLocationID)
		return
	}

	direction := application.ReorderDirection(strings.TrimSpace(req.Direction))
	logger := h.log(r.Context(), "Reorder", "principal_id", principal.UserID, "entry_id", entryID, "direction", string(direction))

	if err := h.service.Reorder(r.Context(), principal, locationID, entryID, direction); err != nil {
		logger.ErrorContext(r.Context(), "reorder failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "entry reordered")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	locationID, ok := LocationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(locationID) == "" {
		h.log(r.Context(), "List", "error_kind", "bad_request").ErrorContext(r.Context(), "missing location id for queue list")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidLocationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "location_id", locationID)

	entries, err := h.service.QueueForLocation(r.Context(), locationID)
	if err != nil {
		logger.ErrorContext(r.Context(), "queue list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]queueEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, h.toEntryDTO(r.Context(), entry))
	}

	logger.With("result_count", len(entries)).InfoContext(r.Context(), "queue listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listQueueResponse{Entries: out})
}

type joinQueueRequest struct {
	LocationID string `json:"location_id"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

type reorderRequest struct {
	LocationID string `json:"location_id"`
	Direction  string `json:"direction"`
}

type queueEntryResponse struct {
	Entry *queueEntryDTO `json:"entry"`
}

type listQueueResponse struct {
	Entries []queueEntryDTO `json:"entries"`
}

type queueEntryDTO struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name,omitempty"`
	LocationID string `json:"location_id"`
	Position   int    `json:"position"`
	Status     string `json:"status"`
	JoinedAt   string `json:"joined_at"`
	ServedAt   string `json:"served_at,omitempty"`
}

func (h *QueueHandler) toEntryDTO(ctx context.Context, entry application.QueueEntry) queueEntryDTO {
	dto := queueEntryDTO{
		ID:         entry.ID,
		UserID:     entry.UserID,
		LocationID: entry.LocationID,
		Position:   entry.Position,
		Status:     string(entry.Status),
		JoinedAt:   entry.JoinedAt.UTC().Format(time.RFC3339Nano),
	}
	if entry.ServedAt != nil {
		dto.ServedAt = entry.ServedAt.UTC().Format(time.RFC3339Nano)
	}
	if h.names != nil && entry.UserID != "" {
		dto.UserName = h.names.DisplayName(ctx, entry.UserID)
	}
	return dto
}
