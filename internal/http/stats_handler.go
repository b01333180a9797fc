package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/audreydng/QueueSmart/internal/application"
)

type statsService interface {
	UsageStats(ctx context.Context, principal application.Principal) (application.UsageStats, error)
	HistoryForUser(ctx context.Context, principal application.Principal) ([]application.HistoryEntry, error)
}

type StatsHandler struct {
	service   statsService
	responder responder
	logger    *slog.Logger
}

func NewStatsHandler(service statsService, logger *slog.Logger) *StatsHandler {
	base := defaultLogger(logger)
	return &StatsHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *StatsHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "StatsHandler", operation, attrs...)
}

func (h *StatsHandler) Usage(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Usage", "principal_id", principal.UserID)

	stats, err := h.service.UsageStats(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "usage stats failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "usage stats computed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toStatsDTO(stats))
}

func (h *StatsHandler) History(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "History", "principal_id", principal.UserID)

	entries, err := h.service.HistoryForUser(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "history list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(entries)).InfoContext(r.Context(), "history listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listHistoryResponse{History: toHistoryDTOs(entries)})
}

type statsDTO struct {
	ServedToday      int                      `json:"served_today"`
	CurrentlyQueued  int                      `json:"currently_queued"`
	OpenLocations    int                      `json:"open_locations"`
	ServedByLocation []locationServedCountDTO `json:"served_by_location"`
}

type locationServedCountDTO struct {
	LocationID   string `json:"location_id"`
	LocationName string `json:"location_name"`
	Count        int    `json:"count"`
}

func toStatsDTO(stats application.UsageStats) statsDTO {
	counts := make([]locationServedCountDTO, 0, len(stats.ServedByLocation))
	for _, count := range stats.ServedByLocation {
		counts = append(counts, locationServedCountDTO{
			LocationID:   count.LocationID,
			LocationName: count.LocationName,
			Count:        count.Count,
		})
	}
	return statsDTO{
		ServedToday:      stats.ServedToday,
		CurrentlyQueued:  stats.CurrentlyQueued,
		OpenLocations:    stats.OpenLocations,
		ServedByLocation: counts,
	}
}

type listHistoryResponse struct {
	History []historyDTO `json:"history"`
}

type historyDTO struct {
	ID            string `json:"id"`
	LocationID    string `json:"location_id"`
	LocationLabel string `json:"location_label"`
	Status        string `json:"status"`
	JoinedAt      string `json:"joined_at"`
	CompletedAt   string `json:"completed_at"`
}

func toHistoryDTOs(entries []application.HistoryEntry) []historyDTO {
	if len(entries) == 0 {
		return nil
	}
	out := make([]historyDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, historyDTO{
			ID:            entry.ID,
			LocationID:    entry.LocationID,
			LocationLabel: entry.LocationLabel,
			Status:        string(entry.Status),
			JoinedAt:      entry.JoinedAt.UTC().Format(time.RFC3339Nano),
			CompletedAt:   entry.CompletedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}
