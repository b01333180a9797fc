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

type appointmentService interface {
	Book(ctx context.Context, params application.BookAppointmentParams) (application.Appointment, error)
	Cancel(ctx context.Context, principal application.Principal, appointmentID string) error
	AppointmentsForUser(ctx context.Context, principal application.Principal) ([]application.Appointment, error)
	AvailableSlots(ctx context.Context, locationID, date string) ([]string, error)
}

type AppointmentHandler struct {
	service   appointmentService
	responder responder
	logger    *slog.Logger
}

func NewAppointmentHandler(service appointmentService, logger *slog.Logger) *AppointmentHandler {
	base := defaultLogger(logger)
	return &AppointmentHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AppointmentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AppointmentHandler", operation, attrs...)
}

func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Book", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Book", "principal_id", principal.UserID, "location_id", req.LocationID)

	appointment, err := h.service.Book(r.Context(), application.BookAppointmentParams{
		Principal:  principal,
		LocationID: strings.TrimSpace(req.LocationID),
		Date:       strings.TrimSpace(req.Date),
		Time:       strings.TrimSpace(req.Time),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "appointment booking failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("appointment_id", appointment.ID).InfoContext(r.Context(), "appointment booked")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, appointmentResponse{Appointment: toAppointmentDTO(appointment)})
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	appointmentID, ok := AppointmentIDFromContext(r.Context())
	if !ok || strings.TrimSpace(appointmentID) == "" {
		h.log(r.Context(), "Cancel", "error_kind", "bad_request").ErrorContext(r.Context(), "missing appointment id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAppointmentID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Cancel", "principal_id", principal.UserID, "appointment_id", appointmentID)

	if err := h.service.Cancel(r.Context(), principal, appointmentID); err != nil {
		logger.ErrorContext(r.Context(), "appointment cancellation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "appointment cancelled")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	appointments, err := h.service.AppointmentsForUser(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "appointment list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(appointments)).InfoContext(r.Context(), "appointments listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAppointmentsResponse{Appointments: toAppointmentDTOs(appointments)})
}

func (h *AppointmentHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	locationID, ok := LocationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(locationID) == "" {
		h.log(r.Context(), "Slots", "error_kind", "bad_request").ErrorContext(r.Context(), "missing location id for slots")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidLocationID)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Slots", "principal_id", principal.UserID, "location_id", locationID, "date", date)

	slots, err := h.service.AvailableSlots(r.Context(), locationID, date)
	if err != nil {
		logger.ErrorContext(r.Context(), "slot lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(slots)).InfoContext(r.Context(), "slots listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, slotsResponse{Date: date, Slots: slots})
}

type bookAppointmentRequest struct {
	LocationID string `json:"location_id"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}

type appointmentResponse struct {
	Appointment appointmentDTO `json:"appointment"`
}

type listAppointmentsResponse struct {
	Appointments []appointmentDTO `json:"appointments"`
}

type slotsResponse struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

type appointmentDTO struct {
	ID         string `json:"id"`
	LocationID string `json:"location_id"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Duration   int    `json:"duration"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

func toAppointmentDTO(appointment application.Appointment) appointmentDTO {
	return appointmentDTO{
		ID:         appointment.ID,
		LocationID: appointment.LocationID,
		Date:       appointment.Date,
		Time:       appointment.Time,
		Duration:   appointment.Duration,
		Status:     string(appointment.Status),
		CreatedAt:  appointment.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toAppointmentDTOs(appointments []application.Appointment) []appointmentDTO {
	if len(appointments) == 0 {
		return nil
	}
	out := make([]appointmentDTO, 0, len(appointments))
	for _, appointment := range appointments {
		out = append(out, toAppointmentDTO(appointment))
	}
	return out
}
