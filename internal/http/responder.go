package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/audreydng/QueueSmart/internal/application"
)

var (
	errBadRequestBody        = errors.New("the request body could not be parsed")
	errInvalidLocationID     = errors.New("a valid location id is required")
	errInvalidEntryID        = errors.New("a valid queue entry id is required")
	errInvalidNotificationID = errors.New("a valid notification id is required")
	errInvalidAppointmentID  = errors.New("a valid appointment id is required")
	errInvalidUserID         = errors.New("a valid user id is required")
	errMissingSessionToken   = errors.New("a session token is required")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "you do not have permission to perform this operation",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "the requested resource was not found"})
	case errors.Is(err, application.ErrLocationClosed):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "QUEUE_LOCATION_CLOSED",
			Message:   "this location is currently closed",
		})
	case errors.Is(err, application.ErrAlreadyInQueue):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "QUEUE_ALREADY_JOINED",
			Message:   "you are already in a queue",
		})
	case errors.Is(err, application.ErrNotActive):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "QUEUE_ENTRY_NOT_ACTIVE",
			Message:   "this entry is no longer active",
		})
	case errors.Is(err, application.ErrAtBoundary):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "QUEUE_AT_BOUNDARY",
			Message:   "the entry is already at that end of the queue",
		})
	case errors.Is(err, application.ErrEmailTaken):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ACCOUNT_EMAIL_TAKEN",
			Message:   "an account with this email already exists",
		})
	case errors.Is(err, application.ErrCannotRemoveSelf):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "STAFF_CANNOT_REMOVE_SELF",
			Message:   "you cannot remove your own account",
		})
	case errors.Is(err, application.ErrNotStaff):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "STAFF_NOT_STAFF",
			Message:   "the selected account is not a staff member",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "the submitted data is invalid",
				Errors:  vErr.FieldErrors,
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "an internal server error occurred"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
