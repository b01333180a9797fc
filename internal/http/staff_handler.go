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

type staffService interface {
	CreateStaffMember(ctx context.Context, params application.CreateStaffParams) (application.User, error)
	RemoveStaffMember(ctx context.Context, principal application.Principal, userID string) error
	ListStaff(ctx context.Context, principal application.Principal) ([]application.User, error)
}

type StaffHandler struct {
	service   staffService
	responder responder
	logger    *slog.Logger
}

func NewStaffHandler(service staffService, logger *slog.Logger) *StaffHandler {
	base := defaultLogger(logger)
	return &StaffHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *StaffHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "StaffHandler", operation, attrs...)
}

func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req staffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode staff request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	user, err := h.service.CreateStaffMember(r.Context(), application.CreateStaffParams{
		Principal: principal,
		Input: application.StaffInput{
			Name:       strings.TrimSpace(req.Name),
			Email:      strings.TrimSpace(req.Email),
			Password:   req.Password,
			LocationID: strings.TrimSpace(req.LocationID),
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "staff creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("user_id", user.ID).InfoContext(r.Context(), "staff member created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, staffResponse{User: toUserDTO(user)})
}

func (h *StaffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID, ok := UserIDFromContext(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing user id for staff removal")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "user_id", userID)

	if err := h.service.RemoveStaffMember(r.Context(), principal, userID); err != nil {
		logger.ErrorContext(r.Context(), "staff removal failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "staff member removed")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	staff, err := h.service.ListStaff(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "staff list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(staff)).InfoContext(r.Context(), "staff listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listStaffResponse{Users: toUserDTOs(staff)})
}

type staffRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	LocationID string `json:"location_id"`
}

type staffResponse struct {
	User userDTO `json:"user"`
}

type listStaffResponse struct {
	Users []userDTO `json:"users"`
}

type userDTO struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	LocationID string `json:"location_id,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func toUserDTO(user application.User) userDTO {
	dto := userDTO{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if user.LocationID != nil {
		dto.LocationID = *user.LocationID
	}
	return dto
}

func toUserDTOs(users []application.User) []userDTO {
	if len(users) == 0 {
		return nil
	}
	out := make([]userDTO, 0, len(users))
	for _, user := range users {
		out = append(out, toUserDTO(user))
	}
	return out
}
