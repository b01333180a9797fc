package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/audreydng/QueueSmart/internal/application"
)

type notificationService interface {
	ListForUser(ctx context.Context, principal application.Principal) ([]application.Notification, error)
	UnreadCount(ctx context.Context, principal application.Principal) (int, error)
	MarkRead(ctx context.Context, principal application.Principal, notificationID string) error
	MarkAllRead(ctx context.Context, principal application.Principal) error
}

type NotificationHandler struct {
	service   notificationService
	responder responder
	logger    *slog.Logger
}

func NewNotificationHandler(service notificationService, logger *slog.Logger) *NotificationHandler {
	base := defaultLogger(logger)
	return &NotificationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *NotificationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "NotificationHandler", operation, attrs...)
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	notifications, err := h.service.ListForUser(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "notification list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	unread, err := h.service.UnreadCount(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "unread count failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(notifications), "unread_count", unread).InfoContext(r.Context(), "notifications listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listNotificationsResponse{
		Notifications: toNotificationDTOs(notifications),
		UnreadCount:   unread,
	})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	notificationID, ok := NotificationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(notificationID) == "" {
		h.log(r.Context(), "MarkRead", "error_kind", "bad_request").ErrorContext(r.Context(), "missing notification id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidNotificationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "MarkRead", "principal_id", principal.UserID, "notification_id", notificationID)

	if err := h.service.MarkRead(r.Context(), principal, notificationID); err != nil {
		logger.ErrorContext(r.Context(), "mark read failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "notification marked as read")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "MarkAllRead", "principal_id", principal.UserID)

	if err := h.service.MarkAllRead(r.Context(), principal); err != nil {
		logger.ErrorContext(r.Context(), "mark all read failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "all notifications marked as read")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type listNotificationsResponse struct {
	Notifications []notificationDTO `json:"notifications"`
	UnreadCount   int               `json:"unread_count"`
}

type notificationDTO struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

func toNotificationDTOs(notifications []application.Notification) []notificationDTO {
	if len(notifications) == 0 {
		return nil
	}
	out := make([]notificationDTO, 0, len(notifications))
	for _, notification := range notifications {
		out = append(out, notificationDTO{
			ID:        notification.ID,
			Title:     notification.Title,
			Message:   notification.Message,
			Read:      notification.Read,
			CreatedAt: notification.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}
