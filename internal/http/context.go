package http

import (
	"context"
	"log/slog"

	"github.com/audreydng/QueueSmart/internal/application"
)

type contextKey string

const (
	principalContextKey      contextKey = "principal"
	loggerContextKey         contextKey = "logger"
	locationIDContextKey     contextKey = "location_id"
	entryIDContextKey        contextKey = "entry_id"
	notificationIDContextKey contextKey = "notification_id"
	appointmentIDContextKey  contextKey = "appointment_id"
	userIDContextKey         contextKey = "user_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithLogger returns a derived context carrying a request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// LoggerFromContext extracts the request scoped logger from context if available.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger, _ := ctx.Value(loggerContextKey).(*slog.Logger)
	return logger
}

// ContextWithLocationID injects the location identifier resolved from the request path.
func ContextWithLocationID(ctx context.Context, locationID string) context.Context {
	return context.WithValue(ctx, locationIDContextKey, locationID)
}

// LocationIDFromContext extracts a location identifier previously associated with the context.
func LocationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(locationIDContextKey).(string)
	return id, ok
}

// ContextWithEntryID injects the queue entry identifier resolved from the request path.
func ContextWithEntryID(ctx context.Context, entryID string) context.Context {
	return context.WithValue(ctx, entryIDContextKey, entryID)
}

// EntryIDFromContext extracts a queue entry identifier previously associated with the context.
func EntryIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(entryIDContextKey).(string)
	return id, ok
}

// ContextWithNotificationID injects the notification identifier resolved from the request path.
func ContextWithNotificationID(ctx context.Context, notificationID string) context.Context {
	return context.WithValue(ctx, notificationIDContextKey, notificationID)
}

// NotificationIDFromContext extracts a notification identifier previously associated with the context.
func NotificationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(notificationIDContextKey).(string)
	return id, ok
}

// ContextWithAppointmentID injects the appointment identifier resolved from the request path.
func ContextWithAppointmentID(ctx context.Context, appointmentID string) context.Context {
	return context.WithValue(ctx, appointmentIDContextKey, appointmentID)
}

// AppointmentIDFromContext extracts an appointment identifier previously associated with the context.
func AppointmentIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(appointmentIDContextKey).(string)
	return id, ok
}

// ContextWithUserID injects the user identifier resolved from the request path.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext extracts a user identifier previously associated with the context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDContextKey).(string)
	return id, ok
}
