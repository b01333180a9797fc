package main

import (
	"context"
	"time"

	"github.com/audreydng/QueueSmart/internal/application"
	"github.com/audreydng/QueueSmart/internal/persistence"
)

// The adapters below translate between the persistence models and the
// application models so the services never see storage concerns.

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUserByEmail(ctx context.Context, email string) (application.User, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *userRepositoryAdapter) DeleteUser(ctx context.Context, id string) error {
	return a.repo.DeleteUser(ctx, id)
}

func (a *userRepositoryAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

type locationRepositoryAdapter struct {
	repo persistence.LocationRepository
}

func newLocationRepositoryAdapter(repo persistence.LocationRepository) *locationRepositoryAdapter {
	return &locationRepositoryAdapter{repo: repo}
}

func (a *locationRepositoryAdapter) CreateLocation(ctx context.Context, location application.Location) (application.Location, error) {
	if err := a.repo.CreateLocation(ctx, toPersistenceLocation(location)); err != nil {
		return application.Location{}, err
	}
	stored, err := a.repo.GetLocation(ctx, location.ID)
	if err != nil {
		return application.Location{}, err
	}
	return toApplicationLocation(stored), nil
}

func (a *locationRepositoryAdapter) UpdateLocation(ctx context.Context, location application.Location) (application.Location, error) {
	if err := a.repo.UpdateLocation(ctx, toPersistenceLocation(location)); err != nil {
		return application.Location{}, err
	}
	stored, err := a.repo.GetLocation(ctx, location.ID)
	if err != nil {
		return application.Location{}, err
	}
	return toApplicationLocation(stored), nil
}

func (a *locationRepositoryAdapter) GetLocation(ctx context.Context, id string) (application.Location, error) {
	stored, err := a.repo.GetLocation(ctx, id)
	if err != nil {
		return application.Location{}, err
	}
	return toApplicationLocation(stored), nil
}

func (a *locationRepositoryAdapter) ListLocations(ctx context.Context) ([]application.Location, error) {
	models, err := a.repo.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	locations := make([]application.Location, 0, len(models))
	for _, model := range models {
		locations = append(locations, toApplicationLocation(model))
	}
	return locations, nil
}

type queueRepositoryAdapter struct {
	repo persistence.QueueRepository
}

func newQueueRepositoryAdapter(repo persistence.QueueRepository) *queueRepositoryAdapter {
	return &queueRepositoryAdapter{repo: repo}
}

func (a *queueRepositoryAdapter) CreateEntry(ctx context.Context, entry application.QueueEntry) (application.QueueEntry, error) {
	if err := a.repo.CreateEntry(ctx, toPersistenceEntry(entry)); err != nil {
		return application.QueueEntry{}, err
	}
	stored, err := a.repo.GetEntry(ctx, entry.ID)
	if err != nil {
		return application.QueueEntry{}, err
	}
	return toApplicationEntry(stored), nil
}

func (a *queueRepositoryAdapter) GetEntry(ctx context.Context, id string) (application.QueueEntry, error) {
	stored, err := a.repo.GetEntry(ctx, id)
	if err != nil {
		return application.QueueEntry{}, err
	}
	return toApplicationEntry(stored), nil
}

func (a *queueRepositoryAdapter) UpdateEntry(ctx context.Context, entry application.QueueEntry) (application.QueueEntry, error) {
	if err := a.repo.UpdateEntry(ctx, toPersistenceEntry(entry)); err != nil {
		return application.QueueEntry{}, err
	}
	stored, err := a.repo.GetEntry(ctx, entry.ID)
	if err != nil {
		return application.QueueEntry{}, err
	}
	return toApplicationEntry(stored), nil
}

func (a *queueRepositoryAdapter) UpdateEntries(ctx context.Context, entries []application.QueueEntry) error {
	if len(entries) == 0 {
		return nil
	}
	models := make([]persistence.QueueEntry, 0, len(entries))
	for _, entry := range entries {
		models = append(models, toPersistenceEntry(entry))
	}
	return a.repo.UpdateEntries(ctx, models)
}

func (a *queueRepositoryAdapter) ListActiveEntries(ctx context.Context, locationID string) ([]application.QueueEntry, error) {
	models, err := a.repo.ListActiveEntries(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	entries := make([]application.QueueEntry, 0, len(models))
	for _, model := range models {
		entries = append(entries, toApplicationEntry(model))
	}
	return entries, nil
}

func (a *queueRepositoryAdapter) ActiveEntryForUser(ctx context.Context, userID string) (application.QueueEntry, error) {
	stored, err := a.repo.ActiveEntryForUser(ctx, userID)
	if err != nil {
		return application.QueueEntry{}, err
	}
	return toApplicationEntry(stored), nil
}

func (a *queueRepositoryAdapter) ActiveLocationIDs(ctx context.Context) ([]string, error) {
	return a.repo.ActiveLocationIDs(ctx)
}

type historyRepositoryAdapter struct {
	repo persistence.HistoryRepository
}

func newHistoryRepositoryAdapter(repo persistence.HistoryRepository) *historyRepositoryAdapter {
	return &historyRepositoryAdapter{repo: repo}
}

func (a *historyRepositoryAdapter) CreateHistory(ctx context.Context, entry application.HistoryEntry) (application.HistoryEntry, error) {
	if err := a.repo.CreateHistory(ctx, toPersistenceHistory(entry)); err != nil {
		return application.HistoryEntry{}, err
	}
	return entry, nil
}

func (a *historyRepositoryAdapter) ListHistoryForUser(ctx context.Context, userID string) ([]application.HistoryEntry, error) {
	models, err := a.repo.ListHistoryForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toApplicationHistoryList(models), nil
}

func (a *historyRepositoryAdapter) ListHistorySince(ctx context.Context, since time.Time) ([]application.HistoryEntry, error) {
	models, err := a.repo.ListHistorySince(ctx, since)
	if err != nil {
		return nil, err
	}
	return toApplicationHistoryList(models), nil
}

type notificationRepositoryAdapter struct {
	repo persistence.NotificationRepository
}

func newNotificationRepositoryAdapter(repo persistence.NotificationRepository) *notificationRepositoryAdapter {
	return &notificationRepositoryAdapter{repo: repo}
}

func (a *notificationRepositoryAdapter) CreateNotification(ctx context.Context, notification application.Notification) (application.Notification, error) {
	if err := a.repo.CreateNotification(ctx, toPersistenceNotification(notification)); err != nil {
		return application.Notification{}, err
	}
	return notification, nil
}

func (a *notificationRepositoryAdapter) GetNotification(ctx context.Context, id string) (application.Notification, error) {
	stored, err := a.repo.GetNotification(ctx, id)
	if err != nil {
		return application.Notification{}, err
	}
	return toApplicationNotification(stored), nil
}

func (a *notificationRepositoryAdapter) UpdateNotification(ctx context.Context, notification application.Notification) (application.Notification, error) {
	if err := a.repo.UpdateNotification(ctx, toPersistenceNotification(notification)); err != nil {
		return application.Notification{}, err
	}
	stored, err := a.repo.GetNotification(ctx, notification.ID)
	if err != nil {
		return application.Notification{}, err
	}
	return toApplicationNotification(stored), nil
}

func (a *notificationRepositoryAdapter) ListNotificationsForUser(ctx context.Context, userID string) ([]application.Notification, error) {
	models, err := a.repo.ListNotificationsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	notifications := make([]application.Notification, 0, len(models))
	for _, model := range models {
		notifications = append(notifications, toApplicationNotification(model))
	}
	return notifications, nil
}

type appointmentRepositoryAdapter struct {
	repo persistence.AppointmentRepository
}

func newAppointmentRepositoryAdapter(repo persistence.AppointmentRepository) *appointmentRepositoryAdapter {
	return &appointmentRepositoryAdapter{repo: repo}
}

func (a *appointmentRepositoryAdapter) CreateAppointment(ctx context.Context, appointment application.Appointment) (application.Appointment, error) {
	if err := a.repo.CreateAppointment(ctx, toPersistenceAppointment(appointment)); err != nil {
		return application.Appointment{}, err
	}
	return appointment, nil
}

func (a *appointmentRepositoryAdapter) GetAppointment(ctx context.Context, id string) (application.Appointment, error) {
	stored, err := a.repo.GetAppointment(ctx, id)
	if err != nil {
		return application.Appointment{}, err
	}
	return toApplicationAppointment(stored), nil
}

func (a *appointmentRepositoryAdapter) UpdateAppointment(ctx context.Context, appointment application.Appointment) (application.Appointment, error) {
	if err := a.repo.UpdateAppointment(ctx, toPersistenceAppointment(appointment)); err != nil {
		return application.Appointment{}, err
	}
	stored, err := a.repo.GetAppointment(ctx, appointment.ID)
	if err != nil {
		return application.Appointment{}, err
	}
	return toApplicationAppointment(stored), nil
}

func (a *appointmentRepositoryAdapter) ListAppointmentsForUser(ctx context.Context, userID string) ([]application.Appointment, error) {
	models, err := a.repo.ListAppointmentsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toApplicationAppointmentList(models), nil
}

func (a *appointmentRepositoryAdapter) ListAppointmentsForLocationDate(ctx context.Context, locationID, date string) ([]application.Appointment, error) {
	models, err := a.repo.ListAppointmentsForLocationDate(ctx, locationID, date)
	if err != nil {
		return nil, err
	}
	return toApplicationAppointmentList(models), nil
}

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.UpdateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.repo.DeleteExpiredSessions(ctx, reference)
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:         model.ID,
		Email:      model.Email,
		Name:       model.Name,
		Role:       application.Role(model.Role),
		LocationID: cloneString(model.LocationID),
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         string(user.Role),
		LocationID:   cloneString(user.LocationID),
		PasswordHash: passwordHash,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationLocation(model persistence.Location) application.Location {
	return application.Location{
		ID:               model.ID,
		Name:             model.Name,
		ZipCode:          model.ZipCode,
		Description:      model.Description,
		ExpectedDuration: model.ExpectedDuration,
		Priority:         application.Priority(model.Priority),
		IsOpen:           model.IsOpen,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

func toPersistenceLocation(location application.Location) persistence.Location {
	return persistence.Location{
		ID:               location.ID,
		Name:             location.Name,
		ZipCode:          location.ZipCode,
		Description:      location.Description,
		ExpectedDuration: location.ExpectedDuration,
		Priority:         string(location.Priority),
		IsOpen:           location.IsOpen,
		CreatedAt:        location.CreatedAt,
		UpdatedAt:        location.UpdatedAt,
	}
}

func toApplicationEntry(model persistence.QueueEntry) application.QueueEntry {
	return application.QueueEntry{
		ID:         model.ID,
		UserID:     model.UserID,
		LocationID: model.LocationID,
		Position:   model.Position,
		Status:     application.QueueStatus(model.Status),
		JoinedAt:   model.JoinedAt,
		ServedAt:   cloneTime(model.ServedAt),
	}
}

func toPersistenceEntry(entry application.QueueEntry) persistence.QueueEntry {
	return persistence.QueueEntry{
		ID:         entry.ID,
		UserID:     entry.UserID,
		LocationID: entry.LocationID,
		Position:   entry.Position,
		Status:     string(entry.Status),
		JoinedAt:   entry.JoinedAt,
		ServedAt:   cloneTime(entry.ServedAt),
	}
}

func toApplicationHistory(model persistence.HistoryEntry) application.HistoryEntry {
	return application.HistoryEntry{
		ID:            model.ID,
		UserID:        model.UserID,
		LocationID:    model.LocationID,
		LocationLabel: model.LocationLabel,
		Status:        application.QueueStatus(model.Status),
		JoinedAt:      model.JoinedAt,
		CompletedAt:   model.CompletedAt,
	}
}

func toPersistenceHistory(entry application.HistoryEntry) persistence.HistoryEntry {
	return persistence.HistoryEntry{
		ID:            entry.ID,
		UserID:        entry.UserID,
		LocationID:    entry.LocationID,
		LocationLabel: entry.LocationLabel,
		Status:        string(entry.Status),
		JoinedAt:      entry.JoinedAt,
		CompletedAt:   entry.CompletedAt,
	}
}

func toApplicationHistoryList(models []persistence.HistoryEntry) []application.HistoryEntry {
	if len(models) == 0 {
		return nil
	}
	entries := make([]application.HistoryEntry, 0, len(models))
	for _, model := range models {
		entries = append(entries, toApplicationHistory(model))
	}
	return entries
}

func toApplicationNotification(model persistence.Notification) application.Notification {
	return application.Notification{
		ID:        model.ID,
		UserID:    model.UserID,
		Title:     model.Title,
		Message:   model.Message,
		Read:      model.Read,
		CreatedAt: model.CreatedAt,
	}
}

func toPersistenceNotification(notification application.Notification) persistence.Notification {
	return persistence.Notification{
		ID:        notification.ID,
		UserID:    notification.UserID,
		Title:     notification.Title,
		Message:   notification.Message,
		Read:      notification.Read,
		CreatedAt: notification.CreatedAt,
	}
}

func toApplicationAppointment(model persistence.Appointment) application.Appointment {
	return application.Appointment{
		ID:         model.ID,
		UserID:     model.UserID,
		LocationID: model.LocationID,
		Date:       model.Date,
		Time:       model.Time,
		Duration:   model.Duration,
		Status:     application.AppointmentStatus(model.Status),
		CreatedAt:  model.CreatedAt,
	}
}

func toPersistenceAppointment(appointment application.Appointment) persistence.Appointment {
	return persistence.Appointment{
		ID:         appointment.ID,
		UserID:     appointment.UserID,
		LocationID: appointment.LocationID,
		Date:       appointment.Date,
		Time:       appointment.Time,
		Duration:   appointment.Duration,
		Status:     string(appointment.Status),
		CreatedAt:  appointment.CreatedAt,
	}
}

func toApplicationAppointmentList(models []persistence.Appointment) []application.Appointment {
	if len(models) == 0 {
		return nil
	}
	appointments := make([]application.Appointment, 0, len(models))
	for _, model := range models {
		appointments = append(appointments, toApplicationAppointment(model))
	}
	return appointments
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:        model.ID,
		UserID:    model.UserID,
		Token:     model.Token,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
		RevokedAt: cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: cloneTime(session.RevokedAt),
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
