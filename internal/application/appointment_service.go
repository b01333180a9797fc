package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// AppointmentRepository captures the persistence operations needed by the appointment service.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appointment Appointment) (Appointment, error)
	GetAppointment(ctx context.Context, id string) (Appointment, error)
	UpdateAppointment(ctx context.Context, appointment Appointment) (Appointment, error)
	ListAppointmentsForUser(ctx context.Context, userID string) ([]Appointment, error)
	ListAppointmentsForLocationDate(ctx context.Context, locationID, date string) ([]Appointment, error)
}

// TimeSlots is the fixed set of bookable slot labels offered every day.
var TimeSlots = []string{
	"09:00", "10:00", "11:00", "12:00", "13:00",
	"14:00", "15:00", "16:00", "17:00", "18:00",
}

const appointmentDateLayout = "2006-01-02"

// AppointmentService handles slot offering, booking, and cancellation.
// Appointments are independent of the queue subsystem; the only conflict rule
// is that an exact (location, date, time) combination already booked as
// upcoming is not offered or accepted again.
type AppointmentService struct {
	appointments AppointmentRepository
	locations    LocationDirectory
	recorder     *Recorder
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewAppointmentService wires dependencies for the appointment service.
func NewAppointmentService(appointments AppointmentRepository, locations LocationDirectory, recorder *Recorder, idGenerator func() string, now func() time.Time) *AppointmentService {
	return NewAppointmentServiceWithLogger(appointments, locations, recorder, idGenerator, now, nil)
}

// NewAppointmentServiceWithLogger constructs an appointment service with a specified logger.
func NewAppointmentServiceWithLogger(appointments AppointmentRepository, locations LocationDirectory, recorder *Recorder, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AppointmentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AppointmentService{
		appointments: appointments,
		locations:    locations,
		recorder:     recorder,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *AppointmentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AppointmentService", operation, attrs...)
}

// Book creates an upcoming appointment for the principal. The slot duration is
// taken from the location's expected service duration.
func (s *AppointmentService) Book(ctx context.Context, params BookAppointmentParams) (appointment Appointment, err error) {
	if s == nil {
		err = fmt.Errorf("AppointmentService is nil")
		return
	}
	if s.appointments == nil || s.locations == nil {
		err = fmt.Errorf("appointment repositories not configured")
		return
	}

	logger := s.loggerWith(ctx, "Book",
		"principal_id", params.Principal.UserID,
		"location_id", params.LocationID,
		"date", params.Date,
		"time", params.Time,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to book appointment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("appointment_id", appointment.ID).InfoContext(ctx, "appointment booked")
	}()

	date := strings.TrimSpace(params.Date)
	slot := strings.TrimSpace(params.Time)

	vErr := &ValidationError{}
	if _, parseErr := time.Parse(appointmentDateLayout, date); parseErr != nil {
		vErr.add("date", "date must use the YYYY-MM-DD format")
	}
	if !validSlot(slot) {
		vErr.add("time", "time is not an offered slot")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var location Location
	location, err = s.locations.GetLocation(ctx, params.LocationID)
	if err != nil {
		err = mapLookupError(err)
		return
	}

	var existing []Appointment
	existing, err = s.appointments.ListAppointmentsForLocationDate(ctx, location.ID, date)
	if err != nil {
		return
	}
	for _, candidate := range existing {
		if candidate.Status == AppointmentUpcoming && candidate.Time == slot {
			vErr.add("time", "time slot is already booked")
			err = vErr
			return
		}
	}

	appointment = Appointment{
		ID:         s.idGenerator(),
		UserID:     params.Principal.UserID,
		LocationID: location.ID,
		Date:       date,
		Time:       slot,
		Duration:   location.ExpectedDuration,
		Status:     AppointmentUpcoming,
		CreatedAt:  s.now(),
	}

	appointment, err = s.appointments.CreateAppointment(ctx, appointment)
	if err != nil {
		return
	}

	_, err = s.recorder.Notify(ctx, params.Principal.UserID, "Appointment Booked",
		fmt.Sprintf("Your appointment for %s on %s at %s has been confirmed.", location.Label(), date, slot))
	return
}

// Cancel marks an upcoming appointment as cancelled. Only the owner or an
// operator may cancel, and only while the appointment is still upcoming.
func (s *AppointmentService) Cancel(ctx context.Context, principal Principal, appointmentID string) (err error) {
	if s == nil {
		return fmt.Errorf("AppointmentService is nil")
	}
	if s.appointments == nil {
		return fmt.Errorf("appointment repository not configured")
	}

	logger := s.loggerWith(ctx, "Cancel",
		"principal_id", principal.UserID,
		"appointment_id", appointmentID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel appointment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "appointment cancelled")
	}()

	appointment, err := s.appointments.GetAppointment(ctx, appointmentID)
	if err != nil {
		return mapLookupError(err)
	}
	if appointment.UserID != principal.UserID && !principal.IsOperator() {
		return ErrUnauthorized
	}
	if appointment.Status != AppointmentUpcoming {
		return ErrNotActive
	}

	appointment.Status = AppointmentCancelled
	if _, err = s.appointments.UpdateAppointment(ctx, appointment); err != nil {
		return err
	}

	_, err = s.recorder.Notify(ctx, appointment.UserID, "Appointment Cancelled", "Your appointment has been cancelled.")
	return err
}

// AppointmentsForUser returns the principal's appointments ordered by date
// then slot.
func (s *AppointmentService) AppointmentsForUser(ctx context.Context, principal Principal) ([]Appointment, error) {
	if s == nil || s.appointments == nil {
		return nil, fmt.Errorf("appointment repository not configured")
	}

	appointments, err := s.appointments.ListAppointmentsForUser(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	out := make([]Appointment, len(appointments))
	copy(out, appointments)

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

// AvailableSlots returns the slot labels still offered for a location on a
// given date: the fixed daily slots minus exact matches already booked as
// upcoming.
func (s *AppointmentService) AvailableSlots(ctx context.Context, locationID, date string) ([]string, error) {
	if s == nil || s.appointments == nil || s.locations == nil {
		return nil, fmt.Errorf("appointment repositories not configured")
	}

	trimmed := strings.TrimSpace(date)
	if _, err := time.Parse(appointmentDateLayout, trimmed); err != nil {
		vErr := &ValidationError{}
		vErr.add("date", "date must use the YYYY-MM-DD format")
		return nil, vErr
	}

	if _, err := s.locations.GetLocation(ctx, locationID); err != nil {
		return nil, mapLookupError(err)
	}

	booked, err := s.appointments.ListAppointmentsForLocationDate(ctx, locationID, trimmed)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]bool, len(booked))
	for _, appointment := range booked {
		if appointment.Status == AppointmentUpcoming {
			taken[appointment.Time] = true
		}
	}

	available := make([]string, 0, len(TimeSlots))
	for _, slot := range TimeSlots {
		if !taken[slot] {
			available = append(available, slot)
		}
	}
	return available, nil
}

func validSlot(slot string) bool {
	for _, candidate := range TimeSlots {
		if candidate == slot {
			return true
		}
	}
	return false
}
