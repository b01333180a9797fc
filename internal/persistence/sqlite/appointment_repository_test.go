package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/audreydng/QueueSmart/internal/persistence"
)

func seedAppointment(t *testing.T, repo *AppointmentRepository, id, userID, locationID, date, slot, status string) persistence.Appointment {
	t.Helper()

	appointment := persistence.Appointment{
		ID:         id,
		UserID:     userID,
		LocationID: locationID,
		Date:       date,
		Time:       slot,
		Duration:   15,
		Status:     status,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	if err := repo.CreateAppointment(context.Background(), appointment); err != nil {
		t.Fatalf("failed to seed appointment %s: %v", id, err)
	}
	return appointment
}

func TestAppointmentRepository_CreateAndGet(t *testing.T) {
	pool := newTestPool(t)
	repo := NewAppointmentRepository(pool)
	ctx := context.Background()

	seedLocation(t, pool, "loc-1", "Houston Service Center")
	seedAppointment(t, repo, "appt-1", "user-1", "loc-1", "2026-03-10", "10:00", "upcoming")

	fetched, err := repo.GetAppointment(ctx, "appt-1")
	if err != nil {
		t.Fatalf("GetAppointment failed: %v", err)
	}
	if fetched.Date != "2026-03-10" || fetched.Time != "10:00" {
		t.Fatalf("unexpected appointment: %#v", fetched)
	}
	if fetched.Duration != 15 {
		t.Fatalf("expected duration 15, got %d", fetched.Duration)
	}

	if _, err := repo.GetAppointment(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppointmentRepository_UpdateAppointment(t *testing.T) {
	pool := newTestPool(t)
	repo := NewAppointmentRepository(pool)
	ctx := context.Background()

	seedLocation(t, pool, "loc-1", "Houston Service Center")
	appointment := seedAppointment(t, repo, "appt-1", "user-1", "loc-1", "2026-03-10", "10:00", "upcoming")

	appointment.Status = "cancelled"
	if err := repo.UpdateAppointment(ctx, appointment); err != nil {
		t.Fatalf("UpdateAppointment failed: %v", err)
	}

	fetched, err := repo.GetAppointment(ctx, "appt-1")
	if err != nil {
		t.Fatalf("GetAppointment failed: %v", err)
	}
	if fetched.Status != "cancelled" {
		t.Fatalf("expected cancelled status, got %q", fetched.Status)
	}
}

func TestAppointmentRepository_ListAppointmentsForUser(t *testing.T) {
	pool := newTestPool(t)
	repo := NewAppointmentRepository(pool)
	ctx := context.Background()

	seedLocation(t, pool, "loc-1", "Houston Service Center")
	seedAppointment(t, repo, "appt-1", "user-1", "loc-1", "2026-03-12", "09:00", "upcoming")
	seedAppointment(t, repo, "appt-2", "user-1", "loc-1", "2026-03-10", "15:00", "upcoming")
	seedAppointment(t, repo, "appt-3", "user-2", "loc-1", "2026-03-10", "09:00", "upcoming")

	appointments, err := repo.ListAppointmentsForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListAppointmentsForUser failed: %v", err)
	}
	if len(appointments) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(appointments))
	}
	if appointments[0].ID != "appt-2" || appointments[1].ID != "appt-1" {
		t.Fatalf("expected date order, got %s, %s", appointments[0].ID, appointments[1].ID)
	}
}

func TestAppointmentRepository_ListAppointmentsForLocationDate(t *testing.T) {
	pool := newTestPool(t)
	repo := NewAppointmentRepository(pool)
	ctx := context.Background()

	seedLocation(t, pool, "loc-1", "Houston Service Center")
	seedLocation(t, pool, "loc-2", "Pasadena Service Center")
	seedAppointment(t, repo, "appt-1", "user-1", "loc-1", "2026-03-10", "10:00", "upcoming")
	seedAppointment(t, repo, "appt-2", "user-2", "loc-1", "2026-03-10", "09:00", "cancelled")
	seedAppointment(t, repo, "appt-3", "user-3", "loc-1", "2026-03-11", "10:00", "upcoming")
	seedAppointment(t, repo, "appt-4", "user-4", "loc-2", "2026-03-10", "10:00", "upcoming")

	appointments, err := repo.ListAppointmentsForLocationDate(ctx, "loc-1", "2026-03-10")
	if err != nil {
		t.Fatalf("ListAppointmentsForLocationDate failed: %v", err)
	}
	if len(appointments) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(appointments))
	}
	if appointments[0].ID != "appt-2" || appointments[1].ID != "appt-1" {
		t.Fatalf("expected slot order, got %s, %s", appointments[0].ID, appointments[1].ID)
	}
}
