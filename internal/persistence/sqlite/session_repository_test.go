package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/audreydng/QueueSmart/internal/persistence"
)

func TestSessionRepository_CreateAndGet(t *testing.T) {
	pool := newTestPool(t)
	repo := NewSessionRepository(pool)
	ctx := context.Background()

	seedUser(t, pool, "user-1", "ana@example.com")

	now := time.Now().UTC().Truncate(time.Second)
	session := persistence.Session{
		ID:        "sess-1",
		UserID:    "user-1",
		Token:     "tok-1",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := repo.CreateSession(ctx, session)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if created.Token != "tok-1" {
		t.Fatalf("unexpected token %q", created.Token)
	}

	fetched, err := repo.GetSession(ctx, "tok-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if fetched.UserID != "user-1" {
		t.Fatalf("unexpected user %q", fetched.UserID)
	}
	if !fetched.ExpiresAt.Equal(session.ExpiresAt) {
		t.Fatalf("expected expiry %v, got %v", session.ExpiresAt, fetched.ExpiresAt)
	}
	if fetched.RevokedAt != nil {
		t.Fatalf("expected no revocation, got %v", fetched.RevokedAt)
	}

	if _, err := repo.GetSession(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_RevokeSession(t *testing.T) {
	pool := newTestPool(t)
	repo := NewSessionRepository(pool)
	ctx := context.Background()

	seedUser(t, pool, "user-1", "ana@example.com")

	now := time.Now().UTC().Truncate(time.Second)
	if _, err := repo.CreateSession(ctx, persistence.Session{
		ID:        "sess-1",
		UserID:    "user-1",
		Token:     "tok-1",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	revokedAt := now.Add(time.Minute)
	revoked, err := repo.RevokeSession(ctx, "tok-1", revokedAt)
	if err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if revoked.RevokedAt == nil || !revoked.RevokedAt.Equal(revokedAt) {
		t.Fatalf("expected revocation at %v, got %v", revokedAt, revoked.RevokedAt)
	}

	if _, err := repo.RevokeSession(ctx, "missing", revokedAt); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_DeleteExpiredSessions(t *testing.T) {
	pool := newTestPool(t)
	repo := NewSessionRepository(pool)
	ctx := context.Background()

	seedUser(t, pool, "user-1", "ana@example.com")

	now := time.Now().UTC().Truncate(time.Second)
	sessions := []persistence.Session{
		{ID: "sess-live", UserID: "user-1", Token: "tok-live", ExpiresAt: now.Add(time.Hour), CreatedAt: now, UpdatedAt: now},
		{ID: "sess-stale", UserID: "user-1", Token: "tok-stale", ExpiresAt: now.Add(-time.Hour), CreatedAt: now, UpdatedAt: now},
	}
	for _, session := range sessions {
		if _, err := repo.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession failed for %s: %v", session.ID, err)
		}
	}

	if err := repo.DeleteExpiredSessions(ctx, now); err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}

	if _, err := repo.GetSession(ctx, "tok-live"); err != nil {
		t.Fatalf("expected the live session to survive: %v", err)
	}
	if _, err := repo.GetSession(ctx, "tok-stale"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected the stale session to be deleted, got %v", err)
	}
}

func TestSessionRepository_DuplicateToken(t *testing.T) {
	pool := newTestPool(t)
	repo := NewSessionRepository(pool)
	ctx := context.Background()

	seedUser(t, pool, "user-1", "ana@example.com")

	now := time.Now().UTC().Truncate(time.Second)
	session := persistence.Session{
		ID:        "sess-1",
		UserID:    "user-1",
		Token:     "tok-1",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := repo.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	session.ID = "sess-2"
	if _, err := repo.CreateSession(ctx, session); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}
