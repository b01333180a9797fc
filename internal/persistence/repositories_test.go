package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/audreydng/QueueSmart/internal/persistence"
	"github.com/audreydng/QueueSmart/internal/testfixtures"
)

func TestUserRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)
	defer harness.Close()

	base := testfixtures.ReferenceTime()
	user := testfixtures.NewUserFixture(
		testfixtures.WithUserID("user-1"),
		testfixtures.WithUserEmail("alice@example.com"),
		testfixtures.WithUserName("Alice"),
		testfixtures.WithUserPasswordHash("hash"),
		testfixtures.WithUserTimestamps(base, base),
	).Persistence()

	if err := harness.Users.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	fetched, err := harness.Users.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if fetched.Email != "alice@example.com" || fetched.Name != "Alice" {
		t.Fatalf("unexpected user: %#v", fetched)
	}

	fetched.Name = "Alice Updated"
	if err := harness.Users.UpdateUser(ctx, fetched); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	fetched, err = harness.Users.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if fetched.Name != "Alice Updated" {
		t.Fatalf("unexpected name after update: %q", fetched.Name)
	}

	if err := harness.Users.DeleteUser(ctx, "user-1"); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if _, err := harness.Users.GetUser(ctx, "user-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestQueueRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)
	defer harness.Close()

	user := testfixtures.NewUserFixture(testfixtures.WithUserID("user-1")).Persistence()
	if err := harness.Users.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	location := testfixtures.NewLocationFixture(testfixtures.WithLocationID("loc-1")).Persistence()
	if err := harness.Locations.CreateLocation(ctx, location); err != nil {
		t.Fatalf("CreateLocation failed: %v", err)
	}

	entry := testfixtures.NewEntryFixture(
		testfixtures.WithEntryID("entry-1"),
		testfixtures.WithEntryUser("user-1"),
		testfixtures.WithEntryLocation("loc-1"),
		testfixtures.WithEntryPosition(1),
	).Persistence()
	if err := harness.Queue.CreateEntry(ctx, entry); err != nil {
		t.Fatalf("CreateEntry failed: %v", err)
	}

	active, err := harness.Queue.ListActiveEntries(ctx, "loc-1")
	if err != nil {
		t.Fatalf("ListActiveEntries failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != "entry-1" {
		t.Fatalf("unexpected active entries: %#v", active)
	}

	entry.Status = "served"
	servedAt := testfixtures.ReferenceTime().Add(time.Hour)
	entry.ServedAt = &servedAt
	if err := harness.Queue.UpdateEntry(ctx, entry); err != nil {
		t.Fatalf("UpdateEntry failed: %v", err)
	}
	if _, err := harness.Queue.ActiveEntryForUser(ctx, "user-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected no active entry after serving, got %v", err)
	}
}

func TestSessionRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)
	defer harness.Close()

	user := testfixtures.NewUserFixture(testfixtures.WithUserID("user-1")).Persistence()
	if err := harness.Users.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	session := testfixtures.NewSessionFixture(
		testfixtures.WithSessionUser("user-1"),
		testfixtures.WithSessionToken("tok-1"),
	).Persistence()
	if _, err := harness.Sessions.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	fetched, err := harness.Sessions.GetSession(ctx, "tok-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if fetched.UserID != "user-1" {
		t.Fatalf("unexpected session user %q", fetched.UserID)
	}

	revokedAt := testfixtures.ReferenceTime().Add(time.Hour)
	revoked, err := harness.Sessions.RevokeSession(ctx, "tok-1", revokedAt)
	if err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if revoked.RevokedAt == nil {
		t.Fatal("expected a revocation timestamp")
	}
}
