package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/audreydng/QueueSmart/internal/persistence"
)

type credentialStoreStub struct {
	mu     sync.Mutex
	users  map[string]User
	hashes map[string]string

	createErr error
}

func newCredentialStoreStub() *credentialStoreStub {
	return &credentialStoreStub{
		users:  make(map[string]User),
		hashes: make(map[string]string),
	}
}

func (s *credentialStoreStub) seed(user User, passwordHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	s.hashes[user.Email] = passwordHash
}

func (s *credentialStoreStub) CreateUser(ctx context.Context, user User, passwordHash string) (User, error) {
	if s.createErr != nil {
		return User{}, s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	s.hashes[user.Email] = passwordHash
	return user, nil
}

func (s *credentialStoreStub) GetUser(ctx context.Context, id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (s *credentialStoreStub) GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash, ok := s.hashes[email]
	if !ok {
		return UserCredentials{}, persistence.ErrNotFound
	}
	for _, user := range s.users {
		if user.Email == email {
			return UserCredentials{User: user, PasswordHash: hash}, nil
		}
	}
	return UserCredentials{}, persistence.ErrNotFound
}

type sessionRepoStub struct {
	mu       sync.Mutex
	sessions map[string]Session

	createErr  error
	pruneErr   error
	pruneCalls int
}

func newSessionRepoStub() *sessionRepoStub {
	return &sessionRepoStub{sessions: make(map[string]Session)}
}

func (s *sessionRepoStub) CreateSession(ctx context.Context, session Session) (Session, error) {
	if s.createErr != nil {
		return Session{}, s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = session
	return session, nil
}

func (s *sessionRepoStub) GetSession(ctx context.Context, token string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (s *sessionRepoStub) UpdateSession(ctx context.Context, session Session) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.Token]; !ok {
		return Session{}, persistence.ErrNotFound
	}
	s.sessions[session.Token] = session
	return session, nil
}

func (s *sessionRepoStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	s.sessions[token] = session
	return session, nil
}

func (s *sessionRepoStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneCalls++
	if s.pruneErr != nil {
		return s.pruneErr
	}
	for token, session := range s.sessions {
		if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(reference) {
			delete(s.sessions, token)
		}
	}
	return nil
}

type authHarness struct {
	service     *AuthService
	credentials *credentialStoreStub
	sessions    *sessionRepoStub
	now         time.Time
}

func newAuthHarness(ttl time.Duration) *authHarness {
	credentials := newCredentialStoreStub()
	sessions := newSessionRepoStub()

	idCounter := 0
	idGen := func() string {
		idCounter++
		return fmt.Sprintf("id-%d", idCounter)
	}
	tokenCounter := 0
	tokenGen := func() string {
		tokenCounter++
		return fmt.Sprintf("token-%d", tokenCounter)
	}
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	service := NewAuthService(credentials, sessions, idGen, tokenGen, func() time.Time { return now }, ttl)
	return &authHarness{service: service, credentials: credentials, sessions: sessions, now: now}
}

func (h *authHarness) seedAccount(t *testing.T, id, email, password string, role Role) User {
	t.Helper()
	hash, err := CreatePasswordHash(password, DefaultArgon2idParams)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := User{ID: id, Email: email, Name: "Seed User", Role: role, CreatedAt: h.now, UpdatedAt: h.now}
	h.credentials.seed(user, hash)
	return user
}

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a session for valid credentials", func(t *testing.T) {
		h := newAuthHarness(time.Hour)
		user := h.seedAccount(t, "user-1", "ana@example.com", "correct horse", RoleUser)

		result, err := h.service.Authenticate(ctx, AuthenticateParams{Email: "ana@example.com", Password: "correct horse"})
		if err != nil {
			t.Fatalf("authenticate failed: %v", err)
		}
		if result.User.ID != user.ID {
			t.Fatalf("unexpected user %q", result.User.ID)
		}
		if result.Session.Token == "" {
			t.Fatal("expected a session token")
		}
		if !result.Session.ExpiresAt.Equal(h.now.Add(time.Hour)) {
			t.Fatalf("unexpected expiry %v", result.Session.ExpiresAt)
		}
		if _, err := h.sessions.GetSession(ctx, result.Session.Token); err != nil {
			t.Fatalf("session was not persisted: %v", err)
		}
	})

	t.Run("normalizes the email before lookup", func(t *testing.T) {
		h := newAuthHarness(time.Hour)
		h.seedAccount(t, "user-1", "ana@example.com", "correct horse", RoleUser)

		_, err := h.service.Authenticate(ctx, AuthenticateParams{Email: "  ANA@Example.COM ", Password: "correct horse"})
		if err != nil {
			t.Fatalf("authenticate failed: %v", err)
		}
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		h := newAuthHarness(time.Hour)
		h.seedAccount(t, "user-1", "ana@example.com", "correct horse", RoleUser)

		_, err := h.service.Authenticate(ctx, AuthenticateParams{Email: "ana@example.com", Password: "wrong"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("rejects an unknown email with the same error", func(t *testing.T) {
		h := newAuthHarness(time.Hour)

		_, err := h.service.Authenticate(ctx, AuthenticateParams{Email: "nobody@example.com", Password: "whatever"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("rejects empty credentials", func(t *testing.T) {
		h := newAuthHarness(time.Hour)

		_, err := h.service.Authenticate(ctx, AuthenticateParams{})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the account and logs it in", func(t *testing.T) {
		h := newAuthHarness(time.Hour)

		result, err := h.service.Register(ctx, RegisterParams{
			Email:    "New.User@Example.com",
			Password: "s3cret pass",
			Name:     "  New User  ",
		})
		if err != nil {
			t.Fatalf("register failed: %v", err)
		}
		if result.User.Email != "new.user@example.com" {
			t.Fatalf("expected lowercased email, got %q", result.User.Email)
		}
		if result.User.Name != "New User" {
			t.Fatalf("expected trimmed name, got %q", result.User.Name)
		}
		if result.User.Role != RoleUser {
			t.Fatalf("expected default user role, got %s", result.User.Role)
		}
		if result.Session.Token == "" {
			t.Fatal("expected a session token")
		}

		creds, err := h.credentials.GetUserCredentialsByEmail(ctx, "new.user@example.com")
		if err != nil {
			t.Fatalf("stored credentials lookup failed: %v", err)
		}
		if verifyErr := VerifyPassword(creds.PasswordHash, "s3cret pass"); verifyErr != nil {
			t.Fatalf("stored hash does not verify: %v", verifyErr)
		}
	})

	t.Run("rejects a taken email regardless of case", func(t *testing.T) {
		h := newAuthHarness(time.Hour)
		h.seedAccount(t, "user-1", "ana@example.com", "correct horse", RoleUser)

		_, err := h.service.Register(ctx, RegisterParams{
			Email:    "ANA@example.com",
			Password: "another pass",
			Name:     "Impostor",
		})
		if !errors.Is(err, ErrEmailTaken) {
			t.Fatalf("expected ErrEmailTaken, got %v", err)
		}
	})

	t.Run("collects all field errors", func(t *testing.T) {
		h := newAuthHarness(time.Hour)

		_, err := h.service.Register(ctx, RegisterParams{Role: Role("super")})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"email", "password", "name", "role"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected field error for %q, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("rejects a malformed email", func(t *testing.T) {
		h := newAuthHarness(time.Hour)

		_, err := h.service.Register(ctx, RegisterParams{
			Email:    "not-an-email",
			Password: "pass",
			Name:     "Someone",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["email"]; !ok {
			t.Fatalf("expected email field error, got %v", vErr.FieldErrors)
		}
	})
}

func TestAuthService_ValidateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the principal for a live session", func(t *testing.T) {
		h := newAuthHarness(time.Hour)
		locationID := "loc-1"
		staff := User{ID: "staff-1", Email: "staff@example.com", Name: "Staff", Role: RoleStaff, LocationID: &locationID}
		h.credentials.seed(staff, "unused")
		h.sessions.sessions["tok-1"] = Session{
			ID:        "sess-1",
			UserID:    "staff-1",
			Token:     "tok-1",
			ExpiresAt: h.now.Add(time.Hour),
		}

		principal, err := h.service.ValidateSession(ctx, "tok-1")
		if err != nil {
			t.Fatalf("validate failed: %v", err)
		}
		if principal.UserID != "staff-1" || principal.Role != RoleStaff {
			t.Fatalf("unexpected principal %+v", principal)
		}
		if principal.LocationID == nil || *principal.LocationID != "loc-1" {
			t.Fatalf("expected location assignment, got %v", principal.LocationID)
		}
	})

	t.Run("rejects an expired session", func(t *testing.T) {
		h := newAuthHarness(time.Hour)
		h.sessions.sessions["tok-1"] = Session{UserID: "user-1", Token: "tok-1", ExpiresAt: h.now.Add(-time.Minute)}

		_, err := h.service.ValidateSession(ctx, "tok-1")
		if !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
	})

	t.Run("rejects a revoked session", func(t *testing.T) {
		h := newAuthHarness(time.Hour)
		revokedAt := h.now.Add(-time.Minute)
		h.sessions.sessions["tok-1"] = Session{UserID: "user-1", Token: "tok-1", ExpiresAt: h.now.Add(time.Hour), RevokedAt: &revokedAt}

		_, err := h.service.ValidateSession(ctx, "tok-1")
		if !errors.Is(err, ErrSessionRevoked) {
			t.Fatalf("expected ErrSessionRevoked, got %v", err)
		}
	})

	t.Run("rejects an unknown token", func(t *testing.T) {
		h := newAuthHarness(time.Hour)

		_, err := h.service.ValidateSession(ctx, "missing")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("rejects a blank token", func(t *testing.T) {
		h := newAuthHarness(time.Hour)

		_, err := h.service.ValidateSession(ctx, "   ")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("rejects a session whose user disappeared", func(t *testing.T) {
		h := newAuthHarness(time.Hour)
		h.sessions.sessions["tok-1"] = Session{UserID: "ghost", Token: "tok-1", ExpiresAt: h.now.Add(time.Hour)}

		_, err := h.service.ValidateSession(ctx, "tok-1")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestAuthService_RevokeSession(t *testing.T) {
	ctx := context.Background()

	t.Run("marks the session revoked and prunes expired ones", func(t *testing.T) {
		h := newAuthHarness(time.Hour)
		h.sessions.sessions["tok-1"] = Session{UserID: "user-1", Token: "tok-1", ExpiresAt: h.now.Add(time.Hour)}
		h.sessions.sessions["tok-stale"] = Session{UserID: "user-2", Token: "tok-stale", ExpiresAt: h.now.Add(-time.Hour)}

		if err := h.service.RevokeSession(ctx, "tok-1"); err != nil {
			t.Fatalf("revoke failed: %v", err)
		}

		session, err := h.sessions.GetSession(ctx, "tok-1")
		if err != nil {
			t.Fatalf("session lookup failed: %v", err)
		}
		if session.RevokedAt == nil || !session.RevokedAt.Equal(h.now) {
			t.Fatalf("expected revocation at %v, got %v", h.now, session.RevokedAt)
		}
		if _, err := h.sessions.GetSession(ctx, "tok-stale"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatal("expected the expired session to be pruned")
		}
	})

	t.Run("rejects an unknown token", func(t *testing.T) {
		h := newAuthHarness(time.Hour)

		err := h.service.RevokeSession(ctx, "missing")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("rejects a blank token", func(t *testing.T) {
		h := newAuthHarness(time.Hour)

		err := h.service.RevokeSession(ctx, "")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}
