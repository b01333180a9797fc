package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/audreydng/QueueSmart/internal/application"
	"github.com/audreydng/QueueSmart/internal/config"
	httptransport "github.com/audreydng/QueueSmart/internal/http"
	"github.com/audreydng/QueueSmart/internal/persistence"
	"github.com/audreydng/QueueSmart/internal/persistence/memory"
	"github.com/audreydng/QueueSmart/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	repos, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	userRepo := newUserRepositoryAdapter(repos.users)
	locationRepo := newLocationRepositoryAdapter(repos.locations)
	queueRepo := newQueueRepositoryAdapter(repos.queue)
	historyRepo := newHistoryRepositoryAdapter(repos.history)
	notificationRepo := newNotificationRepositoryAdapter(repos.notifications)
	appointmentRepo := newAppointmentRepositoryAdapter(repos.appointments)
	sessionRepo := newSessionRepositoryAdapter(repos.sessions)

	recorder := application.NewRecorder(notificationRepo, historyRepo, idGenerator, now, logger)

	locationService := application.NewLocationServiceWithLogger(locationRepo, idGenerator, now, logger)
	queueService := application.NewQueueServiceWithLogger(queueRepo, locationRepo, recorder, idGenerator, now, logger)
	userService := application.NewUserServiceWithLogger(userRepo, nil, idGenerator, now, logger)
	authService := application.NewAuthServiceWithLogger(userRepo, sessionRepo, idGenerator, tokenGenerator, now, cfg.SessionTTL, logger)
	appointmentService := application.NewAppointmentServiceWithLogger(appointmentRepo, locationRepo, recorder, idGenerator, now, logger)
	notificationService := application.NewNotificationServiceWithLogger(notificationRepo, logger)
	statsService := application.NewStatsServiceWithLogger(historyRepo, queueRepo, locationRepo, now, logger)

	if cfg.SeedDemoData {
		if err := seedDemoData(ctx, repos, logger); err != nil {
			logger.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:          httptransport.NewAuthHandler(authService, logger),
		Locations:     httptransport.NewLocationHandler(locationService, logger),
		Queue:         httptransport.NewQueueHandler(queueService, userService, logger),
		Notifications: httptransport.NewNotificationHandler(notificationService, logger),
		Appointments:  httptransport.NewAppointmentHandler(appointmentService, logger),
		Staff:         httptransport.NewStaffHandler(userService, logger),
		Stats:         httptransport.NewStatsHandler(statsService, logger),
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r) {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	go promoteReadyLoop(ctx, queueService, cfg.PromotionInterval, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("QueueSmart API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// isPublicPath reports whether a request may skip session validation. Login
// and registration are the only unauthenticated operations.
func isPublicPath(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}
	return r.URL.Path == "/sessions" || r.URL.Path == "/register"
}

type repositories struct {
	users         persistence.UserRepository
	locations     persistence.LocationRepository
	queue         persistence.QueueRepository
	history       persistence.HistoryRepository
	notifications persistence.NotificationRepository
	appointments  persistence.AppointmentRepository
	sessions      persistence.SessionRepository
}

// openStore selects the persistence backend from the configured DSN. An empty
// DSN runs on the in-memory store, which is useful for demos and local
// development.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (repositories, func() error, error) {
	if cfg.SQLiteDSN == "" {
		logger.Info("using in-memory store")
		store := memory.Open()
		return repositories{
			users:         store,
			locations:     store,
			queue:         store,
			history:       store,
			notifications: store,
			appointments:  store,
			sessions:      store,
		}, store.Close, nil
	}

	pool, err := sqlite.NewConnectionPool(sqlite.DefaultConfig(cfg.SQLiteDSN))
	if err != nil {
		return repositories{}, nil, err
	}
	if err := pool.Migrate(ctx); err != nil {
		_ = pool.Close()
		return repositories{}, nil, err
	}

	logger.Info("using sqlite store", "dsn", cfg.SQLiteDSN)
	return repositories{
		users:         sqlite.NewUserRepository(pool),
		locations:     sqlite.NewLocationRepository(pool),
		queue:         sqlite.NewQueueRepository(pool),
		history:       sqlite.NewHistoryRepository(pool),
		notifications: sqlite.NewNotificationRepository(pool),
		appointments:  sqlite.NewAppointmentRepository(pool),
		sessions:      sqlite.NewSessionRepository(pool),
	}, pool.Close, nil
}

// seedDemoData provisions the demo administrator and a handful of locations
// when the store is empty.
func seedDemoData(ctx context.Context, repos repositories, logger *slog.Logger) error {
	existing, err := repos.users.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Info("skipping demo seed, store already populated")
		return nil
	}

	now := time.Now().UTC()

	hash, err := application.CreatePasswordHash("admin123!", application.DefaultArgon2idParams)
	if err != nil {
		return err
	}
	admin := persistence.User{
		ID:           uuid.NewString(),
		Email:        "admin@queuesmart.example",
		Name:         "Administrator",
		Role:         string(application.RoleAdministrator),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repos.users.CreateUser(ctx, admin); err != nil {
		return err
	}

	locations := []persistence.Location{
		{Name: "Houston Service Center", ZipCode: "77002", Description: "Downtown Houston walk-in center", ExpectedDuration: 15, Priority: string(application.PriorityHigh)},
		{Name: "Pasadena Service Center", ZipCode: "77501", Description: "Pasadena branch office", ExpectedDuration: 20, Priority: string(application.PriorityMedium)},
		{Name: "Sugar Land Service Center", ZipCode: "77478", Description: "Sugar Land town square office", ExpectedDuration: 25, Priority: string(application.PriorityLow)},
	}
	for _, location := range locations {
		location.ID = uuid.NewString()
		location.IsOpen = true
		location.CreatedAt = now
		location.UpdatedAt = now
		if err := repos.locations.CreateLocation(ctx, location); err != nil {
			return err
		}
	}

	logger.Info("seeded demo data", "locations", len(locations), "admin_email", admin.Email)
	return nil
}

// promoteReadyLoop periodically sweeps the head of every active queue so
// customers close to the front are flagged almost-ready.
func promoteReadyLoop(ctx context.Context, service *application.QueueService, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			promoted, err := service.PromoteReady(ctx)
			if err != nil {
				logger.Error("promotion sweep failed", "error", err)
				continue
			}
			if promoted > 0 {
				logger.Info("promotion sweep completed", "promoted", promoted)
			}
		}
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
