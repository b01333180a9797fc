package testfixtures

import (
	"log/slog"
	"time"

	"github.com/audreydng/QueueSmart/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

func (f *ServiceFactory) idGen(override func() string) func() string {
	if override != nil {
		return override
	}
	return f.IDGenerator.NextFunc()
}

func (f *ServiceFactory) clock(override func() time.Time) func() time.Time {
	if override != nil {
		return override
	}
	return f.Clock.NowFunc()
}

// RecorderDeps captures dependencies for constructing a side effect recorder.
type RecorderDeps struct {
	Notifications application.NotificationRepository
	History       application.HistoryRepository
	IDGenerator   func() string
	Now           func() time.Time
	Logger        *slog.Logger
}

// NewRecorder builds a recorder using the supplied dependencies combined with
// the factory defaults.
func (f *ServiceFactory) NewRecorder(deps RecorderDeps) *application.Recorder {
	return application.NewRecorder(
		deps.Notifications,
		deps.History,
		f.idGen(deps.IDGenerator),
		f.clock(deps.Now),
		deps.Logger,
	)
}

// QueueServiceDeps captures dependencies for constructing a queue service.
type QueueServiceDeps struct {
	Entries     application.QueueRepository
	Locations   application.LocationDirectory
	Recorder    *application.Recorder
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewQueueService builds a queue service using the supplied dependencies
// combined with the factory defaults.
func (f *ServiceFactory) NewQueueService(deps QueueServiceDeps) *application.QueueService {
	return application.NewQueueServiceWithLogger(
		deps.Entries,
		deps.Locations,
		deps.Recorder,
		f.idGen(deps.IDGenerator),
		f.clock(deps.Now),
		deps.Logger,
	)
}

// LocationServiceDeps captures dependencies for constructing a location service.
type LocationServiceDeps struct {
	Locations   application.LocationRepository
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewLocationService builds a location service using the supplied dependencies.
func (f *ServiceFactory) NewLocationService(deps LocationServiceDeps) *application.LocationService {
	return application.NewLocationServiceWithLogger(
		deps.Locations,
		f.idGen(deps.IDGenerator),
		f.clock(deps.Now),
		deps.Logger,
	)
}

// UserServiceDeps captures dependencies for constructing a user service.
type UserServiceDeps struct {
	Users       application.UserRepository
	Hash        application.PasswordHasher
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewUserService builds a user service using the supplied dependencies.
func (f *ServiceFactory) NewUserService(deps UserServiceDeps) *application.UserService {
	return application.NewUserServiceWithLogger(
		deps.Users,
		deps.Hash,
		f.idGen(deps.IDGenerator),
		f.clock(deps.Now),
		deps.Logger,
	)
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Credentials    application.CredentialStore
	Sessions       application.SessionRepository
	IDGenerator    func() string
	TokenGenerator func() string
	Now            func() time.Time
	SessionTTL     time.Duration
	Logger         *slog.Logger
}

// NewAuthService builds an auth service using the supplied dependencies.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	return application.NewAuthServiceWithLogger(
		deps.Credentials,
		deps.Sessions,
		f.idGen(deps.IDGenerator),
		f.idGen(deps.TokenGenerator),
		f.clock(deps.Now),
		deps.SessionTTL,
		deps.Logger,
	)
}

// AppointmentServiceDeps captures dependencies for constructing an appointment
// service.
type AppointmentServiceDeps struct {
	Appointments application.AppointmentRepository
	Locations    application.LocationDirectory
	Recorder     *application.Recorder
	IDGenerator  func() string
	Now          func() time.Time
	Logger       *slog.Logger
}

// NewAppointmentService builds an appointment service using the supplied
// dependencies.
func (f *ServiceFactory) NewAppointmentService(deps AppointmentServiceDeps) *application.AppointmentService {
	return application.NewAppointmentServiceWithLogger(
		deps.Appointments,
		deps.Locations,
		deps.Recorder,
		f.idGen(deps.IDGenerator),
		f.clock(deps.Now),
		deps.Logger,
	)
}

// StatsServiceDeps captures dependencies for constructing a stats service.
type StatsServiceDeps struct {
	History   application.HistoryRepository
	Entries   application.QueueRepository
	Locations application.LocationRepository
	Now       func() time.Time
	Logger    *slog.Logger
}

// NewStatsService builds a stats service using the supplied dependencies.
func (f *ServiceFactory) NewStatsService(deps StatsServiceDeps) *application.StatsService {
	return application.NewStatsServiceWithLogger(
		deps.History,
		deps.Entries,
		deps.Locations,
		f.clock(deps.Now),
		deps.Logger,
	)
}
