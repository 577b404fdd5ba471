package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"contrib.go.opencensus.io/integrations/ocsql"

	"github.com/hookline/hookline/config"
	"github.com/hookline/hookline/internal/database"
	"github.com/hookline/hookline/internal/domain"
	httpHandler "github.com/hookline/hookline/internal/http"
	"github.com/hookline/hookline/internal/http/middleware"
	"github.com/hookline/hookline/internal/repository"
	"github.com/hookline/hookline/internal/service"
	"github.com/hookline/hookline/pkg/cache"
	"github.com/hookline/hookline/pkg/logger"
	"github.com/hookline/hookline/pkg/tracing"
)

// AppInterface defines the interface for the App
type AppInterface interface {
	Initialize() error
	Start() error
	Shutdown(ctx context.Context) error

	// Getters for app components accessed in tests
	GetConfig() *config.Config
	GetLogger() logger.Logger
	GetMux() *http.ServeMux
	GetDB() *sql.DB
	GetRegistry() *service.Registry
	GetEngine() *service.DeliveryEngine
	GetEventBus() domain.EventBus

	// Server status methods
	IsServerCreated() bool
	WaitForServerStart(ctx context.Context) bool

	// Methods for initialization steps
	InitTracing() error
	InitDB() error
	InitDomain() error
	InitServices() error
	InitSubscriptions() error
	InitHandlers() error

	// Graceful shutdown methods
	SetShutdownTimeout(timeout time.Duration)
	GetActiveRequestCount() int64
	GetShutdownContext() context.Context
}

// App encapsulates the application dependencies and configuration
type App struct {
	config *config.Config
	logger logger.Logger
	db     *sql.DB

	// Domain registries
	kinds    *domain.KindRegistry
	bus      domain.EventBus
	adapters *domain.PayloadAdapterRegistry
	dialects *service.StandardDialectRegistry

	// Validation and security
	security        *service.SecurityChecker
	validator       domain.DestinationValidator
	validationCache cache.Cache

	// Persistence
	conns domain.ConnectionProvider
	uows  *database.UnitOfWorkManager

	// Services
	registry  *service.Registry
	outbox    *service.Outbox
	engine    *service.DeliveryEngine
	retention *service.RetentionService
	events    *service.EventService
	schema    *service.SchemaManager

	// HTTP handlers
	mux    *http.ServeMux
	server *http.Server

	// Server synchronization
	serverMu      sync.RWMutex
	serverStarted chan struct{}

	// Graceful shutdown management
	shutdownCtx     context.Context
	shutdownCancel  context.CancelFunc
	activeRequests  int64
	requestWg       sync.WaitGroup
	shutdownTimeout time.Duration
}

// AppOption defines a functional option for configuring the App
type AppOption func(*App)

// WithMockDB configures the app to use a mock database
func WithMockDB(db *sql.DB) AppOption {
	return func(a *App) {
		a.db = db
	}
}

// WithLogger sets a custom logger
func WithLogger(logger logger.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// WithDestinationValidator replaces the DNS-backed destination validator,
// which tests use to avoid real lookups
func WithDestinationValidator(v domain.DestinationValidator) AppOption {
	return func(a *App) {
		a.validator = v
	}
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, opts ...AppOption) *App {
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	app := &App{
		config:          cfg,
		logger:          logger.NewLoggerWithLevel(cfg.LogLevel),
		mux:             http.NewServeMux(),
		serverStarted:   make(chan struct{}),
		shutdownCtx:     shutdownCtx,
		shutdownCancel:  shutdownCancel,
		shutdownTimeout: 60 * time.Second,
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// InitTracing initializes OpenCensus tracing
func (a *App) InitTracing() error {
	tracingConfig := &a.config.Tracing

	if err := tracing.InitTracing(tracingConfig); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if tracingConfig.Enabled {
		a.logger.WithField("trace_exporter", tracingConfig.TraceExporter).
			WithField("metrics_exporter", tracingConfig.MetricsExporter).
			WithField("sampling_rate", tracingConfig.SamplingProbability).
			Info("Tracing initialized successfully")
	}

	return nil
}

// InitDB ensures the system database exists, connects to it and creates
// the schema
func (a *App) InitDB() error {
	cfg := &a.config.Database
	a.logger.Info(fmt.Sprintf("Connecting to database %s:%d, user %s, sslmode %s, dbname: %s",
		cfg.Host, cfg.Port, cfg.User, cfg.SSLMode, cfg.DBName))

	if err := database.EnsureSystemDatabaseExists(cfg); err != nil {
		a.logger.Error(err.Error())
		return fmt.Errorf("failed to ensure system database exists: %w", err)
	}

	// If tracing is enabled, wrap the postgres driver
	driverName := "postgres"
	if a.config.Tracing.Enabled {
		var err error
		driverName, err = ocsql.Register(driverName, ocsql.WithAllTraceOptions())
		if err != nil {
			return fmt.Errorf("failed to register opencensus sql driver: %w", err)
		}
		a.logger.Info("Database driver wrapped with OpenCensus tracing")
	}

	db, err := database.ConnectToSystem(cfg, driverName)
	if err != nil {
		return err
	}

	if err := database.InitializeDatabase(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	a.db = db
	return nil
}

// InitDomain builds the kind registry, event bus, dialects and the
// security and validation collaborators
func (a *App) InitDomain() error {
	a.kinds = domain.NewKindRegistry()
	a.bus = domain.NewInProcessEventBus(a.kinds)
	a.adapters = domain.NewPayloadAdapterRegistry(a.kinds)

	defaultDialect := service.NewDefaultDialect(a.adapters, service.JSONExternalizer{}, a.config.Delivery.UserAgent)
	a.dialects = service.NewDialectRegistry(defaultDialect)
	if a.config.Security.SigningSecret != "" {
		signing, err := service.NewSigningDialect(defaultDialect, a.config.Security.SigningSecret)
		if err != nil {
			return fmt.Errorf("failed to initialize signing dialect: %w", err)
		}
		a.dialects.Register("standard-webhooks", signing)
		a.logger.Info("Signing dialect registered as \"standard-webhooks\"")
	}

	principals := make([]*domain.Principal, 0, len(a.config.Security.Principals))
	for _, id := range a.config.Security.Principals {
		principals = append(principals, &domain.Principal{ID: id})
	}
	var anonymous *domain.Principal
	if a.config.Security.AnonymousPrincipal != "" {
		anonymous = &domain.Principal{ID: a.config.Security.AnonymousPrincipal}
	}
	provider := &service.StaticAuthProvider{
		Authenticators: []domain.Authenticator{
			service.NewStaticAuthenticator(principals, anonymous),
		},
		Permissions: []domain.PermissionSource{
			service.NewStaticPermissionSource(a.config.Security.Permissions...),
		},
	}
	a.security = service.NewSecurityChecker(provider, service.PermitAllPolicy{}, a.logger)

	// Honor a validator injected through options
	if a.validator == nil {
		cleanup := a.config.Validation.CacheCleanup
		if cleanup <= 0 {
			cleanup = 5 * time.Minute
		}
		a.validationCache = cache.NewInMemoryCache(cleanup)
		a.validator = service.NewDestinationValidator(nil, a.validationCache, a.config.Validation.CacheTTL, a.config.Validation.Enabled, a.logger)
	}

	return nil
}

// InitServices wires the subscription managers, the delivery pipeline and
// the admin services
func (a *App) InitServices() error {
	if a.db == nil {
		return fmt.Errorf("database must be initialized before services")
	}

	a.conns = database.NewSystemConnectionProvider(a.db)
	a.uows = database.NewUnitOfWorkManager(a.conns, a.logger)

	subs := repository.NewSubscriptionPostgresRepository(a.conns)
	attempts := repository.NewAttemptPostgresRepository(a.conns)
	factory := func(sitePath string) *service.SubscriptionManager {
		return service.NewSubscriptionManager(sitePath, true, subs, attempts,
			a.security, a.validator, a.dialects, a.kinds, a.bus, a.logger)
	}
	a.registry = service.NewRegistry(factory, a.logger)

	// The global scope is transient: subscriptions registered against it
	// live for the process and vanish on restart.
	a.registry.AddManager(service.NewSubscriptionManager("", false,
		repository.NewSubscriptionMemoryRepository(), repository.NewAttemptMemoryRepository(),
		a.security, a.validator, a.dialects, a.kinds, a.bus, a.logger))

	a.engine = service.NewDeliveryEngine(a.registry, a.dialects, a.uows, a.bus, a.logger, service.EngineConfig{
		Workers:          a.config.Delivery.Workers,
		RequestTimeout:   a.config.Delivery.RequestTimeout,
		MaxResponseBytes: a.config.Delivery.MaxResponseBytes,
	})

	a.outbox = service.NewOutbox(a.engine, a.dialects, a.logger)
	service.NewDispatcher(a.registry, a.outbox, a.logger).Register(a.bus)

	a.retention = service.NewRetentionService(a.registry, a.logger)
	a.retention.Register(a.bus)

	a.events = service.NewEventService(a.bus, a.kinds, a.uows, a.logger)
	a.schema = service.NewSchemaManager(a.registry, repository.NewGenerationPostgresRepository(a.conns), a.uows, a.logger)

	return nil
}

// InitSubscriptions installs the declaratively configured subscriptions.
// Site-scoped entries are reconciled into the store; global entries are
// registered directly with the transient global manager.
func (a *App) InitSubscriptions() error {
	if len(a.config.Subscriptions) == 0 {
		return nil
	}

	ctx := context.Background()
	var durable []*domain.Subscription
	for _, entry := range a.config.Subscriptions {
		sub := subscriptionFromEntry(entry)
		if sub.SitePath != "" {
			durable = append(durable, sub)
			continue
		}

		manager, err := a.registry.ManagerFor("")
		if err != nil {
			return err
		}
		if err := manager.CreateSubscription(ctx, sub); err != nil {
			return fmt.Errorf("failed to install configured subscription for %q: %w", entry.To, err)
		}
	}

	if len(durable) == 0 {
		return nil
	}
	if err := a.schema.Reconcile(ctx, durable); err != nil {
		return fmt.Errorf("failed to reconcile configured subscriptions: %w", err)
	}
	return nil
}

func subscriptionFromEntry(entry config.SubscriptionEntry) *domain.Subscription {
	return &domain.Subscription{
		SitePath:                 entry.SitePath,
		For:                      domain.Tag(entry.For),
		When:                     domain.EventKind(entry.When),
		To:                       entry.To,
		OwnerID:                  entry.OwnerID,
		PermissionID:             entry.PermissionID,
		DialectID:                entry.DialectID,
		AttemptLimit:             entry.AttemptLimit,
		PreconditionFailureLimit: entry.PreconditionFailureLimit,
	}
}

// InitHandlers initializes all HTTP handlers and routes
func (a *App) InitHandlers() error {
	// Create a new ServeMux to avoid route conflicts on restart
	a.mux = http.NewServeMux()

	getJWTSecret := func() ([]byte, error) {
		return a.config.Security.JWTSecret, nil
	}

	subscriptionHandler := httpHandler.NewSubscriptionHandler(a.registry, getJWTSecret, a.logger)
	attemptHandler := httpHandler.NewAttemptHandler(a.registry, getJWTSecret, a.logger)
	eventHandler := httpHandler.NewEventHandler(a.events, getJWTSecret, a.logger)
	deliveryHandler := httpHandler.NewDeliveryHandler(a.engine, getJWTSecret, a.logger)
	rootHandler := httpHandler.NewRootHandler(a.config.Version, a.logger)

	subscriptionHandler.RegisterRoutes(a.mux)
	attemptHandler.RegisterRoutes(a.mux)
	eventHandler.RegisterRoutes(a.mux)
	deliveryHandler.RegisterRoutes(a.mux)
	rootHandler.RegisterRoutes(a.mux)

	return nil
}

// Start starts the HTTP server
func (a *App) Start() error {
	var handler http.Handler = a.mux

	// Apply graceful shutdown middleware first (outermost)
	handler = a.gracefulShutdownMiddleware(handler)

	// Apply tracing middleware if enabled
	if a.config.Tracing.Enabled {
		handler = middleware.TracingMiddleware(handler)
		a.logger.Info("OpenCensus tracing middleware enabled")
	}

	// Apply CORS middleware
	handler = middleware.CORSMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port)
	a.logger.WithField("address", addr).Info("Server starting")

	a.serverMu.Lock()
	if a.serverStarted != nil {
		close(a.serverStarted)
	}
	a.serverStarted = make(chan struct{})

	a.server = &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	serverStarted := a.serverStarted
	a.serverMu.Unlock()

	// Signal that the server has been created and is about to start
	close(serverStarted)

	if a.config.Server.SSL.Enabled {
		a.logger.WithField("cert_file", a.config.Server.SSL.CertFile).Info("SSL enabled")
		return a.server.ListenAndServeTLS(a.config.Server.SSL.CertFile, a.config.Server.SSL.KeyFile)
	}

	return a.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server and drains the delivery
// engine
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Starting graceful shutdown...")

	// Signal shutdown to all components
	a.shutdownCancel()

	a.serverMu.RLock()
	server := a.server
	a.serverMu.RUnlock()

	shutdownTimeout := a.shutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < shutdownTimeout {
			shutdownTimeout = remaining
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	if server != nil {
		activeCount := a.getActiveRequestCount()
		a.logger.WithField("active_requests", activeCount).Info("Shutting down HTTP server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.WithField("error", err.Error()).Error("HTTP server shutdown failed")
			shutdownErr = err
		}
	}

	// Let in-flight webhook deliveries finish before stopping the engine;
	// anything still pending after the drain window is cancelled.
	if a.engine != nil {
		drain := a.config.Delivery.DrainTimeout
		if err := a.engine.WaitForPendingDeliveries(shutdownCtx, drain); err != nil {
			a.logger.WithField("error", err.Error()).Warn("Delivery drain incomplete")
		}
		a.engine.Stop()
	}

	if err := a.cleanupResources(); err != nil {
		a.logger.WithField("error", err.Error()).Error("Error during resource cleanup")
		if shutdownErr == nil {
			shutdownErr = err
		}
	}

	if shutdownErr != nil {
		a.logger.WithField("error", shutdownErr.Error()).Error("Graceful shutdown completed with errors")
	} else {
		a.logger.Info("Graceful shutdown completed successfully")
	}

	return shutdownErr
}

// cleanupResources handles cleanup of the database and other resources
func (a *App) cleanupResources() error {
	if a.validationCache != nil {
		a.validationCache.Stop()
	}

	if a.db != nil {
		// If tracing is enabled, record final stats
		if a.config.Tracing.Enabled {
			stop := ocsql.RecordStats(a.db, 5*time.Second)
			defer stop()
		}

		a.logger.Info("Closing database connection")
		if err := a.db.Close(); err != nil {
			a.logger.WithField("error", err.Error()).Error("Error closing database connection")
			return err
		}
	}

	return nil
}

// IsServerCreated safely checks if the server has been created
func (a *App) IsServerCreated() bool {
	a.serverMu.RLock()
	defer a.serverMu.RUnlock()
	return a.server != nil
}

// WaitForServerStart waits for the server to be created and initialized.
// Returns true if the server started successfully, false if context expired
func (a *App) WaitForServerStart(ctx context.Context) bool {
	a.serverMu.RLock()
	started := a.serverStarted
	a.serverMu.RUnlock()

	if started == nil {
		a.logger.Error("serverStarted channel is nil - server initialization error")
		<-ctx.Done()
		return false
	}

	select {
	case <-started:
		return a.IsServerCreated()
	case <-ctx.Done():
		return false
	}
}

// Initialize sets up all components of the application
func (a *App) Initialize() error {
	a.logger.WithField("version", a.config.Version).Info("Starting Hookline")

	if err := a.InitTracing(); err != nil {
		return err
	}

	if err := a.InitDB(); err != nil {
		return err
	}

	if err := a.InitDomain(); err != nil {
		return err
	}

	if err := a.InitServices(); err != nil {
		return err
	}

	if err := a.InitSubscriptions(); err != nil {
		return err
	}

	if err := a.InitHandlers(); err != nil {
		return err
	}

	a.logger.Info("Application successfully initialized")
	return nil
}

// GetConfig returns the app's configuration
func (a *App) GetConfig() *config.Config {
	return a.config
}

// GetLogger returns the app's logger
func (a *App) GetLogger() logger.Logger {
	return a.logger
}

// GetMux returns the app's HTTP multiplexer
func (a *App) GetMux() *http.ServeMux {
	return a.mux
}

// GetDB returns the app's database connection
func (a *App) GetDB() *sql.DB {
	return a.db
}

// GetRegistry returns the subscription manager registry
func (a *App) GetRegistry() *service.Registry {
	return a.registry
}

// GetEngine returns the delivery engine
func (a *App) GetEngine() *service.DeliveryEngine {
	return a.engine
}

// GetEventBus returns the app's event bus
func (a *App) GetEventBus() domain.EventBus {
	return a.bus
}

// incrementActiveRequests atomically increments the active request counter
func (a *App) incrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, 1)
	a.requestWg.Add(1)
}

// decrementActiveRequests atomically decrements the active request counter
func (a *App) decrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, -1)
	a.requestWg.Done()
}

// getActiveRequestCount returns the current number of active requests
func (a *App) getActiveRequestCount() int64 {
	return atomic.LoadInt64(&a.activeRequests)
}

// GetActiveRequestCount returns the current number of active requests
func (a *App) GetActiveRequestCount() int64 {
	return a.getActiveRequestCount()
}

// SetShutdownTimeout sets the timeout for graceful shutdown
func (a *App) SetShutdownTimeout(timeout time.Duration) {
	a.shutdownTimeout = timeout
}

// GetShutdownContext returns the shutdown context for components that
// need to watch for shutdown
func (a *App) GetShutdownContext() context.Context {
	return a.shutdownCtx
}

// isShuttingDown returns true if the application is in shutdown mode
func (a *App) isShuttingDown() bool {
	select {
	case <-a.shutdownCtx.Done():
		return true
	default:
		return false
	}
}

// gracefulShutdownMiddleware wraps HTTP handlers to track active requests
func (a *App) gracefulShutdownMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.isShuttingDown() {
			http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
			return
		}

		a.incrementActiveRequests()
		defer a.decrementActiveRequests()

		next.ServeHTTP(w, r)
	})
}

// Ensure App implements AppInterface
var _ AppInterface = (*App)(nil)
