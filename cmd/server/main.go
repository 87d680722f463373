// Command server runs the Fatoora VAT documents API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	accountapp "github.com/fatoora/backend/internal/application/account"
	invoicingapp "github.com/fatoora/backend/internal/application/invoicing"
	subscriptionapp "github.com/fatoora/backend/internal/application/subscription"
	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/domain/shared/valueobject"
	"github.com/fatoora/backend/internal/domain/subscription"
	"github.com/fatoora/backend/internal/infrastructure/cache"
	"github.com/fatoora/backend/internal/infrastructure/config"
	"github.com/fatoora/backend/internal/infrastructure/event"
	"github.com/fatoora/backend/internal/infrastructure/lock"
	"github.com/fatoora/backend/internal/infrastructure/logger"
	"github.com/fatoora/backend/internal/infrastructure/persistence"
	"github.com/fatoora/backend/internal/infrastructure/printing"
	"github.com/fatoora/backend/internal/infrastructure/telemetry"
	"github.com/fatoora/backend/internal/interfaces/http/handler"
	"github.com/fatoora/backend/internal/interfaces/http/middleware"
	"github.com/fatoora/backend/internal/interfaces/http/router"
)

const (
	version = "1.0.0"

	qrImageSize      = 256
	callbackLimit    = 60
	callbackWindow   = time.Minute
	shutdownDeadline = 30 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()
	zap.ReplaceGlobals(log)

	log.Info("Starting Fatoora backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	fiscalLocation, err := cfg.Invoicing.Location()
	if err != nil {
		log.Fatal("Invalid fiscal timezone", zap.String("timezone", cfg.Invoicing.FiscalTimezone), zap.Error(err))
	}
	vatPolicy, err := vatPolicyFor(cfg.Invoicing)
	if err != nil {
		log.Fatal("Invalid VAT rate", zap.Int("vat_rate", cfg.Invoicing.VATRate), zap.Error(err))
	}

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Metrics
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()
	businessMetrics, err := telemetry.NewBusinessMetrics(meterProvider.Meter("fatoora.business"))
	if err != nil {
		log.Fatal("Failed to register business metrics", zap.Error(err))
	}

	// Logs are teed to the collector once the bridge is up
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	defer func() {
		_ = loggerProvider.Shutdown(context.Background())
	}()
	log = telemetry.Bridge(log, cfg.Telemetry.ServiceName, loggerProvider, logger.ParseLevel(cfg.Log.Level))
	zap.ReplaceGlobals(log)

	// Profiling
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingServerAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()
	if cfg.Telemetry.SpanProfilesEnabled && profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
		DBSystem:   cfg.Database.DBName,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Redis is optional; locks and callback deduplication fall back to
	// in-process implementations without it.
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient != nil {
		defer func() {
			_ = redisClient.Close()
		}()
	}

	clock := shared.SystemClock{}

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(redisClient,
		cache.WithLogger(log),
		cache.WithClock(clock),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		_ = idempotencyStore.Close()
	}()

	accountLocker := lock.NewAccountLocker(redisClient, cfg.Invoicing.LockTTL, log)

	// Events
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		_ = eventBus.Stop(context.Background())
	}()

	// Repositories
	txManager := persistence.NewTxManager(db.DB)
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	catalogRepo := persistence.NewGormCatalogRepository(db.DB, clock)
	customerRepo := persistence.NewGormCustomerRepository(db.DB, clock)
	documentRepo := persistence.NewGormDocumentRepository(db.DB)
	historyRepo := persistence.NewGormHistoryRepository(db.DB)
	subscriptionRepo := persistence.NewGormSubscriptionRepository(db.DB)
	packageRepo := persistence.NewGormPackageRepository(db.DB)

	// Application services
	accountService := accountapp.NewAccountService(accountapp.AccountServiceConfig{
		Accounts:   accountRepo,
		Catalog:    catalogRepo,
		Customers:  customerRepo,
		Transactor: txManager,
		Policy:     vatPolicy,
		Clock:      clock,
		Logger:     log,
	})
	documentService := invoicingapp.NewDocumentService(invoicingapp.DocumentServiceConfig{
		Documents:      documentRepo,
		History:        historyRepo,
		Accounts:       accountRepo,
		Catalog:        catalogRepo,
		Customers:      customerRepo,
		Transactor:     txManager,
		Locker:         accountLocker,
		EventPublisher: eventBus,
		Clock:          clock,
		Location:       fiscalLocation,
		Metrics:        businessMetrics,
		Logger:         log,
	})
	subscriptionService := subscriptionapp.NewSubscriptionService(subscriptionapp.SubscriptionServiceConfig{
		Records:    subscriptionRepo,
		Packages:   packageRepo,
		Accounts:   accountRepo,
		Transactor: txManager,
		Engine: subscription.NewEngine(subscription.Config{
			FreeTrialDays:     cfg.Entitlement.FreeTrialDays,
			RenewalWindowDays: cfg.Entitlement.RenewalWindowDays,
		}, clock),
		IdempotencyStore: idempotencyStore,
		Idempotency: shared.IdempotencyConfig{
			Enabled: cfg.Idempotency.Enabled,
			TTL:     cfg.Idempotency.TTL,
		},
		EventPublisher: eventBus,
		Clock:          clock,
		Metrics:        businessMetrics,
		Logger:         log,
	})

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order: request logger (assigns the request ID), recovery,
	// tracing, metrics, security headers, CORS, body limit.
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		Meter:   meterProvider.Meter("http.server"),
		Enabled: meterProvider.IsEnabled(),
		Logger:  log,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.HTTP.CORSAllowOrigins)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	callbackLimiter := middleware.NewRateLimiter(callbackLimit, callbackWindow, clock)
	defer callbackLimiter.Stop()

	router.Mount(engine, router.Handlers{
		System:        handler.NewSystemHandler(cfg.App.Name, version, healthChecks(db, redisClient)),
		Accounts:      handler.NewAccountHandler(accountService),
		Documents:     handler.NewDocumentHandler(documentService, printing.NewQRImageRenderer(qrImageSize)),
		Subscriptions: handler.NewSubscriptionHandler(subscriptionService),
	}, router.Guards{
		Accounts:        accountService,
		Entitlement:     subscriptionService,
		CallbackLimiter: callbackLimiter,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}

// vatPolicyFor builds the policy applied to taxable accounts from the
// configured rate. Only the allowed rates are accepted.
func vatPolicyFor(cfg config.InvoicingConfig) (valueobject.VATPolicy, error) {
	rate, err := valueobject.NewVATRate(decimal.NewFromInt(int64(cfg.VATRate)))
	if err != nil {
		return valueobject.VATPolicy{}, err
	}
	return valueobject.VATPolicy{Taxable: rate, Exempt: valueobject.VATExempt}, nil
}

func healthChecks(db *persistence.Database, redisClient *redis.Client) map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{
		"database": db.Ping,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}
