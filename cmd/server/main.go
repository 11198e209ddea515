// Command server runs the StayDesk remote data service: the reservation and
// payment API over PostgreSQL, the push relay and the websocket change feed.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	bookingapp "github.com/staydesk/backend/internal/application/booking"
	exportapp "github.com/staydesk/backend/internal/application/export"
	identityapp "github.com/staydesk/backend/internal/application/identity"
	notificationapp "github.com/staydesk/backend/internal/application/notification"
	propertyapp "github.com/staydesk/backend/internal/application/property"
	"github.com/staydesk/backend/internal/domain/booking"
	"github.com/staydesk/backend/internal/domain/shared/capability"
	"github.com/staydesk/backend/internal/infrastructure/auth"
	"github.com/staydesk/backend/internal/infrastructure/config"
	"github.com/staydesk/backend/internal/infrastructure/event"
	"github.com/staydesk/backend/internal/infrastructure/logger"
	"github.com/staydesk/backend/internal/infrastructure/metrics"
	"github.com/staydesk/backend/internal/infrastructure/migration"
	"github.com/staydesk/backend/internal/infrastructure/persistence"
	"github.com/staydesk/backend/internal/infrastructure/push"
	"github.com/staydesk/backend/internal/infrastructure/realtime"
	"github.com/staydesk/backend/internal/infrastructure/storage"
	"github.com/staydesk/backend/internal/infrastructure/telemetry"
	"github.com/staydesk/backend/internal/interfaces/http/handler"
	"github.com/staydesk/backend/internal/interfaces/http/middleware"
	"github.com/staydesk/backend/internal/interfaces/http/router"
)

var version = "dev"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic("Failed to load .env: " + err.Error())
	}
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultTimeFormat,
		Service:    "staydesk-server",
		Version:    version,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting StayDesk server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	lp, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	defer func() { _ = lp.Shutdown(context.Background()) }()
	exportLevel, _ := zapcore.ParseLevel(cfg.Log.Level)
	log = lp.Attach(log, exportLevel)

	if cfg.Database.AutoMigrate {
		if err := applyMigrations(ctx, cfg.Database.DSN(), log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	gormLog := logger.NewGormLogger(log, "database", logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTracing,
		SlowQueryThresh: cfg.Telemetry.SlowQueryThreshold,
		DBName:          cfg.Database.DBName,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	redisClient, blacklist := openBlacklist(ctx, cfg.Redis, log)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	m := metrics.New()
	if pool, err := db.PoolCollector(cfg.Database.DBName); err != nil {
		log.Warn("Connection pool metrics unavailable", zap.Error(err))
	} else {
		m.Registry().MustRegister(pool)
	}
	registry := capability.NewRegistry()

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	propertyRepo := persistence.NewGormPropertyRepository(db.DB)
	reservationRepo := persistence.NewGormReservationRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	subscriptionRepo := persistence.NewGormPushSubscriptionRepository(db.DB)

	// Optional capabilities
	registerPushSender(ctx, cfg, registry, log)
	registerExportStorage(ctx, cfg, registry, log)

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, log)
	userService := identityapp.NewUserService(userRepo, log)
	propertyService := propertyapp.NewPropertyService(propertyRepo, log)
	reservationService := bookingapp.NewReservationService(reservationRepo, paymentRepo, propertyRepo, booking.NewIDGenerator(), log)
	paymentService := bookingapp.NewPaymentService(paymentRepo, reservationRepo, cfg.Payments, log)
	relayService := notificationapp.NewRelayService(subscriptionRepo, registry, cfg.Push, log)
	relayService.SetRecorder(m)
	exporter := exportapp.NewReservationExporter(reservationRepo, paymentRepo, propertyRepo, registry, log)

	// Event bus: change feed, staff push notifications and the optional Kafka stream
	hub := realtime.NewHub(log)
	defer hub.Close()

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(realtime.NewChangeBroadcaster(hub))
	eventBus.Subscribe(notificationapp.NewBookingNotifier(relayService, log))
	if cfg.Events.KafkaEnabled {
		forwarder := event.NewKafkaForwarder(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic, log)
		defer func() { _ = forwarder.Close() }()
		eventBus.Subscribe(forwarder)
		if err := registry.Register(capability.EventStream, forwarder); err != nil {
			log.Warn("Failed to register event stream", zap.Error(err))
		}
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	propertyService.SetEventPublisher(eventBus)
	reservationService.SetEventPublisher(eventBus)
	paymentService.SetEventPublisher(eventBus)

	log.Info("Capabilities registered", zap.Strings("capabilities", registry.Names()))

	middleware.SetupValidator()

	checks := map[string]handler.HealthCheck{"database": db.Ping}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	system := handler.NewSystemHandler(cfg.App.Name, version, checks)
	system.SetCapabilities(registry)

	engine := router.NewServerEngine(router.ServerDeps{
		Config:     cfg,
		Logger:     log,
		Metrics:    m,
		JWTService: jwtService,
		Blacklist:  blacklist,
		Handlers: router.ServerHandlers{
			System:       system,
			Auth:         handler.NewAuthHandler(authService),
			Users:        handler.NewUserHandler(userService),
			Properties:   handler.NewPropertyHandler(propertyService),
			Reservations: handler.NewReservationHandler(reservationService),
			Payments:     handler.NewPaymentHandler(paymentService),
			Push:         handler.NewPushHandler(relayService),
			Exports:      handler.NewExportHandler(exporter),
			Feed:         handler.NewFeedHandler(hub),
		},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

// openBlacklist prefers redis so revocations survive restarts and are shared
// between replicas. Without redis, revoked tokens are kept in memory.
func openBlacklist(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (*redis.Client, auth.TokenBlacklist) {
	if cfg.Host == "" {
		log.Warn("Redis not configured, token revocations are kept in memory")
		return nil, auth.NewInMemoryTokenBlacklist()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unreachable, token revocations are kept in memory",
			zap.String("addr", cfg.Addr()), zap.Error(err))
		_ = client.Close()
		return nil, auth.NewInMemoryTokenBlacklist()
	}
	log.Info("Redis connected", zap.String("addr", cfg.Addr()))
	return client, auth.NewRedisTokenBlacklist(client)
}

func registerPushSender(ctx context.Context, cfg *config.Config, registry *capability.Registry, log *zap.Logger) {
	var sender any = push.NewLogSender(log)
	if cfg.Push.Enabled {
		fcm, err := push.NewFCMSender(ctx, cfg.Push, log)
		if err != nil {
			log.Error("Failed to initialize FCM sender, push messages will only be logged", zap.Error(err))
		} else {
			sender = fcm
		}
	}
	if err := registry.Register(capability.PushSender, sender); err != nil {
		log.Warn("Failed to register push sender", zap.Error(err))
	}
}

func registerExportStorage(ctx context.Context, cfg *config.Config, registry *capability.Registry, log *zap.Logger) {
	if !cfg.Storage.Enabled {
		return
	}
	store, err := storage.NewS3ExportStorage(ctx, &cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Error("Failed to initialize export storage, uploads are disabled", zap.Error(err))
		return
	}
	if err := registry.Register(capability.ExportStorage, store); err != nil {
		log.Warn("Failed to register export storage", zap.Error(err))
	}
}

func applyMigrations(ctx context.Context, dsn string, log *zap.Logger) error {
	m, err := migration.Open(ctx, dsn, migration.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up(ctx)
}
