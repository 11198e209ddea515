// Command agent runs the offline-first StayDesk client. It keeps a local
// mirror of the remote data, tracks connectivity and serves the dashboard
// views on a loopback JSON API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/staydesk/backend/internal/application/dashboard"
	"github.com/staydesk/backend/internal/application/offline"
	"github.com/staydesk/backend/internal/domain/messaging"
	"github.com/staydesk/backend/internal/domain/shared/capability"
	"github.com/staydesk/backend/internal/infrastructure/config"
	"github.com/staydesk/backend/internal/infrastructure/logger"
	"github.com/staydesk/backend/internal/infrastructure/metrics"
	"github.com/staydesk/backend/internal/infrastructure/mirror"
	"github.com/staydesk/backend/internal/infrastructure/remote"
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
		Service:    "staydesk-agent",
		Version:    version,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting StayDesk agent",
		zap.String("remote", cfg.Remote.BaseURL),
		zap.String("port", cfg.App.AgentPort),
		zap.String("mirror_backend", cfg.Mirror.Backend),
		zap.String("version", version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	lp, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	defer func() { _ = lp.Shutdown(context.Background()) }()
	exportLevel, _ := zapcore.ParseLevel(cfg.Log.Level)
	log = lp.Attach(log, exportLevel)

	store, backend, err := mirror.NewStore(ctx, cfg.Mirror, cfg.Redis,
		mirror.WithLogger(log),
		mirror.WithGormLogger(logger.NewGormLogger(log, "mirror", logger.MapGormLogLevel(cfg.Log.Level))),
	)
	if err != nil {
		log.Fatal("Failed to open mirror store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing mirror store", zap.Error(err))
		}
	}()
	registry := capability.NewRegistry()
	if err := registry.Register(capability.MirrorStore, store); err != nil {
		log.Warn("Failed to register mirror store", zap.Error(err))
	}
	snapshotter := mirror.NewSnapshotter(store)

	client, err := remote.NewClient(cfg.Remote, remote.WithLogger(log))
	if err != nil {
		log.Fatal("Invalid remote configuration", zap.Error(err))
	}

	m := metrics.New()
	state := offline.NewState()
	ctrl := offline.NewController(state, client,
		offline.WithMirror(snapshotter),
		offline.WithRecorder(m),
		offline.WithLogger(log),
		offline.WithRefreshTimeout(cfg.Sync.RefreshTimeout),
	)

	if _, err := ctrl.LoadFromMirror(ctx); err != nil {
		log.Warn("Starting with an empty state, mirror could not be read", zap.Error(err))
	}

	if cfg.Remote.Email != "" {
		signIn(ctx, client, state, cfg.Remote, log)
	}

	watcher := offline.NewWatcher(ctrl, client, cfg.Sync,
		offline.WithFeed(client),
		offline.WithWatcherLogger(log),
	)
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Connectivity watcher stopped", zap.Error(err))
		}
	}()

	renderer, err := messaging.NewRenderer(nil)
	if err != nil {
		log.Fatal("Failed to load message templates", zap.Error(err))
	}

	middleware.SetupValidator()

	checks := map[string]handler.HealthCheck{"mirror": mirror.HealthCheck(registry)}
	system := handler.NewSystemHandler(cfg.App.Name+"-agent", version, checks)
	system.SetCapabilities(registry)

	engine := router.NewAgentEngine(router.AgentDeps{
		Config:  cfg,
		Logger:  log,
		Metrics: m,
		Handlers: router.AgentHandlers{
			System:    system,
			Sync:      handler.NewSyncHandler(ctrl),
			Session:   handler.NewSessionHandler(client, state, ctrl),
			Views:     handler.NewViewHandler(state, dashboard.NewBuilder(dashboard.WithLogger(log))),
			Selection: handler.NewSelectionHandler(state),
			Messages:  handler.NewMessageHandler(state, renderer),
		},
	})

	srv := &http.Server{
		Addr:         "127.0.0.1:" + cfg.App.AgentPort,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Agent API starting", zap.String("addr", srv.Addr), zap.String("mirror", backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start agent API", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down agent...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Agent API forced to shutdown", zap.Error(err))
	}
	<-watcherDone
	log.Info("Agent exited gracefully")
}

// signIn logs in with the configured service account. Failure leaves the
// agent signed out; it keeps serving the mirrored data and can be signed in
// through the session API later.
func signIn(ctx context.Context, client *remote.Client, state *offline.State, cfg config.RemoteConfig, log *zap.Logger) {
	loginCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	sess, err := client.Login(loginCtx, cfg.Email, cfg.Password)
	if err != nil {
		log.Warn("Automatic sign-in failed", zap.String("email", cfg.Email), zap.Error(err))
		return
	}
	state.SetCurrentUser(sess)
	log.Info("Signed in", zap.String("email", sess.Email), zap.String("role", string(sess.Role)))
}
