package mirror

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"github.com/staydesk/backend/internal/infrastructure/config"
)

// Backend names accepted in mirror.backend
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// FactoryOption configures NewStore
type FactoryOption func(*factory)

type factory struct {
	logger     *zap.Logger
	gormLogger gormlogger.Interface
	fallback   bool
	dial       time.Duration
}

// WithLogger sets the logger used to report backend selection
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *factory) {
		f.logger = logger
	}
}

// WithGormLogger sets the GORM logger for the sqlite backend
func WithGormLogger(l gormlogger.Interface) FactoryOption {
	return func(f *factory) {
		f.gormLogger = l
	}
}

// WithMemoryFallback controls whether an unavailable backend degrades to memory. Default true.
func WithMemoryFallback(allow bool) FactoryOption {
	return func(f *factory) {
		f.fallback = allow
	}
}

// NewStore opens the configured mirror backend. It returns the store and the
// name of the backend actually in use.
func NewStore(ctx context.Context, cfg config.MirrorConfig, redisCfg config.RedisConfig, opts ...FactoryOption) (Store, string, error) {
	f := &factory{logger: zap.NewNop(), fallback: true, dial: 5 * time.Second}
	for _, opt := range opts {
		opt(f)
	}

	var (
		store Store
		err   error
	)
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(), BackendMemory, nil
	case BackendRedis:
		store, err = f.openRedis(ctx, cfg, redisCfg)
	case BackendSQLite, "":
		store, err = OpenSQLStore(cfg.Path, f.gormLogger)
	default:
		err = fmt.Errorf("unknown mirror backend %q", cfg.Backend)
	}
	if err == nil {
		backend := cfg.Backend
		if backend == "" {
			backend = BackendSQLite
		}
		f.logger.Info("mirror store ready", zap.String("backend", backend))
		return store, backend, nil
	}

	if !f.fallback {
		return nil, "", fmt.Errorf("mirror backend %s unavailable: %w", cfg.Backend, err)
	}
	f.logger.Warn("mirror backend unavailable, falling back to memory; cached data will not survive restarts",
		zap.String("backend", cfg.Backend),
		zap.Error(err),
	)
	return NewMemoryStore(), BackendMemory, nil
}

func (f *factory) openRedis(ctx context.Context, cfg config.MirrorConfig, redisCfg config.RedisConfig) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr(),
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, f.dial)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisStore(client, cfg.KeyPrefix), nil
}
