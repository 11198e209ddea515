//go:build integration

// Package integration runs the remote data service against a real
// PostgreSQL started with testcontainers.
package integration

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/staydesk/backend/internal/infrastructure/config"
	"github.com/staydesk/backend/internal/infrastructure/logger"
	"github.com/staydesk/backend/internal/infrastructure/migration"
	"github.com/staydesk/backend/internal/infrastructure/persistence"
)

// TestDB is a migrated database in its own container
type TestDB struct {
	DB     *gorm.DB
	Config config.DatabaseConfig
}

// NewTestDB starts postgres, applies the embedded schema through the same
// code path as `migrate up` and opens the server's connection pool on it.
// TEST_DB_DEBUG=1 logs every statement.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("staydesk_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start postgres container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		Host:         host,
		Port:         port.Int(),
		User:         "postgres",
		Password:     "postgres",
		DBName:       "staydesk_test",
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	log := zaptest.NewLogger(t)
	m, err := migration.Open(ctx, cfg.DSN(), migration.WithLogger(log))
	require.NoError(t, err)
	require.NoError(t, m.Up(ctx))
	require.NoError(t, m.Close())

	level := gormlogger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = gormlogger.Info
	}
	db, err := persistence.NewDatabase(&cfg, logger.NewGormLogger(log, "database", level))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &TestDB{DB: db.DB, Config: cfg}
}
