// Command migrate manages the remote data service schema.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	identityapp "github.com/staydesk/backend/internal/application/identity"
	"github.com/staydesk/backend/internal/infrastructure/config"
	"github.com/staydesk/backend/internal/infrastructure/logger"
	"github.com/staydesk/backend/internal/infrastructure/migration"
	"github.com/staydesk/backend/internal/infrastructure/persistence"
)

// defaultSourceDir is where create writes new migrations. They are embedded
// into the binaries from there.
const defaultSourceDir = "internal/infrastructure/migration/sql"

var errUsage = errors.New("invalid usage")

// env is what a command runs against. cfg is loaded only for commands
// that need the database.
type env struct {
	log  *zap.Logger
	path string
	cfg  *config.Config
}

type command struct {
	args    string
	help    string
	minArgs int
	needsDB bool
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"up":      {help: "Apply all pending migrations", needsDB: true, run: migrator((*migration.Migrator).Up)},
	"down":    {help: "Roll back all migrations", needsDB: true, run: migrator((*migration.Migrator).Down)},
	"step":    {args: "<n>", help: "Apply n migrations (positive=up, negative=down)", minArgs: 1, needsDB: true, run: runStep},
	"version": {help: "Show current migration version", needsDB: true, run: runVersion},
	"force":   {args: "<version>", help: "Set the version without running migrations", minArgs: 1, needsDB: true, run: runForce},
	"create":  {args: "<name> [desc]", help: "Create a new migration file pair", minArgs: 1, run: runCreate},
	"list":    {help: "List migrations", run: runList},
	"admin":   {args: "<email> <password>", help: "Create the first admin account", minArgs: 2, needsDB: true, run: runAdmin},
}

var order = []string{"up", "down", "step", "version", "force", "create", "list", "admin"}

func main() {
	var e env
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&e.path, "path", "", "Read migrations from this directory instead of the embedded set")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok || len(args)-1 < cmd.minArgs {
		fmt.Fprintf(os.Stderr, "migrate: bad command %q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:      *logLevel,
		Format:     "console",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	e.log = log

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = execute(ctx, &e, cmd, args[1:])
	stop()
	_ = log.Sync()

	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintf(os.Stderr, "migrate: %v\n\n", err)
		printUsage()
		os.Exit(2)
	case err != nil:
		log.Error("migrate "+args[0]+" failed", zap.Error(err))
		os.Exit(1)
	}
}

func execute(ctx context.Context, e *env, cmd command, args []string) error {
	if cmd.needsDB {
		if err := config.LoadDotEnv(); err != nil {
			return fmt.Errorf("load .env: %w", err)
		}
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		e.cfg = cfg
	}
	return cmd.run(ctx, e, args)
}

// openMigrator connects with the configured DSN and the -path override
func openMigrator(ctx context.Context, e *env) (*migration.Migrator, error) {
	opts := []migration.Option{migration.WithLogger(e.log)}
	if e.path != "" {
		opts = append(opts, migration.WithPath(e.path))
	}
	return migration.Open(ctx, e.cfg.Database.DSN(), opts...)
}

// migrator adapts a Migrator method into a command
func migrator(op func(*migration.Migrator, context.Context) error) func(context.Context, *env, []string) error {
	return func(ctx context.Context, e *env, _ []string) error {
		m, err := openMigrator(ctx, e)
		if err != nil {
			return err
		}
		defer func() { _ = m.Close() }()
		return op(m, ctx)
	}
}

func runStep(ctx context.Context, e *env, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil || n == 0 {
		return fmt.Errorf("%w: step count must be a non-zero integer, got %q", errUsage, args[0])
	}
	return migrator(func(m *migration.Migrator, ctx context.Context) error {
		return m.Steps(ctx, n)
	})(ctx, e, args)
}

func runForce(ctx context.Context, e *env, args []string) error {
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: version must be an integer, got %q", errUsage, args[0])
	}
	return migrator(func(m *migration.Migrator, _ context.Context) error {
		return m.Force(version)
	})(ctx, e, args)
}

func runVersion(ctx context.Context, e *env, args []string) error {
	return migrator(func(m *migration.Migrator, _ context.Context) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			e.log.Info("No migrations applied")
			return nil
		}
		e.log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	})(ctx, e, args)
}

func runCreate(_ context.Context, e *env, args []string) error {
	dir := e.path
	if dir == "" {
		dir = defaultSourceDir
	}
	var description string
	if len(args) > 1 {
		description = args[1]
	}
	f, err := migration.Create(dir, args[0], description)
	if err != nil {
		return err
	}
	e.log.Info("Migration created",
		zap.Uint("version", f.Version),
		zap.String("up_file", f.UpPath),
		zap.String("down_file", f.DownPath),
	)
	return nil
}

func runList(_ context.Context, e *env, _ []string) error {
	var (
		entries []migration.Entry
		err     error
	)
	if e.path == "" {
		entries, err = migration.Embedded()
	} else {
		entries, err = migration.List(os.DirFS(e.path))
	}
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		e.log.Info("No migrations found")
		return nil
	}
	for _, m := range entries {
		suffix := ""
		if !m.HasDown {
			suffix = " (no down)"
		}
		fmt.Printf("  %06d %s%s\n", m.Version, m.Name, suffix)
	}
	return nil
}

func runAdmin(ctx context.Context, e *env, args []string) error {
	email, password := args[0], args[1]
	db, err := persistence.NewDatabase(&e.cfg.Database, nil)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	users := identityapp.NewUserService(persistence.NewGormUserRepository(db.DB), e.log)
	created, err := users.EnsureAdmin(ctx, email, password)
	if err != nil {
		return err
	}
	if !created {
		e.log.Info("A user with this email already exists", zap.String("email", email))
		return nil
	}
	e.log.Info("Admin created", zap.String("email", email))
	return nil
}

func printUsage() {
	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "StayDesk schema migrations")
	fmt.Fprintln(out, "\nUsage:\n  migrate [flags] <command> [arguments]\n\nCommands:")
	for _, name := range order {
		c := commands[name]
		fmt.Fprintf(out, "  %-26s%s\n", name+" "+c.args, c.help)
	}
	fmt.Fprintln(out, "\nFlags:")
	flag.PrintDefaults()
	fmt.Fprintln(out, "\nDatabase settings come from config.toml and STAYDESK_DATABASE_* variables.")
}
