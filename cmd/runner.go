package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/checklists/internal/repositories"
	"github.com/desertthunder/checklists/internal/shared"
	"github.com/desertthunder/checklists/internal/ui"
	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	logger  *log.Logger
	output  io.Writer
	db      *sql.DB
	palette *ui.Palette
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Config is resolved from the --config flag before any command runs. A non-nil DB is used
// by every command instead of opening the configured database path.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
	DB     *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:  opts.Config,
		logger:  opts.Logger,
		output:  opts.Output,
		db:      opts.DB,
		palette: ui.Default,
	}
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "checklists",
		Usage:   "Multi-user checklist service",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (.toml or .yaml)",
				Value:   "config.toml",
				Sources: cli.EnvVars("CHECKLISTS_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Override the configured log level",
				Sources: cli.EnvVars("CHECKLISTS_LOG_LEVEL"),
			},
		},
		Before:   r.load,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, migrateCommand, serveCommand, usersCommand, checklistsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// load resolves the configuration and log level before a command runs.
func (r *Runner) load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.config == nil || cmd.IsSet("config") {
		config, err := shared.ResolveConfig(cmd.String("config"))
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	if lvl := cmd.String("log-level"); lvl != "" {
		r.config.Log.Level = lvl
	}
	if err := r.config.Validate(); err != nil {
		return ctx, err
	}

	level, err := shared.ParseLogLevel(r.config.Log.Level)
	if err != nil {
		return ctx, err
	}
	shared.SetLogLevel(r.logger, level)

	return ctx, nil
}

// openDB opens the configured database, or returns the injected one. The returned func closes
// whatever was opened here.
func (r *Runner) openDB() (*sql.DB, func(), error) {
	if r.db != nil {
		return r.db, func() {}, nil
	}

	path := r.config.Database.Path
	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if path != ":memory:" {
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	}

	return db, func() { db.Close() }, nil
}

// store groups the repositories a command works with.
type store struct {
	db         *sql.DB
	users      *repositories.UserRepository
	sessions   *repositories.SessionRepository
	checklists *repositories.ChecklistRepository
	items      *repositories.ItemRepository
}

// openStore opens the database, applies pending migrations and builds the repositories.
func (r *Runner) openStore(ctx context.Context) (*store, func(), error) {
	db, closeDB, err := r.openDB()
	if err != nil {
		return nil, nil, err
	}

	applied, err := shared.RunMigrations(ctx, db)
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if applied > 0 {
		r.logger.Info("applied migrations", "count", applied)
	}

	return &store{
		db:         db,
		users:      repositories.NewUserRepository(db),
		sessions:   repositories.NewSessionRepository(db),
		checklists: repositories.NewChecklistRepository(db),
		items:      repositories.NewItemRepository(db),
	}, closeDB, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", r.palette.Title(title))
	r.writePlain("═══════════════════════════════════════\n")
}
