package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/checklists/internal/models"
	"github.com/desertthunder/checklists/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes the example config when none exists and migrates the database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	if err := r.MigrateUp(ctx, cmd); err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return nil
}

// MigrateUp applies every pending migration.
func (r *Runner) MigrateUp(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDB()
	if err != nil {
		return err
	}
	defer closeDB()

	applied, err := shared.RunMigrations(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if applied == 0 {
		return r.writePlain("Database is up to date\n")
	}
	return r.writePlain("%s Applied %d migration(s)\n", r.palette.OK("✓"), applied)
}

// MigrateDown rolls back the latest applied migration.
func (r *Runner) MigrateDown(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDB()
	if err != nil {
		return err
	}
	defer closeDB()

	version, err := shared.RollbackMigration(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	return r.writePlain("%s Rolled back migration %d\n", r.palette.OK("✓"), version)
}

type migrationStatus struct {
	Version   int    `json:"version"`
	Name      string `json:"name"`
	Applied   bool   `json:"applied"`
	AppliedAt string `json:"appliedAt,omitempty"`
}

// MigrateStatus prints every known migration and whether it has been applied.
func (r *Runner) MigrateStatus(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDB()
	if err != nil {
		return err
	}
	defer closeDB()

	states, err := shared.MigrationStatus(ctx, db)
	if err != nil {
		return err
	}

	out := make([]migrationStatus, 0, len(states))
	for _, s := range states {
		status := migrationStatus{Version: s.Version, Name: s.Name, Applied: s.Applied}
		if s.AppliedAt != nil {
			status.AppliedAt = models.FormatTimestamp(*s.AppliedAt)
		}
		out = append(out, status)
	}

	if cmd.Bool("json") {
		return r.writeJSON(out, true)
	}

	r.writePlainHeader("Migrations")
	for _, s := range out {
		mark := r.palette.Warn("pending")
		if s.Applied {
			mark = r.palette.OK("applied") + " " + s.AppliedAt
		}
		r.writePlain("%03d %-24s %s\n", s.Version, s.Name, mark)
	}
	return nil
}
