package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/checklists/internal/formatter"
	"github.com/desertthunder/checklists/internal/models"
	"github.com/desertthunder/checklists/internal/shared"
	"github.com/desertthunder/checklists/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ownerByEmail resolves the --email flag to an account.
func (r *Runner) ownerByEmail(ctx context.Context, s *store, email string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", email, err)
	}
	return user, nil
}

// ChecklistsList prints an account's checklists, newest first.
func (r *Runner) ChecklistsList(ctx context.Context, cmd *cli.Command) error {
	s, closeDB, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	owner, err := r.ownerByEmail(ctx, s, cmd.String("email"))
	if err != nil {
		return err
	}

	checklists, err := s.checklists.List(ctx, owner.ID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if checklists == nil {
			checklists = []*models.Checklist{}
		}
		return r.writeJSON(checklists, cmd.Bool("pretty"))
	}
	if len(checklists) == 0 {
		return r.writePlain("%s\n", r.palette.Help("No checklists for "+owner.Email))
	}
	return r.writePlain("%s\n", r.palette.ChecklistTable(checklists))
}

// ChecklistsShow prints one checklist with its items.
func (r *Runner) ChecklistsShow(ctx context.Context, cmd *cli.Command) error {
	s, closeDB, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	owner, err := r.ownerByEmail(ctx, s, cmd.String("email"))
	if err != nil {
		return err
	}

	checklist, err := s.checklists.Get(ctx, owner.ID, cmd.String("id"))
	if err != nil {
		return err
	}

	return r.writePlain("%s", r.palette.RenderChecklist(checklist))
}

// ChecklistsExport exports a single checklist, or all of them with --all.
func (r *Runner) ChecklistsExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	s, closeDB, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	if cmd.Bool("all") {
		return r.bulkExport(ctx, s, tasks.BulkExportOpts{
			Format:     format,
			OutputDir:  cmd.String("output"),
			NumWorkers: int(cmd.Int("workers")),
			RateLimit:  cmd.Float("rate"),
			Emails:     cmd.StringSlice("owner"),
		})
	}

	email, id := cmd.String("email"), cmd.String("id")
	if email == "" || id == "" {
		return fmt.Errorf("%w: --email and --id are required unless --all is set", shared.ErrMissingArgument)
	}

	owner, err := r.ownerByEmail(ctx, s, email)
	if err != nil {
		return err
	}
	checklist, err := s.checklists.Get(ctx, owner.ID, id)
	if err != nil {
		return err
	}

	dir := cmd.String("output")
	if dir == "" {
		data, err := formatter.Export(checklist, format)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	}

	path, err := formatter.WriteExport(checklist, format, dir)
	if err != nil {
		return err
	}

	r.logger.Info("exported checklist", "checklist_id", checklist.ID, "path", path)
	return r.writePlain("%s Exported %q to %s\n", r.palette.OK("✓"), checklist.Title, path)
}

func (r *Runner) bulkExport(ctx context.Context, s *store, opts tasks.BulkExportOpts) error {
	r.writePlain("Exporting checklists as %s...\n\n", opts.Format)

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			switch update.Phase {
			case tasks.FetchUsers, tasks.FetchChecklists:
				r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
			case tasks.ExportChecklist:
				r.writePlain("  %s\n", update.Message)
			}
		}
	}()

	result, err := tasks.NewExporter(s.users, s.checklists).BulkExport(ctx, progress, opts)
	close(progress)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete")
	r.writePlain("Accounts: %d\n", result.TotalUsers)
	r.writePlain("Checklists: %d\n", result.TotalChecklists)
	r.writePlain("Succeeded: %s\n", r.palette.OK(fmt.Sprint(result.SuccessfulExports)))
	if result.FailedExports > 0 {
		r.writePlain("Failed: %s\n", r.palette.Err(fmt.Sprint(result.FailedExports)))
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  - %s (%s): %s\n", res.Title, res.OwnerEmail, res.ErrorText)
			}
		}
	}
	r.writePlain("Output: %s\n", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)

	return nil
}
