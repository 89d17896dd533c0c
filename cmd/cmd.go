// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/checklists/internal/tasks"
	"github.com/urfave/cli/v3"
)

// setupCommand writes a config file when missing and prepares the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create a config file if missing, then initialize the database",
		Action: r.Setup,
	}
}

// migrateCommand manages schema migrations
func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage database migrations",
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply all pending migrations",
				Action: r.MigrateUp,
			},
			{
				Name:   "down",
				Usage:  "Roll back the most recent migration",
				Action: r.MigrateDown,
			},
			{
				Name:  "status",
				Usage: "Show applied and pending migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.MigrateStatus,
			},
		},
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the checklist HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Override server.host",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Override server.port",
			},
			&cli.DurationFlag{
				Name:  "sweep-interval",
				Usage: "How often expired sessions are purged",
				Value: tasks.DefaultSweepInterval,
			},
		},
		Action: r.Serve,
	}
}

// usersCommand manages accounts from the command line
func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Manage accounts",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Usage:    "Account password (at least 8 characters)",
						Required: true,
						Sources:  cli.EnvVars("CHECKLISTS_PASSWORD"),
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Display name",
					},
				},
				Action: r.UsersCreate,
			},
			{
				Name:  "list",
				Usage: "List accounts",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.UsersList,
			},
		},
	}
}

// checklistsCommand inspects and exports stored checklists
func checklistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "checklists",
		Aliases: []string{"cl"},
		Usage:   "Inspect and export checklists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List an account's checklists",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Usage:    "Owner email",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
						Value: true,
					},
				},
				Action: r.ChecklistsList,
			},
			{
				Name:  "show",
				Usage: "Show one checklist with its items",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Usage:    "Owner email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Checklist ID",
						Required: true,
					},
				},
				Action: r.ChecklistsShow,
			},
			{
				Name:  "export",
				Usage: "Export one checklist, or every checklist with --all",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "email",
						Usage: "Owner email (single export)",
					},
					&cli.StringFlag{
						Name:  "id",
						Usage: "Checklist ID (single export)",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: json, csv, markdown, txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory; a single export is written to stdout when empty",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Export every checklist of every (or each --owner) account",
					},
					&cli.StringSliceFlag{
						Name:  "owner",
						Usage: "Limit --all to these owner emails",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent file writers for --all (max 10)",
						Value: 4,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Owner lookups per second for --all; 0 is unlimited",
					},
				},
				Action: r.ChecklistsExport,
			},
		},
	}
}
