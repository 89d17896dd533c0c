package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/checklists/internal/api"
	"github.com/desertthunder/checklists/internal/auth"
	"github.com/desertthunder/checklists/internal/server"
	"github.com/desertthunder/checklists/internal/shared"
	"github.com/desertthunder/checklists/internal/tasks"
	"github.com/urfave/cli/v3"
)

// lockWait bounds how long serve waits for another server to release the database.
const lockWait = 2 * time.Second

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := *r.config
	if cmd.IsSet("host") {
		config.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		config.Server.Port = int(cmd.Int("port"))
	}
	if err := config.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if r.db == nil && config.Database.Path != ":memory:" {
		lockCtx, cancel := context.WithTimeout(ctx, lockWait)
		lock, err := shared.AcquireLock(lockCtx, shared.LockPath(config.Database.Path), 100*time.Millisecond)
		cancel()
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	s, closeDB, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	logger := shared.WithLogger(r.logger, "component", "serve")

	sweeper := tasks.NewSessionSweeper(s.sessions, cmd.Duration("sweep-interval"), logger)
	swept := make(chan struct{})
	go func() {
		defer close(swept)
		_ = sweeper.Run(ctx) //nolint:errcheck // sweep failures are logged by the sweeper
	}()

	srv := server.New(config.Server.Addr(), newAPI(s, &config, r.logger).Routes(), server.Options{
		ReadTimeout:  config.Server.ReadTimeoutDuration(),
		WriteTimeout: config.Server.WriteTimeoutDuration(),
		Logger:       logger,
	})

	logger.Info("starting", "database", config.Database.Path, "session_ttl", config.Auth.SessionTTLDuration())
	err = srv.ListenAndServe(ctx)

	stop()
	<-swept
	return err
}

// newAPI wires the repositories in s into the HTTP API using the auth settings from config.
func newAPI(s *store, config *shared.Config, logger *log.Logger) *api.API {
	hasher := auth.NewBcryptHasher(config.Auth.BcryptCost)
	svc := auth.NewService(s.users, s.sessions, hasher, config.Auth.SessionTTLDuration())

	return api.New(api.Options{
		Auth:         svc,
		Checklists:   s.checklists,
		Items:        s.items,
		DB:           s.db,
		Logger:       logger,
		Metrics:      server.NewMetrics(),
		LoginLimiter: server.NewIPRateLimiter(float64(config.Auth.LoginRatePerMinute), config.Auth.LoginBurst),
		Cookie: api.CookieOptions{
			Name:   config.Auth.CookieName,
			Secure: config.Auth.CookieSecure,
		},
	})
}
