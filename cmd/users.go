package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/checklists/internal/auth"
	"github.com/desertthunder/checklists/internal/validation"
	"github.com/urfave/cli/v3"
)

// UsersCreate registers an account with the same rules as the signup endpoint.
func (r *Runner) UsersCreate(ctx context.Context, cmd *cli.Command) error {
	fields := map[string]string{
		"email":    cmd.String("email"),
		"password": cmd.String("password"),
	}
	if cmd.IsSet("name") {
		fields["name"] = cmd.String("name")
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode signup: %w", err)
	}
	signup, err := validation.ValidateSignup(payload)
	if err != nil {
		return err
	}

	s, closeDB, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	hasher := auth.NewBcryptHasher(r.config.Auth.BcryptCost)
	svc := auth.NewService(s.users, s.sessions, hasher, r.config.Auth.SessionTTLDuration())

	user, err := svc.Signup(ctx, signup.Email, signup.Password, signup.Name)
	if err != nil {
		return err
	}

	r.logger.Info("user created", "user_id", user.ID)
	return r.writePlain("%s Created %s (%s)\n", r.palette.OK("✓"), user.Email, user.ID)
}

// UsersList prints every account in creation order.
func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	s, closeDB, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	users, err := s.users.List(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(users, true)
	}
	if len(users) == 0 {
		return r.writePlain("%s\n", r.palette.Help("No accounts yet"))
	}
	return r.writePlain("%s\n", r.palette.UserTable(users))
}
