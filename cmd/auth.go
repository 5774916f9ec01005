package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/services"
	"github.com/desertthunder/filmx/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) credentials(cmd *cli.Command) (models.Credentials, error) {
	creds := models.Credentials{
		Username: cmd.String("username"),
		Email:    cmd.String("email"),
		Password: cmd.String("password"),
	}

	var err error
	if creds.Username == "" {
		if creds.Username, err = r.prompt("Username: "); err != nil {
			return creds, err
		}
	}
	if creds.Password == "" {
		if creds.Password, err = r.prompt("Password: "); err != nil {
			return creds, err
		}
	}
	return creds, nil
}

// AuthLogin signs in and stores the session for the configured profile.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	films, err := r.connect(cmd)
	if err != nil {
		return err
	}

	creds, err := r.credentials(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("signing in", "user", creds.Username, "backend", films.BaseURL())
	session, err := films.SignIn(ctx, creds)
	if err != nil {
		var apiErr *services.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("%w: %s", shared.ErrAuthFailed, apiErr.Message)
		}
		return err
	}

	session.Profile = r.config.Session.Profile
	if err := r.provider.Login(session); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return r.writePlain("✓ Signed in as %s\n", session.User.Username)
}

// AuthSignup registers an account. It does not sign in.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	films, err := r.connect(cmd)
	if err != nil {
		return err
	}

	creds, err := r.credentials(cmd)
	if err != nil {
		return err
	}

	user, err := films.SignUp(ctx, creds)
	if err != nil {
		var apiErr *services.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("%w: %s", shared.ErrInvalidInput, apiErr.Message)
		}
		return err
	}

	r.writePlain("✓ Account %s created\n", user.Username)
	return r.writePlain("Run 'filmx auth login -u %s' to sign in\n", user.Username)
}

// AuthLogout removes the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.connect(cmd); err != nil {
		return err
	}
	if !r.provider.Authenticated() {
		return r.writePlain("Not signed in\n")
	}
	if err := r.provider.Logout(); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out of profile %s\n", r.config.Session.Profile)
}

// AuthStatus reports the stored session without calling the backend.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.connect(cmd); err != nil {
		return err
	}

	session, err := r.provider.Session()
	if cmd.Bool("json") {
		status := struct {
			Authenticated bool         `json:"authenticated"`
			Profile       string       `json:"profile"`
			Backend       string       `json:"backend"`
			User          *models.User `json:"user,omitempty"`
		}{Authenticated: err == nil, Profile: r.config.Session.Profile, Backend: r.config.API.BaseURL}
		if session != nil {
			status.User = &session.User
		}
		return r.writeJSON(status, true)
	}

	r.writePlain("Backend: %s\n", r.configSummary())
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		return r.writePlain("Authentication: ✗ Not signed in\n")
	case err != nil:
		return err
	}

	r.writePlain("Authentication: ✓ Signed in as %s\n", session.User.Username)
	if session.User.Email != "" {
		r.writePlain("Email: %s\n", session.User.Email)
	}
	return r.writePlain("Since: %s\n", session.CreatedAt.Local().Format("2006-01-02 15:04"))
}
