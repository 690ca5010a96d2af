package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/moviemaster/internal/models"
	"github.com/desertthunder/moviemaster/internal/pages"
	"github.com/desertthunder/moviemaster/internal/shared"
	"github.com/urfave/cli/v3"
)

// authPage prepares the runner and returns the sign-in page backed by the session holder.
func (r *Runner) authPage(ctx context.Context) (*pages.Auth, error) {
	if err := r.prepare(ctx); err != nil {
		return nil, err
	}
	holder, err := r.requireIdentity()
	if err != nil {
		return nil, err
	}
	return pages.NewAuth(r.deps(), holder), nil
}

// AuthRegister creates an account and signs it in.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	auth, err := r.authPage(ctx)
	if err != nil {
		return err
	}
	defer r.Close()

	confirm := cmd.String("confirm")
	if !cmd.IsSet("confirm") {
		confirm = cmd.String("password")
	}

	user, err := auth.Register(ctx, pages.Registration{
		Name:            cmd.String("name"),
		Email:           cmd.String("email"),
		PhotoURL:        cmd.String("photo-url"),
		Password:        cmd.String("password"),
		ConfirmPassword: confirm,
	})
	if err != nil {
		return err
	}
	return r.writeUser(user)
}

// AuthLogin signs in with email and password.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	auth, err := r.authPage(ctx)
	if err != nil {
		return err
	}
	defer r.Close()

	user, err := auth.Login(ctx, cmd.String("email"), cmd.String("password"))
	if err != nil {
		return err
	}
	return r.writeUser(user)
}

// AuthGoogle runs the browser consent flow and signs in with the result.
func (r *Runner) AuthGoogle(ctx context.Context, cmd *cli.Command) error {
	if !r.config.Identity.Google.Configured() {
		return fmt.Errorf("%w: identity.google client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	auth, err := r.authPage(ctx)
	if err != nil {
		return err
	}
	defer r.Close()

	r.writePlain("Waiting for Google sign-in in your browser...\n")
	user, err := auth.LoginWithGoogle(ctx)
	if err != nil {
		return err
	}
	return r.writeUser(user)
}

// AuthLogout signs out and clears the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(ctx); err != nil {
		return err
	}
	defer r.Close()

	holder, err := r.requireIdentity()
	if err != nil {
		return err
	}
	if !holder.State().SignedIn() {
		return r.writePlain("Not signed in.\n")
	}
	if err := holder.SignOut(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return r.writePlain("Signed out.\n")
}

// AuthWhoami prints the signed-in user.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(ctx); err != nil {
		return err
	}
	defer r.Close()

	var user *models.SessionUser
	if holder, err := r.requireIdentity(); err == nil {
		user = holder.State().User
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"signed_in": user != nil, "user": user}, false)
	}
	if user == nil {
		return r.writePlain("Not signed in.\n")
	}
	return r.writeUser(user)
}

func (r *Runner) writeUser(u *models.SessionUser) error {
	r.writePlain("Signed in as %s <%s>\n", u.Name(), u.Email)
	if u.PhotoURL != "" {
		r.writePlain("Photo: %s\n", u.PhotoURL)
	}
	return nil
}
