package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/moviemaster/internal/shared"
	"github.com/desertthunder/moviemaster/internal/theme"
	"github.com/urfave/cli/v3"
)

// ThemeShow prints the stored theme.
func (r *Runner) ThemeShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(ctx); err != nil {
		return err
	}
	defer r.Close()

	return r.writePlain("%s\n", r.themes.Theme())
}

// ThemeToggle switches between dark and light and stores the result.
func (r *Runner) ThemeToggle(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(ctx); err != nil {
		return err
	}
	defer r.Close()

	next, err := r.themes.Toggle()
	if err != nil {
		return err
	}
	return r.writePlain("Theme set to %s\n", next)
}

// ThemeSet stores the named theme.
func (r *Runner) ThemeSet(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("theme")
	if raw == "" {
		return fmt.Errorf("%w: theme is required (dark or light)", shared.ErrMissingArgument)
	}
	t, err := theme.Parse(raw)
	if err != nil {
		return err
	}

	if err := r.prepare(ctx); err != nil {
		return err
	}
	defer r.Close()

	if err := r.themes.Set(t); err != nil {
		return err
	}
	return r.writePlain("Theme set to %s\n", t)
}
