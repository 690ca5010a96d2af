// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/moviemaster/internal/models"
	"github.com/desertthunder/moviemaster/internal/pages"
	"github.com/desertthunder/moviemaster/internal/tasks"
	"github.com/urfave/cli/v3"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}
}

func prettyFlag() cli.Flag {
	return &cli.BoolFlag{Name: "pretty", Usage: "Pretty-print JSON output", Value: true}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "List output format: text, csv, markdown",
		Value:   formatText,
	}
}

// movieFlags are the add and update form fields.
func movieFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Usage: "Movie title"},
		&cli.StringFlag{Name: "genre", Usage: "Genre"},
		&cli.StringFlag{Name: "year", Usage: "Release year"},
		&cli.StringFlag{Name: "director", Usage: "Director"},
		&cli.StringFlag{Name: "cast", Usage: "Comma separated cast"},
		&cli.StringFlag{Name: "rating", Usage: "Rating from 0 to 10"},
		&cli.StringFlag{Name: "duration", Usage: "Duration in minutes"},
		&cli.StringFlag{Name: "plot", Usage: "Plot summary"},
		&cli.StringFlag{Name: "poster", Usage: "Poster URL"},
		&cli.StringFlag{Name: "language", Usage: "Language"},
		&cli.StringFlag{Name: "country", Usage: "Country"},
		jsonFlag(),
	}
}

// setupCommand handles setup operations for configuration and local storage.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and initialize local storage",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Roll back the most recent migration",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles sign-in and session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your account and session",
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create an account with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password", Required: true},
					&cli.StringFlag{Name: "confirm", Usage: "Password confirmation (defaults to --password)"},
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Display name"},
					&cli.StringFlag{Name: "photo-url", Usage: "Profile photo URL"},
				},
				Action: r.AuthRegister,
			},
			{
				Name:  "login",
				Usage: "Sign in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password", Required: true},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "google",
				Usage:  "Sign in with Google in the browser",
				Action: r.AuthGoogle,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and forget the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:   "whoami",
				Usage:  "Show the signed-in user",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AuthWhoami,
			},
		},
	}
}

// homeCommand prints the landing page
func homeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "home",
		Usage:  "Show catalog stats with top rated, recent and featured movies",
		Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
		Action: r.Home,
	}
}

// moviesCommand handles catalog operations
func moviesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "movies",
		Aliases: []string{"m"},
		Usage:   "Browse and manage the movie catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "genre", Aliases: []string{"g"}, Usage: "Genre filter", Value: models.AllGenres},
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Title search"},
					&cli.StringFlag{Name: "sort", Usage: "Sort by rating, year or title", Value: pages.DefaultFilters().SortBy},
					jsonFlag(),
					formatFlag(),
				},
				Action: r.MoviesList,
			},
			{
				Name:      "show",
				Usage:     "Show one movie with its watchlist status",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.MoviesShow,
			},
			{
				Name:   "add",
				Usage:  "Add a movie to your collection",
				Flags:  movieFlags(),
				Action: r.MoviesAdd,
			},
			{
				Name:      "update",
				Usage:     "Update a movie you added; unset flags keep their current value",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     movieFlags(),
				Action:    r.MoviesUpdate,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a movie you added",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.MoviesDelete,
			},
			{
				Name:   "mine",
				Usage:  "List the movies you added",
				Flags:  []cli.Flag{jsonFlag(), formatFlag()},
				Action: r.MoviesMine,
			},
		},
	}
}

// watchlistCommand handles watchlist operations
func watchlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "watchlist",
		Aliases: []string{"wl"},
		Usage:   "Manage your watchlist",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List your watchlist",
				Flags:  []cli.Flag{jsonFlag(), formatFlag()},
				Action: r.WatchlistList,
			},
			{
				Name:      "add",
				Usage:     "Save a movie to your watchlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.WatchlistAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a movie from your watchlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.WatchlistRemove,
			},
			{
				Name:      "status",
				Usage:     "Check whether a movie is on your watchlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.WatchlistStatus,
			},
		},
	}
}

// themeCommand handles the display preference
func themeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "theme",
		Usage: "Show or change the dark/light preference",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the current theme",
				Action: r.ThemeShow,
			},
			{
				Name:   "toggle",
				Usage:  "Switch between dark and light",
				Action: r.ThemeToggle,
			},
			{
				Name:      "set",
				Usage:     "Set the theme to dark or light",
				Arguments: []cli.Argument{&cli.StringArg{Name: "theme"}},
				Action:    r.ThemeSet,
			},
		},
	}
}

// exportCommand writes movie lists to disk
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export movie lists concurrently",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "list",
				Aliases: []string{"l"},
				Usage:   "List to export: collection, watchlist, catalog, top-rated, recent, featured or genre:<Genre> (default: collection and watchlist)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: json, csv, markdown, txt",
				Value:   tasks.FormatJSON,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: movies_export_{timestamp})",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of concurrent export workers (1-10)",
				Value: 3,
			},
			&cli.FloatFlag{
				Name:  "rate-limit",
				Usage: "List fetches per second",
				Value: 5.0,
			},
			&cli.BoolFlag{
				Name:  "posters",
				Usage: "Download posters for markdown exports",
			},
			jsonFlag(),
		},
		Action: r.Export,
	}
}

// apiCommand handles direct backend calls
func apiCommand(r *Runner) *cli.Command {
	requestFlags := func(withData bool) []cli.Flag {
		flags := []cli.Flag{
			&cli.BoolFlag{Name: "as-me", Usage: "Send the signed-in email as the identity header"},
			jsonFlag(),
		}
		if withData {
			flags = append(flags, &cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "JSON body to send",
				Required: true,
			})
		}
		return flags
	}

	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the catalog backend",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Direct GET, prints the response body",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags:     requestFlags(false),
				Action:    r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "Direct POST with JSON body",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags:     requestFlags(true),
				Action:    r.APIPost,
			},
			{
				Name:      "put",
				Usage:     "Direct PUT with JSON body",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags:     requestFlags(true),
				Action:    r.APIPut,
			},
			{
				Name:      "delete",
				Usage:     "Direct DELETE",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags:     requestFlags(false),
				Action:    r.APIDelete,
			},
			{
				Name:  "snapshot",
				Usage: "Fetch every read endpoint and print the combined state",
				Flags: []cli.Flag{
					prettyFlag(),
					&cli.StringFlag{
						Name:  "save",
						Usage: "Also write the snapshot to this file",
					},
				},
				Action: r.APISnapshot,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive catalog browser",
		Action:  r.TUI,
	}
}
