package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/moviemaster/internal/models"
	"github.com/desertthunder/moviemaster/internal/pages"
	"github.com/desertthunder/moviemaster/internal/shared"
	"github.com/urfave/cli/v3"
)

// movieID reads the id argument and canonicalizes it.
func movieID(cmd *cli.Command) (string, error) {
	raw := cmd.StringArg("id")
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: movie id is required", shared.ErrMissingArgument)
	}
	id := models.CanonicalID(raw)
	if id == "" {
		return "", fmt.Errorf("%w: invalid movie id %q", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

// movieInput builds form values from flags, starting from base.
func movieInput(cmd *cli.Command, base models.MovieInput) models.MovieInput {
	fields := []struct {
		flag   string
		target *string
	}{
		{"title", &base.Title},
		{"genre", &base.Genre},
		{"year", &base.ReleaseYear},
		{"director", &base.Director},
		{"cast", &base.Cast},
		{"rating", &base.Rating},
		{"duration", &base.Duration},
		{"plot", &base.PlotSummary},
		{"poster", &base.PosterURL},
		{"language", &base.Language},
		{"country", &base.Country},
	}
	for _, f := range fields {
		if cmd.IsSet(f.flag) {
			*f.target = cmd.String(f.flag)
		}
	}
	return base
}

// Home prints the landing page.
func (r *Runner) Home(ctx context.Context, cmd *cli.Command) error {
	home := pages.NewHome(r.deps())
	defer home.Close()

	if err := home.Load(ctx); err != nil {
		return err
	}
	state := home.State()

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"stats":     state.Stats,
			"top_rated": state.TopRated,
			"recent":    state.Recent,
			"featured":  state.Featured,
		}, cmd.Bool("pretty"))
	}

	r.writePlainHeader("MovieMaster")
	r.writePlain("Movies: %d    Users: %d\n", state.Stats.TotalMovies, state.Stats.TotalUsers)
	for _, row := range []struct {
		title  string
		movies []models.Movie
	}{
		{"Top Rated", state.TopRated},
		{"Recently Added", state.Recent},
		{"Featured", state.Featured},
	} {
		r.writePlain("\n")
		if err := r.writeMovieTable(r.movieList("", row.title, "", row.movies)); err != nil {
			return err
		}
	}
	return nil
}

// MoviesList prints the catalog for the given filters.
func (r *Runner) MoviesList(ctx context.Context, cmd *cli.Command) error {
	catalog := pages.NewCatalog(r.deps())
	defer catalog.Close()

	filters := models.Filters{
		Genre:  cmd.String("genre"),
		Search: cmd.String("search"),
		SortBy: cmd.String("sort"),
	}
	before := catalog.State().Filters
	if err := catalog.SetFilters(ctx, filters); err != nil {
		return err
	}
	if catalog.State().Filters == before {
		if err := catalog.Load(ctx); err != nil {
			return err
		}
	}

	state := catalog.State()
	name := "All Movies"
	if g := state.Filters.Genre; g != "" && !strings.EqualFold(g, models.AllGenres) {
		name = g + " Movies"
	}
	return r.writeMovies(r.movieList("catalog", name, "", state.Movies), cmd.Bool("json"), cmd.String("format"))
}

// MoviesShow prints one movie and, when signed in, its watchlist status.
func (r *Runner) MoviesShow(ctx context.Context, cmd *cli.Command) error {
	id, err := movieID(cmd)
	if err != nil {
		return err
	}
	if err := r.prepare(ctx); err != nil {
		return err
	}
	defer r.Close()

	details := pages.NewDetails(r.deps())
	defer details.Close()

	if err := details.Open(ctx, id); err != nil {
		return err
	}
	state := details.State()

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"movie":       state.Movie,
			"watchlisted": state.Watchlisted,
			"can_edit":    state.CanEdit,
		}, true)
	}

	r.writeMovie(state.Movie, state.Watchlisted, r.email() != "", state.CanEdit)
	return nil
}

// MoviesAdd creates a movie owned by the signed-in user.
func (r *Runner) MoviesAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(ctx); err != nil {
		return err
	}
	defer r.Close()

	form := pages.NewMovieForm(r.deps())
	created, err := form.Add(ctx, movieInput(cmd, models.MovieInput{}))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(created, true)
	}
	return r.writePlain("Added %q [%s]\n", created.Title, created.CanonicalID())
}

// MoviesUpdate changes the fields given as flags on a movie the signed-in user added.
func (r *Runner) MoviesUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := movieID(cmd)
	if err != nil {
		return err
	}
	if err := r.prepare(ctx); err != nil {
		return err
	}
	defer r.Close()

	form := pages.NewMovieForm(r.deps())
	current, err := form.Load(ctx, id)
	if err != nil {
		return err
	}

	updated, err := form.Update(ctx, id, movieInput(cmd, current))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(updated, true)
	}
	return r.writePlain("Updated %q [%s]\n", updated.Title, updated.CanonicalID())
}

// MoviesDelete removes a movie the signed-in user added.
func (r *Runner) MoviesDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := movieID(cmd)
	if err != nil {
		return err
	}
	if err := r.prepare(ctx); err != nil {
		return err
	}
	defer r.Close()

	details := pages.NewDetails(r.deps())
	defer details.Close()

	if err := details.Open(ctx, id); err != nil {
		return err
	}
	if err := details.Delete(ctx); err != nil {
		return err
	}
	return r.writePlain("Deleted %s\n", id)
}

// MoviesMine prints the signed-in user's collection.
func (r *Runner) MoviesMine(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(ctx); err != nil {
		return err
	}
	defer r.Close()

	collection := pages.NewCollection(r.deps())
	defer collection.Close()

	if err := collection.Load(ctx); err != nil {
		return err
	}

	list := r.movieList("my-collection", "My Collection", r.email(), collection.State().Movies)
	return r.writeMovies(list, cmd.Bool("json"), cmd.String("format"))
}

// WatchlistList prints the signed-in user's watchlist.
func (r *Runner) WatchlistList(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(ctx); err != nil {
		return err
	}
	defer r.Close()

	watchlist := pages.NewWatchlist(r.deps())
	defer watchlist.Close()

	if err := watchlist.Load(ctx); err != nil {
		return err
	}

	list := r.movieList("watchlist", "My Watchlist", r.email(), watchlist.State().Movies)
	return r.writeMovies(list, cmd.Bool("json"), cmd.String("format"))
}

// WatchlistAdd saves a movie to the signed-in user's watchlist.
func (r *Runner) WatchlistAdd(ctx context.Context, cmd *cli.Command) error {
	id, err := movieID(cmd)
	if err != nil {
		return err
	}
	if err := r.prepare(ctx); err != nil {
		return err
	}
	defer r.Close()

	return pages.SaveToWatchlist(ctx, r.deps(), models.Movie{ID: models.StringID(id)})
}

// WatchlistRemove takes a movie off the signed-in user's watchlist.
func (r *Runner) WatchlistRemove(ctx context.Context, cmd *cli.Command) error {
	id, err := movieID(cmd)
	if err != nil {
		return err
	}
	if err := r.prepare(ctx); err != nil {
		return err
	}
	defer r.Close()

	return pages.NewWatchlist(r.deps()).Remove(ctx, id)
}

// WatchlistStatus reports whether a movie is on the signed-in user's watchlist.
func (r *Runner) WatchlistStatus(ctx context.Context, cmd *cli.Command) error {
	id, err := movieID(cmd)
	if err != nil {
		return err
	}
	if err := r.prepare(ctx); err != nil {
		return err
	}
	defer r.Close()

	email := r.email()
	if email == "" {
		r.notifier.Error("Please login to manage your watchlist")
		r.notifier.Navigate(pages.RouteLogin)
		return shared.NewError(shared.KindUnauthorized, "Please login to manage your watchlist", shared.ErrNotAuthenticated)
	}

	status, err := r.catalog.WatchlistStatus(ctx, id, email)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, false)
	}
	if status.IsWatchlisted {
		return r.writePlain("✓ %s is in your watchlist\n", id)
	}
	return r.writePlain("%s is not in your watchlist\n", id)
}
