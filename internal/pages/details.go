package pages

import (
	"context"
	"sync"

	"github.com/desertthunder/moviemaster/internal/models"
	"github.com/desertthunder/moviemaster/internal/shared"
)

// DetailsState is the movie details page.
type DetailsState struct {
	Loading       bool
	ID            string
	Movie         *models.Movie
	Watchlisted   bool
	StatusLoading bool
	Busy          bool
	CanEdit       bool
}

// Details shows one movie with its watchlist status and owner actions.
type Details struct {
	deps    Deps
	tracker Tracker

	mu    sync.RWMutex
	state DetailsState
}

// NewDetails creates the details page controller.
func NewDetails(deps Deps) *Details {
	return &Details{deps: deps.withDefaults()}
}

// State returns a snapshot of the page.
func (d *Details) State() DetailsState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s := d.state
	if s.Movie != nil {
		m := *s.Movie
		s.Movie = &m
	}
	s.CanEdit = s.Movie != nil && s.Movie.OwnedBy(d.deps.email())
	return s
}

// Open loads movie id, then its watchlist status when someone is signed in.
//
// A movie that does not exist notifies and navigates to the catalog.
// Opening another id before this one resolves discards this result.
func (d *Details) Open(ctx context.Context, id string) error {
	id = models.CanonicalID(id)
	d.mu.Lock()
	ctx, tok := d.tracker.Begin(ctx)
	d.state = DetailsState{Loading: true, ID: id}
	d.mu.Unlock()

	movie, err := d.deps.Catalog.Movie(ctx, id)
	if err != nil {
		if !tok.commit(&d.mu, func() { d.state.Loading = false }) {
			return ErrStale
		}

		d.deps.Logger.Error("failed to load movie", "id", id, "error", err)
		d.deps.Notifier.Error(messageOr(err, "Failed to load movie details"))
		switch shared.KindOf(err) {
		case shared.KindNotFound:
			d.deps.Navigator.Navigate(RouteAllMovies)
		case shared.KindUnauthorized:
			d.deps.Navigator.Navigate(RouteLogin)
		}
		return err
	}

	email := d.deps.email()
	if !tok.commit(&d.mu, func() {
		d.state.Loading = false
		d.state.Movie = movie
		d.state.StatusLoading = email != ""
	}) {
		return ErrStale
	}

	if email == "" {
		return nil
	}

	status, err := d.deps.Catalog.WatchlistStatus(ctx, id, email)
	if !tok.commit(&d.mu, func() {
		d.state.StatusLoading = false
		if err == nil {
			d.state.Watchlisted = status.IsWatchlisted
		}
	}) {
		return ErrStale
	}
	if err != nil {
		d.deps.Logger.Warn("failed to check watchlist status", "id", id, "error", err)
	}
	return nil
}

// ToggleWatchlist adds or removes the open movie from the signed-in user's watchlist.
func (d *Details) ToggleWatchlist(ctx context.Context) error {
	email, err := d.deps.requireUser("Please login to manage your watchlist")
	if err != nil {
		return err
	}

	d.mu.Lock()
	id, watchlisted := d.state.ID, d.state.Watchlisted
	if id == "" || d.state.Busy {
		d.mu.Unlock()
		return nil
	}
	d.state.Busy = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.state.Busy = false
		d.mu.Unlock()
	}()

	if watchlisted {
		if _, err := d.deps.Catalog.RemoveFromWatchlist(ctx, id, email); err != nil {
			d.deps.Notifier.Error(messageOr(err, "Failed to update watchlist"))
			return err
		}
		d.setWatchlisted(id, false)
		d.deps.Notifier.Success("Removed from watchlist")
		return nil
	}

	result, err := d.deps.Catalog.AddToWatchlist(ctx, id, email)
	if err != nil {
		d.deps.Notifier.Error(messageOr(err, "Failed to update watchlist"))
		return err
	}
	d.setWatchlisted(id, true)
	if result.AlreadyExists {
		d.deps.Notifier.Info("Movie is already in your watchlist")
	} else {
		d.deps.Notifier.Success("Added to watchlist")
	}
	return nil
}

func (d *Details) setWatchlisted(id string, v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state.ID == id {
		d.state.Watchlisted = v
	}
}

// Delete removes the open movie. Only its owner may delete it.
func (d *Details) Delete(ctx context.Context) error {
	email, err := d.deps.requireUser("Please login to delete a movie")
	if err != nil {
		return err
	}

	s := d.State()
	if s.Movie == nil {
		return nil
	}
	if !s.Movie.OwnedBy(email) {
		msg := "You don't have permission to delete this movie"
		d.deps.Notifier.Error(msg)
		return shared.NewError(shared.KindUnauthorized, msg, nil)
	}

	if _, err := d.deps.Catalog.DeleteMovie(ctx, s.ID, email); err != nil {
		d.deps.Notifier.Error(messageOr(err, "Failed to delete movie"))
		return err
	}

	d.deps.Notifier.Success("Movie deleted successfully")
	d.deps.Navigator.Navigate(RouteMyCollection)
	return nil
}

// Close abandons any in-flight load.
func (d *Details) Close() { d.tracker.Stop() }
