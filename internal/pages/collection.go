package pages

import (
	"context"
	"slices"
	"sync"

	"github.com/desertthunder/moviemaster/internal/models"
	"github.com/desertthunder/moviemaster/internal/shared"
)

// ListState is a page holding a list of movies.
type ListState struct {
	Loading bool
	Movies  []models.Movie
}

type listPage struct {
	deps    Deps
	tracker Tracker

	mu    sync.RWMutex
	state ListState
}

func (p *listPage) State() ListState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return ListState{Loading: p.state.Loading, Movies: slices.Clone(p.state.Movies)}
}

// load runs fetch under a fresh token and stores the normalized result.
func (p *listPage) load(ctx context.Context, fallback string, fetch func(context.Context) ([]models.Movie, error)) error {
	p.mu.Lock()
	ctx, tok := p.tracker.Begin(ctx)
	p.state.Loading = true
	p.mu.Unlock()

	movies, err := fetch(ctx)
	if err != nil {
		if !tok.commit(&p.mu, func() { p.state.Loading = false }) {
			return ErrStale
		}

		p.deps.Logger.Error(fallback, "error", err)
		p.deps.Notifier.Error(messageOr(err, fallback))
		if shared.IsKind(err, shared.KindUnauthorized) {
			p.deps.Navigator.Navigate(RouteLogin)
		}
		return err
	}

	movies = p.deps.normalize(movies)
	if !tok.commit(&p.mu, func() { p.state = ListState{Movies: movies} }) {
		return ErrStale
	}
	return nil
}

func (p *listPage) apply(patch models.Patch) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Movies = models.ApplyPatch(p.state.Movies, patch)
}

func (p *listPage) find(id string) (models.Movie, bool) {
	id = models.CanonicalID(id)
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, m := range p.state.Movies {
		if m.CanonicalID() == id {
			return m, true
		}
	}
	return models.Movie{}, false
}

// Close abandons any in-flight load.
func (p *listPage) Close() { p.tracker.Stop() }

// Collection lists the movies the signed-in user added.
type Collection struct {
	listPage
}

// NewCollection creates the collection page controller.
func NewCollection(deps Deps) *Collection {
	return &Collection{listPage{deps: deps.withDefaults()}}
}

// Load fetches the collection. Records owned by someone else are dropped.
func (c *Collection) Load(ctx context.Context) error {
	email, err := c.deps.requireUser("Please login to view your collection")
	if err != nil {
		return err
	}

	return c.load(ctx, "Failed to load your collection", func(ctx context.Context) ([]models.Movie, error) {
		movies, err := c.deps.Catalog.MyCollection(ctx, email)
		if err != nil {
			return nil, err
		}
		return models.FilterOwned(movies, email), nil
	})
}

// Delete removes movie id and drops it from the list.
func (c *Collection) Delete(ctx context.Context, id string) error {
	email, err := c.deps.requireUser("Please login to view your collection")
	if err != nil {
		return err
	}

	id = models.CanonicalID(id)
	if id == "" {
		c.deps.Notifier.Error("Invalid movie ID")
		return shared.NewValidationError("Invalid movie ID")
	}
	if m, found := c.find(id); found && !m.OwnedBy(email) {
		msg := "You don't have permission to delete this movie"
		c.deps.Notifier.Error(msg)
		return shared.NewError(shared.KindUnauthorized, msg, nil)
	}

	if _, err := c.deps.Catalog.DeleteMovie(ctx, id, email); err != nil {
		c.deps.Notifier.Error(messageOr(err, "Failed to delete movie"))
		return err
	}

	c.apply(models.RemovePatch(id))
	c.deps.Notifier.Success("Movie deleted successfully")
	return nil
}

// Watchlist lists the movies the signed-in user saved.
type Watchlist struct {
	listPage
}

// NewWatchlist creates the watchlist page controller.
func NewWatchlist(deps Deps) *Watchlist {
	return &Watchlist{listPage{deps: deps.withDefaults()}}
}

// Load fetches the watchlist.
func (w *Watchlist) Load(ctx context.Context) error {
	email, err := w.deps.requireUser("Please login to view your watchlist")
	if err != nil {
		return err
	}

	return w.load(ctx, "Failed to load your watchlist", func(ctx context.Context) ([]models.Movie, error) {
		return w.deps.Catalog.Watchlist(ctx, email)
	})
}

// Remove takes movie id off the watchlist and drops it from the list.
func (w *Watchlist) Remove(ctx context.Context, id string) error {
	email, err := w.deps.requireUser("Please login to view your watchlist")
	if err != nil {
		return err
	}

	id = models.CanonicalID(id)
	if id == "" {
		w.deps.Notifier.Error("Invalid movie identifier")
		return shared.NewValidationError("Invalid movie identifier")
	}

	if _, err := w.deps.Catalog.RemoveFromWatchlist(ctx, id, email); err != nil {
		w.deps.Notifier.Error(messageOr(err, "Failed to remove from watchlist"))
		return err
	}

	w.apply(models.RemovePatch(id))
	w.deps.Notifier.Success("Removed from watchlist")
	return nil
}

// SaveToWatchlist is the movie card action available on every list.
//
// Without a signed-in user it notifies, navigates to sign-in, and makes no request.
func SaveToWatchlist(ctx context.Context, deps Deps, movie models.Movie) error {
	deps = deps.withDefaults()
	email, err := deps.requireUser("Please login to save movies to your watchlist")
	if err != nil {
		return err
	}

	result, err := deps.Catalog.AddToWatchlist(ctx, movie.CanonicalID(), email)
	if err != nil {
		deps.Notifier.Error(messageOr(err, "Failed to add to watchlist"))
		return err
	}
	if result.AlreadyExists {
		deps.Notifier.Info("Movie is already in your watchlist")
	} else {
		deps.Notifier.Success("Added to watchlist")
	}
	return nil
}
