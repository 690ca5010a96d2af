package pages

import (
	"context"
	"sync"

	"github.com/desertthunder/moviemaster/internal/models"
	"golang.org/x/sync/errgroup"
)

// HomeState is the landing page.
type HomeState struct {
	Loading  bool
	Stats    models.Stats
	TopRated []models.Movie
	Recent   []models.Movie
	Featured []models.Movie
}

// Home loads the landing page counters and movie rows.
type Home struct {
	deps    Deps
	tracker Tracker

	mu    sync.RWMutex
	state HomeState
}

// NewHome creates the landing page controller.
func NewHome(deps Deps) *Home {
	return &Home{deps: deps.withDefaults()}
}

// State returns a snapshot of the page.
func (h *Home) State() HomeState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Load fetches stats and the three movie rows in parallel. The first failure cancels the rest.
func (h *Home) Load(ctx context.Context) error {
	h.mu.Lock()
	ctx, tok := h.tracker.Begin(ctx)
	h.state.Loading = true
	h.mu.Unlock()

	var next HomeState
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := h.deps.Catalog.Stats(gctx)
		if err == nil {
			next.Stats = *stats
		}
		return err
	})
	g.Go(func() error {
		movies, err := h.deps.Catalog.TopRated(gctx)
		next.TopRated = movies
		return err
	})
	g.Go(func() error {
		movies, err := h.deps.Catalog.Recent(gctx)
		next.Recent = movies
		return err
	})
	g.Go(func() error {
		movies, err := h.deps.Catalog.Featured(gctx)
		next.Featured = movies
		return err
	})
	err := g.Wait()
	if err != nil {
		if !tok.commit(&h.mu, func() { h.state.Loading = false }) {
			return ErrStale
		}

		h.deps.Logger.Error("failed to load home page", "error", err)
		h.deps.Notifier.Error(messageOr(err, "Failed to load movies"))
		return err
	}

	next.TopRated = h.deps.normalize(next.TopRated)
	next.Recent = h.deps.normalize(next.Recent)
	next.Featured = h.deps.normalize(next.Featured)

	if !tok.commit(&h.mu, func() { h.state = next }) {
		return ErrStale
	}
	return nil
}

// Close abandons any in-flight load.
func (h *Home) Close() { h.tracker.Stop() }
