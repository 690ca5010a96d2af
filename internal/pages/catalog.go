package pages

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/desertthunder/moviemaster/internal/models"
)

// DefaultSort orders the catalog when no sort is chosen.
const DefaultSort = "rating"

// DefaultFilters returns the catalog filters shown on first open.
func DefaultFilters() models.Filters {
	return models.Filters{Genre: models.AllGenres, SortBy: DefaultSort}
}

// CatalogState is the browse page.
type CatalogState struct {
	Loading bool
	Filters models.Filters
	Movies  []models.Movie
}

// Catalog lists the shared catalog and refetches whenever a filter changes.
type Catalog struct {
	deps    Deps
	tracker Tracker

	mu    sync.RWMutex
	state CatalogState
}

// NewCatalog creates the browse page controller with [DefaultFilters].
func NewCatalog(deps Deps) *Catalog {
	return &Catalog{deps: deps.withDefaults(), state: CatalogState{Filters: DefaultFilters()}}
}

// State returns a snapshot of the page.
func (c *Catalog) State() CatalogState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.state
	s.Movies = slices.Clone(c.state.Movies)
	return s
}

// Load fetches the catalog for the current filters.
func (c *Catalog) Load(ctx context.Context) error {
	c.mu.Lock()
	ctx, tok := c.tracker.Begin(ctx)
	c.state.Loading = true
	filters := c.state.Filters
	c.mu.Unlock()

	movies, err := c.deps.Catalog.Movies(ctx, filters)
	if err != nil {
		if !tok.commit(&c.mu, func() { c.state.Loading = false }) {
			return ErrStale
		}

		c.deps.Logger.Error("failed to load movies", "error", err)
		c.deps.Notifier.Error("Failed to load movies")
		return err
	}

	movies = c.deps.normalize(movies)
	if !tok.commit(&c.mu, func() {
		c.state.Loading = false
		c.state.Movies = movies
	}) {
		return ErrStale
	}
	return nil
}

// SetFilters replaces every filter and refetches when any of them changed. Unknown sort options fall back to [DefaultSort].
func (c *Catalog) SetFilters(ctx context.Context, f models.Filters) error {
	f.Search = strings.TrimSpace(f.Search)
	if f.Genre == "" {
		f.Genre = models.AllGenres
	}
	if !slices.Contains(models.SortOptions, f.SortBy) {
		f.SortBy = DefaultSort
	}

	c.mu.Lock()
	changed := c.state.Filters != f
	c.state.Filters = f
	c.mu.Unlock()

	if !changed {
		return nil
	}
	return c.Load(ctx)
}

// SetGenre changes the genre filter. [models.AllGenres] disables it.
func (c *Catalog) SetGenre(ctx context.Context, genre string) error {
	f := c.State().Filters
	f.Genre = genre
	return c.SetFilters(ctx, f)
}

// SetSearch changes the title search.
func (c *Catalog) SetSearch(ctx context.Context, search string) error {
	f := c.State().Filters
	f.Search = search
	return c.SetFilters(ctx, f)
}

// SetSort changes the sort order.
func (c *Catalog) SetSort(ctx context.Context, sortBy string) error {
	f := c.State().Filters
	f.SortBy = sortBy
	return c.SetFilters(ctx, f)
}

// Close abandons any in-flight load.
func (c *Catalog) Close() { c.tracker.Stop() }
