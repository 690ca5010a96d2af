package tasks

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviemaster/internal/models"
	"github.com/desertthunder/moviemaster/internal/services"
	"github.com/desertthunder/moviemaster/internal/shared"
)

// Names accepted by [ExportEngine.Sources], besides "genre:<Genre>".
const (
	ListCollection = "collection"
	ListWatchlist  = "watchlist"
	ListCatalog    = "catalog"
	ListTopRated   = "top-rated"
	ListRecent     = "recent"
	ListFeatured   = "featured"
)

// DefaultLists are exported when no list names are given.
var DefaultLists = []string{ListCollection, ListWatchlist}

// ListSource names a movie list and how to fetch it.
type ListSource struct {
	ID          string
	Name        string
	Description string
	Owner       string
	Fetch       func(ctx context.Context) ([]models.Movie, error)
}

// ExportEngine runs bulk operations against the catalog backend.
type ExportEngine struct {
	catalog services.Catalog
	logger  *log.Logger
	now     func() time.Time
}

// NewExportEngine creates an ExportEngine on top of catalog.
func NewExportEngine(catalog services.Catalog, logger *log.Logger) *ExportEngine {
	if logger == nil {
		logger = log.Default()
	}
	return &ExportEngine{catalog: catalog, logger: logger, now: time.Now}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *ExportEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Sources resolves list names into fetchable sources.
//
// "collection" and "watchlist" need the signed-in email; duplicates are ignored.
func (e *ExportEngine) Sources(names []string, email string) ([]ListSource, error) {
	if len(names) == 0 {
		names = DefaultLists
	}
	email = strings.TrimSpace(email)

	var (
		sources []ListSource
		seen    = map[string]bool{}
	)
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		src, err := e.source(name, strings.TrimSpace(raw), email)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func (e *ExportEngine) source(name, raw, email string) (ListSource, error) {
	switch name {
	case ListCollection:
		if email == "" {
			return ListSource{}, fmt.Errorf("%w: sign in to export your collection", shared.ErrNotAuthenticated)
		}
		return ListSource{
			ID:          ListCollection,
			Name:        "My Collection",
			Description: "Movies added by " + email,
			Owner:       email,
			Fetch: func(ctx context.Context) ([]models.Movie, error) {
				list, err := e.catalog.MyCollection(ctx, email)
				if err != nil {
					return nil, err
				}
				return models.FilterOwned(list, email), nil
			},
		}, nil
	case ListWatchlist:
		if email == "" {
			return ListSource{}, fmt.Errorf("%w: sign in to export your watchlist", shared.ErrNotAuthenticated)
		}
		return ListSource{
			ID:          ListWatchlist,
			Name:        "Watchlist",
			Description: "Movies saved by " + email,
			Owner:       email,
			Fetch: func(ctx context.Context) ([]models.Movie, error) {
				return e.catalog.Watchlist(ctx, email)
			},
		}, nil
	case ListCatalog:
		return ListSource{
			ID:   ListCatalog,
			Name: "All Movies",
			Fetch: func(ctx context.Context) ([]models.Movie, error) {
				return e.catalog.Movies(ctx, models.Filters{Genre: models.AllGenres, SortBy: "rating"})
			},
		}, nil
	case ListTopRated:
		return ListSource{ID: ListTopRated, Name: "Top Rated", Fetch: e.catalog.TopRated}, nil
	case ListRecent:
		return ListSource{ID: ListRecent, Name: "Recently Added", Fetch: e.catalog.Recent}, nil
	case ListFeatured:
		return ListSource{ID: ListFeatured, Name: "Featured", Fetch: e.catalog.Featured}, nil
	}

	if genre, ok := strings.CutPrefix(raw, "genre:"); ok {
		idx := slices.IndexFunc(models.Genres, func(g string) bool { return strings.EqualFold(g, strings.TrimSpace(genre)) })
		if idx < 0 {
			return ListSource{}, fmt.Errorf("%w: unknown genre %q", shared.ErrInvalidArgument, genre)
		}
		genre = models.Genres[idx]
		return ListSource{
			ID:   "genre-" + strings.ToLower(genre),
			Name: genre + " Movies",
			Fetch: func(ctx context.Context) ([]models.Movie, error) {
				return e.catalog.Movies(ctx, models.Filters{Genre: genre, SortBy: "rating"})
			},
		}, nil
	}
	return ListSource{}, fmt.Errorf("%w: unknown list %q", shared.ErrInvalidArgument, raw)
}

// EndpointResult records a failed endpoint fetch.
type EndpointResult struct {
	Endpoint string
	Error    error
}

// SnapshotResult holds everything fetched by [ExportEngine.Snapshot].
type SnapshotResult struct {
	Stats      *models.Stats
	TopRated   []models.Movie
	Recent     []models.Movie
	Featured   []models.Movie
	Movies     []models.Movie
	Collection []models.Movie
	Watchlist  []models.Movie
	Errors     []EndpointResult
}

// SnapshotData is the JSON shape of a [SnapshotResult].
type SnapshotData struct {
	Stats      *models.Stats     `json:"stats,omitempty"`
	TopRated   []models.Movie    `json:"top_rated,omitempty"`
	Recent     []models.Movie    `json:"recent,omitempty"`
	Featured   []models.Movie    `json:"featured,omitempty"`
	Movies     []models.Movie    `json:"movies,omitempty"`
	Collection []models.Movie    `json:"collection,omitempty"`
	Watchlist  []models.Movie    `json:"watchlist,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
}

// Data converts the result for JSON output.
func (r *SnapshotResult) Data() SnapshotData {
	d := SnapshotData{
		Stats:      r.Stats,
		TopRated:   r.TopRated,
		Recent:     r.Recent,
		Featured:   r.Featured,
		Movies:     r.Movies,
		Collection: r.Collection,
		Watchlist:  r.Watchlist,
	}
	if len(r.Errors) > 0 {
		d.Errors = make(map[string]string, len(r.Errors))
		for _, er := range r.Errors {
			d.Errors[er.Endpoint] = er.Error.Error()
		}
	}
	return d
}

type endpointOperation struct {
	name    string
	phase   Phase
	message string
	run     func(ctx context.Context) error
}

// Snapshot fetches every read endpoint in turn.
//
// Endpoint failures are recorded in the result; only context cancellation aborts the run.
func (e *ExportEngine) Snapshot(ctx context.Context, progress chan<- ProgressUpdate, email string) (*SnapshotResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	result := &SnapshotResult{}
	list := func(target *[]models.Movie, fetch func(context.Context) ([]models.Movie, error)) func(context.Context) error {
		return func(ctx context.Context) error {
			movies, err := fetch(ctx)
			if err != nil {
				return err
			}
			kept, dropped := models.NormalizeMovies(movies)
			for _, d := range dropped {
				e.logger.Warn("dropping movie", "title", d.Movie.Title, "reason", d.Reason)
			}
			*target = kept
			return nil
		}
	}

	ops := []endpointOperation{
		{name: "stats", phase: FetchStats, message: "Fetching stats...", run: func(ctx context.Context) error {
			stats, err := e.catalog.Stats(ctx)
			result.Stats = stats
			return err
		}},
		{name: "top-rated", phase: FetchHome, message: "Fetching top rated movies...", run: list(&result.TopRated, e.catalog.TopRated)},
		{name: "recent", phase: FetchHome, message: "Fetching recent movies...", run: list(&result.Recent, e.catalog.Recent)},
		{name: "featured", phase: FetchHome, message: "Fetching featured movies...", run: list(&result.Featured, e.catalog.Featured)},
		{name: "movies", phase: FetchCatalog, message: "Fetching all movies...", run: list(&result.Movies, func(ctx context.Context) ([]models.Movie, error) {
			return e.catalog.Movies(ctx, models.Filters{Genre: models.AllGenres, SortBy: "rating"})
		})},
	}

	if email = strings.TrimSpace(email); email != "" {
		ops = append(ops,
			endpointOperation{name: "collection", phase: FetchCollection, message: "Fetching your collection...", run: list(&result.Collection, func(ctx context.Context) ([]models.Movie, error) {
				movies, err := e.catalog.MyCollection(ctx, email)
				return models.FilterOwned(movies, email), err
			})},
			endpointOperation{name: "watchlist", phase: FetchWatchlist, message: "Fetching your watchlist...", run: list(&result.Watchlist, func(ctx context.Context) ([]models.Movie, error) {
				return e.catalog.Watchlist(ctx, email)
			})},
		)
	}

	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		e.sendProgress(progress, operationUpdate(op, i+1, len(ops)))
		if err := op.run(ctx); err != nil {
			e.logger.Warn("snapshot endpoint failed", "endpoint", op.name, "error", err)
			result.Errors = append(result.Errors, EndpointResult{Endpoint: op.name, Error: err})
		}
	}
	return result, nil
}
