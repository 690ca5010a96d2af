package services

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/moviemaster/internal/models"
	"github.com/desertthunder/moviemaster/internal/shared"
)

// Catalog is the set of backend operations pages depend on.
type Catalog interface {
	Stats(ctx context.Context) (*models.Stats, error)
	TopRated(ctx context.Context) ([]models.Movie, error)
	Recent(ctx context.Context) ([]models.Movie, error)
	Featured(ctx context.Context) ([]models.Movie, error)
	Movies(ctx context.Context, filters models.Filters) ([]models.Movie, error)
	Movie(ctx context.Context, id string) (*models.Movie, error)
	AddMovie(ctx context.Context, movie models.MoviePayload, email string) (*models.Movie, error)
	UpdateMovie(ctx context.Context, id string, movie models.MoviePayload, email string) (*models.Movie, error)
	DeleteMovie(ctx context.Context, id, email string) (*models.StatusResult, error)
	MyCollection(ctx context.Context, email string) ([]models.Movie, error)
	Watchlist(ctx context.Context, email string) ([]models.Movie, error)
	AddToWatchlist(ctx context.Context, id, email string) (*models.WatchlistAddResult, error)
	RemoveFromWatchlist(ctx context.Context, id, email string) (*models.StatusResult, error)
	WatchlistStatus(ctx context.Context, id, email string) (*models.WatchlistStatus, error)
}

// UserDirectory keeps the backend user record in sync with the identity provider.
type UserDirectory interface {
	UpsertUser(ctx context.Context, profile models.UserProfile) error
	UserExists(ctx context.Context, email string) (bool, error)
}

var (
	_ Catalog       = (*CatalogClient)(nil)
	_ UserDirectory = (*CatalogClient)(nil)
)

// CatalogClient maps each backend endpoint to a typed method on top of [APIService].
type CatalogClient struct {
	api *APIService
}

// NewCatalogClient creates a new [CatalogClient].
func NewCatalogClient(api *APIService) *CatalogClient {
	return &CatalogClient{api: api}
}

func requireEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return shared.NewError(shared.KindUnauthorized, "User email is required", shared.ErrNotAuthenticated)
	}
	return nil
}

func requireMovieID(id string) (string, error) {
	id = models.CanonicalID(id)
	if id == "" {
		return "", shared.NewError(shared.KindValidation, "Movie ID is required", shared.ErrMissingArgument)
	}
	return url.PathEscape(id), nil
}

func (c *CatalogClient) list(ctx context.Context, req Request) ([]models.Movie, error) {
	var movies []models.Movie
	if err := c.api.Do(ctx, req, &movies); err != nil {
		return nil, err
	}
	if movies == nil {
		movies = []models.Movie{}
	}
	return movies, nil
}

// Stats fetches the landing page counters.
func (c *CatalogClient) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	req := Request{Method: http.MethodGet, Path: "/home/stats", Fallback: "Failed to fetch stats"}
	if err := c.api.Do(ctx, req, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// TopRated fetches the highest rated movies.
func (c *CatalogClient) TopRated(ctx context.Context) ([]models.Movie, error) {
	return c.list(ctx, Request{Method: http.MethodGet, Path: "/home/top-rated", Fallback: "Failed to fetch top rated movies"})
}

// Recent fetches the most recently added movies.
func (c *CatalogClient) Recent(ctx context.Context) ([]models.Movie, error) {
	return c.list(ctx, Request{Method: http.MethodGet, Path: "/home/recent", Fallback: "Failed to fetch recent movies"})
}

// Featured fetches the featured movies.
func (c *CatalogClient) Featured(ctx context.Context) ([]models.Movie, error) {
	return c.list(ctx, Request{Method: http.MethodGet, Path: "/home/featured", Fallback: "Failed to fetch featured movies"})
}

// Movies lists or searches the catalog. Empty filter values are not sent.
func (c *CatalogClient) Movies(ctx context.Context, filters models.Filters) ([]models.Movie, error) {
	query := url.Values{}
	if filters.Genre != "" && filters.Genre != models.AllGenres {
		query.Set("genre", filters.Genre)
	}
	if s := strings.TrimSpace(filters.Search); s != "" {
		query.Set("search", s)
	}
	if filters.SortBy != "" {
		query.Set("sortBy", filters.SortBy)
	}

	return c.list(ctx, Request{Method: http.MethodGet, Path: "/movies", Query: query, Fallback: "Failed to fetch movies"})
}

// Movie fetches one movie by id.
func (c *CatalogClient) Movie(ctx context.Context, id string) (*models.Movie, error) {
	escaped, err := requireMovieID(id)
	if err != nil {
		return nil, err
	}

	var movie models.Movie
	req := Request{Method: http.MethodGet, Path: "/movies/" + escaped, Fallback: "Failed to fetch movie"}
	if err := c.api.Do(ctx, req, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// AddMovie creates a movie owned by email.
func (c *CatalogClient) AddMovie(ctx context.Context, movie models.MoviePayload, email string) (*models.Movie, error) {
	var created models.Movie
	req := Request{Method: http.MethodPost, Path: "/movies/add", Email: email, Body: movie, Fallback: "Failed to add movie"}
	if err := c.api.Do(ctx, req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateMovie replaces the fields of movie id.
func (c *CatalogClient) UpdateMovie(ctx context.Context, id string, movie models.MoviePayload, email string) (*models.Movie, error) {
	escaped, err := requireMovieID(id)
	if err != nil {
		return nil, err
	}

	var updated models.Movie
	req := Request{Method: http.MethodPut, Path: "/movies/update/" + escaped, Email: email, Body: movie, Fallback: "Failed to update movie"}
	if err := c.api.Do(ctx, req, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteMovie removes movie id.
func (c *CatalogClient) DeleteMovie(ctx context.Context, id, email string) (*models.StatusResult, error) {
	escaped, err := requireMovieID(id)
	if err != nil {
		return nil, err
	}

	var result models.StatusResult
	req := Request{Method: http.MethodDelete, Path: "/movies/" + escaped, Email: email, Fallback: "Failed to delete movie"}
	if err := c.api.Do(ctx, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MyCollection lists the movies added by email.
func (c *CatalogClient) MyCollection(ctx context.Context, email string) ([]models.Movie, error) {
	if err := requireEmail(email); err != nil {
		return nil, err
	}
	return c.list(ctx, Request{Method: http.MethodGet, Path: "/movies/my-collection", Email: email, Fallback: "Failed to fetch my collection"})
}

// Watchlist lists the movies on the watchlist of email.
func (c *CatalogClient) Watchlist(ctx context.Context, email string) ([]models.Movie, error) {
	if err := requireEmail(email); err != nil {
		return nil, err
	}
	return c.list(ctx, Request{Method: http.MethodGet, Path: "/watchlist", Email: email, Fallback: "Failed to fetch watchlist"})
}

// AddToWatchlist adds movie id. Adding a movie twice reports AlreadyExists.
func (c *CatalogClient) AddToWatchlist(ctx context.Context, id, email string) (*models.WatchlistAddResult, error) {
	escaped, err := requireMovieID(id)
	if err != nil {
		return nil, err
	}

	var result models.WatchlistAddResult
	req := Request{Method: http.MethodPost, Path: "/watchlist/" + escaped, Email: email, Fallback: "Failed to add to watchlist"}
	if err := c.api.Do(ctx, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RemoveFromWatchlist removes movie id.
func (c *CatalogClient) RemoveFromWatchlist(ctx context.Context, id, email string) (*models.StatusResult, error) {
	escaped, err := requireMovieID(id)
	if err != nil {
		return nil, err
	}

	var result models.StatusResult
	req := Request{Method: http.MethodDelete, Path: "/watchlist/" + escaped, Email: email, Fallback: "Failed to remove from watchlist"}
	if err := c.api.Do(ctx, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// WatchlistStatus reports whether movie id is on the watchlist of email.
func (c *CatalogClient) WatchlistStatus(ctx context.Context, id, email string) (*models.WatchlistStatus, error) {
	escaped, err := requireMovieID(id)
	if err != nil {
		return nil, err
	}
	if err := requireEmail(email); err != nil {
		return nil, err
	}

	var status models.WatchlistStatus
	req := Request{Method: http.MethodGet, Path: "/watchlist/status/" + escaped, Email: email, Fallback: "Failed to check watchlist status"}
	if err := c.api.Do(ctx, req, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// UpsertUser creates or updates the backend record for profile.
func (c *CatalogClient) UpsertUser(ctx context.Context, profile models.UserProfile) error {
	if profile.Email == "" {
		return shared.NewError(shared.KindValidation, "User email is required", shared.ErrMissingArgument)
	}
	req := Request{Method: http.MethodPost, Path: "/users/create-or-update", Body: profile, Fallback: "Failed to save user"}
	return c.api.Do(ctx, req, nil)
}

// UserExists reports whether the backend knows email.
//
// Any non-2xx answer counts as "does not exist"; only transport failures are errors.
func (c *CatalogClient) UserExists(ctx context.Context, email string) (bool, error) {
	if err := requireEmail(email); err != nil {
		return false, err
	}

	var result models.UserExists
	req := Request{Method: http.MethodGet, Path: "/users/check/" + url.PathEscape(email), Fallback: "Failed to check user"}
	if err := c.api.Do(ctx, req, &result); err != nil {
		var e *shared.Error
		if errors.As(err, &e) && e.Status != 0 {
			return false, nil
		}
		return false, err
	}
	return result.Exists, nil
}
