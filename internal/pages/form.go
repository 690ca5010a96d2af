package pages

import (
	"context"
	"time"

	"github.com/desertthunder/moviemaster/internal/models"
	"github.com/desertthunder/moviemaster/internal/shared"
)

// MovieForm backs the add and update pages.
//
// Input is validated before any request; an invalid form notifies and makes no request.
type MovieForm struct {
	deps Deps
	now  func() time.Time
}

// NewMovieForm creates the form controller.
func NewMovieForm(deps Deps) *MovieForm {
	return &MovieForm{deps: deps.withDefaults(), now: time.Now}
}

func (f *MovieForm) validate(in models.MovieInput) error {
	if err := in.Validate(f.now()); err != nil {
		f.deps.Notifier.Error(shared.Message(err))
		return err
	}
	return nil
}

// Add creates a movie owned by the signed-in user and navigates to the collection.
func (f *MovieForm) Add(ctx context.Context, in models.MovieInput) (*models.Movie, error) {
	email, err := f.deps.requireUser("Please login to add a movie")
	if err != nil {
		return nil, err
	}
	if err := f.validate(in); err != nil {
		return nil, err
	}

	created, err := f.deps.Catalog.AddMovie(ctx, in.Payload(), email)
	if err != nil {
		f.deps.Logger.Error("failed to add movie", "error", err)
		f.deps.Notifier.Error(messageOr(err, "Failed to add movie"))
		return nil, err
	}

	f.deps.Notifier.Success("Movie added successfully!")
	f.deps.Navigator.Navigate(RouteMyCollection)
	return created, nil
}

// Load fetches movie id for editing.
//
// A movie owned by someone else notifies and navigates to the catalog.
func (f *MovieForm) Load(ctx context.Context, id string) (models.MovieInput, error) {
	email, err := f.deps.requireUser("Please login to update a movie")
	if err != nil {
		return models.MovieInput{}, err
	}

	movie, err := f.deps.Catalog.Movie(ctx, id)
	if err != nil {
		f.deps.Logger.Error("failed to load movie", "id", id, "error", err)
		f.deps.Notifier.Error("Failed to load movie")
		f.deps.Navigator.Navigate(RouteMyCollection)
		return models.MovieInput{}, err
	}

	if !movie.OwnedBy(email) {
		msg := "You don't have permission to edit this movie"
		f.deps.Notifier.Error(msg)
		f.deps.Navigator.Navigate(RouteAllMovies)
		return models.MovieInput{}, shared.NewError(shared.KindUnauthorized, msg, nil)
	}

	return models.InputFromMovie(*movie), nil
}

// Update saves in over movie id and navigates to its details.
func (f *MovieForm) Update(ctx context.Context, id string, in models.MovieInput) (*models.Movie, error) {
	email, err := f.deps.requireUser("Please login to update a movie")
	if err != nil {
		return nil, err
	}
	if err := f.validate(in); err != nil {
		return nil, err
	}

	id = models.CanonicalID(id)
	updated, err := f.deps.Catalog.UpdateMovie(ctx, id, in.Payload(), email)
	if err != nil {
		f.deps.Logger.Error("failed to update movie", "id", id, "error", err)
		f.deps.Notifier.Error(messageOr(err, "Failed to update movie"))
		return nil, err
	}

	f.deps.Notifier.Success("Movie updated successfully!")
	f.deps.Navigator.Navigate(MovieRoute(id))
	return updated, nil
}
