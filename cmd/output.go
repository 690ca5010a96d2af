package main

import (
	"fmt"
	"strings"

	"github.com/desertthunder/moviemaster/internal/formatter"
	"github.com/desertthunder/moviemaster/internal/models"
	"github.com/desertthunder/moviemaster/internal/shared"
	"github.com/desertthunder/moviemaster/internal/tasks"
)

// List output formats accepted by --format.
const (
	formatText     = "text"
	formatCSV      = tasks.FormatCSV
	formatMarkdown = tasks.FormatMarkdown
)

// movieList wraps movies for the formatter.
func (r *Runner) movieList(id, name, owner string, movies []models.Movie) *formatter.MovieList {
	return &formatter.MovieList{
		ID:         id,
		Name:       name,
		Owner:      owner,
		ExportedAt: r.now().UTC(),
		Movies:     movies,
	}
}

// writeMovies prints list as JSON when asJSON is set and in format otherwise.
func (r *Runner) writeMovies(list *formatter.MovieList, asJSON bool, format string) error {
	if asJSON {
		return r.writeJSON(list.Movies, false)
	}

	var (
		out []byte
		err error
	)
	switch strings.ToLower(format) {
	case "", formatText, tasks.FormatText:
		return r.writeMovieTable(list)
	case formatCSV:
		out, err = formatter.ExportToCSV(list)
	case formatMarkdown, "md":
		out, err = formatter.ExportToMarkdown(list, nil)
	default:
		return fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidFlag, format)
	}
	if err != nil {
		return err
	}

	if _, err := r.output.Write(out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeMovieTable(list *formatter.MovieList) error {
	r.writePlainHeader(fmt.Sprintf("%s (%d)", list.Name, len(list.Movies)))
	if len(list.Movies) == 0 {
		return r.writePlain("No movies found.\n")
	}

	for i, m := range list.Movies {
		if err := r.writePlain("%3d. %-40s %4s  ★ %-4s %-10s [%s]\n",
			i+1, truncate(m.Title, 40), m.DisplayYear(), m.DisplayRating(), m.Genre, m.CanonicalID()); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) writeMovie(m *models.Movie, watchlisted, signedIn, canEdit bool) {
	r.writePlainHeader(fmt.Sprintf("%s (%s)", m.Title, m.DisplayYear()))
	r.writePlain("ID:        %s\n", m.CanonicalID())
	r.writePlain("Genre:     %s\n", m.Genre)
	r.writePlain("Rating:    ★ %s\n", m.DisplayRating())
	r.writePlain("Duration:  %s\n", m.DisplayDuration())
	r.writePlain("Director:  %s\n", m.Director)
	if cast := m.CastList(); len(cast) > 0 {
		r.writePlain("Cast:      %s\n", strings.Join(cast, ", "))
	}
	r.writePlain("Language:  %s\n", m.Language)
	r.writePlain("Country:   %s\n", m.Country)
	r.writePlain("Poster:    %s\n", m.Poster())
	if m.AddedBy != "" {
		r.writePlain("Added by:  %s\n", m.AddedBy)
	}
	if m.PlotSummary != "" {
		r.writePlainln("%s", m.PlotSummary)
	}

	switch {
	case !signedIn:
	case watchlisted:
		r.writePlain("\n✓ In your watchlist\n")
	default:
		r.writePlain("\nNot in your watchlist\n")
	}
	if canEdit {
		r.writePlain("You added this movie\n")
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
