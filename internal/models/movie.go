package models

import (
	"fmt"
	"strings"
)

// PlaceholderPoster is shown when a movie has no poster URL.
const PlaceholderPoster = "https://via.placeholder.com/300x450?text=No+Poster"

// Genres offered by the add and update forms.
var Genres = []string{
	"Action", "Drama", "Comedy", "Sci-Fi", "Horror", "Thriller", "Romance", "Adventure", "Fantasy", "Animation",
}

// AllGenres is the catalog filter value that disables genre filtering.
const AllGenres = "All"

// SortOptions accepted by the catalog listing.
var SortOptions = []string{"rating", "year", "title"}

// Movie is a catalog entry.
//
// Records may carry their identifier in id, _id, or both; use [Movie.CanonicalID] for keys and routes.
type Movie struct {
	ID          ID      `json:"id,omitzero"`
	LegacyID    ID      `json:"_id,omitzero"`
	Title       string  `json:"title"`
	Genre       string  `json:"genre"`
	ReleaseYear Numeric `json:"releaseYear"`
	Director    string  `json:"director"`
	Cast        string  `json:"cast"`
	Rating      Numeric `json:"rating"`
	Duration    Numeric `json:"duration"`
	PlotSummary string  `json:"plotSummary"`
	PosterURL   string  `json:"posterUrl,omitempty"`
	Language    string  `json:"language"`
	Country     string  `json:"country"`
	AddedBy     string  `json:"addedBy"`
	CreatedAt   string  `json:"createdAt,omitempty"`
}

// RawID returns id when present, falling back to _id.
func (m Movie) RawID() ID {
	if !m.ID.IsZero() {
		return m.ID
	}
	return m.LegacyID
}

// CanonicalID returns the normalized identifier, "" when the record has none.
func (m Movie) CanonicalID() string {
	return m.RawID().Canonical()
}

// OwnedBy reports whether email matches addedBy, ignoring case and surrounding space.
func (m Movie) OwnedBy(email string) bool {
	owner := strings.TrimSpace(m.AddedBy)
	email = strings.TrimSpace(email)
	return owner != "" && email != "" && strings.EqualFold(owner, email)
}

// DisplayRating renders the rating with one decimal, or "N/A".
func (m Movie) DisplayRating() string {
	if !m.Rating.Valid {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", m.Rating.Value)
}

// DisplayYear renders the release year, or "N/A".
func (m Movie) DisplayYear() string {
	if !m.ReleaseYear.Valid {
		return "N/A"
	}
	return fmt.Sprintf("%d", m.ReleaseYear.Int())
}

// DisplayDuration renders the runtime as "Nh Mm" or "N min".
func (m Movie) DisplayDuration() string {
	if !m.Duration.Valid || m.Duration.Int() <= 0 {
		return "N/A"
	}
	mins := m.Duration.Int()
	if mins < 60 {
		return fmt.Sprintf("%d min", mins)
	}
	return fmt.Sprintf("%dh %dm", mins/60, mins%60)
}

// Poster returns the poster URL or the placeholder.
func (m Movie) Poster() string {
	if u := strings.TrimSpace(m.PosterURL); u != "" {
		return u
	}
	return PlaceholderPoster
}

// CastList splits the comma-separated cast into trimmed names.
func (m Movie) CastList() []string {
	var names []string
	for _, name := range strings.Split(m.Cast, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Dropped describes a record removed by [NormalizeMovies].
type Dropped struct {
	Movie  Movie
	Reason string
}

// NormalizeMovies keeps records with a usable identifier and reports the rest.
//
// Kept records have id rewritten to the canonical string so downstream keys agree.
func NormalizeMovies(list []Movie) (kept []Movie, dropped []Dropped) {
	kept = make([]Movie, 0, len(list))
	for _, m := range list {
		raw := m.RawID()
		if raw.IsZero() {
			dropped = append(dropped, Dropped{Movie: m, Reason: "missing identifier"})
			continue
		}

		id := raw.Canonical()
		if id == "" {
			dropped = append(dropped, Dropped{Movie: m, Reason: "invalid identifier value"})
			continue
		}

		m.ID = StringID(id)
		kept = append(kept, m)
	}
	return kept, dropped
}

// FilterOwned returns the movies whose owner matches email.
func FilterOwned(list []Movie, email string) []Movie {
	owned := make([]Movie, 0, len(list))
	for _, m := range list {
		if m.OwnedBy(email) {
			owned = append(owned, m)
		}
	}
	return owned
}

// Stats are the landing page counters.
type Stats struct {
	TotalMovies int `json:"totalMovies"`
	TotalUsers  int `json:"totalUsers"`
}

// WatchlistAddResult is returned when a movie is added to a watchlist.
type WatchlistAddResult struct {
	AlreadyExists bool   `json:"alreadyExists"`
	Message       string `json:"message,omitempty"`
}

// WatchlistStatus reports whether a movie is on the caller's watchlist.
type WatchlistStatus struct {
	IsWatchlisted bool `json:"isWatchlisted"`
}

// StatusResult is the generic body of delete and remove calls.
type StatusResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Filters are the catalog query parameters. Empty values are omitted from the request.
type Filters struct {
	Genre  string `json:"genre,omitempty"`
	Search string `json:"search,omitempty"`
	SortBy string `json:"sortBy,omitempty"`
}
