package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/moviemaster/internal/shared"
)

const (
	MinRating      = 0.0
	MaxRating      = 10.0
	MinReleaseYear = 1900
	// releaseYearLead is how far past the current year a release may be scheduled.
	releaseYearLead = 10
)

// MovieInput holds raw form values for the add and update forms.
type MovieInput struct {
	Title       string `json:"title"`
	Genre       string `json:"genre"`
	ReleaseYear string `json:"releaseYear"`
	Director    string `json:"director"`
	Cast        string `json:"cast"`
	Rating      string `json:"rating"`
	Duration    string `json:"duration"`
	PlotSummary string `json:"plotSummary"`
	PosterURL   string `json:"posterUrl"`
	Language    string `json:"language"`
	Country     string `json:"country"`
}

// InputFromMovie pre-fills a form from an existing record.
func InputFromMovie(m Movie) MovieInput {
	return MovieInput{
		Title:       m.Title,
		Genre:       m.Genre,
		ReleaseYear: m.ReleaseYear.String(),
		Director:    m.Director,
		Cast:        m.Cast,
		Rating:      m.Rating.String(),
		Duration:    m.Duration.String(),
		PlotSummary: m.PlotSummary,
		PosterURL:   m.PosterURL,
		Language:    m.Language,
		Country:     m.Country,
	}
}

// MaxReleaseYear is the latest accepted release year relative to now.
func MaxReleaseYear(now time.Time) int {
	return now.Year() + releaseYearLead
}

// Validate checks the form before any request is made. Errors are [shared.KindValidation].
func (in MovieInput) Validate(now time.Time) error {
	required := []string{
		in.Title, in.Genre, in.ReleaseYear, in.Director, in.Cast,
		in.Rating, in.Duration, in.PlotSummary, in.Language, in.Country,
	}
	for _, v := range required {
		if strings.TrimSpace(v) == "" {
			return shared.NewValidationError("Please fill in all required fields")
		}
	}

	rating, err := strconv.ParseFloat(strings.TrimSpace(in.Rating), 64)
	if err != nil || math.IsNaN(rating) || rating < MinRating || rating > MaxRating {
		return shared.NewValidationError("Rating must be between 0 and 10")
	}

	maxYear := MaxReleaseYear(now)
	year, err := strconv.Atoi(strings.TrimSpace(in.ReleaseYear))
	if err != nil || year < MinReleaseYear || year > maxYear {
		return shared.NewValidationError(fmt.Sprintf("Release year must be between %d and %d", MinReleaseYear, maxYear))
	}

	duration, err := strconv.Atoi(strings.TrimSpace(in.Duration))
	if err != nil || duration <= 0 {
		return shared.NewValidationError("Duration must be a positive number of minutes")
	}

	return nil
}

// MoviePayload is the JSON body for add and update requests.
type MoviePayload struct {
	Title       string  `json:"title"`
	Genre       string  `json:"genre"`
	ReleaseYear int     `json:"releaseYear"`
	Director    string  `json:"director"`
	Cast        string  `json:"cast"`
	Rating      float64 `json:"rating"`
	Duration    int     `json:"duration"`
	PlotSummary string  `json:"plotSummary"`
	PosterURL   string  `json:"posterUrl"`
	Language    string  `json:"language"`
	Country     string  `json:"country"`
}

// Payload converts validated input into typed request fields. Call [MovieInput.Validate] first.
func (in MovieInput) Payload() MoviePayload {
	rating, _ := strconv.ParseFloat(strings.TrimSpace(in.Rating), 64)
	year, _ := strconv.Atoi(strings.TrimSpace(in.ReleaseYear))
	duration, _ := strconv.Atoi(strings.TrimSpace(in.Duration))

	return MoviePayload{
		Title:       strings.TrimSpace(in.Title),
		Genre:       strings.TrimSpace(in.Genre),
		ReleaseYear: year,
		Director:    strings.TrimSpace(in.Director),
		Cast:        strings.TrimSpace(in.Cast),
		Rating:      rating,
		Duration:    duration,
		PlotSummary: strings.TrimSpace(in.PlotSummary),
		PosterURL:   strings.TrimSpace(in.PosterURL),
		Language:    strings.TrimSpace(in.Language),
		Country:     strings.TrimSpace(in.Country),
	}
}
