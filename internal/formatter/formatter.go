// package formatter exports movie lists to CSV, Markdown, plain text and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/desertthunder/moviemaster/internal/models"
	"github.com/desertthunder/moviemaster/internal/shared"
)

// MovieList is a named set of movies ready for export.
type MovieList struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Owner       string         `json:"owner,omitempty"`
	ExportedAt  time.Time      `json:"exported_at"`
	Movies      []models.Movie `json:"movies"`
}

type listMetadata struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Owner       string    `json:"owner,omitempty"`
	MovieCount  int       `json:"movie_count"`
	ExportedAt  time.Time `json:"exported_at"`
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename turns a list or movie identifier into a safe base filename.
func Filename(s string) string {
	s = strings.Trim(unsafeFilename.ReplaceAllString(strings.TrimSpace(s), "_"), "_.")
	if s == "" {
		return "untitled"
	}
	return s
}

// ExportToCSV converts a MovieList to CSV with columns: ID, Title, Genre, Year, Director, Rating, Duration, Language, Country, AddedBy
func ExportToCSV(list *MovieList) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Genre", "Year", "Director", "Rating", "Duration", "Language", "Country", "AddedBy"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range list.Movies {
		record := []string{
			m.CanonicalID(),
			m.Title,
			m.Genre,
			m.DisplayYear(),
			m.Director,
			m.DisplayRating(),
			m.DisplayDuration(),
			m.Language,
			m.Country,
			m.AddedBy,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown converts a MovieList to Markdown.
//
// posters maps canonical movie IDs to local image paths; movies without an entry are rendered without an image.
func ExportToMarkdown(list *MovieList, posters map[string]string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", list.Name)
	if list.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", list.Description)
	}
	if list.Owner != "" {
		fmt.Fprintf(&buf, "**Owner**: %s\n", list.Owner)
	}
	fmt.Fprintf(&buf, "**Movies**: %d\n\n", len(list.Movies))

	buf.WriteString("## Movies\n\n")
	for i, m := range list.Movies {
		fmt.Fprintf(&buf, "### %d. %s (%s)\n\n", i+1, m.Title, m.DisplayYear())
		if img := posters[m.CanonicalID()]; img != "" {
			fmt.Fprintf(&buf, "![Poster](%s)\n\n", img)
		}
		fmt.Fprintf(&buf, "- **Genre**: %s\n", m.Genre)
		fmt.Fprintf(&buf, "- **Director**: %s\n", m.Director)
		fmt.Fprintf(&buf, "- **Rating**: %s\n", m.DisplayRating())
		fmt.Fprintf(&buf, "- **Duration**: %s\n", m.DisplayDuration())
		if cast := m.CastList(); len(cast) > 0 {
			fmt.Fprintf(&buf, "- **Cast**: %s\n", strings.Join(cast, ", "))
		}
		if m.PlotSummary != "" {
			fmt.Fprintf(&buf, "\n%s\n", m.PlotSummary)
		}
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// ExportToText converts a MovieList to plain text
func ExportToText(list *MovieList) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "List: %s\n", list.Name)
	if list.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", list.Description)
	}
	fmt.Fprintf(&buf, "Movies: %d\n\n", len(list.Movies))

	for i, m := range list.Movies {
		fmt.Fprintf(&buf, "%d. %s (%s) - %s [%s]\n", i+1, m.Title, m.DisplayYear(), m.Director, m.DisplayRating())
	}
	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrInvalidArgument)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return data, nil
}

// ToMetadataJSON generates a JSON representation of list metadata (without movies)
func ToMetadataJSON(list *MovieList) ([]byte, error) {
	return shared.MarshalJSON(listMetadata{
		ID:          list.ID,
		Name:        list.Name,
		Description: list.Description,
		Owner:       list.Owner,
		MovieCount:  len(list.Movies),
		ExportedAt:  list.ExportedAt,
	}, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	MoviesFile   string
	MetadataFile string
}

// WriteCSVExport writes {base}_movies.csv and {base}_metadata.json.
//
// The base defaults to the list ID.
func WriteCSVExport(list *MovieList, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = Filename(list.ID)
	}

	csvData, err := ExportToCSV(list)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	moviesFile := baseFilepath + "_movies.csv"
	if err := os.WriteFile(moviesFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadata, err := ToMetadataJSON(list)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadata, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{MoviesFile: moviesFile, MetadataFile: metadataFile}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Posters   []string
	Warnings  []string
}

// WriteMarkdownExport writes {dir}/README.md and, when withPosters is set, {dir}/posters/{id}.jpg for every movie with a poster URL.
//
// A poster that fails to download is recorded in Warnings and the movie is rendered without it.
func WriteMarkdownExport(list *MovieList, outputDir string, withPosters bool) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = Filename(list.ID)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}
	posters := map[string]string{}

	if withPosters {
		posterDir := filepath.Join(outputDir, "posters")
		for _, m := range list.Movies {
			id, url := m.CanonicalID(), strings.TrimSpace(m.PosterURL)
			if id == "" || url == "" {
				continue
			}
			if err := os.MkdirAll(posterDir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create poster directory: %w", err)
			}

			data, err := DownloadImage(url)
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("poster for %s: %v", m.Title, err))
				continue
			}

			name := Filename(id) + ".jpg"
			path := filepath.Join(posterDir, name)
			if err := os.WriteFile(path, data, 0644); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("poster for %s: %v", m.Title, err))
				continue
			}
			posters[id] = "posters/" + name
			result.Posters = append(result.Posters, path)
			result.Files = append(result.Files, path)
		}
	}

	mdData, err := ExportToMarkdown(list, posters)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)
	return result, nil
}

// WriteTextExport exports a list to plain text.
//
// Defaults to {list.ID}_movies.txt as the filename.
func WriteTextExport(list *MovieList, path string) (string, error) {
	if path == "" {
		path = Filename(list.ID) + "_movies.txt"
	}

	data, err := ExportToText(list)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}
	return path, nil
}

// WriteJSONExport writes the full list, movies included, as indented JSON.
func WriteJSONExport(list *MovieList, path string) (string, error) {
	if path == "" {
		path = Filename(list.ID) + ".json"
	}

	data, err := shared.MarshalJSON(list, true)
	if err != nil {
		return "", fmt.Errorf("JSON marshal failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("JSON write failed: %w", err)
	}
	return path, nil
}
