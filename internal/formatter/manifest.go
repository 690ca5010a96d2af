package formatter

import (
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/moviemaster/internal/shared"
)

// ListExportResult is the outcome of exporting one list.
type ListExportResult struct {
	ListID     string
	ListName   string
	MovieCount int
	Success    bool
	Files      []string
	Warnings   []string
	Error      error
}

// BulkExportResult summarizes a bulk export run.
type BulkExportResult struct {
	TotalLists        int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Results           []ListExportResult
}

type manifestEntry struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	MovieCount int      `json:"movie_count"`
	Success    bool     `json:"success"`
	Files      []string `json:"files,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	Error      string   `json:"error,omitempty"`
}

type manifest struct {
	Format            string          `json:"format"`
	CreatedAt         time.Time       `json:"created_at"`
	TotalLists        int             `json:"total_lists"`
	SuccessfulExports int             `json:"successful_exports"`
	FailedExports     int             `json:"failed_exports"`
	OutputDirectory   string          `json:"output_directory"`
	Lists             []manifestEntry `json:"lists"`
}

// WriteBulkExportManifest writes a JSON summary of a bulk export to path.
func WriteBulkExportManifest(result *BulkExportResult, format string, path string) error {
	m := manifest{
		Format:            format,
		CreatedAt:         time.Now().UTC(),
		TotalLists:        result.TotalLists,
		SuccessfulExports: result.SuccessfulExports,
		FailedExports:     result.FailedExports,
		OutputDirectory:   result.OutputDirectory,
		Lists:             make([]manifestEntry, 0, len(result.Results)),
	}

	for _, r := range result.Results {
		entry := manifestEntry{
			ID:         r.ListID,
			Name:       r.ListName,
			MovieCount: r.MovieCount,
			Success:    r.Success,
			Files:      r.Files,
			Warnings:   r.Warnings,
		}
		if r.Error != nil {
			entry.Error = r.Error.Error()
		}
		m.Lists = append(m.Lists, entry)
	}

	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
