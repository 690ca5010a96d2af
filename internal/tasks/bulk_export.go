package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/desertthunder/moviemaster/internal/formatter"
	"github.com/desertthunder/moviemaster/internal/models"
	"github.com/desertthunder/moviemaster/internal/shared"
	"golang.org/x/time/rate"
)

// Export formats accepted by [BulkExportOpts].
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// BulkExportOpts contains configuration for bulk list exports.
type BulkExportOpts struct {
	Format     string  // Export format: json, csv, markdown, txt
	OutputDir  string  // Base output directory (default: movies_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 3, max: 10)
	RateLimit  float64 // List fetches per second (default: 5)
	Posters    bool    // Download posters for markdown exports
}

type listExportJob struct {
	source ListSource
	list   *formatter.MovieList
}

// BulkExport exports several lists concurrently with rate limiting and progress tracking.
//
// Lists are fetched one at a time through the limiter and handed to a worker pool that writes the files.
// A failed list is recorded in the result without stopping the others; a manifest summarizing the run is written last.
func (e *ExportEngine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	sources []ListSource,
	opts BulkExportOpts,
) (*formatter.BulkExportResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no lists to export", shared.ErrMissingArgument)
	}

	switch opts.Format {
	case "":
		opts.Format = FormatJSON
	case FormatJSON, FormatCSV, FormatMarkdown, FormatText:
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidFlag, opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("movies_export_%d", e.now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &formatter.BulkExportResult{
		TotalLists:      len(sources),
		OutputDirectory: opts.OutputDir,
		Results:         make([]formatter.ListExportResult, 0, len(sources)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan listExportJob, len(sources))
	results := make(chan formatter.ListExportResult, len(sources))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		e.sendProgress(prog, fetchingListsUpdate(len(sources)))
		for i, src := range sources {
			if err := limiter.Wait(ctx); err != nil {
				results <- formatter.ListExportResult{ListID: src.ID, ListName: src.Name, Error: err}
				continue
			}

			movies, err := src.Fetch(ctx)
			if err != nil {
				results <- formatter.ListExportResult{
					ListID:   src.ID,
					ListName: src.Name,
					Error:    fmt.Errorf("failed to fetch list: %w", err),
				}
				continue
			}

			kept, dropped := models.NormalizeMovies(movies)
			for _, d := range dropped {
				e.logger.Warn("dropping movie", "list", src.ID, "title", d.Movie.Title, "reason", d.Reason)
			}
			if len(dropped) > 0 {
				e.sendProgress(prog, droppedRecordsUpdate(i+1, len(sources), src.Name, len(dropped)))
			}

			jobs <- listExportJob{
				source: src,
				list: &formatter.MovieList{
					ID:          src.ID,
					Name:        src.Name,
					Description: src.Description,
					Owner:       src.Owner,
					ExportedAt:  e.now().UTC(),
					Movies:      kept,
				},
			}
			e.sendProgress(prog, fetchedListUpdate(i+1, len(sources), src.Name, len(kept)))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(sources), res.ListName, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(sources), res.ListName, res.Error))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteBulkExportManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// exportWorker writes lists from the jobs channel until it is closed.
func (e *ExportEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan listExportJob,
	results chan<- formatter.ListExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if err := ctx.Err(); err != nil {
			results <- formatter.ListExportResult{ListID: job.source.ID, ListName: job.source.Name, Error: err}
			continue
		}
		results <- e.exportSingleList(job, opts)
	}
}

// exportSingleList writes one list in the configured format.
func (e *ExportEngine) exportSingleList(j listExportJob, opts BulkExportOpts) formatter.ListExportResult {
	result := formatter.ListExportResult{
		ListID:     j.list.ID,
		ListName:   j.list.Name,
		MovieCount: len(j.list.Movies),
		Files:      []string{},
	}
	base := formatter.Filename(j.list.ID)

	switch opts.Format {
	case FormatCSV:
		res, err := formatter.WriteCSVExport(j.list, filepath.Join(opts.OutputDir, base))
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{res.MoviesFile, res.MetadataFile}
	case FormatMarkdown:
		res, err := formatter.WriteMarkdownExport(j.list, filepath.Join(opts.OutputDir, base), opts.Posters)
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		for _, w := range res.Warnings {
			e.logger.Warn("poster download failed", "list", j.list.ID, "detail", w)
		}
		result.Files = res.Files
		result.Warnings = res.Warnings
	case FormatText:
		path, err := formatter.WriteTextExport(j.list, filepath.Join(opts.OutputDir, base+"_movies.txt"))
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{path}
	default:
		path, err := formatter.WriteJSONExport(j.list, filepath.Join(opts.OutputDir, base+".json"))
		if err != nil {
			result.Error = err
			return result
		}
		result.Files = []string{path}
	}

	result.Success = true
	return result
}
