package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/moviemaster/internal/formatter"
	"github.com/desertthunder/moviemaster/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export writes movie lists to disk with a worker pool and prints progress as it goes.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(ctx); err != nil {
		return err
	}
	defer r.Close()

	sources, err := r.engine.Sources(cmd.StringSlice("list"), r.email())
	if err != nil {
		return err
	}

	opts := tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate-limit"),
		Posters:    cmd.Bool("posters"),
	}

	asJSON := cmd.Bool("json")
	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Debug("export progress", "phase", update.Phase, "step", update.Step, "total", update.Total)
			if !asJSON {
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.BulkExport(ctx, progress, sources, opts)
	close(progress)
	<-done

	if result == nil {
		return err
	}
	if asJSON {
		if werr := r.writeJSON(exportSummary(result), true); werr != nil {
			return werr
		}
		return err
	}

	r.writePlainln("Export Summary")
	r.writePlain("Lists:      %d\n", result.TotalLists)
	r.writePlain("Successful: %d\n", result.SuccessfulExports)
	r.writePlain("Failed:     %d\n", result.FailedExports)
	r.writePlain("Output:     %s\n", result.OutputDirectory)
	if result.ManifestPath != "" {
		r.writePlain("Manifest:   %s\n", result.ManifestPath)
	}
	for _, res := range result.Results {
		for _, w := range res.Warnings {
			r.writePlain("⚠ %s: %s\n", res.ListName, w)
		}
	}

	if err != nil {
		return err
	}
	if result.FailedExports > 0 && result.SuccessfulExports == 0 {
		return fmt.Errorf("all %d exports failed", result.FailedExports)
	}
	return nil
}

func exportSummary(result *formatter.BulkExportResult) map[string]any {
	lists := make([]map[string]any, 0, len(result.Results))
	for _, res := range result.Results {
		entry := map[string]any{
			"id":          res.ListID,
			"name":        res.ListName,
			"movie_count": res.MovieCount,
			"success":     res.Success,
			"files":       res.Files,
		}
		if len(res.Warnings) > 0 {
			entry["warnings"] = res.Warnings
		}
		if res.Error != nil {
			entry["error"] = res.Error.Error()
		}
		lists = append(lists, entry)
	}
	return map[string]any{
		"total_lists":        result.TotalLists,
		"successful_exports": result.SuccessfulExports,
		"failed_exports":     result.FailedExports,
		"output_directory":   result.OutputDirectory,
		"manifest":           result.ManifestPath,
		"lists":              lists,
	}
}
