package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/desertthunder/moviemaster/internal/services"
	"github.com/desertthunder/moviemaster/internal/shared"
	"github.com/desertthunder/moviemaster/internal/tasks"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the backend
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	return r.apiRequest(ctx, cmd, http.MethodGet, false)
}

// APIPost makes a direct POST request to the backend
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	return r.apiRequest(ctx, cmd, http.MethodPost, true)
}

// APIPut makes a direct PUT request to the backend
func (r *Runner) APIPut(ctx context.Context, cmd *cli.Command) error {
	return r.apiRequest(ctx, cmd, http.MethodPut, true)
}

// APIDelete makes a direct DELETE request to the backend
func (r *Runner) APIDelete(ctx context.Context, cmd *cli.Command) error {
	return r.apiRequest(ctx, cmd, http.MethodDelete, false)
}

func (r *Runner) apiRequest(ctx context.Context, cmd *cli.Command, method string, withData bool) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}

	var body []byte
	if withData {
		data := cmd.String("data")
		if data == "" {
			return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
		}

		var jsonTest any
		if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
			return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
		}
		body = []byte(data)
	}

	email := ""
	if cmd.Bool("as-me") {
		if err := r.prepare(ctx); err != nil {
			return err
		}
		defer r.Close()

		if email = r.email(); email == "" {
			return fmt.Errorf("%w: --as-me requires a signed-in user", shared.ErrNotAuthenticated)
		}
	}

	r.logger.Info(method+" request", "path", path)

	var (
		api  = r.api.As(email)
		resp *services.APIResponse
		err  error
	)
	switch method {
	case http.MethodPost:
		resp, err = api.Post(ctx, path, body)
	case http.MethodPut:
		resp, err = api.Put(ctx, path, body)
	case http.MethodDelete:
		resp, err = api.Delete(ctx, path)
	default:
		resp, err = api.Get(ctx, path)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, !cmd.Bool("json"))
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APISnapshot fetches every read endpoint and prints the combined state.
//
// Collection and watchlist are included when someone is signed in.
func (r *Runner) APISnapshot(ctx context.Context, cmd *cli.Command) error {
	pretty := cmd.Bool("pretty")
	save := cmd.String("save")

	if err := r.prepare(ctx); err != nil {
		return err
	}
	defer r.Close()

	r.logger.Info("taking backend snapshot")

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "step", update.Step, "total", update.Total)
		}
	}()

	result, err := r.engine.Snapshot(ctx, progress, r.email())
	close(progress)
	<-done
	if err != nil {
		return err
	}

	for _, e := range result.Errors {
		r.logger.Warn("failed to fetch", "endpoint", e.Endpoint, "error", e.Error)
	}

	data := result.Data()
	if save != "" {
		out, err := shared.MarshalJSON(data, true)
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot: %w", err)
		}
		if err := os.WriteFile(save, out, 0644); err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
		r.logger.Info("snapshot saved", "path", save)
	}

	return r.writeJSON(data, pretty)
}
