package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviemaster/internal/models"
	"github.com/desertthunder/moviemaster/internal/pages"
	"github.com/desertthunder/moviemaster/internal/services"
	"github.com/desertthunder/moviemaster/internal/shared"
	tu "github.com/desertthunder/moviemaster/internal/testing"
	"github.com/urfave/cli/v3"
)

const catalogJSON = `[
	{"id":1,"title":"Arrival","genre":"Sci-Fi","releaseYear":2016,"rating":7.9,"director":"Denis Villeneuve","addedBy":"ana@example.com"},
	{"_id":"abc","title":"Heat","genre":"Drama","releaseYear":"1995","rating":"8.3","director":"Michael Mann","addedBy":"bo@example.com"},
	{"title":"Nameless"}
]`

type call struct {
	Method string
	Path   string
	Query  string
	Email  string
	Body   string
}

type backend struct {
	mu     sync.Mutex
	calls  []call
	routes map[string]string
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.calls = append(b.calls, call{r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get(services.UserEmailHeader), string(body)})
	resp, ok := b.routes[r.Method+" "+r.URL.Path]
	b.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Movie not found"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(resp))
}

func (b *backend) find(method, path string) (call, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.calls {
		if c.Method == method && c.Path == path {
			return c, true
		}
	}
	return call{}, false
}

func defaultRoutes() map[string]string {
	return map[string]string{
		"GET /home/stats":                  `{"totalMovies":2,"totalUsers":5}`,
		"GET /home/top-rated":              catalogJSON,
		"GET /home/recent":                 `[]`,
		"GET /home/featured":               `[{"id":1,"title":"Arrival"}]`,
		"GET /movies":                      catalogJSON,
		"GET /movies/1":                    `{"id":1,"title":"Arrival","genre":"Sci-Fi","releaseYear":2016,"rating":7.9,"director":"Denis Villeneuve","cast":"Amy Adams, Jeremy Renner","plotSummary":"Linguist meets heptapods.","language":"English","country":"USA","duration":116,"addedBy":"ana@example.com"}`,
		"GET /movies/my-collection":        catalogJSON,
		"GET /watchlist":                   `[{"id":1,"title":"Arrival"}]`,
		"GET /watchlist/status/1":          `{"isWatchlisted":true}`,
		"POST /watchlist/42":               `{"alreadyExists":false}`,
		"DELETE /watchlist/1":              `{"success":true}`,
		"DELETE /movies/1":                 `{"success":true}`,
		"POST /movies/add":                 `{"id":"m-9","title":"Paterson","addedBy":"ana@example.com"}`,
		"PUT /movies/update/1":             `{"id":1,"title":"Arrival (Director's Cut)","addedBy":"ana@example.com"}`,
		"POST /users/create-or-update":     `{}`,
		"GET /users/check/ana@example.com": `{"exists":true}`,
	}
}

type harness struct {
	runner   *Runner
	output   *bytes.Buffer
	backend  *backend
	identity *tu.Identity
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	b := &backend{routes: defaultRoutes()}
	server := httptest.NewServer(b)
	t.Cleanup(server.Close)

	db, err := shared.OpenStorage(shared.StorageConfig{Path: shared.MemoryDSN})
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	config := shared.DefaultConfig()
	config.Backend.BaseURL = server.URL
	config.Backend.RequestsPerSecond = 0

	output := &bytes.Buffer{}
	identity := tu.NewIdentity()
	runner := NewRunner(RunnerOpts{
		Config:   config,
		Logger:   log.New(io.Discard),
		Output:   output,
		DB:       db,
		Identity: identity,
	})
	t.Cleanup(func() { runner.Close() })

	return &harness{runner: runner, output: output, backend: b, identity: identity}
}

func (h *harness) signIn(email string) {
	h.identity.Stored = &models.Principal{UID: "uid-" + email, Email: email, ProviderID: "password"}
	h.identity.Accounts[email] = "secret1"
}

func (h *harness) run(args ...string) error {
	app := &cli.Command{
		Name:     "moviemaster",
		Writer:   io.Discard,
		Commands: h.runner.register(),
	}
	return app.Run(context.Background(), append([]string{"moviemaster"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			api := services.NewAPIService("http://localhost:5000", httpClient)
			identity := tu.NewIdentity()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				API:        api,
				Identity:   identity,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.identity != identity {
				t.Error("expected identity to be set")
			}
			if runner.engine == nil {
				t.Error("expected export engine to be created")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses configured timeout", func(t *testing.T) {
			config := shared.DefaultConfig()
			runner := NewRunner(RunnerOpts{Config: config})
			if runner.httpClient.Timeout != config.Backend.Timeout {
				t.Errorf("expected timeout %v, got %v", config.Backend.Timeout, runner.httpClient.Timeout)
			}
		})

		t.Run("with nil catalog builds the backend client", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			client, ok := runner.catalog.(*services.CatalogClient)
			if !ok {
				t.Fatalf("expected *services.CatalogClient, got %T", runner.catalog)
			}
			if runner.users != client {
				t.Error("expected the catalog client to serve user upserts")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limited := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limited})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("Hello %s %d", "World", 42); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "Hello World 42" {
			t.Errorf("unexpected output %q", output.String())
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlain("test"); err == nil {
			t.Error("expected error from failing writer")
		}
	})

	t.Run("writePlainln", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlainln("Summary"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "\nSummary\n" {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for _, c := range commands {
			names[c.Name] = true
		}
		for _, want := range []string{"setup", "auth", "home", "movies", "watchlist", "theme", "export", "api", "tui"} {
			if !names[want] {
				t.Errorf("expected command %q to be registered", want)
			}
		}
	})

	t.Run("prepare without identity credentials starts signed out", func(t *testing.T) {
		db, err := shared.OpenStorage(shared.StorageConfig{Path: shared.MemoryDSN})
		if err != nil {
			t.Fatalf("failed to open storage: %v", err)
		}
		defer db.Close()

		config := shared.DefaultConfig()
		config.Identity.APIKey = ""
		runner := NewRunner(RunnerOpts{Config: config, DB: db, Logger: log.New(io.Discard)})
		defer runner.Close()

		if err := runner.prepare(context.Background()); err != nil {
			t.Fatalf("prepare: %v", err)
		}
		if runner.email() != "" {
			t.Error("expected no signed-in user")
		}
		if _, err := runner.requireIdentity(); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
		if runner.deps().Session != nil {
			t.Error("expected pages to see no session")
		}
	})
}

func TestConfigPath(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"default", []string{"movies", "list"}, defaultConfigPath},
		{"long flag", []string{"--config", "alt.toml", "home"}, "alt.toml"},
		{"short flag", []string{"-c", "alt.toml"}, "alt.toml"},
		{"equals form", []string{"--config=x/y.toml", "tui"}, "x/y.toml"},
		{"dangling flag", []string{"--config"}, defaultConfigPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := configPath(tt.args); got != tt.want {
				t.Errorf("configPath(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestCommands(t *testing.T) {
	t.Run("home prints stats and rows", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("home"); err != nil {
			t.Fatalf("home: %v", err)
		}
		out := h.output.String()
		for _, want := range []string{"Movies: 2", "Users: 5", "Top Rated (2)", "Recently Added (0)", "Featured (1)"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("home --json", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("home", "--json", "--pretty=false"); err != nil {
			t.Fatalf("home: %v", err)
		}
		var got map[string]json.RawMessage
		if err := json.Unmarshal(h.output.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, h.output.String())
		}
		if _, ok := got["top_rated"]; !ok {
			t.Error("expected top_rated key")
		}
	})

	t.Run("movies list drops records without an id", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("movies", "list"); err != nil {
			t.Fatalf("movies list: %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, "All Movies (2)") {
			t.Errorf("expected header with 2 movies:\n%s", out)
		}
		if !strings.Contains(out, "Arrival") || !strings.Contains(out, "[abc]") {
			t.Errorf("expected both movies:\n%s", out)
		}
		if strings.Contains(out, "Nameless") {
			t.Error("expected the record without id to be dropped")
		}

		c, ok := h.backend.find(http.MethodGet, "/movies")
		if !ok {
			t.Fatal("expected a catalog request")
		}
		if !strings.Contains(c.Query, "sortBy=rating") {
			t.Errorf("expected default sort in query, got %q", c.Query)
		}
	})

	t.Run("movies list passes filters and prints csv", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("movies", "list", "--genre", "Drama", "--search", "heat", "--format", "csv"); err != nil {
			t.Fatalf("movies list: %v", err)
		}

		c, _ := h.backend.find(http.MethodGet, "/movies")
		if !strings.Contains(c.Query, "genre=Drama") || !strings.Contains(c.Query, "search=heat") {
			t.Errorf("expected filters in query, got %q", c.Query)
		}
		if !strings.HasPrefix(h.output.String(), "ID,Title") {
			t.Errorf("expected CSV header, got:\n%s", h.output.String())
		}
	})

	t.Run("movies list --json", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("movies", "list", "--json"); err != nil {
			t.Fatalf("movies list: %v", err)
		}
		var movies []models.Movie
		if err := json.Unmarshal(h.output.Bytes(), &movies); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(movies) != 2 {
			t.Errorf("expected 2 movies, got %d", len(movies))
		}
	})

	t.Run("movies list rejects unknown format", func(t *testing.T) {
		h := newHarness(t)
		err := h.run("movies", "list", "--format", "yaml")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("movies show signed out skips the watchlist status", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("movies", "show", "1"); err != nil {
			t.Fatalf("movies show: %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, "Arrival (2016)") || !strings.Contains(out, "Amy Adams, Jeremy Renner") {
			t.Errorf("unexpected details:\n%s", out)
		}
		if strings.Contains(out, "watchlist") {
			t.Errorf("expected no watchlist line when signed out:\n%s", out)
		}
		if _, ok := h.backend.find(http.MethodGet, "/watchlist/status/1"); ok {
			t.Error("expected no status request when signed out")
		}
	})

	t.Run("movies show signed in reports status and ownership", func(t *testing.T) {
		h := newHarness(t)
		h.signIn("ana@example.com")

		if err := h.run("movies", "show", "1"); err != nil {
			t.Fatalf("movies show: %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, "✓ In your watchlist") || !strings.Contains(out, "You added this movie") {
			t.Errorf("unexpected details:\n%s", out)
		}
		c, _ := h.backend.find(http.MethodGet, "/watchlist/status/1")
		if c.Email != "ana@example.com" {
			t.Errorf("expected identity header, got %q", c.Email)
		}
	})

	t.Run("movies show with missing id", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("movies", "show"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("movies show not found navigates to the catalog", func(t *testing.T) {
		h := newHarness(t)
		err := h.run("movies", "show", "404")
		if !shared.IsKind(err, shared.KindNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
		if h.runner.notifier.route != pages.RouteAllMovies {
			t.Errorf("expected navigation to catalog, got %q", h.runner.notifier.route)
		}
	})

	t.Run("movies add sends the payload with the identity header", func(t *testing.T) {
		h := newHarness(t)
		h.signIn("ana@example.com")

		err := h.run("movies", "add",
			"--title", "Paterson", "--genre", "Drama", "--year", "2016", "--director", "Jim Jarmusch",
			"--cast", "Adam Driver", "--rating", "7.4", "--duration", "118", "--plot", "A bus driver writes poems.",
			"--language", "English", "--country", "USA")
		if err != nil {
			t.Fatalf("movies add: %v", err)
		}

		c, ok := h.backend.find(http.MethodPost, "/movies/add")
		if !ok {
			t.Fatal("expected add request")
		}
		if c.Email != "ana@example.com" {
			t.Errorf("expected identity header, got %q", c.Email)
		}
		var payload models.MoviePayload
		if err := json.Unmarshal([]byte(c.Body), &payload); err != nil {
			t.Fatalf("invalid body: %v", err)
		}
		if payload.ReleaseYear != 2016 || payload.Rating != 7.4 || payload.Duration != 118 {
			t.Errorf("unexpected payload %+v", payload)
		}
		if !strings.Contains(h.output.String(), `Added "Paterson" [m-9]`) {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("movies add validates before any request", func(t *testing.T) {
		h := newHarness(t)
		h.signIn("ana@example.com")

		err := h.run("movies", "add", "--title", "Only a title")
		if !shared.IsKind(err, shared.KindValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
		if _, ok := h.backend.find(http.MethodPost, "/movies/add"); ok {
			t.Error("expected no add request")
		}
	})

	t.Run("movies add signed out routes to login", func(t *testing.T) {
		h := newHarness(t)
		err := h.run("movies", "add", "--title", "X")
		if !shared.IsKind(err, shared.KindUnauthorized) {
			t.Errorf("expected unauthorized, got %v", err)
		}
		if h.runner.notifier.route != pages.RouteLogin {
			t.Errorf("expected navigation to login, got %q", h.runner.notifier.route)
		}
	})

	t.Run("movies update keeps unset fields", func(t *testing.T) {
		h := newHarness(t)
		h.signIn("ana@example.com")

		if err := h.run("movies", "update", "1", "--title", "Arrival (Director's Cut)"); err != nil {
			t.Fatalf("movies update: %v", err)
		}
		c, ok := h.backend.find(http.MethodPut, "/movies/update/1")
		if !ok {
			t.Fatal("expected update request")
		}
		var payload models.MoviePayload
		json.Unmarshal([]byte(c.Body), &payload)
		if payload.Title != "Arrival (Director's Cut)" || payload.Director != "Denis Villeneuve" {
			t.Errorf("unexpected payload %+v", payload)
		}
	})

	t.Run("movies delete", func(t *testing.T) {
		t.Run("owner deletes", func(t *testing.T) {
			h := newHarness(t)
			h.signIn("ana@example.com")

			if err := h.run("movies", "delete", "1"); err != nil {
				t.Fatalf("movies delete: %v", err)
			}
			if c, ok := h.backend.find(http.MethodDelete, "/movies/1"); !ok || c.Email != "ana@example.com" {
				t.Errorf("expected delete request with identity header, got %+v", c)
			}
			if h.runner.notifier.route != pages.RouteMyCollection {
				t.Errorf("expected navigation to collection, got %q", h.runner.notifier.route)
			}
		})

		t.Run("someone else's movie is refused", func(t *testing.T) {
			h := newHarness(t)
			h.signIn("bo@example.com")

			err := h.run("movies", "delete", "1")
			if !shared.IsKind(err, shared.KindUnauthorized) {
				t.Errorf("expected unauthorized, got %v", err)
			}
			if _, ok := h.backend.find(http.MethodDelete, "/movies/1"); ok {
				t.Error("expected no delete request")
			}
		})
	})

	t.Run("movies mine keeps only owned records", func(t *testing.T) {
		h := newHarness(t)
		h.signIn("ana@example.com")

		if err := h.run("movies", "mine"); err != nil {
			t.Fatalf("movies mine: %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, "My Collection (1)") || strings.Contains(out, "Heat") {
			t.Errorf("expected only owned movies:\n%s", out)
		}
	})

	t.Run("watchlist", func(t *testing.T) {
		t.Run("list signed out fails with unauthorized", func(t *testing.T) {
			h := newHarness(t)
			err := h.run("watchlist", "list")
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
			if _, ok := h.backend.find(http.MethodGet, "/watchlist"); ok {
				t.Error("expected no request while signed out")
			}
		})

		t.Run("list in markdown", func(t *testing.T) {
			h := newHarness(t)
			h.signIn("ana@example.com")
			if err := h.run("watchlist", "list", "--format", "markdown"); err != nil {
				t.Fatalf("watchlist list: %v", err)
			}
			if !strings.Contains(h.output.String(), "# My Watchlist") {
				t.Errorf("expected markdown heading:\n%s", h.output.String())
			}
		})

		t.Run("add and remove", func(t *testing.T) {
			h := newHarness(t)
			h.signIn("ana@example.com")

			if err := h.run("watchlist", "add", "42"); err != nil {
				t.Fatalf("watchlist add: %v", err)
			}
			if c, ok := h.backend.find(http.MethodPost, "/watchlist/42"); !ok || c.Email != "ana@example.com" {
				t.Errorf("expected add request with identity header, got %+v", c)
			}

			if err := h.run("watchlist", "remove", " 1 "); err != nil {
				t.Fatalf("watchlist remove: %v", err)
			}
			if _, ok := h.backend.find(http.MethodDelete, "/watchlist/1"); !ok {
				t.Error("expected remove request with trimmed id")
			}
		})

		t.Run("status", func(t *testing.T) {
			h := newHarness(t)
			h.signIn("ana@example.com")
			if err := h.run("watchlist", "status", "1", "--json"); err != nil {
				t.Fatalf("watchlist status: %v", err)
			}
			if strings.TrimSpace(h.output.String()) != `{"isWatchlisted":true}` {
				t.Errorf("unexpected output %q", h.output.String())
			}
		})
	})

	t.Run("auth", func(t *testing.T) {
		t.Run("login signs in and upserts the user", func(t *testing.T) {
			h := newHarness(t)
			h.identity.Accounts["ana@example.com"] = "secret1"

			if err := h.run("auth", "login", "--email", "ana@example.com", "--password", "secret1"); err != nil {
				t.Fatalf("auth login: %v", err)
			}
			if !strings.Contains(h.output.String(), "Signed in as ana <ana@example.com>") {
				t.Errorf("unexpected output %q", h.output.String())
			}
			if h.runner.notifier.route != pages.RouteHome {
				t.Errorf("expected navigation home, got %q", h.runner.notifier.route)
			}
		})

		t.Run("login with wrong password fails", func(t *testing.T) {
			h := newHarness(t)
			h.identity.Accounts["ana@example.com"] = "secret1"

			if err := h.run("auth", "login", "--email", "ana@example.com", "--password", "nope"); err == nil {
				t.Error("expected sign-in failure")
			}
		})

		t.Run("register rejects mismatched confirmation", func(t *testing.T) {
			h := newHarness(t)
			err := h.run("auth", "register", "--email", "new@example.com", "--password", "Secret1", "--confirm", "Secret2")
			if !shared.IsKind(err, shared.KindValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})

		t.Run("register rejects an email the backend knows", func(t *testing.T) {
			h := newHarness(t)
			err := h.run("auth", "register", "--email", "ana@example.com", "--password", "Secret1")
			if services.AuthCode(err) != services.CodeEmailAlreadyInUse {
				t.Errorf("expected email-already-in-use, got %v", err)
			}
		})

		t.Run("whoami", func(t *testing.T) {
			h := newHarness(t)
			if err := h.run("auth", "whoami"); err != nil {
				t.Fatalf("whoami: %v", err)
			}
			if !strings.Contains(h.output.String(), "Not signed in.") {
				t.Errorf("unexpected output %q", h.output.String())
			}

			h.output.Reset()
			h.signIn("ana@example.com")
			if err := h.run("auth", "whoami", "--json"); err != nil {
				t.Fatalf("whoami: %v", err)
			}
			if !strings.Contains(h.output.String(), `"signed_in":true`) {
				t.Errorf("unexpected output %q", h.output.String())
			}
		})

		t.Run("logout", func(t *testing.T) {
			h := newHarness(t)
			h.signIn("ana@example.com")
			if err := h.run("auth", "logout"); err != nil {
				t.Fatalf("logout: %v", err)
			}
			if !strings.Contains(h.output.String(), "Signed out.") {
				t.Errorf("unexpected output %q", h.output.String())
			}
			if h.identity.Current() != nil {
				t.Error("expected provider to be signed out")
			}
		})

		t.Run("google without client credentials", func(t *testing.T) {
			h := newHarness(t)
			h.runner.config.Identity.Google = shared.GoogleConfig{}
			if err := h.run("auth", "google"); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("theme persists between commands", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("theme", "show"); err != nil {
			t.Fatalf("theme show: %v", err)
		}
		if strings.TrimSpace(h.output.String()) != "dark" {
			t.Errorf("expected dark default, got %q", h.output.String())
		}

		if err := h.run("theme", "set", "LIGHT"); err != nil {
			t.Fatalf("theme set: %v", err)
		}
		h.output.Reset()
		if err := h.run("theme", "show"); err != nil {
			t.Fatalf("theme show: %v", err)
		}
		if strings.TrimSpace(h.output.String()) != "light" {
			t.Errorf("expected light, got %q", h.output.String())
		}

		h.output.Reset()
		if err := h.run("theme", "toggle"); err != nil {
			t.Fatalf("theme toggle: %v", err)
		}
		if !strings.Contains(h.output.String(), "Theme set to dark") {
			t.Errorf("unexpected output %q", h.output.String())
		}

		if err := h.run("theme", "set", "sepia"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("setup creates config and storage", func(t *testing.T) {
		dir := t.TempDir()
		config := shared.DefaultConfig()
		config.Storage.Path = filepath.Join(dir, "moviemaster.db")
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Config:     config,
			ConfigPath: filepath.Join(dir, "config.toml"),
			Logger:     log.New(io.Discard),
			Output:     output,
		})

		app := &cli.Command{Name: "moviemaster", Writer: io.Discard, Commands: runner.register()}
		if err := app.Run(context.Background(), []string{"moviemaster", "setup"}); err != nil {
			t.Fatalf("setup: %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "config.toml"))
		if !strings.Contains(output.String(), "schema version") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("api", func(t *testing.T) {
		t.Run("get prints the body", func(t *testing.T) {
			h := newHarness(t)
			if err := h.run("api", "get", "/home/stats", "--json"); err != nil {
				t.Fatalf("api get: %v", err)
			}
			if strings.TrimSpace(h.output.String()) != `{"totalMovies":2,"totalUsers":5}` {
				t.Errorf("unexpected output %q", h.output.String())
			}
		})

		t.Run("get reports non-2xx", func(t *testing.T) {
			h := newHarness(t)
			if err := h.run("api", "get", "/nowhere"); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("post rejects invalid JSON", func(t *testing.T) {
			h := newHarness(t)
			if err := h.run("api", "post", "/movies/add", "--data", "{nope"); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})

		t.Run("put sends the data as the signed-in user", func(t *testing.T) {
			h := newHarness(t)
			h.signIn("ana@example.com")
			data := `{"title":"Arrival (Director's Cut)"}`
			if err := h.run("api", "put", "/movies/update/1", "--data", data, "--as-me", "--json"); err != nil {
				t.Fatalf("api put: %v", err)
			}
			c, ok := h.backend.find(http.MethodPut, "/movies/update/1")
			if !ok || c.Body != data || c.Email != "ana@example.com" {
				t.Errorf("unexpected request %+v", c)
			}
		})

		t.Run("delete as the signed-in user", func(t *testing.T) {
			h := newHarness(t)
			h.signIn("ana@example.com")
			if err := h.run("api", "delete", "/watchlist/1", "--as-me"); err != nil {
				t.Fatalf("api delete: %v", err)
			}
			if c, _ := h.backend.find(http.MethodDelete, "/watchlist/1"); c.Email != "ana@example.com" {
				t.Errorf("expected identity header, got %q", c.Email)
			}
		})

		t.Run("snapshot records endpoint failures", func(t *testing.T) {
			h := newHarness(t)
			delete(h.backend.routes, "GET /home/recent")
			save := filepath.Join(t.TempDir(), "snapshot.json")

			if err := h.run("api", "snapshot", "--save", save); err != nil {
				t.Fatalf("api snapshot: %v", err)
			}

			var data map[string]json.RawMessage
			if err := json.Unmarshal(h.output.Bytes(), &data); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if _, ok := data["stats"]; !ok {
				t.Error("expected stats in snapshot")
			}
			if _, ok := data["collection"]; ok {
				t.Error("expected no collection when signed out")
			}
			if !strings.Contains(string(data["errors"]), "recent") {
				t.Errorf("expected recent failure recorded, got %s", data["errors"])
			}
			tu.AssertFileExists(t, save)
		})
	})

	t.Run("export", func(t *testing.T) {
		t.Run("writes csv lists and a manifest", func(t *testing.T) {
			h := newHarness(t)
			h.signIn("ana@example.com")
			dir := t.TempDir()

			err := h.run("export", "--list", "catalog", "--list", "watchlist", "--format", "csv", "--output", dir, "--rate-limit", "100")
			if err != nil {
				t.Fatalf("export: %v", err)
			}

			tu.AssertFileExists(t, filepath.Join(dir, "catalog_movies.csv"))
			tu.AssertFileExists(t, filepath.Join(dir, "watchlist_metadata.json"))
			tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
			if !strings.Contains(h.output.String(), "Successful: 2") {
				t.Errorf("unexpected summary:\n%s", h.output.String())
			}
		})

		t.Run("collection requires a signed-in user", func(t *testing.T) {
			h := newHarness(t)
			err := h.run("export", "--list", "collection", "--output", t.TempDir())
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("json summary", func(t *testing.T) {
			h := newHarness(t)
			dir := t.TempDir()
			if err := h.run("export", "--list", "top-rated", "--output", dir, "--json"); err != nil {
				t.Fatalf("export: %v", err)
			}
			var summary map[string]any
			if err := json.Unmarshal(h.output.Bytes(), &summary); err != nil {
				t.Fatalf("invalid JSON: %v\n%s", err, h.output.String())
			}
			if summary["successful_exports"] != float64(1) {
				t.Errorf("unexpected summary %v", summary)
			}
		})
	})
}
