package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviemaster/internal/pages"
	"github.com/desertthunder/moviemaster/internal/repositories"
	"github.com/desertthunder/moviemaster/internal/services"
	"github.com/desertthunder/moviemaster/internal/session"
	"github.com/desertthunder/moviemaster/internal/shared"
	"github.com/desertthunder/moviemaster/internal/tasks"
	"github.com/desertthunder/moviemaster/internal/theme"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Storage, identity and session are opened on first use by [Runner.prepare] so commands
// that only read the catalog never touch the local database.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	now        func() time.Time

	api      *services.APIService
	catalog  services.Catalog
	users    services.UserDirectory
	identity services.IdentityProvider
	engine   *tasks.ExportEngine
	notifier *consoleNotifier

	db          *sql.DB
	ownsDB      bool
	ownsIdent   bool
	session     *session.Holder
	themes      *theme.Holder
	prepared    bool
	identityErr error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB
	API        *services.APIService
	Catalog    services.Catalog
	Users      services.UserDirectory
	Identity   services.IdentityProvider
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Backend.Timeout}
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(
			opts.Config.Backend.BaseURL,
			opts.HTTPClient,
			services.WithRateLimit(opts.Config.Backend.RequestsPerSecond),
			services.WithLogger(opts.Logger),
		)
	}
	if opts.Catalog == nil {
		client := services.NewCatalogClient(opts.API)
		opts.Catalog = client
		if opts.Users == nil {
			opts.Users = client
		}
	}
	if opts.Users == nil {
		if users, ok := opts.Catalog.(services.UserDirectory); ok {
			opts.Users = users
		}
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		now:        time.Now,
		api:        opts.API,
		catalog:    opts.Catalog,
		users:      opts.Users,
		identity:   opts.Identity,
		engine:     tasks.NewExportEngine(opts.Catalog, opts.Logger),
		notifier:   &consoleNotifier{logger: opts.Logger},
		db:         opts.DB,
	}
}

// SetLogger replaces the logger used by the runner and everything it creates afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	r.notifier.logger = l
	r.engine = tasks.NewExportEngine(r.catalog, l)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, homeCommand, moviesCommand, watchlistCommand,
		themeCommand, exportCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// prepare opens local storage, restores the stored session and loads the theme.
//
// A missing identity configuration is not fatal: the session stays signed out and
// commands that need a user fail through [Runner.requireIdentity].
func (r *Runner) prepare(ctx context.Context) error {
	if r.prepared {
		return nil
	}

	if r.db == nil {
		db, err := shared.OpenStorage(r.config.Storage)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
		}
		r.db, r.ownsDB = db, true
	}

	r.themes = theme.New(repositories.NewKVRepository(r.db), r.logger)
	r.themes.Load()

	if r.identity == nil {
		r.identity, r.identityErr = r.newIdentity()
		r.ownsIdent = r.identity != nil
	}
	if r.identity != nil {
		r.session = session.New(r.identity, r.users, r.logger)
		if err := r.session.Start(ctx); err != nil {
			r.logger.Warn("starting signed out", "error", err)
		}
		if _, err := r.session.Wait(ctx); err != nil {
			return err
		}
	} else {
		r.logger.Debug("identity provider unavailable", "error", r.identityErr)
	}

	r.prepared = true
	return nil
}

func (r *Runner) newIdentity() (services.IdentityProvider, error) {
	var federated services.FederatedAuthorizer
	if r.config.Identity.Google.Configured() {
		google := services.NewGoogleAuthorizer(r.config.Identity.Google, r.config.Server.Addr(), r.logger)
		google.Prompt = func(url string) {
			r.writePlain("Open this URL in your browser to continue:\n%s\n", url)
		}
		federated = google
	}

	provider, err := services.NewFirebaseProvider(services.FirebaseOpts{
		APIKey:     r.config.Identity.APIKey,
		AuthURL:    r.config.Identity.AuthURL,
		TokenURL:   r.config.Identity.TokenURL,
		HTTPClient: r.httpClient,
		Store:      repositories.NewSessionRepository(r.db),
		Federated:  federated,
		Logger:     r.logger,
	})
	if err != nil {
		return nil, err
	}
	return provider, nil
}

// requireIdentity returns the session holder or the reason none is available.
func (r *Runner) requireIdentity() (*session.Holder, error) {
	if r.session == nil {
		if r.identityErr != nil {
			return nil, r.identityErr
		}
		return nil, fmt.Errorf("%w: identity provider not initialized", shared.ErrServiceUnavailable)
	}
	return r.session, nil
}

// email returns the signed-in email or "".
func (r *Runner) email() string {
	if r.session == nil {
		return ""
	}
	return r.session.Email()
}

// deps builds the page dependencies for CLI use.
func (r *Runner) deps() pages.Deps {
	d := pages.Deps{
		Catalog:   r.catalog,
		Notifier:  r.notifier,
		Navigator: r.notifier,
		Logger:    r.logger,
	}
	if r.session != nil {
		d.Session = r.session
	}
	return d
}

// Close stops the session worker and closes storage opened by the runner.
// A later command prepares everything again.
func (r *Runner) Close() error {
	if !r.prepared {
		return nil
	}
	r.prepared = false

	if r.session != nil {
		r.session.Close()
		r.session = nil
	}
	if r.ownsIdent {
		r.identity, r.ownsIdent = nil, false
	}
	if r.ownsDB && r.db != nil {
		err := r.db.Close()
		r.db, r.ownsDB = nil, false
		return err
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// consoleNotifier routes page notifications to the logger and remembers the last route requested.
type consoleNotifier struct {
	logger *log.Logger
	route  string
}

func (n *consoleNotifier) Success(message string) { n.logger.Info(message) }
func (n *consoleNotifier) Info(message string)    { n.logger.Info(message) }
func (n *consoleNotifier) Warn(message string)    { n.logger.Warn(message) }
func (n *consoleNotifier) Error(message string)   { n.logger.Error(message) }

func (n *consoleNotifier) Navigate(route string) {
	n.route = route
	if route == pages.RouteLogin {
		n.logger.Info("sign in with `moviemaster auth login` or `moviemaster auth google`")
	}
}
