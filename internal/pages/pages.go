package pages

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviemaster/internal/models"
	"github.com/desertthunder/moviemaster/internal/services"
	"github.com/desertthunder/moviemaster/internal/session"
	"github.com/desertthunder/moviemaster/internal/shared"
)

// Routes understood by a [Navigator].
const (
	RouteHome         = "/"
	RouteAllMovies    = "/all-movies"
	RouteMyCollection = "/my-collection"
	RouteWatchlist    = "/watchlist"
	RouteLogin        = "/login"
	RouteRegister     = "/register"
	RouteAddMovie     = "/add-movie"
)

// MovieRoute is the details route for id.
func MovieRoute(id string) string { return "/movies/" + url.PathEscape(id) }

// UpdateRoute is the edit route for id.
func UpdateRoute(id string) string { return "/update-movie/" + url.PathEscape(id) }

// ErrStale is returned when a result arrived after a newer fetch started and was discarded.
var ErrStale = errors.New("result superseded by a newer request")

// ErrSessionLoading is returned by actions that need a user while the session is still being restored.
var ErrSessionLoading = errors.New("session is still loading")

// Notifier shows transient messages to the user.
type Notifier interface {
	Success(message string)
	Info(message string)
	Warn(message string)
	Error(message string)
}

// Navigator changes the active view.
type Navigator interface {
	Navigate(route string)
}

// Session exposes the signed-in user.
type Session interface {
	State() session.State
}

// Deps are the collaborators shared by every page.
type Deps struct {
	Catalog   services.Catalog
	Session   Session
	Notifier  Notifier
	Navigator Navigator
	Logger    *log.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = log.New(io.Discard)
	}
	if d.Notifier == nil {
		d.Notifier = discardNotifier{}
	}
	if d.Navigator == nil {
		d.Navigator = discardNavigator{}
	}
	return d
}

func (d Deps) email() string {
	if d.Session == nil {
		return ""
	}
	return d.Session.State().Email()
}

// requireUser notifies and routes to sign-in when nobody is signed in.
//
// While the session is still loading it returns [ErrSessionLoading] without
// notifying or navigating.
func (d Deps) requireUser(message string) (string, error) {
	if d.Session != nil && d.Session.State().Loading {
		return "", ErrSessionLoading
	}
	email := d.email()
	if email == "" {
		d.Notifier.Error(message)
		d.Navigator.Navigate(RouteLogin)
		return "", shared.NewError(shared.KindUnauthorized, message, shared.ErrNotAuthenticated)
	}
	return email, nil
}

// normalize drops records without a usable identifier, logging each one.
func (d Deps) normalize(list []models.Movie) []models.Movie {
	kept, dropped := models.NormalizeMovies(list)
	for _, m := range dropped {
		d.Logger.Warn("skipping movie", "reason", m.Reason, "title", m.Movie.Title)
	}
	return kept
}

type discardNotifier struct{}

func (discardNotifier) Success(string) {}
func (discardNotifier) Info(string)    {}
func (discardNotifier) Warn(string)    {}
func (discardNotifier) Error(string)   {}

type discardNavigator struct{}

func (discardNavigator) Navigate(string) {}

// messageOr returns the user-facing message of err, or fallback when it has none.
func messageOr(err error, fallback string) string {
	if msg := shared.Message(err); msg != "" {
		return msg
	}
	return fallback
}

// Tracker hands out tokens that identify the most recent fetch of a page.
type Tracker struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// Token identifies one fetch started by [Tracker.Begin].
type Token struct {
	tracker *Tracker
	seq     uint64
}

// Begin starts a new fetch, cancelling the previous one, and returns its context and token.
func (t *Tracker) Begin(ctx context.Context) (context.Context, Token) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}
	t.seq++
	ctx, t.cancel = context.WithCancel(ctx)
	return ctx, Token{tracker: t, seq: t.seq}
}

// Stop cancels the in-flight fetch and invalidates every token.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.seq++
}

// commit runs write under mu when the token is still current and reports whether it ran.
// Pages call [Tracker.Begin] while holding the same mu.
func (tok Token) commit(mu sync.Locker, write func()) bool {
	mu.Lock()
	defer mu.Unlock()
	if !tok.Current() {
		return false
	}
	write()
	return true
}

// Current reports whether no newer fetch has started since this token was issued.
func (tok Token) Current() bool {
	if tok.tracker == nil {
		return false
	}
	tok.tracker.mu.Lock()
	defer tok.tracker.mu.Unlock()
	return tok.tracker.seq == tok.seq
}
