package pages

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/moviemaster/internal/models"
	"github.com/desertthunder/moviemaster/internal/services"
	"github.com/desertthunder/moviemaster/internal/session"
	"github.com/desertthunder/moviemaster/internal/shared"
	tu "github.com/desertthunder/moviemaster/internal/testing"
)

// fakeCatalog answers from in-memory data and counts every call.
type fakeCatalog struct {
	mu        sync.Mutex
	calls     atomic.Int32
	movies    map[string]models.Movie
	lists     map[string][]models.Movie
	watchlist map[string]bool
	err       error
	lastQuery models.Filters
	movieFn   func(ctx context.Context, id string) (*models.Movie, error)
	added     []models.MoviePayload
}

var _ services.Catalog = (*fakeCatalog)(nil)

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		movies:    map[string]models.Movie{},
		lists:     map[string][]models.Movie{},
		watchlist: map[string]bool{},
	}
}

func movie(id, title, owner string) models.Movie {
	return models.Movie{ID: models.StringID(id), Title: title, AddedBy: owner}
}

func (f *fakeCatalog) list(name string) ([]models.Movie, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Movie(nil), f.lists[name]...), nil
}

func (f *fakeCatalog) Stats(ctx context.Context) (*models.Stats, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Stats{TotalMovies: len(f.movies), TotalUsers: 2}, nil
}

func (f *fakeCatalog) TopRated(ctx context.Context) ([]models.Movie, error) { return f.list("top") }
func (f *fakeCatalog) Recent(ctx context.Context) ([]models.Movie, error)   { return f.list("recent") }
func (f *fakeCatalog) Featured(ctx context.Context) ([]models.Movie, error) {
	return f.list("featured")
}

func (f *fakeCatalog) Movies(ctx context.Context, filters models.Filters) ([]models.Movie, error) {
	f.mu.Lock()
	f.lastQuery = filters
	f.mu.Unlock()
	return f.list("all")
}

func (f *fakeCatalog) Movie(ctx context.Context, id string) (*models.Movie, error) {
	if f.movieFn != nil {
		f.calls.Add(1)
		return f.movieFn(ctx, id)
	}
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.movies[id]
	if !ok {
		return nil, &shared.Error{Kind: shared.KindNotFound, Status: http.StatusNotFound, Message: "Movie not found"}
	}
	return &m, nil
}

func (f *fakeCatalog) AddMovie(ctx context.Context, payload models.MoviePayload, email string) (*models.Movie, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, payload)
	m := movie("new", payload.Title, email)
	return &m, nil
}

func (f *fakeCatalog) UpdateMovie(ctx context.Context, id string, payload models.MoviePayload, email string) (*models.Movie, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	m := movie(id, payload.Title, email)
	return &m, nil
}

func (f *fakeCatalog) DeleteMovie(ctx context.Context, id, email string) (*models.StatusResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &models.StatusResult{Success: true}, nil
}

func (f *fakeCatalog) MyCollection(ctx context.Context, email string) ([]models.Movie, error) {
	return f.list("mine")
}

func (f *fakeCatalog) Watchlist(ctx context.Context, email string) ([]models.Movie, error) {
	return f.list("watchlist")
}

func (f *fakeCatalog) AddToWatchlist(ctx context.Context, id, email string) (*models.WatchlistAddResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	exists := f.watchlist[id]
	f.watchlist[id] = true
	return &models.WatchlistAddResult{AlreadyExists: exists}, nil
}

func (f *fakeCatalog) RemoveFromWatchlist(ctx context.Context, id, email string) (*models.StatusResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.watchlist, id)
	return &models.StatusResult{Success: true}, nil
}

func (f *fakeCatalog) WatchlistStatus(ctx context.Context, id, email string) (*models.WatchlistStatus, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.WatchlistStatus{IsWatchlisted: f.watchlist[id]}, nil
}

type fakeSession struct {
	email   string
	loading bool
}

func (s fakeSession) State() session.State {
	if s.loading {
		return session.State{Loading: true}
	}
	if s.email == "" {
		return session.State{}
	}
	return session.State{User: &models.SessionUser{Email: s.email}}
}

type harness struct {
	catalog   *fakeCatalog
	notifier  *tu.Notifier
	navigator *tu.Navigator
	deps      Deps
}

func newHarness(email string) *harness {
	h := &harness{catalog: newFakeCatalog(), notifier: &tu.Notifier{}, navigator: &tu.Navigator{}}
	h.deps = Deps{Catalog: h.catalog, Session: fakeSession{email: email}, Notifier: h.notifier, Navigator: h.navigator}
	return h
}

func TestTracker(t *testing.T) {
	var tr Tracker
	ctx1, first := tr.Begin(context.Background())
	if !first.Current() {
		t.Fatal("first token should be current")
	}

	_, second := tr.Begin(context.Background())
	if first.Current() || !second.Current() {
		t.Error("only the newest token should be current")
	}
	if ctx1.Err() == nil {
		t.Error("previous context should be cancelled")
	}

	tr.Stop()
	if second.Current() {
		t.Error("Stop should invalidate tokens")
	}
	if (Token{}).Current() {
		t.Error("zero token is never current")
	}

	t.Run("commit skips writes from superseded tokens", func(t *testing.T) {
		var (
			tr    Tracker
			mu    sync.Mutex
			value string
		)
		_, old := tr.Begin(context.Background())
		_, latest := tr.Begin(context.Background())

		if old.commit(&mu, func() { value = "old" }) {
			t.Error("superseded token should not commit")
		}
		if !latest.commit(&mu, func() { value = "latest" }) {
			t.Error("latest token should commit")
		}
		if value != "latest" {
			t.Errorf("value = %q", value)
		}
	})
}

func TestSessionLoading(t *testing.T) {
	ctx := context.Background()

	newLoading := func() *harness {
		h := newHarness("")
		h.deps.Session = fakeSession{loading: true}
		return h
	}

	tc := []struct {
		name string
		run  func(h *harness) error
	}{
		{name: "collection", run: func(h *harness) error { return NewCollection(h.deps).Load(ctx) }},
		{name: "watchlist", run: func(h *harness) error { return NewWatchlist(h.deps).Load(ctx) }},
		{name: "save to watchlist", run: func(h *harness) error { return SaveToWatchlist(ctx, h.deps, movie("1", "One", "")) }},
		{name: "add movie", run: func(h *harness) error {
			_, err := NewMovieForm(h.deps).Add(ctx, models.MovieInput{Title: "One"})
			return err
		}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			h := newLoading()
			if err := tt.run(h); !errors.Is(err, ErrSessionLoading) {
				t.Fatalf("err = %v, want ErrSessionLoading", err)
			}
			if h.navigator.Last() != "" {
				t.Errorf("should not navigate while loading, got %q", h.navigator.Last())
			}
			if h.notifier.Last("error") != "" {
				t.Errorf("should not notify while loading, got %q", h.notifier.Last("error"))
			}
			if h.catalog.calls.Load() != 0 {
				t.Error("no request expected")
			}
		})
	}

	t.Run("signed out still redirects", func(t *testing.T) {
		h := newHarness("")
		err := NewCollection(h.deps).Load(ctx)
		if errors.Is(err, ErrSessionLoading) || !shared.IsKind(err, shared.KindUnauthorized) {
			t.Errorf("err = %v", err)
		}
		if h.navigator.Last() != RouteLogin {
			t.Errorf("route = %q", h.navigator.Last())
		}
	})
}

func TestHome(t *testing.T) {
	t.Run("loads every row", func(t *testing.T) {
		h := newHarness("")
		h.catalog.lists["top"] = []models.Movie{movie("1", "Top", "")}
		h.catalog.lists["recent"] = []models.Movie{movie("2", "Recent", ""), {Title: "no id"}}
		h.catalog.lists["featured"] = []models.Movie{movie("3", "Featured", "")}

		home := NewHome(h.deps)
		if err := home.Load(context.Background()); err != nil {
			t.Fatalf("Load: %v", err)
		}

		s := home.State()
		if s.Loading || s.Stats.TotalUsers != 2 {
			t.Errorf("state = %+v", s)
		}
		if len(s.TopRated) != 1 || len(s.Recent) != 1 || len(s.Featured) != 1 {
			t.Errorf("rows = %d/%d/%d", len(s.TopRated), len(s.Recent), len(s.Featured))
		}
		if h.catalog.calls.Load() != 4 {
			t.Errorf("calls = %d, want 4", h.catalog.calls.Load())
		}
	})

	t.Run("failure notifies", func(t *testing.T) {
		h := newHarness("")
		h.catalog.err = shared.NewError(shared.KindNetwork, "Failed to fetch stats", nil)

		home := NewHome(h.deps)
		if err := home.Load(context.Background()); err == nil {
			t.Fatal("expected error")
		}
		if h.notifier.Last("error") != "Failed to fetch stats" {
			t.Errorf("notification = %q", h.notifier.Last("error"))
		}
		if home.State().Loading {
			t.Error("loading should be cleared")
		}
	})
}

func TestCatalogPage(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults and refetch on change", func(t *testing.T) {
		h := newHarness("")
		h.catalog.lists["all"] = []models.Movie{movie("1", "A", "")}
		page := NewCatalog(h.deps)

		if err := page.Load(ctx); err != nil {
			t.Fatalf("Load: %v", err)
		}
		if h.catalog.lastQuery != DefaultFilters() {
			t.Errorf("query = %+v", h.catalog.lastQuery)
		}

		page.SetGenre(ctx, "Drama")
		page.SetSearch(ctx, "  god ")
		page.SetSort(ctx, "bogus")

		want := models.Filters{Genre: "Drama", Search: "god", SortBy: DefaultSort}
		if h.catalog.lastQuery != want {
			t.Errorf("query = %+v, want %+v", h.catalog.lastQuery, want)
		}
		if h.catalog.calls.Load() != 3 {
			t.Errorf("calls = %d, want 3 (unchanged sort skips fetch)", h.catalog.calls.Load())
		}
		if len(page.State().Movies) != 1 {
			t.Errorf("movies = %+v", page.State().Movies)
		}
	})

	t.Run("failure keeps old list", func(t *testing.T) {
		h := newHarness("")
		h.catalog.lists["all"] = []models.Movie{movie("1", "A", "")}
		page := NewCatalog(h.deps)
		page.Load(ctx)

		h.catalog.err = errors.New("boom")
		if err := page.SetGenre(ctx, "Horror"); err == nil {
			t.Fatal("expected error")
		}
		if h.notifier.Last("error") != "Failed to load movies" {
			t.Errorf("notification = %q", h.notifier.Last("error"))
		}
		if len(page.State().Movies) != 1 {
			t.Error("previous list should remain")
		}
	})
}

func TestDetails(t *testing.T) {
	ctx := context.Background()

	t.Run("missing movie notifies and navigates to catalog", func(t *testing.T) {
		h := newHarness("me@example.com")
		page := NewDetails(h.deps)

		err := page.Open(ctx, "42")
		if !shared.IsKind(err, shared.KindNotFound) {
			t.Fatalf("err = %v", err)
		}
		if page.State().Movie != nil {
			t.Error("no movie should be shown")
		}
		if h.notifier.Last("error") != "Movie not found" {
			t.Errorf("notification = %q", h.notifier.Last("error"))
		}
		if h.navigator.Last() != RouteAllMovies {
			t.Errorf("route = %q", h.navigator.Last())
		}
	})

	t.Run("stale result is discarded", func(t *testing.T) {
		h := newHarness("")
		release1 := make(chan struct{})
		h.catalog.movieFn = func(ctx context.Context, id string) (*models.Movie, error) {
			if id == "1" {
				<-release1
			}
			m := movie(id, "Movie "+id, "")
			return &m, nil
		}
		page := NewDetails(h.deps)

		done := make(chan error, 1)
		go func() { done <- page.Open(ctx, "1") }()

		// Let the first fetch start before opening the second.
		time.Sleep(20 * time.Millisecond)
		if err := page.Open(ctx, "2"); err != nil {
			t.Fatalf("Open(2): %v", err)
		}
		close(release1)

		if err := <-done; !errors.Is(err, ErrStale) {
			t.Errorf("Open(1) = %v, want ErrStale", err)
		}
		s := page.State()
		if s.Movie == nil || s.Movie.CanonicalID() != "2" || s.ID != "2" {
			t.Errorf("shown movie = %+v", s.Movie)
		}
		if h.notifier.Count() != 0 {
			t.Errorf("stale result must not notify, got %+v", h.notifier.Sent)
		}
	})

	t.Run("watchlist status is loaded for signed-in users", func(t *testing.T) {
		h := newHarness("me@example.com")
		h.catalog.movies["7"] = movie("7", "Seven", "me@example.com")
		h.catalog.watchlist["7"] = true
		page := NewDetails(h.deps)

		if err := page.Open(ctx, " 7 "); err != nil {
			t.Fatalf("Open: %v", err)
		}
		s := page.State()
		if !s.Watchlisted || !s.CanEdit || s.StatusLoading {
			t.Errorf("state = %+v", s)
		}
	})

	t.Run("toggle adds then removes", func(t *testing.T) {
		h := newHarness("me@example.com")
		h.catalog.movies["7"] = movie("7", "Seven", "other@example.com")
		page := NewDetails(h.deps)
		page.Open(ctx, "7")

		if page.State().CanEdit {
			t.Error("non-owner must not edit")
		}

		if err := page.ToggleWatchlist(ctx); err != nil {
			t.Fatalf("add: %v", err)
		}
		if !page.State().Watchlisted || h.notifier.Last("success") != "Added to watchlist" {
			t.Errorf("after add: %+v / %q", page.State(), h.notifier.Last("success"))
		}

		if err := page.ToggleWatchlist(ctx); err != nil {
			t.Fatalf("remove: %v", err)
		}
		if page.State().Watchlisted || h.notifier.Last("success") != "Removed from watchlist" {
			t.Errorf("after remove: %+v / %q", page.State(), h.notifier.Last("success"))
		}
	})

	t.Run("toggle without user", func(t *testing.T) {
		h := newHarness("")
		h.catalog.movies["7"] = movie("7", "Seven", "")
		page := NewDetails(h.deps)
		page.Open(ctx, "7")
		before := h.catalog.calls.Load()

		if err := page.ToggleWatchlist(ctx); !shared.IsKind(err, shared.KindUnauthorized) {
			t.Errorf("err = %v", err)
		}
		if h.catalog.calls.Load() != before {
			t.Error("no request expected")
		}
		if h.navigator.Last() != RouteLogin || h.notifier.Last("error") != "Please login to manage your watchlist" {
			t.Errorf("route %q, notification %q", h.navigator.Last(), h.notifier.Last("error"))
		}
	})

	t.Run("owner deletes", func(t *testing.T) {
		h := newHarness("Me@Example.com ")
		h.catalog.movies["7"] = movie("7", "Seven", "me@example.com")
		page := NewDetails(h.deps)
		page.Open(ctx, "7")

		if err := page.Delete(ctx); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if h.navigator.Last() != RouteMyCollection || h.notifier.Last("success") != "Movie deleted successfully" {
			t.Errorf("route %q, notification %q", h.navigator.Last(), h.notifier.Last("success"))
		}
	})

	t.Run("non-owner cannot delete", func(t *testing.T) {
		h := newHarness("me@example.com")
		h.catalog.movies["7"] = movie("7", "Seven", "other@example.com")
		page := NewDetails(h.deps)
		page.Open(ctx, "7")
		before := h.catalog.calls.Load()

		if err := page.Delete(ctx); !shared.IsKind(err, shared.KindUnauthorized) {
			t.Errorf("err = %v", err)
		}
		if h.catalog.calls.Load() != before {
			t.Error("no request expected")
		}
	})
}

func TestCollection(t *testing.T) {
	ctx := context.Background()

	t.Run("requires sign-in", func(t *testing.T) {
		h := newHarness("")
		if err := NewCollection(h.deps).Load(ctx); err == nil {
			t.Fatal("expected error")
		}
		if h.navigator.Last() != RouteLogin || h.notifier.Last("error") != "Please login to view your collection" {
			t.Errorf("route %q, notification %q", h.navigator.Last(), h.notifier.Last("error"))
		}
		if h.catalog.calls.Load() != 0 {
			t.Error("no request expected")
		}
	})

	t.Run("normalizes and filters by owner", func(t *testing.T) {
		h := newHarness("me@example.com")
		h.catalog.lists["mine"] = []models.Movie{
			{ID: models.NumberID(3), Title: "Mine", AddedBy: " ME@example.com"},
			{LegacyID: models.StringID(" abc "), Title: "Legacy", AddedBy: "me@example.com"},
			movie("4", "Theirs", "other@example.com"),
			{Title: "No id", AddedBy: "me@example.com"},
		}
		page := NewCollection(h.deps)

		if err := page.Load(ctx); err != nil {
			t.Fatalf("Load: %v", err)
		}
		movies := page.State().Movies
		if len(movies) != 2 || movies[0].CanonicalID() != "3" || movies[1].CanonicalID() != "abc" {
			t.Errorf("movies = %+v", movies)
		}
	})

	t.Run("delete shrinks list by exactly one", func(t *testing.T) {
		h := newHarness("me@example.com")
		h.catalog.lists["mine"] = []models.Movie{
			movie("1", "A", "me@example.com"),
			movie("2", "B", "me@example.com"),
			movie("3", "C", "me@example.com"),
		}
		page := NewCollection(h.deps)
		page.Load(ctx)

		if err := page.Delete(ctx, "2"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		movies := page.State().Movies
		if len(movies) != 2 {
			t.Fatalf("len = %d, want 2", len(movies))
		}
		for _, m := range movies {
			if m.CanonicalID() == "2" {
				t.Error("deleted movie still present")
			}
		}
		if h.notifier.Last("success") != "Movie deleted successfully" {
			t.Errorf("notification = %q", h.notifier.Last("success"))
		}
	})

	t.Run("unauthorized backend routes to sign-in", func(t *testing.T) {
		h := newHarness("me@example.com")
		h.catalog.err = shared.NewError(shared.KindUnauthorized, "Unauthorized", nil)

		NewCollection(h.deps).Load(ctx)
		if h.navigator.Last() != RouteLogin {
			t.Errorf("route = %q", h.navigator.Last())
		}
	})

	t.Run("failed delete keeps list", func(t *testing.T) {
		h := newHarness("me@example.com")
		h.catalog.lists["mine"] = []models.Movie{movie("1", "A", "me@example.com")}
		page := NewCollection(h.deps)
		page.Load(ctx)

		h.catalog.err = shared.NewError(shared.KindNetwork, "Failed to delete movie", nil)
		if err := page.Delete(ctx, "1"); err == nil {
			t.Fatal("expected error")
		}
		if len(page.State().Movies) != 1 {
			t.Error("list should be unchanged")
		}
	})
}

func TestWatchlistPage(t *testing.T) {
	ctx := context.Background()

	t.Run("requires sign-in", func(t *testing.T) {
		h := newHarness("")
		NewWatchlist(h.deps).Load(ctx)
		if h.notifier.Last("error") != "Please login to view your watchlist" {
			t.Errorf("notification = %q", h.notifier.Last("error"))
		}
	})

	t.Run("remove patches list", func(t *testing.T) {
		h := newHarness("me@example.com")
		h.catalog.lists["watchlist"] = []models.Movie{movie("1", "A", ""), movie("2", "B", "")}
		page := NewWatchlist(h.deps)
		page.Load(ctx)

		if err := page.Remove(ctx, "1"); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		if movies := page.State().Movies; len(movies) != 1 || movies[0].CanonicalID() != "2" {
			t.Errorf("movies = %+v", movies)
		}
		if h.notifier.Last("success") != "Removed from watchlist" {
			t.Errorf("notification = %q", h.notifier.Last("success"))
		}
	})

	t.Run("empty id", func(t *testing.T) {
		h := newHarness("me@example.com")
		if err := NewWatchlist(h.deps).Remove(ctx, " "); !shared.IsKind(err, shared.KindValidation) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestSaveToWatchlist(t *testing.T) {
	ctx := context.Background()

	t.Run("not signed in makes no request", func(t *testing.T) {
		h := newHarness("")
		err := SaveToWatchlist(ctx, h.deps, movie("1", "A", ""))

		if !shared.IsKind(err, shared.KindUnauthorized) {
			t.Errorf("err = %v", err)
		}
		if h.catalog.calls.Load() != 0 {
			t.Errorf("calls = %d, want 0", h.catalog.calls.Load())
		}
		if h.notifier.Last("error") != "Please login to save movies to your watchlist" {
			t.Errorf("notification = %q", h.notifier.Last("error"))
		}
		if h.navigator.Last() != RouteLogin {
			t.Errorf("route = %q", h.navigator.Last())
		}
	})

	t.Run("adding twice reports already exists", func(t *testing.T) {
		h := newHarness("me@example.com")
		m := movie("1", "A", "")

		SaveToWatchlist(ctx, h.deps, m)
		if h.notifier.Last("success") != "Added to watchlist" {
			t.Errorf("first = %q", h.notifier.Last("success"))
		}
		SaveToWatchlist(ctx, h.deps, m)
		if h.notifier.Last("info") != "Movie is already in your watchlist" {
			t.Errorf("second = %q", h.notifier.Last("info"))
		}
	})
}

func validInput() models.MovieInput {
	return models.MovieInput{
		Title: "T", Genre: "Drama", ReleaseYear: "2001", Director: "D", Cast: "A, B",
		Rating: "7.5", Duration: "120", PlotSummary: "P", Language: "English", Country: "US",
	}
}

func TestMovieForm(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	newForm := func(email string) (*MovieForm, *harness) {
		h := newHarness(email)
		f := NewMovieForm(h.deps)
		f.now = func() time.Time { return now }
		return f, h
	}

	t.Run("rating and year bounds", func(t *testing.T) {
		tests := []struct {
			name  string
			edit  func(*models.MovieInput)
			valid bool
		}{
			{"rating 0", func(in *models.MovieInput) { in.Rating = "0" }, true},
			{"rating 10", func(in *models.MovieInput) { in.Rating = "10" }, true},
			{"rating 10.1", func(in *models.MovieInput) { in.Rating = "10.1" }, false},
			{"rating -0.1", func(in *models.MovieInput) { in.Rating = "-0.1" }, false},
			{"year 1900", func(in *models.MovieInput) { in.ReleaseYear = "1900" }, true},
			{"year current+10", func(in *models.MovieInput) { in.ReleaseYear = "2036" }, true},
			{"year 1899", func(in *models.MovieInput) { in.ReleaseYear = "1899" }, false},
			{"year current+11", func(in *models.MovieInput) { in.ReleaseYear = "2037" }, false},
			{"missing title", func(in *models.MovieInput) { in.Title = " " }, false},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f, h := newForm("me@example.com")
				in := validInput()
				tt.edit(&in)

				_, err := f.Add(ctx, in)
				if tt.valid {
					if err != nil {
						t.Errorf("unexpected error: %v", err)
					}
					return
				}
				if !shared.IsKind(err, shared.KindValidation) {
					t.Errorf("err = %v, want validation", err)
				}
				if h.catalog.calls.Load() != 0 {
					t.Error("invalid input must not reach the network")
				}
				if h.notifier.Last("error") == "" {
					t.Error("expected notification")
				}
			})
		}
	})

	t.Run("add success", func(t *testing.T) {
		f, h := newForm("me@example.com")
		if _, err := f.Add(ctx, validInput()); err != nil {
			t.Fatalf("Add: %v", err)
		}
		if h.notifier.Last("success") != "Movie added successfully!" || h.navigator.Last() != RouteMyCollection {
			t.Errorf("notification %q, route %q", h.notifier.Last("success"), h.navigator.Last())
		}
		if p := h.catalog.added[0]; p.ReleaseYear != 2001 || p.Rating != 7.5 || p.Duration != 120 {
			t.Errorf("payload = %+v", p)
		}
	})

	t.Run("add without user", func(t *testing.T) {
		f, h := newForm("")
		f.Add(ctx, validInput())
		if h.navigator.Last() != RouteLogin || h.notifier.Last("error") != "Please login to add a movie" {
			t.Errorf("route %q, notification %q", h.navigator.Last(), h.notifier.Last("error"))
		}
	})

	t.Run("add backend failure", func(t *testing.T) {
		f, h := newForm("me@example.com")
		h.catalog.err = &shared.Error{Kind: shared.KindValidation, Message: "Title already exists"}
		f.Add(ctx, validInput())
		if h.notifier.Last("error") != "Title already exists" {
			t.Errorf("notification = %q", h.notifier.Last("error"))
		}
	})

	t.Run("load for update", func(t *testing.T) {
		f, h := newForm("me@example.com")
		h.catalog.movies["5"] = models.Movie{ID: models.NumberID(5), Title: "Mine", AddedBy: "me@example.com", Rating: models.Num(8)}

		in, err := f.Load(ctx, "5")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if in.Title != "Mine" || in.Rating != "8" {
			t.Errorf("input = %+v", in)
		}
	})

	t.Run("load someone else's movie", func(t *testing.T) {
		f, h := newForm("me@example.com")
		h.catalog.movies["5"] = movie("5", "Theirs", "other@example.com")

		f.Load(ctx, "5")
		if h.navigator.Last() != RouteAllMovies || h.notifier.Last("error") != "You don't have permission to edit this movie" {
			t.Errorf("route %q, notification %q", h.navigator.Last(), h.notifier.Last("error"))
		}
	})

	t.Run("load missing movie", func(t *testing.T) {
		f, h := newForm("me@example.com")
		f.Load(ctx, "404")
		if h.navigator.Last() != RouteMyCollection || h.notifier.Last("error") != "Failed to load movie" {
			t.Errorf("route %q, notification %q", h.navigator.Last(), h.notifier.Last("error"))
		}
	})

	t.Run("update navigates to details", func(t *testing.T) {
		f, h := newForm("me@example.com")
		if _, err := f.Update(ctx, "5.0", validInput()); err != nil {
			t.Fatalf("Update: %v", err)
		}
		if h.navigator.Last() != MovieRoute("5") || h.notifier.Last("success") != "Movie updated successfully!" {
			t.Errorf("route %q, notification %q", h.navigator.Last(), h.notifier.Last("success"))
		}
	})
}

type fakeAuthenticator struct {
	err  error
	user *models.SessionUser
}

func (f fakeAuthenticator) SignIn(ctx context.Context, email, password string) (*models.SessionUser, error) {
	return f.user, f.err
}

func (f fakeAuthenticator) SignInWithGoogle(ctx context.Context) (*models.SessionUser, error) {
	return f.user, f.err
}

func (f fakeAuthenticator) SignUp(ctx context.Context, email, password, name, photo string) (*models.SessionUser, error) {
	return f.user, f.err
}

func TestAuth(t *testing.T) {
	ctx := context.Background()

	t.Run("login messages", func(t *testing.T) {
		tests := []struct {
			err  error
			want string
		}{
			{&services.AuthError{Code: services.CodeUserNotFound}, "No account found with this email. Please register first."},
			{&services.AuthError{Code: services.CodeWrongPassword}, "Incorrect password. Please try again."},
			{&services.AuthError{Code: services.CodeInvalidCredential}, "Invalid email or password. Please try again."},
			{&services.AuthError{Code: services.CodeTooManyRequests}, "Too many failed attempts. Please try again later."},
			{&services.AuthError{Code: "auth/quota-exceeded", Message: "Quota exceeded"}, "Quota exceeded"},
			{&services.AuthError{Code: "auth/internal-error"}, "Failed to login. Please check your credentials."},
		}

		for _, tt := range tests {
			t.Run(services.AuthCode(tt.err), func(t *testing.T) {
				h := newHarness("")
				a := NewAuth(h.deps, fakeAuthenticator{err: tt.err})
				a.Login(ctx, "me@example.com", "pw")
				if got := h.notifier.Last("error"); got != tt.want {
					t.Errorf("message = %q, want %q", got, tt.want)
				}
			})
		}
	})

	t.Run("login success", func(t *testing.T) {
		h := newHarness("")
		a := NewAuth(h.deps, fakeAuthenticator{user: &models.SessionUser{Email: "me@example.com"}})
		if _, err := a.Login(ctx, " me@example.com ", "pw"); err != nil {
			t.Fatalf("Login: %v", err)
		}
		if h.navigator.Last() != RouteHome || h.notifier.Last("success") != "Successfully logged in!" {
			t.Errorf("route %q, notification %q", h.navigator.Last(), h.notifier.Last("success"))
		}
	})

	t.Run("google popup messages", func(t *testing.T) {
		h := newHarness("")
		a := NewAuth(h.deps, fakeAuthenticator{err: &services.AuthError{Code: services.CodePopupBlocked}})
		a.LoginWithGoogle(ctx)
		if got := h.notifier.Last("error"); got != "Popup was blocked. Please allow popups for this site." {
			t.Errorf("message = %q", got)
		}
	})

	t.Run("register validation", func(t *testing.T) {
		tests := []struct {
			name string
			form Registration
			want string
		}{
			{"mismatch", Registration{Email: "a@b.c", Password: "Secret1", ConfirmPassword: "Secret2"}, "Passwords do not match"},
			{"short", Registration{Email: "a@b.c", Password: "Ab1", ConfirmPassword: "Ab1"}, "Password must be at least 6 characters long"},
			{"no upper", Registration{Email: "a@b.c", Password: "secret1", ConfirmPassword: "secret1"}, "Password must contain at least one uppercase letter"},
			{"no lower", Registration{Email: "a@b.c", Password: "SECRET1", ConfirmPassword: "SECRET1"}, "Password must contain at least one lowercase letter"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := newHarness("")
				a := NewAuth(h.deps, fakeAuthenticator{user: &models.SessionUser{}})
				if _, err := a.Register(ctx, tt.form); !shared.IsKind(err, shared.KindValidation) {
					t.Errorf("err = %v", err)
				}
				if got := h.notifier.Last("error"); got != tt.want {
					t.Errorf("message = %q, want %q", got, tt.want)
				}
			})
		}
	})

	t.Run("register existing email", func(t *testing.T) {
		h := newHarness("")
		a := NewAuth(h.deps, fakeAuthenticator{err: &services.AuthError{Code: services.CodeEmailAlreadyInUse}})
		a.Register(ctx, Registration{Email: "a@b.c", Password: "Secret1", ConfirmPassword: "Secret1"})
		if got := h.notifier.Last("error"); got != "This email is already registered. Please login instead." {
			t.Errorf("message = %q", got)
		}
	})

	t.Run("register success", func(t *testing.T) {
		h := newHarness("")
		a := NewAuth(h.deps, fakeAuthenticator{user: &models.SessionUser{Email: "a@b.c"}})
		if _, err := a.Register(ctx, Registration{Email: "a@b.c", Password: "Secret1", ConfirmPassword: "Secret1"}); err != nil {
			t.Fatalf("Register: %v", err)
		}
		if h.notifier.Last("success") != "Account created successfully! Logging you in..." {
			t.Errorf("notification = %q", h.notifier.Last("success"))
		}
	})
}
