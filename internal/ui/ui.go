package ui

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/moviemaster/internal/models"
	"github.com/desertthunder/moviemaster/internal/pages"
	"github.com/desertthunder/moviemaster/internal/theme"
)

// ToastTTL is how long a toast stays on screen.
const ToastTTL = 4 * time.Second

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CatalogView ViewState = iota
	CollectionView
	WatchlistView
	DetailsView
)

func (v ViewState) String() string {
	switch v {
	case CatalogView:
		return "All Movies"
	case CollectionView:
		return "My Collection"
	case WatchlistView:
		return "Watchlist"
	case DetailsView:
		return "Details"
	default:
		return ""
	}
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	deps        pages.Deps
	themes      *theme.Holder
	bus         *Bus
	catalog     *pages.Catalog
	details     *pages.Details
	collection  *pages.Collection
	watchlist   *pages.Watchlist
	view        ViewState
	back        ViewState
	loading     bool
	searching   bool
	loginHint   bool
	toast       *Toast
	toastSeq    int
	list        list.Model
	search      textinput.Model
	palette     *Palette
	width       int
	height      int
	help        help.Model
	keys        keyMap
	unsubscribe func()
}

// NewModel creates the TUI on top of deps. Its notifier and navigator are replaced by the model's [Bus].
//
// themes may be nil, in which case the default palette is used and the theme key does nothing.
func NewModel(ctx context.Context, deps pages.Deps, themes *theme.Holder) *Model {
	bus := NewBus(64)
	deps.Notifier = bus
	deps.Navigator = bus

	m := &Model{
		ctx:        ctx,
		deps:       deps,
		themes:     themes,
		bus:        bus,
		catalog:    pages.NewCatalog(deps),
		details:    pages.NewDetails(deps),
		collection: pages.NewCollection(deps),
		watchlist:  pages.NewWatchlist(deps),
		view:       CatalogView,
		help:       help.New(),
		keys:       newKeyMap(),
		palette:    PaletteFor(theme.Default),
	}
	if themes != nil {
		m.palette = PaletteFor(themes.Theme())
		m.unsubscribe = themes.Subscribe(bus.ThemeChanged)
	}

	m.list = list.New(nil, list.NewDefaultDelegate(), 0, 0)
	m.list.SetFilteringEnabled(false)
	m.list.SetShowHelp(false)
	m.list.SetShowStatusBar(false)

	m.search = textinput.New()
	m.search.Prompt = "/ "
	m.search.Placeholder = "title, director or cast"

	m.applyPalette()
	m.refreshItems()
	return m
}

// Close releases the theme subscription and abandons in-flight loads.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.catalog.Close()
	m.details.Close()
	m.collection.Close()
	m.watchlist.Close()
}

// Init loads the catalog and starts listening to the bus.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.load(CatalogView), m.bus.Next())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKeys(msg)
		}
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

var sessionLoadingToast = Toast{Level: LevelInfo, Message: "Restoring your session, try again in a moment"}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPageLoaded:
		res := msg.data.(viewResult)
		if errors.Is(res.err, pages.ErrStale) {
			return m, nil
		}
		if res.view == m.view {
			m.loading = false
			m.refreshItems()
		}
		if errors.Is(res.err, pages.ErrSessionLoading) {
			return m, m.showToast(sessionLoadingToast)
		}
		return m, nil

	case MsgDetailsLoaded:
		m.loading = false
		return m, nil

	case MsgActionDone:
		res := msg.data.(viewResult)
		if res.view == m.view {
			m.refreshItems()
		}
		if errors.Is(res.err, pages.ErrSessionLoading) {
			return m, m.showToast(sessionLoadingToast)
		}
		return m, nil

	case MsgToast:
		t := msg.data.(Toast)
		return m, tea.Batch(m.showToast(t), m.bus.Next())

	case MsgToastExpired:
		if msg.data.(int) == m.toastSeq {
			m.toast = nil
		}
		return m, nil

	case MsgNavigate:
		return m, tea.Batch(m.navigate(msg.data.(string)), m.bus.Next())

	case MsgThemeChanged:
		m.palette = PaletteFor(msg.data.(theme.Theme))
		m.applyPalette()
		return m, m.bus.Next()
	}
	return m, nil
}

// navigate maps a page route onto a view.
func (m *Model) navigate(route string) tea.Cmd {
	switch {
	case route == pages.RouteAllMovies || route == pages.RouteHome:
		return m.switchTo(CatalogView)
	case route == pages.RouteMyCollection:
		return m.switchTo(CollectionView)
	case route == pages.RouteWatchlist:
		return m.switchTo(WatchlistView)
	case route == pages.RouteLogin || route == pages.RouteRegister:
		m.loginHint = true
		if m.view == DetailsView {
			m.view = m.back
			m.refreshItems()
		}
		return nil
	case strings.HasPrefix(route, "/movies/"):
		id, err := url.PathUnescape(strings.TrimPrefix(route, "/movies/"))
		if err != nil {
			return nil
		}
		return m.openDetails(id)
	}
	return nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.catalog):
		return m, m.switchTo(CatalogView)
	case key.Matches(msg, m.keys.collection):
		return m, m.switchTo(CollectionView)
	case key.Matches(msg, m.keys.watchlist):
		return m, m.switchTo(WatchlistView)
	case key.Matches(msg, m.keys.theme):
		m.toggleTheme()
		return m, nil
	}

	if m.view == DetailsView {
		return m.handleDetailsKeys(msg)
	}
	return m.handleListKeys(msg)
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	selected, hasSelection := m.selected()

	switch {
	case key.Matches(msg, m.keys.enter):
		if hasSelection {
			return m, m.openDetails(selected.CanonicalID())
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		return m, m.load(m.view)
	}

	switch m.view {
	case CatalogView:
		switch {
		case key.Matches(msg, m.keys.search):
			m.searching = true
			m.search.SetValue(m.catalog.State().Filters.Search)
			return m, m.search.Focus()
		case key.Matches(msg, m.keys.genre):
			genres := append([]string{models.AllGenres}, models.Genres...)
			next := cycle(genres, m.catalog.State().Filters.Genre)
			return m, m.filter(func(ctx context.Context) error { return m.catalog.SetGenre(ctx, next) })
		case key.Matches(msg, m.keys.sort):
			next := cycle(models.SortOptions, m.catalog.State().Filters.SortBy)
			return m, m.filter(func(ctx context.Context) error { return m.catalog.SetSort(ctx, next) })
		case key.Matches(msg, m.keys.save) && hasSelection:
			return m, m.act(CatalogView, func(ctx context.Context) error {
				return pages.SaveToWatchlist(ctx, m.deps, selected)
			})
		}
	case CollectionView:
		switch {
		case key.Matches(msg, m.keys.save) && hasSelection:
			return m, m.act(CollectionView, func(ctx context.Context) error {
				return pages.SaveToWatchlist(ctx, m.deps, selected)
			})
		case key.Matches(msg, m.keys.remove) && hasSelection:
			return m, m.act(CollectionView, func(ctx context.Context) error {
				return m.collection.Delete(ctx, selected.CanonicalID())
			})
		}
	case WatchlistView:
		if key.Matches(msg, m.keys.remove) && hasSelection {
			return m, m.act(WatchlistView, func(ctx context.Context) error {
				return m.watchlist.Remove(ctx, selected.CanonicalID())
			})
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.details.Close()
		m.view = m.back
		m.refreshItems()
		return m, m.load(m.view)
	case key.Matches(msg, m.keys.save):
		return m, m.act(DetailsView, m.details.ToggleWatchlist)
	case key.Matches(msg, m.keys.remove):
		if m.details.State().CanEdit {
			return m, m.act(DetailsView, m.details.Delete)
		}
	case key.Matches(msg, m.keys.reload):
		return m, m.openDetails(m.details.State().ID)
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		query := strings.TrimSpace(m.search.Value())
		return m, m.filter(func(ctx context.Context) error { return m.catalog.SetSearch(ctx, query) })
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// showToast displays t and schedules its expiry. A newer toast cancels the older expiry.
func (m *Model) showToast(t Toast) tea.Cmd {
	m.toastSeq++
	m.toast = &t
	seq := m.toastSeq
	return tea.Tick(ToastTTL, func(time.Time) tea.Msg { return toastExpiredMsg(seq) })
}

func (m *Model) toggleTheme() {
	if m.themes == nil {
		return
	}
	t, err := m.themes.Toggle()
	m.palette = PaletteFor(t)
	m.applyPalette()
	if err != nil {
		m.deps.Notifier.Warn("Theme changed but could not be saved")
	}
}

func (m *Model) applyPalette() {
	m.list.Styles.Title = m.palette.title.MarginBottom(0)
	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.Foreground(m.palette.accent).BorderForeground(m.palette.accent)
	d.Styles.SelectedDesc = d.Styles.SelectedDesc.Foreground(m.palette.accent).BorderForeground(m.palette.accent)
	m.list.SetDelegate(d)
	m.search.PromptStyle = m.palette.info
}

func (m *Model) switchTo(v ViewState) tea.Cmd {
	if m.view == DetailsView {
		m.details.Close()
	}
	m.view = v
	m.loginHint = false
	m.refreshItems()
	return m.load(v)
}

func (m *Model) selected() (models.Movie, bool) {
	if item, ok := m.list.SelectedItem().(movieItem); ok {
		return item.movie, true
	}
	return models.Movie{}, false
}

// refreshItems copies the active page's movies into the list.
func (m *Model) refreshItems() {
	var movies []models.Movie
	switch m.view {
	case CatalogView:
		s := m.catalog.State()
		movies = s.Movies
		title := fmt.Sprintf("All Movies · %s · by %s", s.Filters.Genre, s.Filters.SortBy)
		if s.Filters.Search != "" {
			title += fmt.Sprintf(" · %q", s.Filters.Search)
		}
		m.list.Title = title
	case CollectionView:
		movies = m.collection.State().Movies
		m.list.Title = "My Collection"
	case WatchlistView:
		movies = m.watchlist.State().Movies
		m.list.Title = "Watchlist"
	default:
		return
	}
	m.list.SetItems(movieItems(movies))
}

func (m *Model) load(v ViewState) tea.Cmd {
	var fn func(context.Context) error
	switch v {
	case CatalogView:
		fn = m.catalog.Load
	case CollectionView:
		fn = m.collection.Load
	case WatchlistView:
		fn = m.watchlist.Load
	default:
		return nil
	}

	m.loading = true
	return func() tea.Msg {
		return pageLoadedMsg(v, fn(m.ctx))
	}
}

func (m *Model) filter(fn func(context.Context) error) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		return pageLoadedMsg(CatalogView, fn(m.ctx))
	}
}

func (m *Model) act(v ViewState, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg(v, fn(m.ctx))
	}
}

func (m *Model) openDetails(id string) tea.Cmd {
	if id == "" {
		return nil
	}
	if m.view != DetailsView {
		m.back = m.view
	}
	m.view = DetailsView
	m.loading = true
	return func() tea.Msg {
		return detailsLoadedMsg(m.details.Open(m.ctx, id))
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch {
	case m.view == DetailsView:
		body = m.renderDetails()
	case m.loading && len(m.list.Items()) == 0:
		body = m.palette.info.Render("Loading " + m.view.String() + "...")
	default:
		body = m.renderList()
	}

	sections := []string{m.renderTabs(), body}
	if m.searching {
		sections = append(sections, m.search.View())
	}
	if m.loginHint {
		sections = append(sections, m.palette.warn.Render("Sign in with `moviemaster auth login` to use this view."))
	}
	if m.toast != nil {
		sections = append(sections, m.palette.level(m.toast.Level).Render(m.toast.Message))
	}
	sections = append(sections, m.renderHelp())
	return strings.Join(sections, "\n\n")
}

func (m *Model) renderTabs() string {
	tabs := make([]string, 0, 3)
	for _, v := range []ViewState{CatalogView, CollectionView, WatchlistView} {
		label := fmt.Sprintf("%d %s", int(v)+1, v)
		if v == m.view || (m.view == DetailsView && v == m.back) {
			tabs = append(tabs, m.palette.active.Render(label))
		} else {
			tabs = append(tabs, m.palette.tab.Render(label))
		}
	}

	user := "signed out"
	if m.deps.Session != nil {
		if s := m.deps.Session.State(); s.SignedIn() {
			user = s.User.Name()
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, append(tabs, m.palette.help.Render("  "+user))...)
}

func (m *Model) renderList() string {
	if len(m.list.Items()) == 0 {
		return m.palette.title.Render(m.list.Title) + "\n" + m.palette.help.Render("No movies found.")
	}
	return m.list.View()
}

func (m *Model) renderDetails() string {
	s := m.details.State()
	if s.Loading || s.Movie == nil {
		return m.palette.info.Render("Loading movie...")
	}
	mv := s.Movie

	var b strings.Builder
	b.WriteString(m.palette.title.Render(fmt.Sprintf("%s (%s)", mv.Title, mv.DisplayYear())))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Genre:     %s\n", mv.Genre)
	fmt.Fprintf(&b, "Director:  %s\n", mv.Director)
	fmt.Fprintf(&b, "Rating:    ★ %s\n", mv.DisplayRating())
	fmt.Fprintf(&b, "Duration:  %s\n", mv.DisplayDuration())
	fmt.Fprintf(&b, "Language:  %s\n", mv.Language)
	fmt.Fprintf(&b, "Country:   %s\n", mv.Country)
	if cast := mv.CastList(); len(cast) > 0 {
		fmt.Fprintf(&b, "Cast:      %s\n", strings.Join(cast, ", "))
	}
	fmt.Fprintf(&b, "Poster:    %s\n", mv.Poster())
	if mv.PlotSummary != "" {
		fmt.Fprintf(&b, "\n%s\n", mv.PlotSummary)
	}

	b.WriteString("\n")
	switch {
	case s.StatusLoading:
		b.WriteString(m.palette.help.Render("Checking watchlist..."))
	case s.Watchlisted:
		b.WriteString(m.palette.ok.Render("✓ In your watchlist"))
	default:
		b.WriteString(m.palette.help.Render("Not in your watchlist"))
	}
	if s.CanEdit {
		b.WriteString("\n" + m.palette.info.Render("You added this movie"))
	}
	return b.String()
}

func (m *Model) renderHelp() string {
	var keys []key.Binding
	switch m.view {
	case CatalogView:
		keys = []key.Binding{m.keys.enter, m.keys.search, m.keys.genre, m.keys.sort, m.keys.save}
	case CollectionView:
		keys = []key.Binding{m.keys.enter, m.keys.save, m.keys.remove}
	case WatchlistView:
		remove := key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove"))
		keys = []key.Binding{m.keys.enter, remove}
	case DetailsView:
		save := key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "toggle watchlist"))
		keys = []key.Binding{m.keys.back, save}
		if m.details.State().CanEdit {
			keys = append(keys, m.keys.remove)
		}
	}
	keys = append(keys, m.keys.reload, m.keys.theme, m.keys.quit)
	return m.help.ShortHelpView(keys)
}
