package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up         key.Binding
	down       key.Binding
	enter      key.Binding
	back       key.Binding
	catalog    key.Binding
	collection key.Binding
	watchlist  key.Binding
	search     key.Binding
	genre      key.Binding
	sort       key.Binding
	save       key.Binding
	remove     key.Binding
	reload     key.Binding
	theme      key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		catalog:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "all movies")),
		collection: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "my collection")),
		watchlist:  key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "watchlist")),
		search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		genre:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "genre")),
		sort:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		save:       key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "watchlist")),
		remove:     key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "delete")),
		reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		theme:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.catalog, k.collection, k.watchlist},
		{k.search, k.genre, k.sort, k.save, k.remove},
		{k.reload, k.theme, k.quit},
	}
}
