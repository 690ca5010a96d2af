// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI drives the same page controllers as the CLI:
//  1. [CatalogView] : Browse the shared catalog with search, genre and sort filters
//  2. [CollectionView] : Movies added by the signed-in user, with delete
//  3. [WatchlistView] : Saved movies, with remove
//  4. [DetailsView] : One movie with its watchlist toggle and owner actions
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Pages report toasts and navigation through a [Bus], which forwards them to the program as messages.
// Theme changes arrive the same way and restyle the [Palette].
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
