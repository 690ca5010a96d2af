package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/moviemaster/internal/theme"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPageLoaded MsgKind = iota
	MsgDetailsLoaded
	MsgActionDone
	MsgToast
	MsgToastExpired
	MsgNavigate
	MsgThemeChanged
)

type viewResult struct {
	view ViewState
	err  error
}

// pageLoadedMsg is the constructor for [MsgPageLoaded]
func pageLoadedMsg(v ViewState, err error) Msg {
	return Msg{kind: MsgPageLoaded, data: viewResult{v, err}}
}

// detailsLoadedMsg is the constructor for [MsgDetailsLoaded]
func detailsLoadedMsg(err error) Msg {
	return Msg{kind: MsgDetailsLoaded, data: viewResult{DetailsView, err}}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(v ViewState, err error) Msg {
	return Msg{kind: MsgActionDone, data: viewResult{v, err}}
}

// toastMsg is the constructor for [MsgToast]
func toastMsg(level Level, message string) Msg {
	return Msg{kind: MsgToast, data: Toast{Level: level, Message: message}}
}

// toastExpiredMsg is the constructor for [MsgToastExpired]
func toastExpiredMsg(seq int) Msg {
	return Msg{kind: MsgToastExpired, data: seq}
}

// navigateMsg is the constructor for [MsgNavigate]
func navigateMsg(route string) Msg {
	return Msg{kind: MsgNavigate, data: route}
}

// themeChangedMsg is the constructor for [MsgThemeChanged]
func themeChangedMsg(t theme.Theme) Msg {
	return Msg{kind: MsgThemeChanged, data: t}
}
