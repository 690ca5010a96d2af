package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/moviemaster/internal/pages"
	"github.com/desertthunder/moviemaster/internal/theme"
)

var (
	_ pages.Notifier  = (*Bus)(nil)
	_ pages.Navigator = (*Bus)(nil)
)

// Level is a toast severity.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarn
	LevelError
)

// Toast is a transient message shown under the active view.
type Toast struct {
	Level   Level
	Message string
}

// Bus turns page callbacks into program messages.
//
// Pages call it from command goroutines; sends never block and drop when the buffer is full.
type Bus struct {
	events chan Msg
}

// NewBus creates a bus with room for size pending events.
func NewBus(size int) *Bus {
	if size <= 0 {
		size = 32
	}
	return &Bus{events: make(chan Msg, size)}
}

func (b *Bus) send(m Msg) {
	select {
	case b.events <- m:
	default:
	}
}

func (b *Bus) Success(message string) { b.send(toastMsg(LevelSuccess, message)) }
func (b *Bus) Info(message string)    { b.send(toastMsg(LevelInfo, message)) }
func (b *Bus) Warn(message string)    { b.send(toastMsg(LevelWarn, message)) }
func (b *Bus) Error(message string)   { b.send(toastMsg(LevelError, message)) }

// Navigate requests a view change.
func (b *Bus) Navigate(route string) { b.send(navigateMsg(route)) }

// ThemeChanged is a [theme.Holder] subscriber.
func (b *Bus) ThemeChanged(t theme.Theme) { b.send(themeChangedMsg(t)) }

// Next waits for the next event.
func (b *Bus) Next() tea.Cmd {
	return func() tea.Msg {
		return <-b.events
	}
}
