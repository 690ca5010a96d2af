package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/moviemaster/internal/theme"
)

var palettes = map[theme.Theme]*Palette{
	theme.Dark:  NewPalette("#7D56F4", "#04B575", "#FF5F87", "#FFA500", "#5FAFFF", "#626262"),
	theme.Light: NewPalette("#5A3FC0", "#007A4D", "#C0002A", "#B35C00", "#005FAF", "#8A8A8A"),
}

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	accent lipgloss.Color
	title  lipgloss.Style
	tab    lipgloss.Style
	active lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	info   lipgloss.Style
	help   lipgloss.Style
}

// NewPalette builds a palette from accent, success, error, warning, info and muted colors.
func NewPalette(a, s, e, w, i, h string) *Palette {
	return &Palette{
		accent: lipgloss.Color(a),
		title:  NewBold(a).MarginBottom(1),
		tab:    NewStyle(h).Padding(0, 1),
		active: NewBold(a).Padding(0, 1).Underline(true),
		ok:     NewBold(s),
		err:    NewBold(e),
		warn:   NewStyle(w),
		info:   NewStyle(i),
		help:   NewEm(h),
	}
}

// PaletteFor returns the palette for t, falling back to the default theme.
func PaletteFor(t theme.Theme) *Palette {
	if p, ok := palettes[t]; ok {
		return p
	}
	return palettes[theme.Default]
}

func (p *Palette) level(l Level) lipgloss.Style {
	switch l {
	case LevelSuccess:
		return p.ok
	case LevelError:
		return p.err
	case LevelWarn:
		return p.warn
	default:
		return p.info
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
