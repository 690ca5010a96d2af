// Package theme holds the dark/light display preference.
package theme

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviemaster/internal/shared"
)

// StorageKey is the local storage key holding the preference.
const StorageKey = "theme"

// Theme is a display preference.
type Theme string

const (
	Dark  Theme = "dark"
	Light Theme = "light"
)

// Default is used when nothing valid is stored.
const Default = Dark

// Parse returns the theme named by s.
func Parse(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case Dark:
		return Dark, nil
	case Light:
		return Light, nil
	default:
		return "", fmt.Errorf("%w: theme must be dark or light, got %q", shared.ErrInvalidArgument, s)
	}
}

// Storage persists string values by key.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Holder owns the current theme. Changes are written to storage and then broadcast.
type Holder struct {
	store  Storage
	logger *log.Logger

	mu        sync.RWMutex
	current   Theme
	listeners map[int]func(Theme)
	nextID    int
}

// New creates a holder at [Default]. Call [Holder.Load] to read the stored value.
func New(store Storage, logger *log.Logger) *Holder {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Holder{store: store, logger: logger, current: Default, listeners: make(map[int]func(Theme))}
}

// Load reads the stored preference. Missing or invalid values fall back to [Default].
func (h *Holder) Load() Theme {
	t := Default
	if h.store != nil {
		raw, err := h.store.Get(StorageKey)
		if err == nil {
			if parsed, perr := Parse(raw); perr == nil {
				t = parsed
			} else {
				h.logger.Warn("ignoring stored theme", "value", raw)
			}
		}
	}

	h.mu.Lock()
	h.current = t
	h.mu.Unlock()
	return t
}

// Theme returns the current preference.
func (h *Holder) Theme() Theme {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// IsDark reports whether the dark theme is active.
func (h *Holder) IsDark() bool { return h.Theme() == Dark }

// Toggle flips between dark and light.
func (h *Holder) Toggle() (Theme, error) {
	next := Dark
	if h.IsDark() {
		next = Light
	}
	return next, h.Set(next)
}

// Set persists t and notifies subscribers.
//
// The in-memory value changes even when persisting fails; the error is returned.
func (h *Holder) Set(t Theme) error {
	t, err := Parse(string(t))
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.current = t
	fns := make([]func(Theme), 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	if h.store != nil {
		if err = h.store.Set(StorageKey, string(t)); err != nil {
			h.logger.Warn("failed to persist theme", "theme", t, "error", err)
			err = fmt.Errorf("failed to persist theme: %w", err)
		}
	}

	for _, fn := range fns {
		fn(t)
	}
	return err
}

// Subscribe registers fn for theme changes and returns a function that removes it.
func (h *Holder) Subscribe(fn func(Theme)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}
}
