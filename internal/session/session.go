// Package session mirrors the identity provider's signed-in user into shared state.
//
// The [Holder] is the only writer of the current user. It is driven by the provider's
// change subscription; every non-nil user also triggers a best-effort backend upsert
// that runs on a background worker and never blocks the caller.
package session

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviemaster/internal/models"
	"github.com/desertthunder/moviemaster/internal/services"
)

const (
	upsertQueueSize = 16
	upsertTimeout   = 10 * time.Second
)

// State is a snapshot of the session.
//
// Loading is true until the provider reports its first session; consumers must not
// treat a nil User as "signed out" while Loading.
type State struct {
	Loading bool
	User    *models.SessionUser
}

// SignedIn reports whether a user is present.
func (s State) SignedIn() bool { return !s.Loading && s.User != nil }

// Email returns the signed-in email or "".
func (s State) Email() string {
	if s.User == nil {
		return ""
	}
	return s.User.Email
}

// Holder tracks the current user.
type Holder struct {
	provider services.IdentityProvider
	users    services.UserDirectory
	logger   *log.Logger

	mu        sync.RWMutex
	user      *models.SessionUser
	loading   bool
	ready     chan struct{}
	readyOnce sync.Once
	listeners map[int]func(State)
	nextID    int

	upserts     chan models.UserProfile
	errs        chan error
	done        chan struct{}
	wg          sync.WaitGroup
	started     bool
	unsubscribe func()
	closeOnce   sync.Once
}

// New creates a [Holder]. users may be nil, in which case no upserts are sent.
func New(provider services.IdentityProvider, users services.UserDirectory, logger *log.Logger) *Holder {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Holder{
		provider:  provider,
		users:     users,
		logger:    logger,
		loading:   true,
		ready:     make(chan struct{}),
		listeners: make(map[int]func(State)),
		upserts:   make(chan models.UserProfile, upsertQueueSize),
		errs:      make(chan error, upsertQueueSize),
		done:      make(chan struct{}),
	}
}

// Start subscribes to the provider, starts the upsert worker and restores the persisted session.
func (h *Holder) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return nil
	}
	h.started = true
	h.mu.Unlock()

	h.wg.Add(1)
	go h.upsertWorker()

	h.unsubscribe = h.provider.Subscribe(h.handle)

	if err := h.provider.Restore(ctx); err != nil {
		h.logger.Warn("failed to restore session", "error", err)
		h.handle(nil)
		return err
	}
	return nil
}

// handle is the provider subscription; it is the only place the user is written.
func (h *Holder) handle(p *models.Principal) {
	var user *models.SessionUser
	if p != nil {
		u := p.User()
		user = &u
	}

	h.mu.Lock()
	h.user = user
	h.loading = false
	state := h.snapshot()
	fns := make([]func(State), 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	h.readyOnce.Do(func() { close(h.ready) })

	if p != nil {
		h.enqueue(p.Profile())
	}
	for _, fn := range fns {
		fn(state)
	}
}

func (h *Holder) snapshot() State {
	s := State{Loading: h.loading}
	if h.user != nil {
		u := *h.user
		s.User = &u
	}
	return s
}

// State returns the current snapshot.
func (h *Holder) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snapshot()
}

// Email returns the signed-in email or "".
func (h *Holder) Email() string {
	return h.State().Email()
}

// Wait blocks until the provider has reported its first session.
func (h *Holder) Wait(ctx context.Context) (State, error) {
	select {
	case <-h.ready:
		return h.State(), nil
	case <-ctx.Done():
		return h.State(), ctx.Err()
	}
}

// Subscribe registers fn for every session change and returns a function that removes it.
func (h *Holder) Subscribe(fn func(State)) func() {
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

// Errors reports upsert failures. Failures are dropped when nobody drains the channel.
func (h *Holder) Errors() <-chan error {
	return h.errs
}

// SignIn signs in with email and password. Provider errors are returned unchanged.
func (h *Holder) SignIn(ctx context.Context, email, password string) (*models.SessionUser, error) {
	p, err := h.provider.SignIn(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, err
	}
	h.enqueue(p.Profile())
	u := p.User()
	return &u, nil
}

// SignInWithGoogle runs the federated sign-in. Provider errors are returned unchanged.
func (h *Holder) SignInWithGoogle(ctx context.Context) (*models.SessionUser, error) {
	p, err := h.provider.SignInWithGoogle(ctx)
	if err != nil {
		return nil, err
	}
	h.enqueue(p.Profile())
	u := p.User()
	return &u, nil
}

// SignUp registers a new account and sets its profile.
//
// An email already known to the backend fails with [services.CodeEmailAlreadyInUse] before the provider is called.
func (h *Holder) SignUp(ctx context.Context, email, password, displayName, photoURL string) (*models.SessionUser, error) {
	email = strings.TrimSpace(email)

	if h.users != nil {
		exists, err := h.users.UserExists(ctx, email)
		if err != nil {
			h.logger.Warn("could not check existing user", "email", email, "error", err)
		}
		if exists {
			return nil, &services.AuthError{
				Code:    services.CodeEmailAlreadyInUse,
				Message: "The email address is already in use by another account.",
			}
		}
	}

	p, err := h.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}

	displayName = strings.TrimSpace(displayName)
	photoURL = strings.TrimSpace(photoURL)
	if err := h.provider.UpdateProfile(ctx, displayName, photoURL); err != nil {
		return nil, err
	}

	reloaded, err := h.provider.Reload(ctx)
	if err != nil {
		h.logger.Warn("failed to reload user after sign-up", "error", err)
		reloaded = p
		reloaded.DisplayName = displayName
		reloaded.PhotoURL = photoURL
	}

	h.enqueue(reloaded.Profile())
	u := reloaded.User()
	return &u, nil
}

// SignOut signs the user out.
func (h *Holder) SignOut(ctx context.Context) error {
	return h.provider.SignOut(ctx)
}

// enqueue hands profile to the upsert worker without blocking.
func (h *Holder) enqueue(profile models.UserProfile) {
	if h.users == nil || profile.Email == "" {
		return
	}
	select {
	case <-h.done:
	case h.upserts <- profile:
	default:
		h.logger.Warn("user upsert queue full, dropping", "email", profile.Email)
	}
}

func (h *Holder) upsertWorker() {
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			return
		case profile := <-h.upserts:
			ctx, cancel := context.WithTimeout(context.Background(), upsertTimeout)
			err := h.users.UpsertUser(ctx, profile)
			cancel()
			if err == nil {
				h.logger.Debug("user saved", "email", profile.Email)
				continue
			}

			h.logger.Warn("failed to save user", "email", profile.Email, "error", err)
			select {
			case h.errs <- err:
			default:
			}
		}
	}
}

// Close unsubscribes from the provider and stops the upsert worker.
func (h *Holder) Close() error {
	h.closeOnce.Do(func() {
		if h.unsubscribe != nil {
			h.unsubscribe()
		}
		close(h.done)
		h.wg.Wait()
	})
	return nil
}
