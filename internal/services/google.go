package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviemaster/internal/server"
	"github.com/desertthunder/moviemaster/internal/shared"
	"golang.org/x/oauth2"
)

// GoogleEndpoint is Google's OAuth2 authorization server.
var GoogleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// DefaultConsentTimeout bounds how long the consent page may stay open.
const DefaultConsentTimeout = 2 * time.Minute

var _ FederatedAuthorizer = (*GoogleAuthorizer)(nil)

// GoogleAuthorizer runs the Google consent flow through a loopback callback server.
//
// Only one flow may run at a time; a second concurrent call fails with [CodeCancelledPopupRequest].
type GoogleAuthorizer struct {
	config  *oauth2.Config
	addr    string
	timeout time.Duration
	logger  *log.Logger

	// Open presents the consent URL, typically by launching a browser.
	Open func(url string) error
	// Prompt is the fallback when Open fails, e.g. printing the URL for the user to visit.
	Prompt func(url string)

	active atomic.Bool
}

// NewGoogleAuthorizer creates an authorizer that listens on addr for the redirect.
func NewGoogleAuthorizer(cfg shared.GoogleConfig, addr string, logger *log.Logger) *GoogleAuthorizer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &GoogleAuthorizer{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint:     GoogleEndpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		addr:    addr,
		timeout: DefaultConsentTimeout,
		logger:  logger,
		Open:    shared.OpenBrowser,
	}
}

// WithEndpoint overrides the authorization server.
func (g *GoogleAuthorizer) WithEndpoint(endpoint oauth2.Endpoint) *GoogleAuthorizer {
	g.config.Endpoint = endpoint
	return g
}

// WithTimeout overrides [DefaultConsentTimeout].
func (g *GoogleAuthorizer) WithTimeout(d time.Duration) *GoogleAuthorizer {
	g.timeout = d
	return g
}

// ProviderID implements [FederatedAuthorizer].
func (g *GoogleAuthorizer) ProviderID() string { return "google.com" }

// Authorize implements [FederatedAuthorizer].
func (g *GoogleAuthorizer) Authorize(ctx context.Context) (*oauth2.Token, error) {
	if !g.active.CompareAndSwap(false, true) {
		return nil, &AuthError{Code: CodeCancelledPopupRequest, Message: "another sign-in is already in progress"}
	}
	defer g.active.Store(false)

	if g.config.ClientID == "" {
		return nil, &AuthError{Code: CodeOperationNotAllowed, Message: "Google client is not configured", Err: shared.ErrMissingCredentials}
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, err
	}

	handler := server.NewOAuthHandler(g.config, state).WithContext(ctx)
	router := server.NewBasicRouter()
	router.Use(server.Recoverer(g.logger), server.RequestLogger(g.logger))
	router.Handler(handler)

	srv, err := server.Listen(g.addr, router, g.logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			g.logger.Warn("callback server shutdown", "error", err)
		}
	}()

	authURL := g.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	if err := g.open(authURL); err != nil {
		return nil, err
	}

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case result := <-handler.Result():
		if err := result.Error(); err != nil {
			if errors.Is(err, server.ErrConsentDenied) {
				return nil, &AuthError{Code: CodePopupClosedByUser, Message: "consent was denied", Err: err}
			}
			return nil, &AuthError{Code: "auth/internal-error", Message: err.Error(), Err: err}
		}
		return result.Token, nil
	case <-timer.C:
		return nil, &AuthError{Code: CodePopupClosedByUser, Message: "sign-in timed out", Err: shared.ErrTimeout}
	case <-ctx.Done():
		return nil, &AuthError{Code: CodePopupClosedByUser, Message: "sign-in cancelled", Err: ctx.Err()}
	}
}

func (g *GoogleAuthorizer) open(authURL string) error {
	if g.Open != nil {
		err := g.Open(authURL)
		if err == nil {
			return nil
		}
		g.logger.Debug("failed to open browser", "error", err)
	}
	if g.Prompt != nil {
		g.Prompt(authURL)
		return nil
	}
	return &AuthError{Code: CodePopupBlocked, Message: fmt.Sprintf("could not open %s", authURL)}
}
