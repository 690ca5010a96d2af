// Firebase Authentication over the Identity Toolkit REST API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviemaster/internal/models"
	"github.com/desertthunder/moviemaster/internal/shared"
	"golang.org/x/oauth2"
)

const (
	firebaseAuthURL  = "https://identitytoolkit.googleapis.com/v1"
	firebaseTokenURL = "https://securetoken.googleapis.com/v1/token"

	// tokenLeeway refreshes ID tokens slightly before they expire.
	tokenLeeway = time.Minute
)

var _ IdentityProvider = (*FirebaseProvider)(nil)

// FirebaseOpts contains configuration for [NewFirebaseProvider].
type FirebaseOpts struct {
	APIKey     string
	AuthURL    string
	TokenURL   string
	HTTPClient *http.Client
	Store      TokenStore
	Federated  FederatedAuthorizer
	Logger     *log.Logger
}

// FirebaseProvider implements [IdentityProvider] against Firebase Authentication.
//
// ID tokens are refreshed through an [oauth2.TokenSource] on the secure token endpoint.
type FirebaseProvider struct {
	apiKey     string
	authURL    string
	tokenURL   string
	httpClient *http.Client
	store      TokenStore
	federated  FederatedAuthorizer
	logger     *log.Logger
	now        func() time.Time

	mu        sync.RWMutex
	current   *models.Principal
	listeners map[int]func(*models.Principal)
	nextID    int
}

// NewFirebaseProvider creates a provider for the project identified by opts.APIKey.
func NewFirebaseProvider(opts FirebaseOpts) (*FirebaseProvider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: identity api_key is required", shared.ErrMissingCredentials)
	}
	if opts.AuthURL == "" {
		opts.AuthURL = firebaseAuthURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = firebaseTokenURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &FirebaseProvider{
		apiKey:     opts.APIKey,
		authURL:    strings.TrimRight(opts.AuthURL, "/"),
		tokenURL:   opts.TokenURL,
		httpClient: opts.HTTPClient,
		store:      opts.Store,
		federated:  opts.Federated,
		logger:     opts.Logger,
		now:        time.Now,
		listeners:  make(map[int]func(*models.Principal)),
	}, nil
}

// authResponse covers the fields shared by signUp, signInWithPassword, update and signInWithIdp.
type authResponse struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	PhotoURL      string `json:"photoUrl"`
	EmailVerified bool   `json:"emailVerified"`
	IDToken       string `json:"idToken"`
	RefreshToken  string `json:"refreshToken"`
	ExpiresIn     string `json:"expiresIn"`
	ProviderID    string `json:"providerId"`
}

type lookupResponse struct {
	Users []struct {
		LocalID          string `json:"localId"`
		Email            string `json:"email"`
		DisplayName      string `json:"displayName"`
		PhotoURL         string `json:"photoUrl"`
		EmailVerified    bool   `json:"emailVerified"`
		Disabled         bool   `json:"disabled"`
		ProviderUserInfo []struct {
			ProviderID string `json:"providerId"`
		} `json:"providerUserInfo"`
	} `json:"users"`
}

type firebaseErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// doRequest posts body to an Identity Toolkit method and decodes the result.
func (p *FirebaseProvider) doRequest(ctx context.Context, method string, body, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/accounts:%s?key=%s", p.authURL, method, url.QueryEscape(p.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return &AuthError{Code: CodeNetworkRequestFailed, Message: "A network error has occurred", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &AuthError{Code: CodeNetworkRequestFailed, Message: "A network error has occurred", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var fe firebaseErrorBody
		if err := json.Unmarshal(raw, &fe); err != nil || fe.Error.Message == "" {
			return &AuthError{
				Code:    "auth/internal-error",
				Message: fmt.Sprintf("identity provider error: status %d", resp.StatusCode),
				Err:     shared.ErrAuthFailed,
			}
		}
		authErr := firebaseError(fe.Error.Message)
		authErr.Err = shared.ErrAuthFailed
		return authErr
	}

	if result != nil {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (p *FirebaseProvider) principalFrom(r authResponse) *models.Principal {
	expiresIn, err := strconv.Atoi(r.ExpiresIn)
	if err != nil || expiresIn <= 0 {
		expiresIn = 3600
	}
	return &models.Principal{
		UID:           r.LocalID,
		Email:         r.Email,
		DisplayName:   r.DisplayName,
		PhotoURL:      r.PhotoURL,
		EmailVerified: r.EmailVerified,
		ProviderID:    r.ProviderID,
		IDToken:       r.IDToken,
		RefreshToken:  r.RefreshToken,
		ExpiresAt:     p.now().Add(time.Duration(expiresIn) * time.Second),
	}
}

// SignUp creates an email/password account and signs it in.
func (p *FirebaseProvider) SignUp(ctx context.Context, email, password string) (*models.Principal, error) {
	var resp authResponse
	body := map[string]any{"email": email, "password": password, "returnSecureToken": true}
	if err := p.doRequest(ctx, "signUp", body, &resp); err != nil {
		return nil, err
	}

	principal := p.principalFrom(resp)
	principal.ProviderID = "password"
	p.publish(principal)
	return principal.Clone(), nil
}

// SignIn signs in with email and password.
func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (*models.Principal, error) {
	var resp authResponse
	body := map[string]any{"email": email, "password": password, "returnSecureToken": true}
	if err := p.doRequest(ctx, "signInWithPassword", body, &resp); err != nil {
		return nil, err
	}

	principal := p.principalFrom(resp)
	principal.ProviderID = "password"
	p.publish(principal)
	return principal.Clone(), nil
}

// SignInWithGoogle runs the federated authorizer and exchanges its token for a Firebase session.
func (p *FirebaseProvider) SignInWithGoogle(ctx context.Context) (*models.Principal, error) {
	if p.federated == nil {
		return nil, &AuthError{Code: CodeOperationNotAllowed, Message: "Google sign-in is not configured", Err: shared.ErrMissingCredentials}
	}

	token, err := p.federated.Authorize(ctx)
	if err != nil {
		return nil, err
	}

	post := url.Values{"providerId": {p.federated.ProviderID()}}
	if idToken, ok := token.Extra("id_token").(string); ok && idToken != "" {
		post.Set("id_token", idToken)
	} else {
		post.Set("access_token", token.AccessToken)
	}

	var resp authResponse
	body := map[string]any{
		"postBody":            post.Encode(),
		"requestUri":          "http://localhost",
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}
	if err := p.doRequest(ctx, "signInWithIdp", body, &resp); err != nil {
		return nil, err
	}

	principal := p.principalFrom(resp)
	if principal.ProviderID == "" {
		principal.ProviderID = p.federated.ProviderID()
	}
	p.publish(principal)
	return principal.Clone(), nil
}

// SignOut forgets the session locally. Firebase ID tokens cannot be revoked from a client.
func (p *FirebaseProvider) SignOut(ctx context.Context) error {
	if p.store != nil {
		if err := p.store.Clear(); err != nil {
			p.logger.Warn("failed to clear stored session", "error", err)
		}
	}
	p.setCurrent(nil)
	p.notify(nil)
	return nil
}

// UpdateProfile sets the display name and photo URL of the current user.
//
// Empty values are left unchanged.
func (p *FirebaseProvider) UpdateProfile(ctx context.Context, displayName, photoURL string) error {
	idToken, err := p.freshIDToken(ctx)
	if err != nil {
		return err
	}

	body := map[string]any{"idToken": idToken, "returnSecureToken": true}
	if displayName = strings.TrimSpace(displayName); displayName != "" {
		body["displayName"] = displayName
	}
	if photoURL = strings.TrimSpace(photoURL); photoURL != "" {
		body["photoUrl"] = photoURL
	}

	var resp authResponse
	if err := p.doRequest(ctx, "update", body, &resp); err != nil {
		return err
	}

	p.mu.Lock()
	if p.current != nil {
		if resp.DisplayName != "" {
			p.current.DisplayName = resp.DisplayName
		}
		if resp.PhotoURL != "" {
			p.current.PhotoURL = resp.PhotoURL
		}
		if resp.IDToken != "" {
			next := p.principalFrom(resp)
			p.current.IDToken = next.IDToken
			p.current.RefreshToken = next.RefreshToken
			p.current.ExpiresAt = next.ExpiresAt
		}
	}
	p.mu.Unlock()

	p.persist()
	return nil
}

// Reload refreshes the current user's profile from the provider and publishes it.
func (p *FirebaseProvider) Reload(ctx context.Context) (*models.Principal, error) {
	idToken, err := p.freshIDToken(ctx)
	if err != nil {
		return nil, err
	}

	var resp lookupResponse
	if err := p.doRequest(ctx, "lookup", map[string]any{"idToken": idToken}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Users) == 0 {
		return nil, &AuthError{Code: CodeUserNotFound, Message: "user record not found", Err: shared.ErrNotAuthenticated}
	}
	user := resp.Users[0]

	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return nil, &AuthError{Code: CodeNoCurrentUser, Message: "no user is signed in", Err: shared.ErrNotAuthenticated}
	}
	next := p.current.Clone()
	next.Email = user.Email
	next.DisplayName = user.DisplayName
	next.PhotoURL = user.PhotoURL
	next.EmailVerified = user.EmailVerified
	if len(user.ProviderUserInfo) > 0 {
		next.ProviderID = user.ProviderUserInfo[0].ProviderID
	}
	p.mu.Unlock()

	p.publish(next)
	return next.Clone(), nil
}

// Restore loads the persisted session, refreshing its token when needed, and publishes the result.
//
// A missing or unusable session publishes nil.
func (p *FirebaseProvider) Restore(ctx context.Context) error {
	if p.store == nil {
		p.notify(nil)
		return nil
	}

	stored, err := p.store.Load()
	if err != nil {
		p.logger.Debug("no stored session", "error", err)
		p.notify(nil)
		return nil
	}

	p.setCurrent(stored)
	if _, err := p.freshIDToken(ctx); err != nil {
		p.logger.Warn("stored session could not be refreshed", "error", err)
		if AuthCode(err) == CodeNetworkRequestFailed {
			p.notify(stored.Clone())
			return nil
		}
		return p.SignOut(ctx)
	}

	p.notify(p.Current())
	return nil
}

// Current returns a copy of the signed-in principal, or nil.
func (p *FirebaseProvider) Current() *models.Principal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current.Clone()
}

// Subscribe registers fn for session changes.
func (p *FirebaseProvider) Subscribe(fn func(*models.Principal)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// IDToken returns a valid ID token for the current user, refreshing it when close to expiry.
func (p *FirebaseProvider) IDToken(ctx context.Context) (string, error) {
	return p.freshIDToken(ctx)
}

func (p *FirebaseProvider) freshIDToken(ctx context.Context) (string, error) {
	p.mu.RLock()
	current := p.current.Clone()
	p.mu.RUnlock()

	if current == nil {
		return "", &AuthError{Code: CodeNoCurrentUser, Message: "no user is signed in", Err: shared.ErrNotAuthenticated}
	}
	if current.IDToken != "" && p.now().Add(tokenLeeway).Before(current.ExpiresAt) {
		return current.IDToken, nil
	}
	if current.RefreshToken == "" {
		return "", &AuthError{Code: CodeUserTokenExpired, Message: "session expired", Err: shared.ErrNoRefreshToken}
	}

	token, err := p.refresh(ctx, current.RefreshToken)
	if err != nil {
		return "", err
	}

	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		idToken = token.AccessToken
	}

	p.mu.Lock()
	if p.current != nil && p.current.UID == current.UID {
		p.current.IDToken = idToken
		if token.RefreshToken != "" {
			p.current.RefreshToken = token.RefreshToken
		}
		p.current.ExpiresAt = token.Expiry
	}
	p.mu.Unlock()

	p.persist()
	return idToken, nil
}

// refresh exchanges a refresh token at the secure token endpoint.
func (p *FirebaseProvider) refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	config := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  p.tokenURL + "?key=" + url.QueryEscape(p.apiKey),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	expired := &oauth2.Token{RefreshToken: refreshToken, Expiry: p.now().Add(-time.Hour)}

	token, err := config.TokenSource(ctx, expired).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			authErr := firebaseError(refreshErrorMessage(re))
			authErr.Err = fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
			return nil, authErr
		}
		return nil, &AuthError{Code: CodeNetworkRequestFailed, Message: "A network error has occurred", Err: err}
	}
	return token, nil
}

// refreshErrorMessage pulls the Identity Toolkit message out of a token endpoint failure.
func refreshErrorMessage(re *oauth2.RetrieveError) string {
	var fe firebaseErrorBody
	if err := json.Unmarshal(re.Body, &fe); err == nil && fe.Error.Message != "" {
		return fe.Error.Message
	}
	if re.ErrorCode != "" {
		return strings.ToUpper(re.ErrorCode)
	}
	return "TOKEN_EXPIRED"
}

func (p *FirebaseProvider) setCurrent(principal *models.Principal) {
	p.mu.Lock()
	p.current = principal.Clone()
	p.mu.Unlock()
}

// publish makes principal current, persists it, and notifies subscribers.
func (p *FirebaseProvider) publish(principal *models.Principal) {
	p.setCurrent(principal)
	p.persist()
	p.notify(principal.Clone())
}

func (p *FirebaseProvider) persist() {
	if p.store == nil {
		return
	}
	current := p.Current()
	if current == nil || current.RefreshToken == "" {
		return
	}
	if err := p.store.Save(*current); err != nil {
		p.logger.Warn("failed to persist session", "error", err)
	}
}

func (p *FirebaseProvider) notify(principal *models.Principal) {
	p.mu.RLock()
	fns := make([]func(*models.Principal), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.RUnlock()

	for _, fn := range fns {
		fn(principal.Clone())
	}
}
