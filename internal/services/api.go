// HTTP client wrapper for the movie catalog backend
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
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviemaster/internal/shared"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "http://localhost:5000"
	DefaultTimeout = 15 * time.Second

	// UserEmailHeader carries the caller's identity on backend requests.
	UserEmailHeader = "x-user-email"
	RequestIDHeader = "X-Request-ID"
)

// APIService performs requests against the catalog backend and normalizes every failure into a [shared.Error].
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
	email      string
}

// APIOption configures an [APIService].
type APIOption func(*APIService)

// WithRateLimit paces outgoing requests. A non-positive rate disables pacing.
func WithRateLimit(rps float64) APIOption {
	return func(a *APIService) {
		if rps > 0 {
			a.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) APIOption {
	return func(a *APIService) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAPIService creates a new API service for the backend at baseURL.
//
// A nil client is replaced with one that times out after [DefaultTimeout].
func NewAPIService(baseURL string, client *http.Client, opts ...APIOption) *APIService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	a := &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BaseURL returns the backend origin.
func (a *APIService) BaseURL() string { return a.baseURL }

// As returns a view of the service that sends email as the identity header on the
// Get, Post, Put and Delete helpers. The view shares the client and rate limiter.
func (a *APIService) As(email string) *APIService {
	view := *a
	view.email = strings.TrimSpace(email)
	return &view
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Request describes one backend call.
type Request struct {
	Method   string
	Path     string
	Query    url.Values
	Email    string // sent as the identity header when set
	Body     any
	Fallback string // message used when the backend does not provide one
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.Raw(ctx, http.MethodGet, path, a.email, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Raw(ctx, http.MethodPost, path, a.email, data)
}

// Put performs a PUT request with the given JSON data and returns the raw response.
func (a *APIService) Put(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Raw(ctx, http.MethodPut, path, a.email, data)
}

// Delete performs a DELETE request and returns the raw response.
func (a *APIService) Delete(ctx context.Context, path string) (*APIResponse, error) {
	return a.Raw(ctx, http.MethodDelete, path, a.email, nil)
}

// Raw performs a single request and returns the response without interpreting the status.
func (a *APIService) Raw(ctx context.Context, method, path, email string, data []byte) (*APIResponse, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
	}

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, shared.GenerateID())
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if email != "" {
		req.Header.Set(UserEmailHeader, email)
	}

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Debug("request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	a.logger.Debug("request complete",
		"method", method, "path", path, "status", resp.StatusCode,
		"request_id", req.Header.Get(RequestIDHeader), "elapsed", time.Since(start))

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
	}

	var jsonData any
	if err := json.Unmarshal(raw, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// Do performs req and decodes a successful body into out when out is non-nil.
//
// Every failure is returned as a [*shared.Error].
func (a *APIService) Do(ctx context.Context, req Request, out any) error {
	path := req.Path
	if len(req.Query) > 0 {
		path += "?" + req.Query.Encode()
	}

	var data []byte
	if req.Body != nil {
		var err error
		if data, err = json.Marshal(req.Body); err != nil {
			return shared.NewError(shared.KindValidation, req.Fallback, fmt.Errorf("failed to encode body: %w", err))
		}
	}

	resp, err := a.Raw(ctx, req.Method, path, req.Email, data)
	if err != nil {
		return transportError(req.Fallback, err)
	}

	if !resp.OK() {
		return normalize(resp, req.Fallback)
	}

	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &shared.Error{
			Kind:    shared.KindUnknown,
			Status:  resp.StatusCode,
			Message: req.Fallback,
			Err:     fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err),
		}
	}
	return nil
}

func transportError(fallback string, err error) *shared.Error {
	cause := fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		cause = fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}
	return shared.NewError(shared.KindNetwork, fallback, cause)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// errorBody is the backend's error shape. Older handlers use "error" instead of "message".
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// normalize converts a non-2xx response into a [*shared.Error].
//
// The kind comes from the machine-readable code when the backend sends one, otherwise from the status.
func normalize(resp *APIResponse, fallback string) *shared.Error {
	e := &shared.Error{Status: resp.StatusCode, Err: shared.ErrAPIRequest}

	var body errorBody
	if err := json.Unmarshal(resp.Body, &body); err == nil {
		e.Code = body.Code
		e.Message = body.Message
		if e.Message == "" {
			e.Message = body.Error
		}
	}

	if e.Message == "" {
		e.Message = fmt.Sprintf("%s (%d)", fallback, resp.StatusCode)
	}

	if kind, ok := kindForCode(e.Code); ok {
		e.Kind = kind
	} else {
		e.Kind = kindForStatus(resp.StatusCode)
	}
	return e
}

var codeKinds = map[string]shared.Kind{
	"not_found":        shared.KindNotFound,
	"movie_not_found":  shared.KindNotFound,
	"user_not_found":   shared.KindNotFound,
	"unauthorized":     shared.KindUnauthorized,
	"unauthenticated":  shared.KindUnauthorized,
	"forbidden":        shared.KindUnauthorized,
	"not_owner":        shared.KindUnauthorized,
	"validation":       shared.KindValidation,
	"validation_error": shared.KindValidation,
	"invalid_input":    shared.KindValidation,
	"bad_request":      shared.KindValidation,
	"network":          shared.KindNetwork,
	"unavailable":      shared.KindNetwork,
}

func kindForCode(code string) (shared.Kind, bool) {
	code = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(code), "-", "_"))
	if code == "" {
		return "", false
	}
	kind, ok := codeKinds[code]
	return kind, ok
}

func kindForStatus(status int) shared.Kind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusConflict:
		return shared.KindValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return shared.KindUnauthorized
	case http.StatusNotFound, http.StatusGone:
		return shared.KindNotFound
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return shared.KindNetwork
	default:
		return shared.KindUnknown
	}
}
