// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/moviemaster/internal/models"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// Notification is one recorded toast.
type Notification struct {
	Level   string
	Message string
}

// Notifier records toast messages.
type Notifier struct {
	mu   sync.Mutex
	Sent []Notification
}

func (n *Notifier) record(level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, Notification{Level: level, Message: message})
}

func (n *Notifier) Success(message string) { n.record("success", message) }
func (n *Notifier) Info(message string)    { n.record("info", message) }
func (n *Notifier) Warn(message string)    { n.record("warn", message) }
func (n *Notifier) Error(message string)   { n.record("error", message) }

// Last returns the most recent notification of level, or "".
func (n *Notifier) Last(level string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.Sent) - 1; i >= 0; i-- {
		if n.Sent[i].Level == level {
			return n.Sent[i].Message
		}
	}
	return ""
}

// Count returns the number of recorded notifications.
func (n *Notifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Sent)
}

// Navigator records route changes.
type Navigator struct {
	mu     sync.Mutex
	Routes []string
}

func (n *Navigator) Navigate(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Routes = append(n.Routes, route)
}

// Last returns the most recent route, or "".
func (n *Navigator) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.Routes) == 0 {
		return ""
	}
	return n.Routes[len(n.Routes)-1]
}

// Identity is an in-memory identity provider.
//
// Accounts maps email to password. Err, when set, fails every sign-in.
type Identity struct {
	mu        sync.Mutex
	Accounts  map[string]string
	Err       error
	GoogleErr error
	Google    *models.Principal
	Stored    *models.Principal
	ReloadErr error
	current   *models.Principal
	listeners map[int]func(*models.Principal)
	nextID    int
	Profiles  []string
}

func NewIdentity() *Identity {
	return &Identity{Accounts: map[string]string{}, listeners: map[int]func(*models.Principal){}}
}

func (i *Identity) SignUp(ctx context.Context, email, password string) (*models.Principal, error) {
	if i.Err != nil {
		return nil, i.Err
	}
	i.mu.Lock()
	i.Accounts[email] = password
	i.mu.Unlock()
	p := &models.Principal{UID: "uid-" + email, Email: email, ProviderID: "password"}
	i.publish(p)
	return p.Clone(), nil
}

func (i *Identity) SignIn(ctx context.Context, email, password string) (*models.Principal, error) {
	if i.Err != nil {
		return nil, i.Err
	}
	i.mu.Lock()
	want, ok := i.Accounts[email]
	i.mu.Unlock()
	if !ok || want != password {
		return nil, errors.New("invalid credentials")
	}
	p := &models.Principal{UID: "uid-" + email, Email: email, ProviderID: "password"}
	i.publish(p)
	return p.Clone(), nil
}

func (i *Identity) SignInWithGoogle(ctx context.Context) (*models.Principal, error) {
	if i.GoogleErr != nil {
		return nil, i.GoogleErr
	}
	p := i.Google
	if p == nil {
		p = &models.Principal{UID: "google-uid", Email: "google@example.com", DisplayName: "Google User"}
	}
	i.publish(p)
	return p.Clone(), nil
}

func (i *Identity) SignOut(ctx context.Context) error {
	i.publish(nil)
	return nil
}

func (i *Identity) UpdateProfile(ctx context.Context, displayName, photoURL string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Profiles = append(i.Profiles, displayName+"|"+photoURL)
	if i.current != nil {
		i.current.DisplayName = displayName
		i.current.PhotoURL = photoURL
	}
	return nil
}

func (i *Identity) Reload(ctx context.Context) (*models.Principal, error) {
	if i.ReloadErr != nil {
		return nil, i.ReloadErr
	}
	p := i.Current()
	i.publish(p)
	return p, nil
}

func (i *Identity) Restore(ctx context.Context) error {
	i.publish(i.Stored)
	return nil
}

func (i *Identity) Current() *models.Principal {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.current.Clone()
}

func (i *Identity) Subscribe(fn func(*models.Principal)) func() {
	i.mu.Lock()
	id := i.nextID
	i.nextID++
	i.listeners[id] = fn
	i.mu.Unlock()
	return func() {
		i.mu.Lock()
		delete(i.listeners, id)
		i.mu.Unlock()
	}
}

// Emit publishes p to subscribers without changing credentials.
func (i *Identity) Emit(p *models.Principal) { i.publish(p) }

func (i *Identity) publish(p *models.Principal) {
	i.mu.Lock()
	i.current = p.Clone()
	fns := make([]func(*models.Principal), 0, len(i.listeners))
	for _, fn := range i.listeners {
		fns = append(fns, fn)
	}
	i.mu.Unlock()
	for _, fn := range fns {
		fn(p.Clone())
	}
}

// MemoryStore is a map-backed key/value store.
type MemoryStore struct {
	mu     sync.Mutex
	Values map[string]string
	SetErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Values: map[string]string{}}
}

func (m *MemoryStore) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Values[key]
	if !ok {
		return "", os.ErrNotExist
	}
	return v, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.Values[key] = value
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
