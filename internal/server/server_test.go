package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

func TestBasicRouter(t *testing.T) {
	t.Run("Handle filters by method", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "pong")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
			t.Errorf("GET /ping = %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST /ping = %d, want 405", rec.Code)
		}
	})

	t.Run("middleware runs in registration order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("order = %v", order)
		}
	})

	t.Run("Recoverer converts panics", func(t *testing.T) {
		router := NewBasicRouter()
		router.Use(Recoverer(log.New(io.Discard)))
		router.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})

	t.Run("RequestLogger records status", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)
		logger.SetLevel(log.DebugLevel)

		router := NewBasicRouter()
		router.Use(RequestLogger(logger))
		router.Handle(http.MethodGet, "/missing", http.NotFoundHandler())

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
		if !strings.Contains(buf.String(), "404") {
			t.Errorf("log output %q does not contain status", buf.String())
		}
	})
}

func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"invalid_grant"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"access","token_type":"Bearer","expires_in":3600,"id_token":"google-id-token"}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOAuthHandler(t *testing.T) {
	tokenServer := newTokenServer(t)
	newHandler := func() *OAuthHandler {
		return NewOAuthHandler(&oauth2.Config{
			ClientID:    "client",
			RedirectURL: "http://localhost:3000/auth/google",
			Endpoint:    oauth2.Endpoint{TokenURL: tokenServer.URL, AuthStyle: oauth2.AuthStyleInParams},
		}, "state-123")
	}

	t.Run("route follows redirect path", func(t *testing.T) {
		h := newHandler()
		if got := h.Routes(); len(got) != 1 || got[0] != "/auth/google" {
			t.Errorf("Routes() = %v", got)
		}

		h = NewOAuthHandler(&oauth2.Config{}, "s")
		if got := h.Routes(); got[0] != "/callback" {
			t.Errorf("default route = %v", got)
		}
	})

	t.Run("exchanges code", func(t *testing.T) {
		h := newHandler()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google?state=state-123&code=good-code", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		result := <-h.Result()
		if result.Error() != nil {
			t.Fatalf("unexpected error: %v", result.Error())
		}
		if result.Token.AccessToken != "access" {
			t.Errorf("AccessToken = %q", result.Token.AccessToken)
		}
		if id, _ := result.Token.Extra("id_token").(string); id != "google-id-token" {
			t.Errorf("id_token = %q", id)
		}
	})

	t.Run("rejects bad state", func(t *testing.T) {
		h := newHandler()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google?state=other&code=good-code", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
		if result := <-h.Result(); !errors.Is(result.Error(), ErrInvalidState) {
			t.Errorf("error = %v, want ErrInvalidState", result.Error())
		}
	})

	t.Run("access denied", func(t *testing.T) {
		h := newHandler()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google?state=state-123&error=access_denied", nil))

		if result := <-h.Result(); !errors.Is(result.Error(), ErrConsentDenied) {
			t.Errorf("error = %v, want ErrConsentDenied", result.Error())
		}
		if !strings.Contains(rec.Body.String(), "Sign-in cancelled") {
			t.Errorf("body = %q", rec.Body.String())
		}
	})

	t.Run("exchange failure", func(t *testing.T) {
		h := newHandler()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google?state=state-123&code=bad", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d", rec.Code)
		}
		if result := <-h.Result(); result.Error() == nil {
			t.Error("expected exchange error")
		}
	})

	t.Run("second callback rejected", func(t *testing.T) {
		h := newHandler()
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/auth/google?state=state-123&code=good-code", nil))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google?state=state-123&code=good-code", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestListen(t *testing.T) {
	router := NewBasicRouter()
	router.Handle(http.MethodGet, "/ok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))

	srv, err := Listen("127.0.0.1:0", router, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer srv.Close()

	resp, err := http.Get("http://" + srv.Addr + "/ok")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Errorf("body = %q", body)
	}
}
