package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bellatavola/internal/client/session"
)

type staticTokens struct {
	tokens session.Tokens
	err    error
}

func (s staticTokens) Tokens() (session.Tokens, error) { return s.tokens, s.err }

func newTestClient(server *httptest.Server, tokens TokenSource) *Client {
	endpoints := Endpoints{
		Auth:        server.URL,
		Admin:       server.URL,
		Reservation: server.URL,
		Delivery:    server.URL,
	}
	return NewClient(endpoints, tokens)
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user":{"user_id":"user-1","name":"Ana","profile_code":"registered"},"access_token":"tok-1","refresh_token":"ref-1"}`))
	}))
	defer server.Close()

	client := newTestClient(server, staticTokens{})
	resp, err := client.Login(context.Background(), "ana@example.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken != "tok-1" || resp.User.UserID != "user-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"code":"table_taken","message":"table already reserved around that time"}}`))
	}))
	defer server.Close()

	client := newTestClient(server, staticTokens{tokens: session.Tokens{AccessToken: "tok-1"}})
	_, err := client.CreateReservation(context.Background(), "table-1", "2026-09-12", "21:00", 4, "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != "table_taken" || apiErr.Status != http.StatusConflict {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestAuthedRequestsCarryBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			t.Fatalf("missing bearer token: %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"reservations":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server, staticTokens{tokens: session.Tokens{AccessToken: "tok-1"}})
	if _, err := client.MyReservations(context.Background()); err != nil {
		t.Fatalf("my reservations: %v", err)
	}
}

func TestUnauthenticatedRequestFailsBeforeSending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not reach the server without tokens")
	}))
	defer server.Close()

	client := newTestClient(server, staticTokens{err: session.ErrNotAuthenticated})
	if _, err := client.MyReservations(context.Background()); !errors.Is(err, session.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}
