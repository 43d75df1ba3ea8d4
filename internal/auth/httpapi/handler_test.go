package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bellatavola/internal/auth/broker"
	"bellatavola/internal/auth/models"
	"bellatavola/internal/auth/store"
)

type fakeStore struct {
	loginFn    func(ctx context.Context, email, password string) (store.AuthResult, error)
	socialFn   func(ctx context.Context, provider, subject string) (store.AuthResult, bool, error)
	consumeFn  func(ctx context.Context, state string) (string, error)
	sessionFn  func(ctx context.Context, accessToken string) (models.Session, models.User, error)
	registerFn func(ctx context.Context, input store.RegisterInput) (store.AuthResult, error)
}

func (f fakeStore) Login(ctx context.Context, email, password string) (store.AuthResult, error) {
	if f.loginFn == nil {
		return store.AuthResult{}, nil
	}
	return f.loginFn(ctx, email, password)
}

func (f fakeStore) Register(ctx context.Context, input store.RegisterInput) (store.AuthResult, error) {
	if f.registerFn == nil {
		return store.AuthResult{}, nil
	}
	return f.registerFn(ctx, input)
}

func (f fakeStore) RegisterAnonymous(ctx context.Context, name string) (store.AuthResult, error) {
	return store.AuthResult{User: models.User{UserID: "anon-1", Name: name, ProfileCode: models.ProfileAnonymous}}, nil
}

func (f fakeStore) CreateSocialState(ctx context.Context, provider string) (string, error) {
	return "state-1", nil
}

func (f fakeStore) ConsumeSocialState(ctx context.Context, state string) (string, error) {
	if f.consumeFn == nil {
		return "google", nil
	}
	return f.consumeFn(ctx, state)
}

func (f fakeStore) SocialLogin(ctx context.Context, provider, subject string) (store.AuthResult, bool, error) {
	if f.socialFn == nil {
		return store.AuthResult{}, false, nil
	}
	return f.socialFn(ctx, provider, subject)
}

func (f fakeStore) CreateRegistrationTicket(ctx context.Context, provider, subject, email, name string) (string, error) {
	return "ticket-1", nil
}

func (f fakeStore) CompleteSocialRegistration(ctx context.Context, input store.CompleteRegistrationInput) (store.AuthResult, error) {
	return store.AuthResult{}, nil
}

func (f fakeStore) Refresh(ctx context.Context, refreshToken string) (store.AuthResult, error) {
	return store.AuthResult{}, store.ErrSessionNotFound
}

func (f fakeStore) GetSession(ctx context.Context, accessToken string) (models.Session, models.User, error) {
	if f.sessionFn == nil {
		return models.Session{}, models.User{}, store.ErrSessionNotFound
	}
	return f.sessionFn(ctx, accessToken)
}

func (f fakeStore) Logout(ctx context.Context, accessToken string) error { return nil }

type fakeBroker struct {
	exchangeFn func(ctx context.Context, provider, code string) (broker.Identity, error)
}

func (f fakeBroker) AuthURL(provider, state string) string {
	return "https://broker.example/authorize?provider=" + provider + "&state=" + state
}

func (f fakeBroker) Exchange(ctx context.Context, provider, code string) (broker.Identity, error) {
	if f.exchangeFn == nil {
		return broker.Identity{Provider: provider, Subject: "sub-1", Email: "user@example.com", Name: "User"}, nil
	}
	return f.exchangeFn(ctx, provider, code)
}

func postJSON(t *testing.T, handler http.Handler, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestLoginSuccess(t *testing.T) {
	st := fakeStore{
		loginFn: func(ctx context.Context, email, password string) (store.AuthResult, error) {
			return store.AuthResult{
				User:    models.User{UserID: "user-1", Name: "Ana", Email: email, ProfileCode: models.ProfileRegistered},
				Session: models.Session{AccessToken: "tok-1", RefreshToken: "ref-1", ExpiresAt: time.Now().UTC().Add(time.Hour)},
			}, nil
		},
	}
	resp := postJSON(t, NewHandler(st, fakeBroker{}).Routes(), "/auth/login", map[string]string{
		"email":    "ana@example.com",
		"password": "secret1",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var decoded struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded.AccessToken != "tok-1" || decoded.RefreshToken != "ref-1" {
		t.Fatalf("unexpected tokens: %+v", decoded)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	st := fakeStore{
		loginFn: func(ctx context.Context, email, password string) (store.AuthResult, error) {
			return store.AuthResult{}, store.ErrInvalidCredentials
		},
	}
	resp := postJSON(t, NewHandler(st, fakeBroker{}).Routes(), "/auth/login", map[string]string{
		"email":    "ana@example.com",
		"password": "wrong",
	})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	handler := NewHandler(fakeStore{}, fakeBroker{}).Routes()
	cases := []map[string]string{
		{"name": "", "email": "a@b.co", "password": "secret1", "dni": "1", "cuil": "1"},
		{"name": "Ana", "email": "not-an-email", "password": "secret1", "dni": "1", "cuil": "1"},
		{"name": "Ana", "email": "a@b.co", "password": "short", "dni": "1", "cuil": "1"},
		{"name": "Ana", "email": "a@b.co", "password": "secret1", "dni": "", "cuil": "1"},
	}
	for i, payload := range cases {
		resp := postJSON(t, handler, "/auth/register", payload)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("case %d: expected status 400, got %d", i, resp.Code)
		}
	}
}

func TestSocialCallbackNewUserRequiresRegistration(t *testing.T) {
	resp := postJSON(t, NewHandler(fakeStore{}, fakeBroker{}).Routes(), "/auth/social/callback", map[string]string{
		"state": "state-1",
		"code":  "code-1",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var decoded struct {
		RegistrationRequired bool   `json:"registration_required"`
		RegistrationToken    string `json:"registration_token"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !decoded.RegistrationRequired || decoded.RegistrationToken == "" {
		t.Fatalf("expected registration ticket, got %+v", decoded)
	}
}

func TestSocialCallbackExistingUser(t *testing.T) {
	st := fakeStore{
		socialFn: func(ctx context.Context, provider, subject string) (store.AuthResult, bool, error) {
			return store.AuthResult{
				User:    models.User{UserID: "user-1", ProfileCode: models.ProfileRegistered},
				Session: models.Session{AccessToken: "tok-2", ExpiresAt: time.Now().UTC().Add(time.Hour)},
			}, true, nil
		},
	}
	resp := postJSON(t, NewHandler(st, fakeBroker{}).Routes(), "/auth/social/callback", map[string]string{
		"state": "state-1",
		"code":  "code-1",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var decoded struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded.AccessToken != "tok-2" {
		t.Fatalf("expected session tokens, got %+v", decoded)
	}
}

func TestSocialCallbackExpiredState(t *testing.T) {
	st := fakeStore{
		consumeFn: func(ctx context.Context, state string) (string, error) {
			return "", store.ErrStateNotFound
		},
	}
	resp := postJSON(t, NewHandler(st, fakeBroker{}).Routes(), "/auth/social/callback", map[string]string{
		"state": "stale",
		"code":  "code-1",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestMeUnauthorized(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	resp := httptest.NewRecorder()
	NewHandler(fakeStore{}, fakeBroker{}).Routes().ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}
