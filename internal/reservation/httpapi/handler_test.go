package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	authmodels "bellatavola/internal/auth/models"
	"bellatavola/internal/reservation/models"
	"bellatavola/internal/reservation/store"
)

type fakeStore struct {
	createFn       func(ctx context.Context, input store.CreateInput) (models.Reservation, error)
	listByUserFn   func(ctx context.Context, userID string) ([]models.Reservation, error)
	listAllFn      func(ctx context.Context, date string) ([]models.Reservation, error)
	updateStatusFn func(ctx context.Context, reservationID, action, reason string) (models.Reservation, error)
	cancelFn       func(ctx context.Context, reservationID, userID string) (models.Reservation, error)
	availabilityFn func(ctx context.Context, query store.AvailabilityQuery) (store.AvailabilityResult, error)
	sessionFn      func(ctx context.Context, accessToken string) (authmodels.Session, authmodels.User, error)
}

func (f fakeStore) CreateReservation(ctx context.Context, input store.CreateInput) (models.Reservation, error) {
	if f.createFn == nil {
		return models.Reservation{}, nil
	}
	return f.createFn(ctx, input)
}

func (f fakeStore) ListByUser(ctx context.Context, userID string) ([]models.Reservation, error) {
	if f.listByUserFn == nil {
		return nil, nil
	}
	return f.listByUserFn(ctx, userID)
}

func (f fakeStore) ListAll(ctx context.Context, date string) ([]models.Reservation, error) {
	if f.listAllFn == nil {
		return nil, nil
	}
	return f.listAllFn(ctx, date)
}

func (f fakeStore) UpdateStatus(ctx context.Context, reservationID, action, reason string) (models.Reservation, error) {
	if f.updateStatusFn == nil {
		return models.Reservation{}, nil
	}
	return f.updateStatusFn(ctx, reservationID, action, reason)
}

func (f fakeStore) Cancel(ctx context.Context, reservationID, userID string) (models.Reservation, error) {
	if f.cancelFn == nil {
		return models.Reservation{}, nil
	}
	return f.cancelFn(ctx, reservationID, userID)
}

func (f fakeStore) Availability(ctx context.Context, query store.AvailabilityQuery) (store.AvailabilityResult, error) {
	if f.availabilityFn == nil {
		return store.AvailabilityResult{}, nil
	}
	return f.availabilityFn(ctx, query)
}

func (f fakeStore) GetSession(ctx context.Context, accessToken string) (authmodels.Session, authmodels.User, error) {
	if f.sessionFn == nil {
		return authmodels.Session{}, authmodels.User{}, store.ErrSessionNotFound
	}
	return f.sessionFn(ctx, accessToken)
}

func sessionAs(user authmodels.User) func(ctx context.Context, accessToken string) (authmodels.Session, authmodels.User, error) {
	return func(ctx context.Context, accessToken string) (authmodels.Session, authmodels.User, error) {
		if accessToken != "tok-1" {
			return authmodels.Session{}, authmodels.User{}, store.ErrSessionNotFound
		}
		return authmodels.Session{AccessToken: accessToken, UserID: user.UserID}, user, nil
	}
}

var (
	diner = authmodels.User{UserID: "user-1", Name: "Ana", ProfileCode: authmodels.ProfileRegistered}
	host  = authmodels.User{UserID: "staff-1", Name: "Marta", ProfileCode: authmodels.ProfileEmployee, PositionCode: authmodels.PositionHost}
)

func doJSON(t *testing.T, handler http.Handler, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer tok-1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestCreateReservation(t *testing.T) {
	st := fakeStore{
		sessionFn: sessionAs(diner),
		createFn: func(ctx context.Context, input store.CreateInput) (models.Reservation, error) {
			if input.UserID != "user-1" || input.Time != "21:00" {
				t.Fatalf("unexpected input: %+v", input)
			}
			return models.Reservation{ReservationID: "res-1", Status: models.StatusPending}, nil
		},
	}
	resp := doJSON(t, NewHandler(st).Routes(), http.MethodPost, "/reservations", map[string]interface{}{
		"table_id":   "table-1",
		"date":       "2026-09-12",
		"time":       "21:00",
		"party_size": 4,
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCreateReservationOutsideHours(t *testing.T) {
	st := fakeStore{sessionFn: sessionAs(diner)}
	for _, at := range []string{"12:00", "03:00", "25:00", ""} {
		resp := doJSON(t, NewHandler(st).Routes(), http.MethodPost, "/reservations", map[string]interface{}{
			"table_id":   "table-1",
			"date":       "2026-09-12",
			"time":       at,
			"party_size": 2,
		})
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("time %q: expected status 400, got %d", at, resp.Code)
		}
	}
}

func TestCreateReservationTableTaken(t *testing.T) {
	st := fakeStore{
		sessionFn: sessionAs(diner),
		createFn: func(ctx context.Context, input store.CreateInput) (models.Reservation, error) {
			return models.Reservation{}, store.ErrTableTaken
		},
	}
	resp := doJSON(t, NewHandler(st).Routes(), http.MethodPost, "/reservations", map[string]interface{}{
		"table_id":   "table-1",
		"date":       "2026-09-12",
		"time":       "21:00",
		"party_size": 2,
	})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
}

func TestMyReservationsAlwaysReturnsList(t *testing.T) {
	st := fakeStore{sessionFn: sessionAs(diner)}
	resp := doJSON(t, NewHandler(st).Routes(), http.MethodGet, "/reservations/my-reservations", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var decoded struct {
		Reservations []models.Reservation `json:"reservations"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded.Reservations == nil {
		t.Fatal("reservations must decode as an empty list, not null")
	}
}

func TestAllReservationsRequiresStaff(t *testing.T) {
	st := fakeStore{sessionFn: sessionAs(diner)}
	resp := doJSON(t, NewHandler(st).Routes(), http.MethodGet, "/reservations/all", nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}

	st.sessionFn = sessionAs(host)
	resp = doJSON(t, NewHandler(st).Routes(), http.MethodGet, "/reservations/all?date=2026-09-12", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
}

func TestAvailabilitySuggestions(t *testing.T) {
	st := fakeStore{
		sessionFn: sessionAs(diner),
		availabilityFn: func(ctx context.Context, query store.AvailabilityQuery) (store.AvailabilityResult, error) {
			if query.Date != "2026-09-12" || query.Time != "21:00" || query.PartySize != 4 {
				t.Fatalf("unexpected query: %+v", query)
			}
			return store.AvailabilityResult{Suggestions: []string{"19:00", "23:00"}}, nil
		},
	}
	resp := doJSON(t, NewHandler(st).Routes(), http.MethodGet,
		"/reservations/availability?date=2026-09-12&time=21:00&party_size=4", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var decoded struct {
		Tables      []models.Table `json:"tables"`
		Suggestions []string       `json:"suggested_times"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded.Tables == nil || len(decoded.Suggestions) != 2 {
		t.Fatalf("unexpected availability payload: %+v", decoded)
	}
}

func TestUpdateStatusRequiresStaff(t *testing.T) {
	st := fakeStore{sessionFn: sessionAs(diner)}
	resp := doJSON(t, NewHandler(st).Routes(), http.MethodPut, "/reservations/res-1/status", map[string]string{
		"action": "approve",
	})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}
}

func TestUpdateStatusRejectNeedsReason(t *testing.T) {
	st := fakeStore{sessionFn: sessionAs(host)}
	resp := doJSON(t, NewHandler(st).Routes(), http.MethodPut, "/reservations/res-1/status", map[string]string{
		"action": "reject",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	st := fakeStore{
		sessionFn: sessionAs(host),
		updateStatusFn: func(ctx context.Context, reservationID, action, reason string) (models.Reservation, error) {
			return models.Reservation{}, store.ErrInvalidTransition
		},
	}
	resp := doJSON(t, NewHandler(st).Routes(), http.MethodPut, "/reservations/res-1/status", map[string]string{
		"action": "approve",
	})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
}

func TestCancelWindowClosed(t *testing.T) {
	st := fakeStore{
		sessionFn: sessionAs(diner),
		cancelFn: func(ctx context.Context, reservationID, userID string) (models.Reservation, error) {
			if userID != "user-1" {
				t.Fatalf("unexpected user %q", userID)
			}
			return models.Reservation{}, store.ErrCancelWindowClosed
		},
	}
	resp := doJSON(t, NewHandler(st).Routes(), http.MethodPut, "/reservations/res-1/cancel", nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
}

func TestUnauthorizedWithoutToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/reservations/my-reservations", nil)
	resp := httptest.NewRecorder()
	NewHandler(fakeStore{}).Routes().ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}
