package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	adminmodels "bellatavola/internal/admin/models"
	"bellatavola/internal/admin/store"
	authmodels "bellatavola/internal/auth/models"
	reservationmodels "bellatavola/internal/reservation/models"
)

type fakeStore struct {
	createStaffFn func(ctx context.Context, input store.CreateStaffInput) (authmodels.User, error)
	createItemFn  func(ctx context.Context, input store.CreateMenuItemInput) (adminmodels.MenuItem, error)
	createTableFn func(ctx context.Context, input store.CreateTableInput) (reservationmodels.Table, error)
	sessionFn     func(ctx context.Context, accessToken string) (authmodels.Session, authmodels.User, error)
}

func (f fakeStore) CreateStaff(ctx context.Context, input store.CreateStaffInput) (authmodels.User, error) {
	if f.createStaffFn == nil {
		return authmodels.User{}, nil
	}
	return f.createStaffFn(ctx, input)
}

func (f fakeStore) ListUsers(ctx context.Context) ([]authmodels.User, error) { return nil, nil }

func (f fakeStore) CreateMenuItem(ctx context.Context, input store.CreateMenuItemInput) (adminmodels.MenuItem, error) {
	if f.createItemFn == nil {
		return adminmodels.MenuItem{}, nil
	}
	return f.createItemFn(ctx, input)
}

func (f fakeStore) ListMenu(ctx context.Context) ([]adminmodels.MenuItem, error) { return nil, nil }

func (f fakeStore) CreateTable(ctx context.Context, input store.CreateTableInput) (reservationmodels.Table, error) {
	if f.createTableFn == nil {
		return reservationmodels.Table{}, nil
	}
	return f.createTableFn(ctx, input)
}

func (f fakeStore) ListTables(ctx context.Context) ([]reservationmodels.Table, error) {
	return nil, nil
}

func (f fakeStore) GetSession(ctx context.Context, accessToken string) (authmodels.Session, authmodels.User, error) {
	if f.sessionFn == nil {
		return authmodels.Session{}, authmodels.User{}, store.ErrSessionNotFound
	}
	return f.sessionFn(ctx, accessToken)
}

type fakeImages struct {
	saved   []string
	removed []string
}

func (f *fakeImages) Save(header *multipart.FileHeader) (string, error) {
	name := "img-" + header.Filename
	f.saved = append(f.saved, name)
	return name, nil
}

func (f *fakeImages) Remove(name string) error {
	f.removed = append(f.removed, name)
	return nil
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
	supervisor = authmodels.User{UserID: "sup-1", Name: "Carla", ProfileCode: authmodels.ProfileSupervisor}
	waiter     = authmodels.User{UserID: "staff-1", Name: "Luis", ProfileCode: authmodels.ProfileEmployee, PositionCode: authmodels.PositionWaiter}
)

func multipartRequest(t *testing.T, path string, fields map[string]string, fileField string, fileNames []string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, name := range fileNames {
		part, err := writer.CreateFormFile(fileField, name)
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := io.WriteString(part, "fake image bytes"); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer tok-1")
	return req
}

func TestCreateStaff(t *testing.T) {
	st := fakeStore{
		sessionFn: sessionAs(supervisor),
		createStaffFn: func(ctx context.Context, input store.CreateStaffInput) (authmodels.User, error) {
			if input.PositionCode != authmodels.PositionBar || input.PhotoPath == "" {
				t.Fatalf("unexpected input: %+v", input)
			}
			return authmodels.User{UserID: "staff-2", ProfileCode: authmodels.ProfileEmployee}, nil
		},
	}
	req := multipartRequest(t, "/admin/users/staff", map[string]string{
		"name":          "Pedro",
		"email":         "pedro@example.com",
		"password":      "secret1",
		"dni":           "12345678",
		"cuil":          "20-12345678-3",
		"position_code": "bar",
	}, "photo", []string{"pedro.jpg"})
	resp := httptest.NewRecorder()
	NewHandler(st, &fakeImages{}).Routes().ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCreateStaffRequiresSupervisor(t *testing.T) {
	st := fakeStore{sessionFn: sessionAs(waiter)}
	req := multipartRequest(t, "/admin/users/staff", map[string]string{"name": "Pedro"}, "photo", nil)
	resp := httptest.NewRecorder()
	NewHandler(st, &fakeImages{}).Routes().ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}
}

func TestCreateStaffValidation(t *testing.T) {
	st := fakeStore{sessionFn: sessionAs(supervisor)}
	cases := []map[string]string{
		{"name": "", "email": "a@b.co", "password": "secret1", "dni": "1", "cuil": "1", "position_code": "bar"},
		{"name": "P", "email": "bad", "password": "secret1", "dni": "1", "cuil": "1", "position_code": "bar"},
		{"name": "P", "email": "a@b.co", "password": "short", "dni": "1", "cuil": "1", "position_code": "bar"},
		{"name": "P", "email": "a@b.co", "password": "secret1", "dni": "1", "cuil": "1", "position_code": "chef"},
	}
	for i, fields := range cases {
		req := multipartRequest(t, "/admin/users/staff", fields, "photo", nil)
		resp := httptest.NewRecorder()
		NewHandler(st, &fakeImages{}).Routes().ServeHTTP(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("case %d: expected status 400, got %d", i, resp.Code)
		}
	}
}

func TestCreateMenuItemRequiresThreeImages(t *testing.T) {
	st := fakeStore{sessionFn: sessionAs(waiter)}
	req := multipartRequest(t, "/menu/items", map[string]string{
		"name":        "Milanesa",
		"category":    "kitchen",
		"price_cents": "9000",
	}, "images", []string{"a.jpg", "b.jpg"})
	resp := httptest.NewRecorder()
	NewHandler(st, &fakeImages{}).Routes().ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestCreateMenuItem(t *testing.T) {
	imgs := &fakeImages{}
	st := fakeStore{
		sessionFn: sessionAs(waiter),
		createItemFn: func(ctx context.Context, input store.CreateMenuItemInput) (adminmodels.MenuItem, error) {
			if len(input.ImagePaths) != 3 {
				t.Fatalf("expected 3 image paths, got %v", input.ImagePaths)
			}
			return adminmodels.MenuItem{ItemID: "item-1", Name: input.Name, ImagePaths: input.ImagePaths}, nil
		},
	}
	req := multipartRequest(t, "/menu/items", map[string]string{
		"name":        "Milanesa",
		"category":    "kitchen",
		"price_cents": "9000",
	}, "images", []string{"a.jpg", "b.jpg", "c.jpg"})
	resp := httptest.NewRecorder()
	NewHandler(st, imgs).Routes().ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(imgs.saved) != 3 {
		t.Fatalf("expected 3 saved images, got %v", imgs.saved)
	}
}

func TestCreateTableNumberTaken(t *testing.T) {
	st := fakeStore{
		sessionFn: sessionAs(supervisor),
		createTableFn: func(ctx context.Context, input store.CreateTableInput) (reservationmodels.Table, error) {
			return reservationmodels.Table{}, store.ErrTableNumberTaken
		},
	}
	payload, _ := json.Marshal(map[string]interface{}{"number": 4, "capacity": 4, "type": "standard"})
	req := httptest.NewRequest(http.MethodPost, "/admin/tables", bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer tok-1")
	resp := httptest.NewRecorder()
	NewHandler(st, &fakeImages{}).Routes().ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
}
