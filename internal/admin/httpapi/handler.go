package httpapi

import (
	"errors"
	"mime/multipart"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"bellatavola/internal/admin/images"
	adminmodels "bellatavola/internal/admin/models"
	"bellatavola/internal/admin/store"
	authmodels "bellatavola/internal/auth/models"
	"bellatavola/internal/httpx"
	reservationmodels "bellatavola/internal/reservation/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const maxUploadBytes = 20 << 20

// ImageSaver is satisfied by *images.Store.
type ImageSaver interface {
	Save(header *multipart.FileHeader) (string, error)
	Remove(name string) error
}

var _ ImageSaver = (*images.Store)(nil)

type Handler struct {
	store  store.Store
	images ImageSaver
}

func NewHandler(store store.Store, images ImageSaver) *Handler {
	return &Handler{store: store, images: images}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpx.HealthHandler)
	mux.HandleFunc("/admin/users/staff", h.handleCreateStaff)
	mux.HandleFunc("/admin/users", h.handleListUsers)
	mux.HandleFunc("/admin/tables", h.handleTables)
	mux.HandleFunc("/menu/items", h.handleCreateMenuItem)
	mux.HandleFunc("/menu", h.handleListMenu)
	return mux
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (authmodels.User, bool) {
	token := httpx.TokenFromRequest(r)
	if token == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing session token")
		return authmodels.User{}, false
	}
	_, user, err := h.store.GetSession(r.Context(), token)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid session")
			return authmodels.User{}, false
		}
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return authmodels.User{}, false
	}
	return user, true
}

func (h *Handler) requireSupervisor(w http.ResponseWriter, r *http.Request) (authmodels.User, bool) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return authmodels.User{}, false
	}
	if user.ProfileCode != authmodels.ProfileSupervisor {
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "supervisor access required")
		return authmodels.User{}, false
	}
	return user, true
}

func (h *Handler) handleCreateStaff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := h.requireSupervisor(w, r); !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "expected multipart form data")
		return
	}

	input := store.CreateStaffInput{
		Name:         strings.TrimSpace(r.FormValue("name")),
		Email:        strings.TrimSpace(r.FormValue("email")),
		Password:     r.FormValue("password"),
		DNI:          strings.TrimSpace(r.FormValue("dni")),
		CUIL:         strings.TrimSpace(r.FormValue("cuil")),
		PositionCode: strings.TrimSpace(r.FormValue("position_code")),
	}
	switch {
	case input.Name == "":
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	case !emailPattern.MatchString(input.Email):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email is invalid")
		return
	case len(input.Password) < 6:
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "password must be at least 6 characters")
		return
	case input.DNI == "" || input.CUIL == "":
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "dni and cuil are required")
		return
	case !authmodels.ValidPosition(input.PositionCode):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "position_code must be kitchen, bar, host, or waiter")
		return
	}

	// Photo is optional for staff accounts.
	if files := r.MultipartForm.File["photo"]; len(files) > 0 {
		path, err := h.images.Save(files[0])
		if err != nil {
			if errors.Is(err, images.ErrUnsupportedType) {
				httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "photo must be a jpg, png, or webp image")
				return
			}
			httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
			return
		}
		input.PhotoPath = path
	}

	user, err := h.store.CreateStaff(r.Context(), input)
	if err != nil {
		if input.PhotoPath != "" {
			_ = h.images.Remove(input.PhotoPath)
		}
		if errors.Is(err, store.ErrEmailTaken) {
			httpx.WriteError(w, http.StatusConflict, "email_taken", "email already registered")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := h.requireSupervisor(w, r); !ok {
		return
	}

	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if users == nil {
		users = []authmodels.User{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (h *Handler) handleCreateMenuItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if !authmodels.IsStaff(user.ProfileCode) {
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "staff access required")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "expected multipart form data")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	category := strings.TrimSpace(r.FormValue("category"))
	price, priceErr := strconv.ParseInt(strings.TrimSpace(r.FormValue("price_cents")), 10, 64)
	switch {
	case name == "":
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	case category != "kitchen" && category != "bar":
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "category must be kitchen or bar")
		return
	case priceErr != nil || price < 0:
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "price_cents must be a non-negative integer")
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) != adminmodels.MenuItemImageCount {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "exactly 3 images are required")
		return
	}

	var saved []string
	for _, file := range files {
		path, err := h.images.Save(file)
		if err != nil {
			for _, p := range saved {
				_ = h.images.Remove(p)
			}
			if errors.Is(err, images.ErrUnsupportedType) {
				httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "images must be jpg, png, or webp")
				return
			}
			httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
			return
		}
		saved = append(saved, path)
	}

	item, err := h.store.CreateMenuItem(r.Context(), store.CreateMenuItemInput{
		Name:        name,
		Description: strings.TrimSpace(r.FormValue("description")),
		Price:       price,
		Category:    category,
		ImagePaths:  saved,
	})
	if err != nil {
		for _, p := range saved {
			_ = h.images.Remove(p)
		}
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) handleListMenu(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := h.authenticate(w, r); !ok {
		return
	}

	items, err := h.store.ListMenu(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if items == nil {
		items = []adminmodels.MenuItem{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *Handler) handleTables(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleListTables(w, r)
	case http.MethodPost:
		h.handleCreateTable(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleListTables(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authenticate(w, r); !ok {
		return
	}

	tables, err := h.store.ListTables(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if tables == nil {
		tables = []reservationmodels.Table{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"tables": tables})
}

func (h *Handler) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSupervisor(w, r); !ok {
		return
	}

	var req struct {
		Number   int    `json:"number"`
		Capacity int    `json:"capacity"`
		Type     string `json:"type"`
	}
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	req.Type = strings.TrimSpace(req.Type)
	if req.Type == "" {
		req.Type = reservationmodels.TableStandard
	}

	switch {
	case req.Number < 1:
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "number must be positive")
		return
	case req.Capacity < 1:
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "capacity must be positive")
		return
	case !reservationmodels.ValidTableType(req.Type):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "type must be standard, vip, or accessible")
		return
	}

	table, err := h.store.CreateTable(r.Context(), store.CreateTableInput{
		Number:   req.Number,
		Capacity: req.Capacity,
		Type:     req.Type,
	})
	if err != nil {
		if errors.Is(err, store.ErrTableNumberTaken) {
			httpx.WriteError(w, http.StatusConflict, "number_taken", "table number already in use")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, table)
}
