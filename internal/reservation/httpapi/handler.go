package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	authmodels "bellatavola/internal/auth/models"
	"bellatavola/internal/httpx"
	"bellatavola/internal/reservation/hours"
	"bellatavola/internal/reservation/models"
	"bellatavola/internal/reservation/store"
)

type Handler struct {
	store store.Store
}

func NewHandler(store store.Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpx.HealthHandler)
	mux.HandleFunc("/reservations", h.handleCreate)
	mux.HandleFunc("/reservations/my-reservations", h.handleMyReservations)
	mux.HandleFunc("/reservations/all", h.handleAllReservations)
	mux.HandleFunc("/reservations/availability", h.handleAvailability)
	mux.HandleFunc("/reservations/", h.handleReservationActions)
	return mux
}

// authenticate resolves the request's session. On failure it writes the
// error response and returns false.
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

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req struct {
		TableID   string `json:"table_id"`
		Date      string `json:"date"`
		Time      string `json:"time"`
		PartySize int    `json:"party_size"`
		Notes     string `json:"notes"`
	}
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	req.TableID = strings.TrimSpace(req.TableID)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)

	switch {
	case req.TableID == "" || req.Date == "":
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "table_id and date are required")
		return
	case req.PartySize < 1:
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "party_size must be at least 1")
		return
	}
	if !hours.InOperatingWindow(req.Time) {
		httpx.WriteError(w, http.StatusBadRequest, "outside_hours", "time must fall within opening hours")
		return
	}

	reservation, err := h.store.CreateReservation(r.Context(), store.CreateInput{
		UserID:    user.UserID,
		TableID:   req.TableID,
		Date:      req.Date,
		Time:      req.Time,
		PartySize: req.PartySize,
		Notes:     strings.TrimSpace(req.Notes),
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrTableNotFound):
			httpx.WriteError(w, http.StatusNotFound, "table_not_found", "table not found")
		case errors.Is(err, store.ErrTableTaken):
			httpx.WriteError(w, http.StatusConflict, "table_taken", "table already reserved around that time")
		default:
			httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		}
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, reservation)
}

func (h *Handler) handleMyReservations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	reservations, err := h.store.ListByUser(r.Context(), user.UserID)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if reservations == nil {
		reservations = []models.Reservation{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"reservations": reservations})
}

func (h *Handler) handleAllReservations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
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

	reservations, err := h.store.ListAll(r.Context(), strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if reservations == nil {
		reservations = []models.Reservation{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"reservations": reservations})
}

func (h *Handler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := h.authenticate(w, r); !ok {
		return
	}

	query := r.URL.Query()
	date := strings.TrimSpace(query.Get("date"))
	at := strings.TrimSpace(query.Get("time"))
	partySize := parsePositiveInt(query.Get("party_size"))

	if date == "" || partySize < 1 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "date and party_size are required")
		return
	}
	if !hours.InOperatingWindow(at) {
		httpx.WriteError(w, http.StatusBadRequest, "outside_hours", "time must fall within opening hours")
		return
	}

	result, err := h.store.Availability(r.Context(), store.AvailabilityQuery{
		Date:      date,
		Time:      at,
		PartySize: partySize,
		TableType: strings.TrimSpace(query.Get("table_type")),
	})
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if result.Tables == nil {
		result.Tables = []models.Table{}
	}
	if result.Suggestions == nil {
		result.Suggestions = []string{}
	}
	httpx.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleReservationActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/reservations/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	reservationID := parts[0]

	switch parts[1] {
	case "status":
		h.handleUpdateStatus(w, r, reservationID)
	case "cancel":
		h.handleCancel(w, r, reservationID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request, reservationID string) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if !authmodels.IsStaff(user.ProfileCode) {
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "staff access required")
		return
	}

	var req struct {
		Action string `json:"action"`
		Reason string `json:"reason"`
	}
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	req.Action = strings.TrimSpace(req.Action)
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Action != "approve" && req.Action != "reject" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "action must be approve or reject")
		return
	}
	if req.Action == "reject" && req.Reason == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "reason is required to reject")
		return
	}

	reservation, err := h.store.UpdateStatus(r.Context(), reservationID, req.Action, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrReservationNotFound):
			httpx.WriteError(w, http.StatusNotFound, "not_found", "reservation not found")
		case errors.Is(err, store.ErrInvalidTransition):
			httpx.WriteError(w, http.StatusConflict, "invalid_transition", "reservation cannot change to that status")
		default:
			httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		}
		return
	}
	httpx.WriteJSON(w, http.StatusOK, reservation)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request, reservationID string) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	reservation, err := h.store.Cancel(r.Context(), reservationID, user.UserID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrReservationNotFound):
			httpx.WriteError(w, http.StatusNotFound, "not_found", "reservation not found")
		case errors.Is(err, store.ErrInvalidTransition):
			httpx.WriteError(w, http.StatusConflict, "invalid_transition", "reservation can no longer be cancelled")
		case errors.Is(err, store.ErrCancelWindowClosed):
			httpx.WriteError(w, http.StatusConflict, "cancel_window_closed", "reservations can only be cancelled more than two hours in advance")
		default:
			httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		}
		return
	}
	httpx.WriteJSON(w, http.StatusOK, reservation)
}

func parsePositiveInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0
	}
	return n
}
