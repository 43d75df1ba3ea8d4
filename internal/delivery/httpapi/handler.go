package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	authmodels "bellatavola/internal/auth/models"
	"bellatavola/internal/delivery/models"
	"bellatavola/internal/delivery/stations"
	"bellatavola/internal/delivery/store"
	"bellatavola/internal/httpx"
)

type Handler struct {
	store     store.Store
	publisher stations.Publisher
}

func NewHandler(store store.Store, publisher stations.Publisher) *Handler {
	return &Handler{store: store, publisher: publisher}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpx.HealthHandler)
	mux.HandleFunc("/deliveries", h.handleCreate)
	mux.HandleFunc("/deliveries/pending", h.handlePending)
	mux.HandleFunc("/deliveries/confirmed", h.handleConfirmed)
	mux.HandleFunc("/deliveries/", h.handleOrderActions)
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
		Address string `json:"address"`
		Items   []struct {
			Name     string `json:"name"`
			Quantity int    `json:"quantity"`
			Price    int64  `json:"price_cents"`
			Category string `json:"category"`
		} `json:"items"`
	}
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "at least one item is required")
		return
	}

	input := store.CreateInput{UserID: user.UserID, Address: strings.TrimSpace(req.Address)}
	for _, item := range req.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" || item.Quantity < 1 || item.Price < 0 {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "items need a name, positive quantity, and non-negative price")
			return
		}
		input.Items = append(input.Items, store.CreateItemInput{
			Name:     name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Category: strings.TrimSpace(item.Category),
		})
	}

	order, err := h.store.CreateOrder(r.Context(), input)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, order)
}

func (h *Handler) handlePending(w http.ResponseWriter, r *http.Request) {
	h.handleList(w, r, h.store.ListPending)
}

func (h *Handler) handleConfirmed(w http.ResponseWriter, r *http.Request) {
	h.handleList(w, r, h.store.ListConfirmed)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request, list func(ctx context.Context) ([]models.Order, error)) {
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

	orders, err := list(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

func (h *Handler) handleOrderActions(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/deliveries/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	orderID := parts[0]

	switch parts[1] {
	case "status":
		h.handleUpdateStatus(w, r, orderID)
	case "cancel":
		h.handleCancel(w, r, orderID)
	case "payment":
		h.handleConfirmPayment(w, r, orderID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request, orderID string) {
	if r.Method != http.MethodPut {
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

	var req struct {
		Action string `json:"action"`
		ItemID string `json:"item_id"`
	}
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	req.Action = strings.TrimSpace(req.Action)
	req.ItemID = strings.TrimSpace(req.ItemID)
	if req.Action == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "action is required")
		return
	}

	var order models.Order
	var err error
	if req.ItemID != "" {
		order, err = h.store.UpdateItemStatus(r.Context(), orderID, req.ItemID, req.Action)
	} else {
		order, err = h.store.UpdateOrderStatus(r.Context(), orderID, req.Action)
	}
	if err != nil {
		switch {
		case errors.Is(err, store.ErrOrderNotFound):
			httpx.WriteError(w, http.StatusNotFound, "not_found", "order not found")
		case errors.Is(err, store.ErrItemNotFound):
			httpx.WriteError(w, http.StatusNotFound, "not_found", "order item not found")
		case errors.Is(err, store.ErrInvalidTransition):
			httpx.WriteError(w, http.StatusConflict, "invalid_transition", "order cannot change to that status")
		case errors.Is(err, store.ErrItemsNotReady):
			httpx.WriteError(w, http.StatusConflict, "items_not_ready", "all items must be ready first")
		default:
			httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		}
		return
	}
	httpx.WriteJSON(w, http.StatusOK, order)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request, orderID string) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	order, err := h.store.Cancel(r.Context(), orderID, user.UserID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrOrderNotFound):
			httpx.WriteError(w, http.StatusNotFound, "not_found", "order not found")
		case errors.Is(err, store.ErrInvalidTransition):
			httpx.WriteError(w, http.StatusConflict, "invalid_transition", "order can no longer be cancelled")
		default:
			httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		}
		return
	}
	httpx.WriteJSON(w, http.StatusOK, order)
}

func (h *Handler) handleConfirmPayment(w http.ResponseWriter, r *http.Request, orderID string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := h.authenticate(w, r); !ok {
		return
	}

	order, err := h.store.ConfirmPayment(r.Context(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrOrderNotFound):
			httpx.WriteError(w, http.StatusNotFound, "not_found", "order not found")
		case errors.Is(err, store.ErrInvalidTransition):
			httpx.WriteError(w, http.StatusConflict, "invalid_transition", "order is not awaiting payment")
		default:
			httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		}
		return
	}

	// The payment is committed; a station publish failure must not undo it.
	if err := stations.Dispatch(r.Context(), h.publisher, order); err != nil {
		log.Printf("delivery: station dispatch for order %s failed: %v", order.OrderID, err)
	}
	httpx.WriteJSON(w, http.StatusOK, order)
}
