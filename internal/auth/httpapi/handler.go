package httpapi

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"bellatavola/internal/auth/broker"
	"bellatavola/internal/auth/models"
	"bellatavola/internal/auth/store"
	"bellatavola/internal/httpx"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Handler struct {
	store  store.Store
	broker broker.Broker
}

func NewHandler(store store.Store, broker broker.Broker) *Handler {
	return &Handler{store: store, broker: broker}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpx.HealthHandler)
	mux.HandleFunc("/auth/login", h.handleLogin)
	mux.HandleFunc("/auth/register", h.handleRegister)
	mux.HandleFunc("/auth/anonymous", h.handleAnonymous)
	mux.HandleFunc("/auth/social/init", h.handleSocialInit)
	mux.HandleFunc("/auth/social/callback", h.handleSocialCallback)
	mux.HandleFunc("/auth/social/complete-registration", h.handleCompleteRegistration)
	mux.HandleFunc("/auth/refresh", h.handleRefresh)
	mux.HandleFunc("/auth/me", h.handleMe)
	mux.HandleFunc("/auth/logout", h.handleLogout)
	return mux
}

type authResponse struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    string      `json:"expires_at"`
}

func newAuthResponse(result store.AuthResult) authResponse {
	return authResponse{
		User:         result.User,
		AccessToken:  result.Session.AccessToken,
		RefreshToken: result.Session.RefreshToken,
		ExpiresAt:    result.Session.ExpiresAt.Format(time.RFC3339),
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	result, err := h.store.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newAuthResponse(result))
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		DNI      string `json:"dni"`
		CUIL     string `json:"cuil"`
	}
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.DNI = strings.TrimSpace(req.DNI)
	req.CUIL = strings.TrimSpace(req.CUIL)

	switch {
	case req.Name == "":
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	case !emailPattern.MatchString(req.Email):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email is invalid")
		return
	case len(req.Password) < 6:
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "password must be at least 6 characters")
		return
	case req.DNI == "" || req.CUIL == "":
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "dni and cuil are required")
		return
	}

	result, err := h.store.Register(r.Context(), store.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		DNI:      req.DNI,
		CUIL:     req.CUIL,
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			httpx.WriteError(w, http.StatusConflict, "email_taken", "email already registered")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, newAuthResponse(result))
}

func (h *Handler) handleAnonymous(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	result, err := h.store.RegisterAnonymous(r.Context(), req.Name)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, newAuthResponse(result))
}

func (h *Handler) handleSocialInit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Provider string `json:"provider"`
	}
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	req.Provider = strings.TrimSpace(req.Provider)
	if req.Provider == "" {
		req.Provider = "google"
	}

	state, err := h.store.CreateSocialState(r.Context(), req.Provider)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"state":    state,
		"auth_url": h.broker.AuthURL(req.Provider, state),
	})
}

func (h *Handler) handleSocialCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		State string `json:"state"`
		Code  string `json:"code"`
	}
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	req.State = strings.TrimSpace(req.State)
	req.Code = strings.TrimSpace(req.Code)
	if req.State == "" || req.Code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "state and code are required")
		return
	}

	provider, err := h.store.ConsumeSocialState(r.Context(), req.State)
	if err != nil {
		if errors.Is(err, store.ErrStateNotFound) {
			httpx.WriteError(w, http.StatusBadRequest, "state_expired", "social login state not found or expired")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	identity, err := h.broker.Exchange(r.Context(), provider, req.Code)
	if err != nil {
		if errors.Is(err, broker.ErrExchangeRejected) {
			httpx.WriteError(w, http.StatusUnauthorized, "code_rejected", "authorization code rejected")
			return
		}
		httpx.WriteError(w, http.StatusBadGateway, "broker_error", "identity broker unavailable")
		return
	}

	result, found, err := h.store.SocialLogin(r.Context(), identity.Provider, identity.Subject)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if found {
		httpx.WriteJSON(w, http.StatusOK, newAuthResponse(result))
		return
	}

	// First social login: the account needs document data before it exists.
	ticket, err := h.store.CreateRegistrationTicket(r.Context(), identity.Provider, identity.Subject, identity.Email, identity.Name)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"registration_required": true,
		"registration_token":    ticket,
		"email":                 identity.Email,
		"name":                  identity.Name,
	})
}

func (h *Handler) handleCompleteRegistration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		RegistrationToken string `json:"registration_token"`
		Name              string `json:"name"`
		DNI               string `json:"dni"`
		CUIL              string `json:"cuil"`
	}
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	req.RegistrationToken = strings.TrimSpace(req.RegistrationToken)
	req.DNI = strings.TrimSpace(req.DNI)
	req.CUIL = strings.TrimSpace(req.CUIL)

	if req.RegistrationToken == "" || req.DNI == "" || req.CUIL == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "registration_token, dni, and cuil are required")
		return
	}

	result, err := h.store.CompleteSocialRegistration(r.Context(), store.CompleteRegistrationInput{
		RegistrationToken: req.RegistrationToken,
		Name:              strings.TrimSpace(req.Name),
		DNI:               req.DNI,
		CUIL:              req.CUIL,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrTicketNotFound):
			httpx.WriteError(w, http.StatusBadRequest, "ticket_expired", "registration ticket not found or expired")
		case errors.Is(err, store.ErrEmailTaken):
			httpx.WriteError(w, http.StatusConflict, "email_taken", "email already registered")
		default:
			httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		}
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, newAuthResponse(result))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		return
	}

	result, err := h.store.Refresh(r.Context(), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "refresh token invalid or expired")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newAuthResponse(result))
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	token := httpx.TokenFromRequest(r)
	if token == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing session token")
		return
	}

	session, user, err := h.store.GetSession(r.Context(), token)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid session")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user":       user,
		"expires_at": session.ExpiresAt.Format(time.RFC3339),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	token := httpx.TokenFromRequest(r)
	if token == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing session token")
		return
	}
	if err := h.store.Logout(r.Context(), token); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
