// Package api is the typed HTTP client for the Bella Tavola backend.
// Every method maps to one endpoint; errors carry the backend's error
// code so screens can branch without string matching.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	adminmodels "bellatavola/internal/admin/models"
	authmodels "bellatavola/internal/auth/models"
	"bellatavola/internal/client/session"
	deliverymodels "bellatavola/internal/delivery/models"
	reservationmodels "bellatavola/internal/reservation/models"
	reservationstore "bellatavola/internal/reservation/store"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TokenSource provides the current session tokens; satisfied by
// *session.Store.
type TokenSource interface {
	Tokens() (session.Tokens, error)
}

var _ TokenSource = (*session.Store)(nil)

// APIError is the backend's error envelope plus the HTTP status.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (http %d)", e.Code, e.Message, e.Status)
}

// Endpoints holds the base URL of each backend service.
type Endpoints struct {
	Auth        string
	Admin       string
	Reservation string
	Delivery    string
}

type Client struct {
	endpoints Endpoints
	http      *http.Client
	tokens    TokenSource
}

func NewClient(endpoints Endpoints, tokens TokenSource) *Client {
	return &Client{
		endpoints: endpoints,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   15 * time.Second,
		},
		tokens: tokens,
	}
}

// AuthResponse is the common login/register/refresh payload.
type AuthResponse struct {
	User         authmodels.User `json:"user"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresAt    string          `json:"expires_at"`
}

func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.doJSON(ctx, http.MethodPost, c.endpoints.Auth+"/auth/login",
		map[string]string{"email": email, "password": password}, &out, false)
	return out, err
}

func (c *Client) Register(ctx context.Context, name, email, password, dni, cuil string) (AuthResponse, error) {
	var out AuthResponse
	err := c.doJSON(ctx, http.MethodPost, c.endpoints.Auth+"/auth/register", map[string]string{
		"name": name, "email": email, "password": password, "dni": dni, "cuil": cuil,
	}, &out, false)
	return out, err
}

func (c *Client) RegisterAnonymous(ctx context.Context, name string) (AuthResponse, error) {
	var out AuthResponse
	err := c.doJSON(ctx, http.MethodPost, c.endpoints.Auth+"/auth/anonymous",
		map[string]string{"name": name}, &out, false)
	return out, err
}

// SocialInit starts a social login and returns the broker URL to open
// plus the state to hand back on callback.
func (c *Client) SocialInit(ctx context.Context, provider string) (state, authURL string, err error) {
	var out struct {
		State   string `json:"state"`
		AuthURL string `json:"auth_url"`
	}
	err = c.doJSON(ctx, http.MethodPost, c.endpoints.Auth+"/auth/social/init",
		map[string]string{"provider": provider}, &out, false)
	return out.State, out.AuthURL, err
}

// SocialCallbackResult is either a full session or a registration ticket
// when the identity has no account yet.
type SocialCallbackResult struct {
	AuthResponse
	RegistrationRequired bool   `json:"registration_required"`
	RegistrationToken    string `json:"registration_token"`
	Email                string `json:"email"`
	Name                 string `json:"name"`
}

func (c *Client) SocialCallback(ctx context.Context, state, code string) (SocialCallbackResult, error) {
	var out SocialCallbackResult
	err := c.doJSON(ctx, http.MethodPost, c.endpoints.Auth+"/auth/social/callback",
		map[string]string{"state": state, "code": code}, &out, false)
	return out, err
}

func (c *Client) CompleteSocialRegistration(ctx context.Context, registrationToken, name, dni, cuil string) (AuthResponse, error) {
	var out AuthResponse
	err := c.doJSON(ctx, http.MethodPost, c.endpoints.Auth+"/auth/social/complete-registration", map[string]string{
		"registration_token": registrationToken, "name": name, "dni": dni, "cuil": cuil,
	}, &out, false)
	return out, err
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (AuthResponse, error) {
	var out AuthResponse
	err := c.doJSON(ctx, http.MethodPost, c.endpoints.Auth+"/auth/refresh",
		map[string]string{"refresh_token": refreshToken}, &out, false)
	return out, err
}

func (c *Client) Me(ctx context.Context) (authmodels.User, error) {
	var out struct {
		User authmodels.User `json:"user"`
	}
	err := c.doJSON(ctx, http.MethodGet, c.endpoints.Auth+"/auth/me", nil, &out, true)
	return out.User, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, c.endpoints.Auth+"/auth/logout", nil, nil, true)
}

func (c *Client) CreateReservation(ctx context.Context, tableID, date, timeOfDay string, partySize int, notes string) (reservationmodels.Reservation, error) {
	var out reservationmodels.Reservation
	err := c.doJSON(ctx, http.MethodPost, c.endpoints.Reservation+"/reservations", map[string]interface{}{
		"table_id": tableID, "date": date, "time": timeOfDay, "party_size": partySize, "notes": notes,
	}, &out, true)
	return out, err
}

func (c *Client) MyReservations(ctx context.Context) ([]reservationmodels.Reservation, error) {
	var out struct {
		Reservations []reservationmodels.Reservation `json:"reservations"`
	}
	err := c.doJSON(ctx, http.MethodGet, c.endpoints.Reservation+"/reservations/my-reservations", nil, &out, true)
	return out.Reservations, err
}

func (c *Client) AllReservations(ctx context.Context, date string) ([]reservationmodels.Reservation, error) {
	endpoint := c.endpoints.Reservation + "/reservations/all"
	if date != "" {
		endpoint += "?date=" + url.QueryEscape(date)
	}
	var out struct {
		Reservations []reservationmodels.Reservation `json:"reservations"`
	}
	err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &out, true)
	return out.Reservations, err
}

func (c *Client) Availability(ctx context.Context, date, timeOfDay string, partySize int, tableType string) (reservationstore.AvailabilityResult, error) {
	query := url.Values{}
	query.Set("date", date)
	query.Set("time", timeOfDay)
	query.Set("party_size", strconv.Itoa(partySize))
	if tableType != "" {
		query.Set("table_type", tableType)
	}
	var out reservationstore.AvailabilityResult
	err := c.doJSON(ctx, http.MethodGet,
		c.endpoints.Reservation+"/reservations/availability?"+query.Encode(), nil, &out, true)
	return out, err
}

func (c *Client) UpdateReservationStatus(ctx context.Context, reservationID, action, reason string) (reservationmodels.Reservation, error) {
	var out reservationmodels.Reservation
	err := c.doJSON(ctx, http.MethodPut,
		c.endpoints.Reservation+"/reservations/"+url.PathEscape(reservationID)+"/status",
		map[string]string{"action": action, "reason": reason}, &out, true)
	return out, err
}

func (c *Client) CancelReservation(ctx context.Context, reservationID string) (reservationmodels.Reservation, error) {
	var out reservationmodels.Reservation
	err := c.doJSON(ctx, http.MethodPut,
		c.endpoints.Reservation+"/reservations/"+url.PathEscape(reservationID)+"/cancel", nil, &out, true)
	return out, err
}

type OrderItemInput struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price_cents"`
	Category string `json:"category"`
}

func (c *Client) CreateDelivery(ctx context.Context, address string, items []OrderItemInput) (deliverymodels.Order, error) {
	var out deliverymodels.Order
	err := c.doJSON(ctx, http.MethodPost, c.endpoints.Delivery+"/deliveries",
		map[string]interface{}{"address": address, "items": items}, &out, true)
	return out, err
}

func (c *Client) PendingDeliveries(ctx context.Context) ([]deliverymodels.Order, error) {
	return c.listDeliveries(ctx, "/deliveries/pending")
}

func (c *Client) ConfirmedDeliveries(ctx context.Context) ([]deliverymodels.Order, error) {
	return c.listDeliveries(ctx, "/deliveries/confirmed")
}

func (c *Client) listDeliveries(ctx context.Context, path string) ([]deliverymodels.Order, error) {
	var out struct {
		Orders []deliverymodels.Order `json:"orders"`
	}
	err := c.doJSON(ctx, http.MethodGet, c.endpoints.Delivery+path, nil, &out, true)
	return out.Orders, err
}

// UpdateDeliveryStatus advances the whole order when itemID is empty, or
// one item when it is set.
func (c *Client) UpdateDeliveryStatus(ctx context.Context, orderID, itemID, action string) (deliverymodels.Order, error) {
	var out deliverymodels.Order
	err := c.doJSON(ctx, http.MethodPut,
		c.endpoints.Delivery+"/deliveries/"+url.PathEscape(orderID)+"/status",
		map[string]string{"action": action, "item_id": itemID}, &out, true)
	return out, err
}

func (c *Client) CancelDelivery(ctx context.Context, orderID string) (deliverymodels.Order, error) {
	var out deliverymodels.Order
	err := c.doJSON(ctx, http.MethodPut,
		c.endpoints.Delivery+"/deliveries/"+url.PathEscape(orderID)+"/cancel", nil, &out, true)
	return out, err
}

func (c *Client) ConfirmPayment(ctx context.Context, orderID string) (deliverymodels.Order, error) {
	var out deliverymodels.Order
	err := c.doJSON(ctx, http.MethodPost,
		c.endpoints.Delivery+"/deliveries/"+url.PathEscape(orderID)+"/payment", nil, &out, true)
	return out, err
}

// CreateStaff sends the multipart staff form. photoPath may be empty.
func (c *Client) CreateStaff(ctx context.Context, fields map[string]string, photoPath string) (authmodels.User, error) {
	files := map[string][]string{}
	if photoPath != "" {
		files["photo"] = []string{photoPath}
	}
	var out authmodels.User
	err := c.doMultipart(ctx, c.endpoints.Admin+"/admin/users/staff", fields, files, &out)
	return out, err
}

// CreateMenuItem sends the multipart menu form with its three photos.
func (c *Client) CreateMenuItem(ctx context.Context, fields map[string]string, imagePaths []string) (adminmodels.MenuItem, error) {
	var out adminmodels.MenuItem
	err := c.doMultipart(ctx, c.endpoints.Admin+"/menu/items", fields,
		map[string][]string{"images": imagePaths}, &out)
	return out, err
}

func (c *Client) Menu(ctx context.Context) ([]adminmodels.MenuItem, error) {
	var out struct {
		Items []adminmodels.MenuItem `json:"items"`
	}
	err := c.doJSON(ctx, http.MethodGet, c.endpoints.Admin+"/menu", nil, &out, true)
	return out.Items, err
}

func (c *Client) Tables(ctx context.Context) ([]reservationmodels.Table, error) {
	var out struct {
		Tables []reservationmodels.Table `json:"tables"`
	}
	err := c.doJSON(ctx, http.MethodGet, c.endpoints.Admin+"/admin/tables", nil, &out, true)
	return out.Tables, err
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, body, out interface{}, authed bool) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		if err := c.authorize(req); err != nil {
			return err
		}
	}
	return c.send(req, out)
}

func (c *Client) doMultipart(ctx context.Context, endpoint string, fields map[string]string, files map[string][]string, out interface{}) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return err
		}
	}
	for field, paths := range files {
		for _, path := range paths {
			if err := attachFile(writer, field, path); err != nil {
				return err
			}
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := c.authorize(req); err != nil {
		return err
	}
	return c.send(req, out)
}

func attachFile(writer *multipart.Writer, field, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	part, err := writer.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

func (c *Client) authorize(req *http.Request) error {
	tokens, err := c.tokens.Tokens()
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	return nil
}

func (c *Client) send(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	apiErr := &APIError{Status: resp.StatusCode, Code: "unknown_error"}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error.Code != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
