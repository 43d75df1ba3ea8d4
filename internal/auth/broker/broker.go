// Package broker talks to the external identity broker that fronts the
// social providers (Google). The broker owns the OAuth dance; this client
// only builds the redirect URL and exchanges authorization codes.
package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Identity struct {
	Provider string `json:"provider"`
	Subject  string `json:"subject"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

type Broker interface {
	AuthURL(provider, state string) string
	Exchange(ctx context.Context, provider, code string) (Identity, error)
}

var ErrExchangeRejected = errors.New("broker rejected the authorization code")

type HTTPBroker struct {
	baseURL string
	client  *http.Client
}

func NewHTTPBroker(baseURL string) *HTTPBroker {
	return &HTTPBroker{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (b *HTTPBroker) AuthURL(provider, state string) string {
	query := url.Values{}
	query.Set("provider", provider)
	query.Set("state", state)
	return b.baseURL + "/authorize?" + query.Encode()
}

func (b *HTTPBroker) Exchange(ctx context.Context, provider, code string) (Identity, error) {
	payload, err := json.Marshal(map[string]string{"provider": provider, "code": code})
	if err != nil {
		return Identity{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/token", bytes.NewReader(payload))
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return Identity{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		return Identity{}, ErrExchangeRejected
	}
	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("broker exchange: unexpected status %d", resp.StatusCode)
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return Identity{}, err
	}
	if identity.Subject == "" {
		return Identity{}, fmt.Errorf("broker exchange: missing subject")
	}
	identity.Provider = provider
	return identity, nil
}
