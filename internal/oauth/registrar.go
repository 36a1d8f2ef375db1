package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"

	pkgoauth "canvamcp/pkg/oauth"
)

// ClientIdentity is the static metadata sent with every registration so the
// authorization server can recognise repeat registrations from this software.
type ClientIdentity struct {
	ClientName      string
	ClientURI       string
	SoftwareID      string
	SoftwareVersion string
}

// DefaultClientIdentity describes this program.
var DefaultClientIdentity = ClientIdentity{
	ClientName:      "canvamcp",
	ClientURI:       "https://github.com/canvamcp/canvamcp",
	SoftwareID:      "canvamcp-oauth-client",
	SoftwareVersion: "1.0.0",
}

// Registrar performs RFC 7591 dynamic client registration and caches the result.
type Registrar struct {
	httpClient *http.Client
	cache      *RegistrationCache
	identity   ClientIdentity
	scope      string
	logger     *slog.Logger

	group singleflight.Group
}

// RegistrarConfig configures a Registrar.
type RegistrarConfig struct {
	// HTTPClient performs the registration request. Defaults to a client
	// with pkgoauth.DefaultHTTPTimeout.
	HTTPClient *http.Client

	// Cache stores successful registrations. Defaults to a cache that never expires.
	Cache *RegistrationCache

	// Identity is sent as client metadata. Defaults to DefaultClientIdentity.
	Identity *ClientIdentity

	// Scopes are requested for the registered client (optional).
	Scopes []string

	Logger *slog.Logger
}

// NewRegistrar creates a Registrar.
func NewRegistrar(cfg RegistrarConfig) *Registrar {
	r := &Registrar{
		httpClient: cfg.HTTPClient,
		cache:      cfg.Cache,
		identity:   DefaultClientIdentity,
		scope:      strings.Join(cfg.Scopes, " "),
		logger:     cfg.Logger,
	}
	if r.httpClient == nil {
		r.httpClient = &http.Client{Timeout: pkgoauth.DefaultHTTPTimeout}
	}
	if r.cache == nil {
		r.cache = NewRegistrationCache(0)
	}
	if cfg.Identity != nil {
		r.identity = *cfg.Identity
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Cache returns the registration cache used by the registrar.
func (r *Registrar) Cache() *RegistrationCache {
	return r.cache
}

// Lookup returns a cached registration without touching the network.
func (r *Registrar) Lookup(key RegistrationKey) (*pkgoauth.RegisteredClient, bool) {
	return r.cache.Get(key)
}

// Register returns the client registered for key, registering a new public
// client at registrationEndpoint on a cache miss. An empty endpoint means
// {ServerURL}/register.
func (r *Registrar) Register(ctx context.Context, key RegistrationKey, registrationEndpoint string) (*pkgoauth.RegisteredClient, error) {
	if client, ok := r.cache.Get(key); ok {
		r.logger.Debug("Using cached client registration",
			"server_url", key.ServerURL,
			"callback_url", key.CallbackURL,
			"client_id", client.ClientID)
		return client, nil
	}

	if registrationEndpoint == "" {
		registrationEndpoint = strings.TrimSuffix(key.ServerURL, "/") + "/register"
	}

	result, err, _ := r.group.Do(key.String(), func() (interface{}, error) {
		if client, ok := r.cache.Get(key); ok {
			return client, nil
		}

		client, err := r.doRegister(ctx, registrationEndpoint, key.CallbackURL)
		if err != nil {
			return nil, err
		}

		r.cache.Set(key, client)
		r.logger.Info("Registered OAuth client",
			"server_url", key.ServerURL,
			"callback_url", key.CallbackURL,
			"client_id", client.ClientID,
			"public", client.IsPublic(),
			"cached_registrations", r.cache.Len())
		return client, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*pkgoauth.RegisteredClient), nil
}

func (r *Registrar) doRegister(ctx context.Context, endpoint, callbackURL string) (*pkgoauth.RegisteredClient, error) {
	metadata := pkgoauth.ClientMetadata{
		ClientName:              r.identity.ClientName,
		ClientURI:               r.identity.ClientURI,
		RedirectURIs:            []string{callbackURL},
		GrantTypes:              []string{pkgoauth.GrantTypeAuthorizationCode, pkgoauth.GrantTypeRefreshToken},
		ResponseTypes:           []string{"code"},
		TokenEndpointAuthMethod: pkgoauth.TokenEndpointAuthMethodNone,
		Scope:                   r.scope,
		SoftwareID:              r.identity.SoftwareID,
		SoftwareVersion:         r.identity.SoftwareVersion,
	}

	payload, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode registration request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &RegistrationError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, &RegistrationError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RegistrationError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.logger.Debug("Client registration failed",
			"endpoint", endpoint,
			"status", resp.StatusCode)
		return nil, &RegistrationError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: truncateBody(body)}
	}

	var client pkgoauth.RegisteredClient
	if err := json.Unmarshal(body, &client); err != nil {
		return nil, &RegistrationError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: truncateBody(body), Err: fmt.Errorf("failed to parse registration response: %w", err)}
	}
	if client.ClientID == "" {
		return nil, &RegistrationError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: truncateBody(body), Err: fmt.Errorf("registration response is missing client_id")}
	}

	if len(client.RedirectURIs) == 0 {
		client.RedirectURIs = []string{callbackURL}
	}
	if client.TokenEndpointAuthMethod == "" {
		client.TokenEndpointAuthMethod = metadata.TokenEndpointAuthMethod
	}
	if len(client.GrantTypes) == 0 {
		client.GrantTypes = metadata.GrantTypes
	}

	return &client, nil
}
