package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	pkgoauth "canvamcp/pkg/oauth"
)

// Default endpoint paths relative to the server URL, used when neither
// configuration nor discovery provides one.
const (
	DefaultAuthorizationPath = "/authorize"
	DefaultTokenPath         = "/token"
	DefaultRegistrationPath  = "/register"
)

// AllInterfacesHost is the public mode bind address when BindHost is unset.
const AllInterfacesHost = "0.0.0.0"

// AuthenticatorConfig configures an Authenticator.
type AuthenticatorConfig struct {
	// ServerURL is the base URL of the authorization server. Required.
	ServerURL string

	// Explicit endpoint URLs. Empty values are filled from discovery (when
	// enabled) and then from the Default*Path constants.
	AuthorizationEndpoint string
	TokenEndpoint         string
	RegistrationEndpoint  string

	// Discovery enables RFC 8414 metadata discovery.
	Discovery bool

	// ClientID and ClientSecret are static credentials. When ClientID is set,
	// dynamic client registration is skipped.
	ClientID     string
	ClientSecret string

	// Scopes requested during authorization and registration.
	Scopes []string

	// CallbackPort is the loopback listener port; 0 picks an ephemeral port.
	CallbackPort int

	// BindHost is the listener interface. In loopback mode it defaults to
	// 127.0.0.1 and must be a loopback address; with a PublicCallbackURL it
	// defaults to AllInterfacesHost.
	BindHost string

	// CallbackPath is the loopback redirect path. Defaults to DefaultCallbackPath.
	CallbackPath string

	// PublicCallbackURL switches to public mode: it is used verbatim as the
	// redirect URI and the listener binds its port and path.
	PublicCallbackURL string

	// OpenBrowser launches the authorization URL with Launcher.
	OpenBrowser bool

	// Timeout bounds each attempt. Defaults to CallbackTimeout.
	Timeout time.Duration

	HTTPClient        *http.Client
	RegistrationCache *RegistrationCache
	Launcher          BrowserLauncher
	Exchanger         *TokenExchanger
	Logger            *slog.Logger
	Clock             func() time.Time
}

// Endpoints are the resolved OAuth endpoint URLs for a server.
type Endpoints struct {
	Authorization string
	Token         string
	Registration  string
}

// RefreshRequest identifies the token and the client to refresh it with.
type RefreshRequest struct {
	RefreshToken string

	// ClientID and ClientSecret identify the client that obtained the token.
	// They are used when no static client is configured.
	ClientID     string
	ClientSecret string

	// Registration selects a cached dynamic registration when ClientID is empty.
	Registration *RegistrationKey
}

// Authenticator runs the authorization code flow with PKCE and refreshes tokens.
type Authenticator struct {
	cfg       AuthenticatorConfig
	serverURL string
	registrar *Registrar
	exchanger *TokenExchanger
	discovery *pkgoauth.Client
	launcher  BrowserLauncher
	logger    *slog.Logger
	now       func() time.Time

	// public is the parsed PublicCallbackURL, nil in loopback mode.
	public *url.URL
}

// NewAuthenticator validates cfg and creates an Authenticator.
func NewAuthenticator(cfg AuthenticatorConfig) (*Authenticator, error) {
	serverURL, err := url.Parse(cfg.ServerURL)
	if err != nil || (serverURL.Scheme != "http" && serverURL.Scheme != "https") || serverURL.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", cfg.ServerURL)
	}
	if cfg.CallbackPort < 0 || cfg.CallbackPort > 65535 {
		return nil, fmt.Errorf("invalid callback port %d", cfg.CallbackPort)
	}

	a := &Authenticator{
		cfg:       cfg,
		serverURL: pkgoauth.NormalizeServerURL(cfg.ServerURL),
		launcher:  cfg.Launcher,
		logger:    cfg.Logger,
		now:       cfg.Clock,
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.launcher == nil {
		a.launcher = DefaultBrowserLauncher
	}
	if a.cfg.CallbackPath == "" {
		a.cfg.CallbackPath = DefaultCallbackPath
	}
	if a.cfg.Timeout <= 0 {
		a.cfg.Timeout = CallbackTimeout
	}

	if cfg.PublicCallbackURL != "" {
		public, err := url.Parse(cfg.PublicCallbackURL)
		if err != nil || (public.Scheme != "http" && public.Scheme != "https") || public.Host == "" {
			return nil, fmt.Errorf("invalid public callback URL %q", cfg.PublicCallbackURL)
		}
		a.public = public
		if a.cfg.BindHost == "" {
			a.cfg.BindHost = AllInterfacesHost
		}
	} else {
		if a.cfg.BindHost == "" {
			a.cfg.BindHost = DefaultLoopbackHost
		}
		if !IsLoopbackHost(a.cfg.BindHost) {
			return nil, fmt.Errorf("bind host %q is not a loopback address; set a public callback URL to listen on other interfaces", a.cfg.BindHost)
		}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: pkgoauth.DefaultHTTPTimeout}
	}

	a.exchanger = cfg.Exchanger
	if a.exchanger == nil {
		a.exchanger = NewTokenExchanger(
			WithExchangerHTTPClient(httpClient),
			WithClock(a.now),
			WithExchangerLogger(a.logger),
		)
	}
	a.registrar = NewRegistrar(RegistrarConfig{
		HTTPClient: httpClient,
		Cache:      cfg.RegistrationCache,
		Scopes:     cfg.Scopes,
		Logger:     a.logger,
	})
	if cfg.Discovery {
		a.discovery = pkgoauth.NewClient(
			pkgoauth.WithHTTPClient(httpClient),
			pkgoauth.WithLogger(a.logger),
		)
	}

	return a, nil
}

// IsLoopbackHost reports whether host names the local machine only.
func IsLoopbackHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// loopbackRedirectHost is the host advertised in a loopback redirect URI.
// IPv6 loopback listeners are advertised by address.
func loopbackRedirectHost(bindHost string) string {
	if ip := net.ParseIP(bindHost); ip != nil && ip.To4() == nil {
		return bindHost
	}
	return "localhost"
}

// RegistrationCache returns the cache holding dynamic registrations.
func (a *Authenticator) RegistrationCache() *RegistrationCache {
	return a.registrar.Cache()
}

// ServerURL returns the normalized server URL used for endpoints and cache keys.
func (a *Authenticator) ServerURL() string {
	return a.serverURL
}

// ResolveEndpoints returns the endpoints for the configured server. Explicit
// configuration wins over discovered metadata, which wins over the defaults.
// A failed discovery is logged and the defaults are used.
func (a *Authenticator) ResolveEndpoints(ctx context.Context) Endpoints {
	ep := Endpoints{
		Authorization: a.cfg.AuthorizationEndpoint,
		Token:         a.cfg.TokenEndpoint,
		Registration:  a.cfg.RegistrationEndpoint,
	}

	if a.discovery != nil && (ep.Authorization == "" || ep.Token == "" || ep.Registration == "") {
		metadata, err := a.discovery.DiscoverMetadata(ctx, a.serverURL)
		if err != nil {
			a.logger.Warn("OAuth metadata discovery failed, using default endpoints",
				"server_url", a.serverURL,
				"error", err.Error())
		} else {
			if !metadata.SupportsPKCE() {
				a.logger.Warn("Authorization server does not advertise S256 PKCE support",
					"server_url", a.serverURL)
			}
			ep.Authorization = firstNonEmpty(ep.Authorization, metadata.AuthorizationEndpoint)
			ep.Token = firstNonEmpty(ep.Token, metadata.TokenEndpoint)
			ep.Registration = firstNonEmpty(ep.Registration, metadata.RegistrationEndpoint)
		}
	}

	ep.Authorization = firstNonEmpty(ep.Authorization, a.serverURL+DefaultAuthorizationPath)
	ep.Token = firstNonEmpty(ep.Token, a.serverURL+DefaultTokenPath)
	ep.Registration = firstNonEmpty(ep.Registration, a.serverURL+DefaultRegistrationPath)
	return ep
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Attempt is one pending authorization: a bound listener waiting for the
// redirect that carries its state.
type Attempt struct {
	// ID correlates log records of this attempt.
	ID string

	// AuthURL is the URL the user must open.
	AuthURL string

	// RedirectURI is the callback URL sent to the authorization server.
	RedirectURI string

	// Client is the OAuth client used for this attempt.
	Client ClientCredentials

	// Registration is set when Client came from dynamic registration.
	Registration *RegistrationKey

	StartedAt time.Time

	listener *CallbackServer
}

// Wait blocks until the redirect has been handled, the attempt timed out or
// ctx is cancelled.
func (at *Attempt) Wait(ctx context.Context) (*pkgoauth.TokenBundle, error) {
	return at.listener.Wait(ctx)
}

// Done is closed when the attempt has finished.
func (at *Attempt) Done() <-chan struct{} {
	return at.listener.Done()
}

// Port returns the port the callback listener is bound to.
func (at *Attempt) Port() int {
	return at.listener.Port()
}

// Cancel aborts the attempt and closes its listener.
func (at *Attempt) Cancel() {
	at.listener.Stop()
}

type exchangeTarget struct {
	client      ClientCredentials
	redirectURI string
}

// Begin starts an authorization attempt: it binds the callback listener,
// obtains a client, and returns the authorization URL. The browser is opened
// when configured; a launch failure is only logged.
func (a *Authenticator) Begin(ctx context.Context) (*Attempt, error) {
	attemptID := uuid.New().String()
	logger := a.logger.With("attempt_id", attemptID)

	endpoints := a.ResolveEndpoints(ctx)

	pkce, err := pkgoauth.GeneratePKCE()
	if err != nil {
		return nil, err
	}
	state, err := pkgoauth.GenerateState()
	if err != nil {
		return nil, err
	}

	bindHost, port, path := a.cfg.BindHost, a.cfg.CallbackPort, a.cfg.CallbackPath
	publicURL := ""
	if a.public != nil {
		publicURL = a.public.String()
		port, err = publicPort(a.public)
		if err != nil {
			return nil, err
		}
		path = a.public.EscapedPath()
		if path == "" {
			path = "/"
		}
	}

	// The client is only known once the listener is bound, since the bound
	// port is part of the registered redirect URI.
	var target atomic.Pointer[exchangeTarget]

	listener := NewCallbackServer(CallbackServerConfig{
		BindHost:      bindHost,
		Port:          port,
		Path:          path,
		PublicURL:     publicURL,
		ExpectedState: state,
		Timeout:       a.cfg.Timeout,
		Logger:        logger,
		Exchange: func(ctx context.Context, code string) (*pkgoauth.TokenBundle, error) {
			t := target.Load()
			if t == nil {
				return nil, ErrNoClientCredentials
			}
			logger.Debug("Exchanging authorization code", "token_endpoint", endpoints.Token)
			return a.exchanger.ExchangeCode(ctx, endpoints.Token, t.client, code, pkce.CodeVerifier, t.redirectURI)
		},
	})

	if err := listener.Start(ctx); err != nil {
		return nil, err
	}

	redirectURI := publicURL
	if redirectURI == "" {
		redirectURI = (&url.URL{
			Scheme: "http",
			Host:   net.JoinHostPort(loopbackRedirectHost(bindHost), strconv.Itoa(listener.Port())),
			Path:   path,
		}).String()
	}

	client, registration, err := a.clientFor(ctx, redirectURI, endpoints.Registration)
	if err != nil {
		listener.Stop()
		return nil, err
	}
	target.Store(&exchangeTarget{client: client, redirectURI: redirectURI})

	authURL, err := pkgoauth.BuildAuthorizationURL(endpoints.Authorization, client.ClientID, redirectURI, state, strings.Join(a.cfg.Scopes, " "), pkce)
	if err != nil {
		listener.Stop()
		return nil, err
	}

	attempt := &Attempt{
		ID:           attemptID,
		AuthURL:      authURL,
		RedirectURI:  redirectURI,
		Client:       client,
		Registration: registration,
		StartedAt:    a.now(),
		listener:     listener,
	}

	logger.Info("OAuth authorization started",
		"redirect_uri", redirectURI,
		"client_id", client.ClientID,
		"timeout", a.cfg.Timeout.String())

	if a.cfg.OpenBrowser {
		if err := a.launcher.Open(authURL); err != nil {
			logger.Warn("Failed to open browser, open the authorization URL manually", "error", err.Error())
		}
	}

	return attempt, nil
}

// Authorize runs a complete authorization: Begin followed by Wait.
func (a *Authenticator) Authorize(ctx context.Context) (*pkgoauth.TokenBundle, error) {
	attempt, err := a.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return attempt.Wait(ctx)
}

// clientFor returns the static client or registers one for redirectURI.
func (a *Authenticator) clientFor(ctx context.Context, redirectURI, registrationEndpoint string) (ClientCredentials, *RegistrationKey, error) {
	if a.cfg.ClientID != "" {
		return ClientCredentials{ClientID: a.cfg.ClientID, ClientSecret: a.cfg.ClientSecret}, nil, nil
	}

	key := RegistrationKey{ServerURL: a.serverURL, CallbackURL: redirectURI}
	registered, err := a.registrar.Register(ctx, key, registrationEndpoint)
	if err != nil {
		return ClientCredentials{}, nil, err
	}
	return credentialsOf(registered), &key, nil
}

// credentialsOf returns the credentials a registered client authenticates
// with at the token endpoint. Public clients send no secret.
func credentialsOf(client *pkgoauth.RegisteredClient) ClientCredentials {
	if client.IsPublic() {
		return ClientCredentials{ClientID: client.ClientID}
	}
	return ClientCredentials{ClientID: client.ClientID, ClientSecret: client.ClientSecret}
}

func publicPort(u *url.URL) (int, error) {
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("invalid port in public callback URL: %w", err)
		}
		return port, nil
	}
	if u.Scheme == "https" {
		return 443, nil
	}
	return 80, nil
}

// Refresh exchanges a refresh token for a new token bundle. The client is
// the static one when configured, else req.ClientID, else the cached
// registration named by req.Registration.
func (a *Authenticator) Refresh(ctx context.Context, req RefreshRequest) (*pkgoauth.TokenBundle, error) {
	if req.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	creds, err := a.refreshCredentials(req)
	if err != nil {
		return nil, err
	}

	endpoints := a.ResolveEndpoints(ctx)
	a.logger.Debug("Refreshing access token",
		"token_endpoint", endpoints.Token,
		"client_id", creds.ClientID)

	return a.exchanger.ExchangeRefreshToken(ctx, endpoints.Token, creds, req.RefreshToken)
}

func (a *Authenticator) refreshCredentials(req RefreshRequest) (ClientCredentials, error) {
	switch {
	case a.cfg.ClientID != "":
		return ClientCredentials{ClientID: a.cfg.ClientID, ClientSecret: a.cfg.ClientSecret}, nil
	case req.ClientID != "":
		return ClientCredentials{ClientID: req.ClientID, ClientSecret: req.ClientSecret}, nil
	case req.Registration != nil:
		if registered, ok := a.registrar.Lookup(*req.Registration); ok {
			return credentialsOf(registered), nil
		}
	}
	return ClientCredentials{}, ErrNoClientCredentials
}

// EnsureFresh returns bundle unchanged while it stays valid for longer than
// threshold, and a refreshed bundle otherwise. A threshold <= 0 means
// pkgoauth.TokenRefreshThreshold.
func (a *Authenticator) EnsureFresh(ctx context.Context, bundle *pkgoauth.TokenBundle, threshold time.Duration) (*pkgoauth.TokenBundle, error) {
	if bundle == nil || bundle.AccessToken == "" {
		return nil, errors.New("no access token, please authenticate first")
	}
	if threshold <= 0 {
		threshold = pkgoauth.TokenRefreshThreshold
	}
	if !bundle.ExpiresWithin(a.now(), threshold) {
		return bundle, nil
	}

	return a.Refresh(ctx, RefreshRequest{
		RefreshToken: bundle.RefreshToken,
		ClientID:     bundle.ClientID,
	})
}

// TokenInfo summarizes an access token and its expiry without any network call.
func (a *Authenticator) TokenInfo(accessToken string, expiresAt time.Time) pkgoauth.TokenInfo {
	return pkgoauth.ComputeTokenInfo(accessToken, expiresAt, a.now())
}
