package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgoauth "canvamcp/pkg/oauth"
)

// fakeAuthServer is a minimal authorization server with registration,
// token and metadata endpoints.
type fakeAuthServer struct {
	*httptest.Server

	registrations atomic.Int32
	tokenCalls    atomic.Int32

	mu              sync.Mutex
	registered      []pkgoauth.ClientMetadata
	tokenForms      []url.Values
	registerStatus  int
	refreshResponse string
}

func newFakeAuthServer(t *testing.T) *fakeAuthServer {
	t.Helper()
	f := &fakeAuthServer{
		registerStatus:  http.StatusCreated,
		refreshResponse: `{"access_token":"at-refreshed","expires_in":3600,"token_type":"Bearer"}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		f.registrations.Add(1)
		var metadata pkgoauth.ClientMetadata
		_ = json.NewDecoder(r.Body).Decode(&metadata)

		f.mu.Lock()
		f.registered = append(f.registered, metadata)
		status := f.registerStatus
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status >= 300 {
			_, _ = w.Write([]byte(`{"error":"invalid_redirect_uri"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"client_id":                  "dcr-client",
			"redirect_uris":              metadata.RedirectURIs,
			"token_endpoint_auth_method": "none",
		})
	})
	tokenHandler := func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		_ = r.ParseForm()
		f.mu.Lock()
		f.tokenForms = append(f.tokenForms, r.PostForm)
		refresh := f.refreshResponse
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("grant_type") == "refresh_token" {
			_, _ = w.Write([]byte(refresh))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","expires_in":3600,"token_type":"Bearer","scope":"design:content:read"}`))
	}
	mux.HandleFunc("/token", tokenHandler)
	mux.HandleFunc("/oauth/token", tokenHandler)

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeAuthServer) lastTokenForm(t *testing.T) url.Values {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.tokenForms)
	return f.tokenForms[len(f.tokenForms)-1]
}

// recordingLauncher records opened URLs instead of launching a browser.
type recordingLauncher struct {
	mu     sync.Mutex
	opened []string
	err    error
}

func (l *recordingLauncher) Open(rawURL string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opened = append(l.opened, rawURL)
	return l.err
}

func newTestAuthenticator(t *testing.T, cfg AuthenticatorConfig) *Authenticator {
	t.Helper()
	if cfg.Launcher == nil {
		cfg.Launcher = &recordingLauncher{}
	}
	auth, err := NewAuthenticator(cfg)
	require.NoError(t, err)
	return auth
}

// followRedirect plays the browser: it sends the redirect the authorization
// server would issue for attempt, with the given code.
func followRedirect(t *testing.T, attempt *Attempt, code string) int {
	t.Helper()
	authURL, err := url.Parse(attempt.AuthURL)
	require.NoError(t, err)
	redirect, err := url.Parse(authURL.Query().Get("redirect_uri"))
	require.NoError(t, err)

	target := fmt.Sprintf("http://127.0.0.1:%d%s?%s", attempt.Port(), redirect.Path, url.Values{
		"code":  {code},
		"state": {authURL.Query().Get("state")},
	}.Encode())

	resp, err := http.Get(target)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestAuthenticator_FullFlowWithRegistration(t *testing.T) {
	server := newFakeAuthServer(t)
	launcher := &recordingLauncher{}
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	auth := newTestAuthenticator(t, AuthenticatorConfig{
		ServerURL:   server.URL + "/mcp",
		Scopes:      []string{"design:content:read", "asset:read"},
		OpenBrowser: true,
		Launcher:    launcher,
		Clock:       fixedClock(now),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	attempt, err := auth.Begin(ctx)
	require.NoError(t, err)

	assert.NotEmpty(t, attempt.ID)
	assert.Equal(t, "dcr-client", attempt.Client.ClientID)
	require.NotNil(t, attempt.Registration)
	assert.Equal(t, server.URL, attempt.Registration.ServerURL)
	assert.Equal(t, fmt.Sprintf("http://localhost:%d/oauth/callback", attempt.Port()), attempt.RedirectURI)

	authURL, err := url.Parse(attempt.AuthURL)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/authorize", authURL.Scheme+"://"+authURL.Host+authURL.Path)
	query := authURL.Query()
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "dcr-client", query.Get("client_id"))
	assert.Equal(t, "S256", query.Get("code_challenge_method"))
	assert.Equal(t, attempt.RedirectURI, query.Get("redirect_uri"))
	assert.Equal(t, "design:content:read asset:read", query.Get("scope"))
	assert.NotEmpty(t, query.Get("state"))
	assert.NotEmpty(t, query.Get("code_challenge"))

	launcher.mu.Lock()
	assert.Equal(t, []string{attempt.AuthURL}, launcher.opened)
	launcher.mu.Unlock()

	server.mu.Lock()
	require.Len(t, server.registered, 1)
	assert.Equal(t, []string{attempt.RedirectURI}, server.registered[0].RedirectURIs)
	server.mu.Unlock()

	assert.Equal(t, http.StatusOK, followRedirect(t, attempt, "the-code"))

	bundle, err := attempt.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "at-1", bundle.AccessToken)
	assert.Equal(t, "rt-1", bundle.RefreshToken)
	assert.Equal(t, "dcr-client", bundle.ClientID)
	assert.True(t, bundle.ExpiresAt.Equal(now.Add(time.Hour)))

	form := server.lastTokenForm(t)
	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "the-code", form.Get("code"))
	assert.Equal(t, attempt.RedirectURI, form.Get("redirect_uri"))
	assert.Equal(t, "dcr-client", form.Get("client_id"))
	assert.Equal(t, query.Get("code_challenge"), pkgoauth.ComputeCodeChallenge(form.Get("code_verifier")),
		"code_verifier must match the challenge sent in the authorization URL")
	_, hasSecret := form["client_secret"]
	assert.False(t, hasSecret, "a registered public client must not send client_secret")
}

func TestAuthenticator_StaticClientSkipsRegistration(t *testing.T) {
	server := newFakeAuthServer(t)
	auth := newTestAuthenticator(t, AuthenticatorConfig{
		ServerURL:     server.URL,
		TokenEndpoint: server.URL + "/oauth/token",
		ClientID:      "static-id",
		ClientSecret:  "static-secret",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	attempt, err := auth.Begin(ctx)
	require.NoError(t, err)
	assert.Nil(t, attempt.Registration)
	assert.Equal(t, "static-id", attempt.Client.ClientID)

	assert.Equal(t, http.StatusOK, followRedirect(t, attempt, "code"))
	_, err = attempt.Wait(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(0), server.registrations.Load())
	form := server.lastTokenForm(t)
	assert.Equal(t, "static-secret", form.Get("client_secret"))
}

func TestAuthenticator_RegistrationReusedAcrossAttempts(t *testing.T) {
	server := newFakeAuthServer(t)
	port := freePort(t)
	auth := newTestAuthenticator(t, AuthenticatorConfig{
		ServerURL:    server.URL,
		CallbackPort: port,
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		attempt, err := auth.Begin(ctx)
		require.NoError(t, err)
		attempt.Cancel()
		<-attempt.Done()
	}

	assert.Equal(t, int32(1), server.registrations.Load())
	assert.Equal(t, 1, auth.RegistrationCache().Len())
}

func TestAuthenticator_RegistrationFailure(t *testing.T) {
	server := newFakeAuthServer(t)
	server.mu.Lock()
	server.registerStatus = http.StatusBadRequest
	server.mu.Unlock()
	port := freePort(t)

	auth := newTestAuthenticator(t, AuthenticatorConfig{
		ServerURL:    server.URL,
		CallbackPort: port,
	})

	_, err := auth.Begin(context.Background())
	var regErr *RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, http.StatusBadRequest, regErr.StatusCode)

	// The listener must have been released.
	assert.Eventually(t, func() bool {
		l, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
		if err != nil {
			return false
		}
		l.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)
}

func TestAuthenticator_BrowserFailureIsNotFatal(t *testing.T) {
	server := newFakeAuthServer(t)
	auth := newTestAuthenticator(t, AuthenticatorConfig{
		ServerURL:   server.URL,
		ClientID:    "c",
		OpenBrowser: true,
		Launcher:    &recordingLauncher{err: errors.New("no display")},
	})

	attempt, err := auth.Begin(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, attempt.AuthURL)
	attempt.Cancel()
}

func TestAuthenticator_BrowserNotOpenedByDefault(t *testing.T) {
	server := newFakeAuthServer(t)
	launcher := &recordingLauncher{}
	auth := newTestAuthenticator(t, AuthenticatorConfig{
		ServerURL: server.URL,
		ClientID:  "c",
		Launcher:  launcher,
	})

	attempt, err := auth.Begin(context.Background())
	require.NoError(t, err)
	attempt.Cancel()

	assert.Empty(t, launcher.opened)
}

func TestAuthenticator_Authorize_Timeout(t *testing.T) {
	server := newFakeAuthServer(t)
	auth := newTestAuthenticator(t, AuthenticatorConfig{
		ServerURL: server.URL,
		ClientID:  "c",
		Timeout:   50 * time.Millisecond,
	})

	_, err := auth.Authorize(context.Background())
	var timeoutErr *AuthorizationTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, int32(0), server.tokenCalls.Load())
}

func TestAuthenticator_PublicCallbackURL(t *testing.T) {
	server := newFakeAuthServer(t)
	port := freePort(t)
	public := fmt.Sprintf("http://127.0.0.1:%d/hooks/canva", port)

	auth := newTestAuthenticator(t, AuthenticatorConfig{
		ServerURL:         server.URL,
		ClientID:          "c",
		PublicCallbackURL: public,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	attempt, err := auth.Begin(ctx)
	require.NoError(t, err)
	assert.Equal(t, public, attempt.RedirectURI)
	assert.Equal(t, port, attempt.Port())

	assert.Equal(t, http.StatusOK, followRedirect(t, attempt, "code"))
	_, err = attempt.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, public, server.lastTokenForm(t).Get("redirect_uri"))
}

// boundIP returns the IP the attempt's listener is bound to.
func boundIP(t *testing.T, attempt *Attempt) net.IP {
	t.Helper()
	attempt.listener.mu.Lock()
	defer attempt.listener.mu.Unlock()
	require.NotNil(t, attempt.listener.listener)
	addr, ok := attempt.listener.listener.Addr().(*net.TCPAddr)
	require.True(t, ok)
	return addr.IP
}

func TestAuthenticator_PublicCallbackURL_BindsAllInterfacesByDefault(t *testing.T) {
	server := newFakeAuthServer(t)
	public := fmt.Sprintf("https://auth.example.com:%d/oauth/callback", freePort(t))

	auth := newTestAuthenticator(t, AuthenticatorConfig{
		ServerURL:         server.URL,
		ClientID:          "c",
		PublicCallbackURL: public,
	})

	attempt, err := auth.Begin(context.Background())
	require.NoError(t, err)
	defer attempt.Cancel()

	ip := boundIP(t, attempt)
	assert.False(t, ip.IsLoopback(), "public mode bound to %s", ip)
	assert.True(t, ip.IsUnspecified(), "public mode bound to %s, want all interfaces", ip)
	assert.Equal(t, public, attempt.RedirectURI)
}

func TestAuthenticator_PublicCallbackURL_ExplicitBindHost(t *testing.T) {
	server := newFakeAuthServer(t)
	public := fmt.Sprintf("https://auth.example.com:%d/oauth/callback", freePort(t))

	auth := newTestAuthenticator(t, AuthenticatorConfig{
		ServerURL:         server.URL,
		ClientID:          "c",
		BindHost:          "0.0.0.0",
		PublicCallbackURL: public,
	})

	attempt, err := auth.Begin(context.Background())
	require.NoError(t, err)
	defer attempt.Cancel()

	assert.True(t, boundIP(t, attempt).IsUnspecified())
}

func TestAuthenticator_LoopbackBindsLoopback(t *testing.T) {
	server := newFakeAuthServer(t)
	auth := newTestAuthenticator(t, AuthenticatorConfig{
		ServerURL: server.URL,
		ClientID:  "c",
	})

	attempt, err := auth.Begin(context.Background())
	require.NoError(t, err)
	defer attempt.Cancel()

	assert.True(t, boundIP(t, attempt).IsLoopback())
	assert.Equal(t, fmt.Sprintf("http://localhost:%d/oauth/callback", attempt.Port()), attempt.RedirectURI)
}

func TestLoopbackRedirectHost(t *testing.T) {
	for bindHost, want := range map[string]string{
		"127.0.0.1": "localhost",
		"127.0.0.2": "localhost",
		"localhost": "localhost",
		"::1":       "::1",
	} {
		assert.Equal(t, want, loopbackRedirectHost(bindHost), bindHost)
	}
}

func TestNewAuthenticator_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  AuthenticatorConfig
	}{
		{"missing server", AuthenticatorConfig{}},
		{"bad scheme", AuthenticatorConfig{ServerURL: "ftp://example.com"}},
		{"negative port", AuthenticatorConfig{ServerURL: "https://mcp.canva.com", CallbackPort: -1}},
		{"non-loopback bind host", AuthenticatorConfig{ServerURL: "https://mcp.canva.com", BindHost: "0.0.0.0"}},
		{"bad public URL", AuthenticatorConfig{ServerURL: "https://mcp.canva.com", PublicCallbackURL: "not a url"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAuthenticator(tt.cfg)
			assert.Error(t, err)
		})
	}

	_, err := NewAuthenticator(AuthenticatorConfig{
		ServerURL:         "https://mcp.canva.com",
		BindHost:          "0.0.0.0",
		PublicCallbackURL: "https://auth.example.com/oauth/callback",
	})
	assert.NoError(t, err, "public mode may bind all interfaces")
}

func TestIsLoopbackHost(t *testing.T) {
	for host, want := range map[string]bool{
		"127.0.0.1":   true,
		"127.0.0.2":   true,
		"::1":         true,
		"localhost":   true,
		"0.0.0.0":     false,
		"192.168.1.2": false,
		"example.com": false,
	} {
		assert.Equal(t, want, IsLoopbackHost(host), host)
	}
}

func TestAuthenticator_ResolveEndpoints(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		auth := newTestAuthenticator(t, AuthenticatorConfig{ServerURL: "https://mcp.canva.com/mcp"})
		ep := auth.ResolveEndpoints(context.Background())
		assert.Equal(t, Endpoints{
			Authorization: "https://mcp.canva.com/authorize",
			Token:         "https://mcp.canva.com/token",
			Registration:  "https://mcp.canva.com/register",
		}, ep)
	})

	t.Run("explicit endpoints win", func(t *testing.T) {
		auth := newTestAuthenticator(t, AuthenticatorConfig{
			ServerURL:     "https://mcp.canva.com",
			TokenEndpoint: "https://mcp.canva.com/oauth/token",
		})
		ep := auth.ResolveEndpoints(context.Background())
		assert.Equal(t, "https://mcp.canva.com/oauth/token", ep.Token)
		assert.Equal(t, "https://mcp.canva.com/authorize", ep.Authorization)
	})

	t.Run("discovery", func(t *testing.T) {
		var issuer string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/.well-known/oauth-authorization-server" {
				http.NotFound(w, r)
				return
			}
			_ = json.NewEncoder(w).Encode(pkgoauth.Metadata{
				Issuer:                        issuer,
				AuthorizationEndpoint:         issuer + "/oauth/authorize",
				TokenEndpoint:                 issuer + "/oauth/token",
				RegistrationEndpoint:          issuer + "/oauth/register",
				CodeChallengeMethodsSupported: []string{"S256"},
			})
		}))
		defer server.Close()
		issuer = server.URL

		auth := newTestAuthenticator(t, AuthenticatorConfig{
			ServerURL:             server.URL,
			Discovery:             true,
			AuthorizationEndpoint: server.URL + "/custom/authorize",
		})
		ep := auth.ResolveEndpoints(context.Background())
		assert.Equal(t, server.URL+"/custom/authorize", ep.Authorization)
		assert.Equal(t, server.URL+"/oauth/token", ep.Token)
		assert.Equal(t, server.URL+"/oauth/register", ep.Registration)
	})

	t.Run("discovery failure falls back to defaults", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		auth := newTestAuthenticator(t, AuthenticatorConfig{ServerURL: server.URL, Discovery: true})
		ep := auth.ResolveEndpoints(context.Background())
		assert.Equal(t, server.URL+"/token", ep.Token)
	})
}

func TestAuthenticator_Refresh(t *testing.T) {
	t.Run("requires refresh token", func(t *testing.T) {
		auth := newTestAuthenticator(t, AuthenticatorConfig{ServerURL: "https://mcp.canva.com", ClientID: "c"})
		_, err := auth.Refresh(context.Background(), RefreshRequest{})
		assert.ErrorIs(t, err, ErrNoRefreshToken)
	})

	t.Run("static client", func(t *testing.T) {
		server := newFakeAuthServer(t)
		auth := newTestAuthenticator(t, AuthenticatorConfig{ServerURL: server.URL, ClientID: "static", ClientSecret: "sec"})

		bundle, err := auth.Refresh(context.Background(), RefreshRequest{RefreshToken: "rt-old", ClientID: "ignored"})
		require.NoError(t, err)
		assert.Equal(t, "at-refreshed", bundle.AccessToken)
		assert.Equal(t, "rt-old", bundle.RefreshToken, "refresh token must be preserved when not rotated")

		form := server.lastTokenForm(t)
		assert.Equal(t, "static", form.Get("client_id"))
		assert.Equal(t, "sec", form.Get("client_secret"))
	})

	t.Run("client id from request", func(t *testing.T) {
		server := newFakeAuthServer(t)
		auth := newTestAuthenticator(t, AuthenticatorConfig{ServerURL: server.URL})

		_, err := auth.Refresh(context.Background(), RefreshRequest{RefreshToken: "rt", ClientID: "from-token"})
		require.NoError(t, err)
		assert.Equal(t, "from-token", server.lastTokenForm(t).Get("client_id"))
	})

	t.Run("cached registration", func(t *testing.T) {
		server := newFakeAuthServer(t)
		cache := NewRegistrationCache(0)
		key := RegistrationKey{ServerURL: server.URL, CallbackURL: "http://localhost:29865/oauth/callback"}
		cache.Set(key, &pkgoauth.RegisteredClient{ClientID: "registered"})

		auth := newTestAuthenticator(t, AuthenticatorConfig{ServerURL: server.URL, RegistrationCache: cache})

		_, err := auth.Refresh(context.Background(), RefreshRequest{RefreshToken: "rt", Registration: &key})
		require.NoError(t, err)
		assert.Equal(t, "registered", server.lastTokenForm(t).Get("client_id"))
	})

	t.Run("no client never guesses a registration", func(t *testing.T) {
		server := newFakeAuthServer(t)
		cache := NewRegistrationCache(0)
		cache.Set(RegistrationKey{ServerURL: server.URL, CallbackURL: "http://localhost:1/cb"}, &pkgoauth.RegisteredClient{ClientID: "other"})

		auth := newTestAuthenticator(t, AuthenticatorConfig{ServerURL: server.URL, RegistrationCache: cache})

		_, err := auth.Refresh(context.Background(), RefreshRequest{RefreshToken: "rt"})
		assert.ErrorIs(t, err, ErrNoClientCredentials)

		missing := RegistrationKey{ServerURL: server.URL, CallbackURL: "http://localhost:2/cb"}
		_, err = auth.Refresh(context.Background(), RefreshRequest{RefreshToken: "rt", Registration: &missing})
		assert.ErrorIs(t, err, ErrNoClientCredentials)
		assert.Equal(t, int32(0), server.tokenCalls.Load())
	})
}

func TestAuthenticator_EnsureFresh(t *testing.T) {
	server := newFakeAuthServer(t)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	auth := newTestAuthenticator(t, AuthenticatorConfig{ServerURL: server.URL, Clock: fixedClock(now)})

	fresh := &pkgoauth.TokenBundle{AccessToken: "at", RefreshToken: "rt", ClientID: "c", ExpiresAt: now.Add(time.Hour)}
	got, err := auth.EnsureFresh(context.Background(), fresh, 0)
	require.NoError(t, err)
	assert.Same(t, fresh, got)
	assert.Equal(t, int32(0), server.tokenCalls.Load())

	stale := &pkgoauth.TokenBundle{AccessToken: "at", RefreshToken: "rt", ClientID: "c", ExpiresAt: now.Add(2 * time.Minute)}
	got, err = auth.EnsureFresh(context.Background(), stale, 0)
	require.NoError(t, err)
	assert.Equal(t, "at-refreshed", got.AccessToken)
	assert.Equal(t, "c", server.lastTokenForm(t).Get("client_id"))
	assert.True(t, got.ExpiresAt.Equal(now.Add(time.Hour)))

	_, err = auth.EnsureFresh(context.Background(), nil, 0)
	assert.Error(t, err)
}

func TestAuthenticator_TokenInfo(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	auth := newTestAuthenticator(t, AuthenticatorConfig{ServerURL: "https://mcp.canva.com", Clock: fixedClock(now)})

	info := auth.TokenInfo("abcdef", now.Add(90*time.Second))
	assert.True(t, info.HasAccessToken)
	assert.Equal(t, 6, info.AccessTokenLength)
	assert.False(t, info.IsExpired)
	assert.Equal(t, int64(90), info.TimeUntilExpirySeconds)

	info = auth.TokenInfo("", now.Add(-time.Second))
	assert.False(t, info.HasAccessToken)
	assert.True(t, info.IsExpired)
	assert.Equal(t, int64(0), info.TimeUntilExpirySeconds)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestCredentialsOf(t *testing.T) {
	assert.Equal(t, ClientCredentials{ClientID: "public"},
		credentialsOf(&pkgoauth.RegisteredClient{ClientID: "public"}))
	assert.Equal(t, ClientCredentials{ClientID: "conf", ClientSecret: "s"},
		credentialsOf(&pkgoauth.RegisteredClient{ClientID: "conf", ClientSecret: "s"}))
}
