package oauth

import (
	"context"
	"crypto/subtle"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/giantswarm/mcp-oauth/security"

	pkgoauth "canvamcp/pkg/oauth"
)

const (
	// DefaultCallbackPort is the default port for the local OAuth callback server.
	DefaultCallbackPort = 29865

	// DefaultCallbackPath is the path the authorization server redirects to.
	DefaultCallbackPath = "/oauth/callback"

	// DefaultLoopbackHost is the bind address used in loopback mode.
	DefaultLoopbackHost = "127.0.0.1"

	// CallbackTimeout is how long a listener waits for a usable redirect.
	CallbackTimeout = 5 * time.Minute

	// shutdownGrace bounds how long in-flight responses may take once the
	// listener has reached a terminal state.
	shutdownGrace = 5 * time.Second
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	successTemplate = template.Must(template.ParseFS(templateFS, "templates/callback_success.html"))
	errorTemplate   = template.Must(template.ParseFS(templateFS, "templates/callback_error.html"))
)

// ListenerState is the lifecycle state of a CallbackServer.
type ListenerState int

const (
	ListenerIdle ListenerState = iota
	ListenerListening
	ListenerFulfilled
	ListenerRejected
)

// String returns the string representation of the listener state.
func (s ListenerState) String() string {
	switch s {
	case ListenerIdle:
		return "idle"
	case ListenerListening:
		return "listening"
	case ListenerFulfilled:
		return "fulfilled"
	case ListenerRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// CodeExchangeFunc trades an authorization code for tokens.
type CodeExchangeFunc func(ctx context.Context, code string) (*pkgoauth.TokenBundle, error)

// CallbackServerConfig configures a CallbackServer.
type CallbackServerConfig struct {
	// BindHost is the interface to listen on. Defaults to 127.0.0.1.
	BindHost string

	// Port to listen on; 0 picks an ephemeral port.
	Port int

	// PublicURL is the externally visible redirect URI in public mode. An
	// https URL adds HSTS to the callback pages.
	PublicURL string

	// Path is the only path that is treated as the OAuth redirect.
	// Defaults to DefaultCallbackPath.
	Path string

	// ExpectedState is the state issued with the authorization request. Required.
	ExpectedState string

	// Exchange is invoked with the authorization code of a valid redirect. Required.
	Exchange CodeExchangeFunc

	// Timeout bounds the whole wait, measured from Start. Defaults to CallbackTimeout.
	Timeout time.Duration

	Logger *slog.Logger
}

// CallbackServer is a single-use local HTTP server that receives one OAuth
// redirect, validates it, exchanges the code and closes itself.
//
// It moves from Idle to Listening on Start and then to exactly one of
// Fulfilled or Rejected. The listener socket is closed as soon as a terminal
// state is reached.
type CallbackServer struct {
	cfg    CallbackServerConfig
	logger *slog.Logger

	mu       sync.Mutex
	state    ListenerState
	claimed  bool
	port     int
	listener net.Listener
	server   *http.Server
	timer    *time.Timer

	// lifetime is cancelled when the server reaches a terminal state, which
	// aborts an in-flight code exchange.
	lifetime context.Context
	cancel   context.CancelFunc

	done   chan struct{}
	once   sync.Once
	result *pkgoauth.TokenBundle
	err    error
}

// NewCallbackServer creates a callback server. It does not bind until Start.
func NewCallbackServer(cfg CallbackServerConfig) *CallbackServer {
	if cfg.BindHost == "" {
		cfg.BindHost = DefaultLoopbackHost
	}
	if cfg.Path == "" {
		cfg.Path = DefaultCallbackPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = CallbackTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &CallbackServer{
		cfg:    cfg,
		logger: logger,
		state:  ListenerIdle,
		done:   make(chan struct{}),
	}
}

// Start binds the listener and begins serving. The timeout starts now.
// Cancelling ctx rejects the pending authorization and closes the listener.
func (s *CallbackServer) Start(ctx context.Context) error {
	if s.cfg.ExpectedState == "" {
		return errors.New("callback server requires an expected state")
	}
	if s.cfg.Exchange == nil {
		return errors.New("callback server requires a code exchange function")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != ListenerIdle {
		return fmt.Errorf("callback server cannot start in state %s", s.state)
	}

	addr := net.JoinHostPort(s.cfg.BindHost, strconv.Itoa(s.cfg.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return &ListenerBindError{Address: addr, Err: err}
	}

	s.listener = listener
	s.port = listener.Addr().(*net.TCPAddr).Port
	s.lifetime, s.cancel = context.WithCancel(context.Background())
	s.server = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.state = ListenerListening

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.finish(nil, fmt.Errorf("callback server stopped: %w", err))
		}
	}()

	s.timer = time.AfterFunc(s.cfg.Timeout, func() {
		s.logger.Warn("OAuth callback timed out", "timeout", s.cfg.Timeout.String())
		s.finish(nil, &AuthorizationTimeoutError{Timeout: s.cfg.Timeout})
	})

	go func() {
		select {
		case <-ctx.Done():
			s.finish(nil, ctx.Err())
		case <-s.done:
		}
	}()

	s.logger.Debug("OAuth callback server listening",
		"address", listener.Addr().String(),
		"path", s.cfg.Path)

	return nil
}

// Wait blocks until the authorization reaches a terminal state and returns
// its outcome. Cancelling ctx rejects the authorization with ctx.Err().
func (s *CallbackServer) Wait(ctx context.Context) (*pkgoauth.TokenBundle, error) {
	select {
	case <-s.done:
	case <-ctx.Done():
		s.finish(nil, ctx.Err())
	}
	return s.result, s.err
}

// Done is closed once the server reaches a terminal state.
func (s *CallbackServer) Done() <-chan struct{} {
	return s.done
}

// Port returns the port the server is bound to (0 before Start).
func (s *CallbackServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// State returns the current lifecycle state.
func (s *CallbackServer) State() ListenerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stop rejects a pending authorization and closes the server.
func (s *CallbackServer) Stop() {
	s.finish(nil, errors.New("callback server stopped"))
}

// finish records the single outcome, closes the listener socket and shuts
// the HTTP server down in the background. Only the first call has an effect.
func (s *CallbackServer) finish(result *pkgoauth.TokenBundle, err error) {
	s.once.Do(func() {
		s.mu.Lock()
		if err != nil {
			s.state = ListenerRejected
		} else {
			s.state = ListenerFulfilled
		}
		s.result = result
		s.err = err
		if s.timer != nil {
			s.timer.Stop()
		}
		if s.cancel != nil {
			s.cancel()
		}
		if s.listener != nil {
			_ = s.listener.Close()
		}
		server := s.server
		s.mu.Unlock()

		close(s.done)

		if server != nil {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
				defer cancel()
				if err := server.Shutdown(ctx); err != nil {
					_ = server.Close()
				}
			}()
		}
	})
}

// ServeHTTP handles every request on the listener. Only the callback path
// affects the server state.
func (s *CallbackServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != s.cfg.Path {
		http.NotFound(w, r)
		return
	}

	s.setSecurityHeaders(w)

	s.mu.Lock()
	if s.claimed || s.state != ListenerListening {
		s.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusConflict)
		return
	}
	s.claimed = true
	s.mu.Unlock()

	// The response is written before the outcome is published so the browser
	// always gets a page, even if the caller exits right after Wait returns.
	result, err := s.processCallback(w, r)
	s.finish(result, err)
}

func (s *CallbackServer) processCallback(w http.ResponseWriter, r *http.Request) (*pkgoauth.TokenBundle, error) {
	query := r.URL.Query()

	if oauthErr := query.Get("error"); oauthErr != "" {
		denied := &AuthorizationDeniedError{
			Code:        oauthErr,
			Description: query.Get("error_description"),
		}
		s.logger.Warn("OAuth authorization failed",
			"error", denied.Code,
			"error_description", denied.Description)
		renderError(w, http.StatusBadRequest, "Authentication Failed", denied.Code, denied.Description)
		return nil, denied
	}

	receivedState := query.Get("state")
	if subtle.ConstantTimeCompare([]byte(receivedState), []byte(s.cfg.ExpectedState)) != 1 {
		s.logger.Warn("OAuth state mismatch detected - possible CSRF attack",
			"expected_state_len", len(s.cfg.ExpectedState),
			"received_state_len", len(receivedState))
		renderError(w, http.StatusBadRequest, "State Mismatch", "Invalid OAuth state", "")
		return nil, &StateMismatchError{ReceivedLen: len(receivedState)}
	}

	code := query.Get("code")
	if code == "" {
		renderError(w, http.StatusBadRequest, "No Authorization Code", "The authorization server did not return a code.", "")
		return nil, &MissingCodeError{}
	}

	bundle, err := s.cfg.Exchange(s.lifetime, code)
	if err != nil {
		s.logger.Warn("OAuth token exchange failed", "error", err.Error())
		renderError(w, http.StatusInternalServerError, "Token Exchange Failed", err.Error(), "")
		return nil, err
	}

	renderSuccess(w, bundle)
	return bundle, nil
}

func (s *CallbackServer) setSecurityHeaders(w http.ResponseWriter) {
	security.SetSecurityHeaders(w, s.cfg.PublicURL)
	// The result pages carry an inline stylesheet.
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; frame-ancestors 'none'")
	w.Header().Set("Connection", "close")
}

func renderSuccess(w http.ResponseWriter, bundle *pkgoauth.TokenBundle) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = successTemplate.Execute(w, map[string]interface{}{
		"ExpiresIn": bundle.ExpiresIn,
	})
	flush(w)
}

func renderError(w http.ResponseWriter, status int, title, message, detail string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = errorTemplate.Execute(w, map[string]string{
		"Title":   title,
		"Message": message,
		"Detail":  detail,
	})
	flush(w)
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
