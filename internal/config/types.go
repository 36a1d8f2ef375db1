package config

import (
	"strings"
	"time"
)

// Config is the top-level configuration structure for canvamcp.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Client   ClientConfig   `yaml:"client,omitempty"`
	Callback CallbackConfig `yaml:"callback"`

	// Scopes requested during authorization and registration.
	Scopes []string `yaml:"scopes,omitempty"`

	// OpenBrowser launches the authorization URL automatically.
	OpenBrowser bool `yaml:"openBrowser"`

	Timeout              time.Duration `yaml:"timeout,omitempty"`              // Authorization attempt timeout (default: 5m)
	HTTPTimeout          time.Duration `yaml:"httpTimeout,omitempty"`          // Per-request timeout for OAuth endpoints (default: 30s)
	RegistrationCacheTTL time.Duration `yaml:"registrationCacheTTL,omitempty"` // Lifetime of dynamic registrations (0: process lifetime)

	// Token holds a previously issued token, supplied by the host for
	// refresh and info. It is read, never written.
	Token TokenConfig `yaml:"token,omitempty"`

	LogLevel string `yaml:"logLevel,omitempty"`
}

// ServerConfig identifies the authorization server. Endpoints starting with
// "/" are relative to URL; empty endpoints use discovery or the defaults.
type ServerConfig struct {
	URL                   string `yaml:"url"`
	AuthorizationEndpoint string `yaml:"authorizationEndpoint,omitempty"`
	TokenEndpoint         string `yaml:"tokenEndpoint,omitempty"`
	RegistrationEndpoint  string `yaml:"registrationEndpoint,omitempty"`
	Discovery             bool   `yaml:"discovery,omitempty"`
}

// ClientConfig holds static client credentials. When ID is empty the client
// is registered dynamically.
type ClientConfig struct {
	ID     string `yaml:"id,omitempty"`
	Secret string `yaml:"secret,omitempty"`
}

// CallbackConfig controls the local redirect listener.
type CallbackConfig struct {
	Port      int    `yaml:"port"`                // Loopback port (default: 29865, 0: ephemeral)
	BindHost  string `yaml:"bindHost,omitempty"`  // Listener interface (default: 127.0.0.1, all interfaces with PublicURL)
	Path      string `yaml:"path,omitempty"`      // Loopback redirect path (default: /oauth/callback)
	PublicURL string `yaml:"publicURL,omitempty"` // Public redirect URI, enables public mode
}

// TokenConfig is a token issued earlier.
type TokenConfig struct {
	AccessToken  string `yaml:"accessToken,omitempty"`
	RefreshToken string `yaml:"refreshToken,omitempty"`
	ClientID     string `yaml:"clientID,omitempty"`
	Expiry       int64  `yaml:"expiry,omitempty"` // Unix milliseconds
}

// ResolveEndpoint returns endpoint made absolute against the server URL.
func (s ServerConfig) ResolveEndpoint(endpoint string) string {
	if strings.HasPrefix(endpoint, "/") {
		return strings.TrimSuffix(s.URL, "/") + endpoint
	}
	return endpoint
}
