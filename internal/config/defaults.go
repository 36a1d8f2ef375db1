package config

import (
	"time"

	"canvamcp/internal/oauth"
)

const (
	// DefaultServerURL is the Canva MCP server.
	DefaultServerURL = "https://mcp.canva.com"

	// DefaultTokenEndpoint is the token path used by the Canva MCP server.
	DefaultTokenEndpoint = "/oauth/token"

	// DefaultHTTPTimeout bounds each request to an OAuth endpoint.
	DefaultHTTPTimeout = 30 * time.Second
)

// DefaultScopes are the Canva scopes requested when none are configured.
var DefaultScopes = []string{
	"openid",
	"email",
	"profile",
	"design:content:read",
	"design:content:write",
	"design:meta:read",
	"asset:read",
	"asset:write",
	"folder:read",
	"folder:write",
	"comment:read",
	"comment:write",
	"brandtemplate:meta:read",
	"brandtemplate:content:read",
	"profile:read",
}

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			URL:           DefaultServerURL,
			TokenEndpoint: DefaultTokenEndpoint,
		},
		Callback: CallbackConfig{
			Port: oauth.DefaultCallbackPort,
			Path: oauth.DefaultCallbackPath,
		},
		Scopes:      append([]string(nil), DefaultScopes...),
		OpenBrowser: true,
		Timeout:     oauth.CallbackTimeout,
		HTTPTimeout: DefaultHTTPTimeout,
		LogLevel:    "info",
	}
}
