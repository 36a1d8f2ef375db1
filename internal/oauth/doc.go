// Package oauth implements the client side of the OAuth 2.0 Authorization
// Code flow with PKCE for a remote MCP server.
//
// # Architecture
//
// An Authenticator drives one authorization attempt at a time per listener:
//   - Registrar performs RFC 7591 dynamic client registration when no static
//     client is configured, caching results in a RegistrationCache
//   - CallbackServer is a single-use local HTTP listener that validates the
//     redirect (error, state, code) before any token request is made
//   - TokenExchanger trades codes and refresh tokens at the token endpoint
//   - BrowserLauncher optionally opens the authorization URL
//
// # Callback modes
//
// In loopback mode the listener binds 127.0.0.1 and the redirect URI is
//
//	http://localhost:{port}/oauth/callback
//
// With a public callback URL the URL is used verbatim and the listener binds
// its port on the configured host, for deployments behind a reverse proxy.
//
// # Usage
//
//	auth, err := oauth.NewAuthenticator(oauth.AuthenticatorConfig{
//	    ServerURL:     "https://mcp.canva.com",
//	    TokenEndpoint: "https://mcp.canva.com/oauth/token",
//	    CallbackPort:  oauth.DefaultCallbackPort,
//	    OpenBrowser:   true,
//	})
//
//	attempt, err := auth.Begin(ctx)
//	fmt.Println("Open:", attempt.AuthURL)
//	bundle, err := attempt.Wait(ctx)
//
// Tokens are returned to the caller and never stored by this package.
package oauth
