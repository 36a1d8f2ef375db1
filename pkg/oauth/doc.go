// Package oauth provides the OAuth 2.0 types and helpers shared by the
// canvamcp client packages and the CLI.
//
// # Core Components
//
//   - PKCEChallenge / GeneratePKCE / GenerateState: RFC 7636 proof key and CSRF state generation
//   - TokenBundle: the token set produced by an authorization or refresh, with a locally computed expiry
//   - RegisteredClient: a client obtained through RFC 7591 dynamic registration or static configuration
//   - TokenInfo / ComputeTokenInfo: offline expiry inspection of a stored token
//   - Client: RFC 8414 authorization server metadata discovery with caching
//
// # Usage
//
//	pkce, err := oauth.GeneratePKCE()
//	state, err := oauth.GenerateState()
//
//	client := oauth.NewClient(oauth.WithHTTPClient(httpClient))
//	metadata, err := client.DiscoverMetadata(ctx, "https://mcp.canva.com")
//
//	info := oauth.ComputeTokenInfo(accessToken, expiresAt, time.Now())
package oauth
