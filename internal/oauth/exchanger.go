package oauth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	pkgoauth "canvamcp/pkg/oauth"
)

// ClientCredentials authenticate this client at the token endpoint.
// An empty ClientSecret marks a public client; the secret is then omitted
// from requests entirely.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
}

// TokenExchanger trades authorization codes and refresh tokens for tokens.
type TokenExchanger struct {
	httpClient *http.Client
	now        func() time.Time
	logger     *slog.Logger
}

// ExchangerOption configures a TokenExchanger.
type ExchangerOption func(*TokenExchanger)

// WithExchangerHTTPClient sets the HTTP client used for token requests.
func WithExchangerHTTPClient(c *http.Client) ExchangerOption {
	return func(e *TokenExchanger) {
		e.httpClient = c
	}
}

// WithClock sets the clock used to compute token expiry.
func WithClock(now func() time.Time) ExchangerOption {
	return func(e *TokenExchanger) {
		e.now = now
	}
}

// WithExchangerLogger sets the logger.
func WithExchangerLogger(logger *slog.Logger) ExchangerOption {
	return func(e *TokenExchanger) {
		e.logger = logger
	}
}

// NewTokenExchanger creates a TokenExchanger.
func NewTokenExchanger(opts ...ExchangerOption) *TokenExchanger {
	e := &TokenExchanger{
		httpClient: &http.Client{Timeout: pkgoauth.DefaultHTTPTimeout},
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *TokenExchanger) config(tokenEndpoint string, creds ClientCredentials, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			TokenURL:  tokenEndpoint,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (e *TokenExchanger) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
}

// ExchangeCode exchanges an authorization code for tokens (RFC 6749 section 4.1.3
// with the RFC 7636 code_verifier).
func (e *TokenExchanger) ExchangeCode(ctx context.Context, tokenEndpoint string, creds ClientCredentials, code, codeVerifier, redirectURI string) (*pkgoauth.TokenBundle, error) {
	cfg := e.config(tokenEndpoint, creds, redirectURI)

	tok, err := cfg.Exchange(e.context(ctx), code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return nil, e.exchangeError(pkgoauth.GrantTypeAuthorizationCode, tokenEndpoint, err)
	}

	return e.toBundle(tok, creds.ClientID), nil
}

// ExchangeRefreshToken obtains a new access token using a refresh token.
// When the server does not rotate the refresh token, the returned bundle
// carries the one that was passed in.
func (e *TokenExchanger) ExchangeRefreshToken(ctx context.Context, tokenEndpoint string, creds ClientCredentials, refreshToken string) (*pkgoauth.TokenBundle, error) {
	if refreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	cfg := e.config(tokenEndpoint, creds, "")

	tok, err := cfg.TokenSource(e.context(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, e.exchangeError(pkgoauth.GrantTypeRefreshToken, tokenEndpoint, err)
	}

	bundle := e.toBundle(tok, creds.ClientID)
	if bundle.RefreshToken == "" {
		bundle.RefreshToken = refreshToken
	}
	return bundle, nil
}

// toBundle converts a token response. The expiry is derived from expires_in
// and the local clock; the server's notion of absolute time is never used.
func (e *TokenExchanger) toBundle(tok *oauth2.Token, clientID string) *pkgoauth.TokenBundle {
	issuedAt := e.now()

	bundle := &pkgoauth.TokenBundle{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    tok.ExpiresIn,
		ClientID:     clientID,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		bundle.Scope = scope
	}
	if bundle.ExpiresIn > 0 {
		bundle.ExpiresAt = issuedAt.Add(time.Duration(bundle.ExpiresIn) * time.Second)
	}

	return bundle
}

func (e *TokenExchanger) exchangeError(grantType, endpoint string, err error) error {
	exErr := &TokenExchangeError{GrantType: grantType, Err: err}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.Response != nil {
			exErr.StatusCode = retrieveErr.Response.StatusCode
		}
		exErr.Body = truncateBody(retrieveErr.Body)
		exErr.ErrorCode = retrieveErr.ErrorCode
		exErr.ErrorDescription = retrieveErr.ErrorDescription
	}

	e.logger.Debug("Token request failed",
		"grant_type", grantType,
		"endpoint", endpoint,
		"status", exErr.StatusCode,
		"error_code", exErr.ErrorCode)

	return exErr
}
