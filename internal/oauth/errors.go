package oauth

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoRefreshToken is returned by Refresh when no refresh token was supplied.
	ErrNoRefreshToken = errors.New("refresh token not found, please authenticate first")

	// ErrNoClientCredentials is returned when a refresh cannot determine which
	// OAuth client to use.
	ErrNoClientCredentials = errors.New("no client credentials: configure a client ID or supply the registration used to obtain the token")
)

// maxErrorBodyLen bounds how much of a response body is kept in an error.
const maxErrorBodyLen = 4096

func truncateBody(body []byte) string {
	if len(body) > maxErrorBodyLen {
		return string(body[:maxErrorBodyLen]) + "...(truncated)"
	}
	return string(body)
}

// RegistrationError indicates that dynamic client registration failed.
type RegistrationError struct {
	// Endpoint is the registration endpoint that was called.
	Endpoint string
	// StatusCode is the HTTP status of the response, or 0 if no response was received.
	StatusCode int
	// Body is the (possibly truncated) response body.
	Body string
	// Err is the underlying transport or decoding error, if any.
	Err error
}

func (e *RegistrationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("client registration at %s failed: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("client registration at %s failed with status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// AuthorizationDeniedError indicates that the authorization server redirected
// back with an OAuth error parameter, typically because the user declined.
type AuthorizationDeniedError struct {
	// Code is the OAuth error code, e.g. "access_denied".
	Code string
	// Description is the optional error_description parameter.
	Description string
}

func (e *AuthorizationDeniedError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authorization denied: %s - %s", e.Code, e.Description)
	}
	return fmt.Sprintf("authorization denied: %s", e.Code)
}

// StateMismatchError indicates that the redirect carried a state value that
// does not match the one issued for this attempt.
type StateMismatchError struct {
	// ReceivedLen is the length of the state value received (the value itself is not kept).
	ReceivedLen int
}

func (e *StateMismatchError) Error() string {
	return "OAuth state mismatch - possible CSRF attack"
}

// MissingCodeError indicates a redirect with a valid state but no authorization code.
type MissingCodeError struct{}

func (e *MissingCodeError) Error() string {
	return "no authorization code received"
}

// TokenExchangeError indicates a failed request to the token endpoint.
type TokenExchangeError struct {
	// GrantType is either authorization_code or refresh_token.
	GrantType string
	// StatusCode is the HTTP status of the response, or 0 if no response was received.
	StatusCode int
	// Body is the (possibly truncated) response body.
	Body string
	// ErrorCode is the RFC 6749 error code from the response, if present.
	ErrorCode string
	// ErrorDescription is the RFC 6749 error_description from the response, if present.
	ErrorDescription string
	// Err is the underlying error.
	Err error
}

func (e *TokenExchangeError) Error() string {
	op := "token exchange"
	if e.GrantType == "refresh_token" {
		op = "token refresh"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed with status %d: %s", op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s failed: %v", op, e.Err)
}

func (e *TokenExchangeError) Unwrap() error {
	return e.Err
}

// AuthorizationTimeoutError indicates that no usable redirect arrived in time.
type AuthorizationTimeoutError struct {
	Timeout time.Duration
}

func (e *AuthorizationTimeoutError) Error() string {
	return fmt.Sprintf("OAuth authentication timeout (%s)", e.Timeout)
}

// ListenerBindError indicates that the callback listener could not bind its address.
type ListenerBindError struct {
	Address string
	Err     error
}

func (e *ListenerBindError) Error() string {
	return fmt.Sprintf("failed to start OAuth callback server on %s: %v", e.Address, e.Err)
}

func (e *ListenerBindError) Unwrap() error {
	return e.Err
}

// IsAuthFlowError reports whether err is one of the terminal errors of an
// authorization attempt.
func IsAuthFlowError(err error) bool {
	var (
		regErr     *RegistrationError
		deniedErr  *AuthorizationDeniedError
		stateErr   *StateMismatchError
		codeErr    *MissingCodeError
		tokenErr   *TokenExchangeError
		timeoutErr *AuthorizationTimeoutError
		bindErr    *ListenerBindError
	)
	return errors.As(err, &regErr) ||
		errors.As(err, &deniedErr) ||
		errors.As(err, &stateErr) ||
		errors.As(err, &codeErr) ||
		errors.As(err, &tokenErr) ||
		errors.As(err, &timeoutErr) ||
		errors.As(err, &bindErr)
}
