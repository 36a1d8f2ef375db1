package config

import (
	"fmt"
	"net/url"
	"strings"

	"canvamcp/internal/oauth"
	"canvamcp/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Validate checks the configuration and returns all problems at once.
func (c Config) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(c.Server.URL) == "" {
		errs.Add("server.url", "is required")
	} else if !isHTTPURL(c.Server.URL) {
		errs.Add("server.url", "must be an absolute http or https URL", c.Server.URL)
	}

	for _, ep := range []struct {
		field, value string
	}{
		{"server.authorizationEndpoint", c.Server.AuthorizationEndpoint},
		{"server.tokenEndpoint", c.Server.TokenEndpoint},
		{"server.registrationEndpoint", c.Server.RegistrationEndpoint},
	} {
		if ep.value != "" && !strings.HasPrefix(ep.value, "/") && !isHTTPURL(ep.value) {
			errs.Add(ep.field, "must be an absolute URL or a path starting with /", ep.value)
		}
	}

	if c.Client.Secret != "" && c.Client.ID == "" {
		errs.Add("client.secret", "requires client.id")
	}

	if c.Callback.Port < 0 || c.Callback.Port > 65535 {
		errs.Add("callback.port", "must be between 0 and 65535", c.Callback.Port)
	}
	if c.Callback.Path != "" && !strings.HasPrefix(c.Callback.Path, "/") {
		errs.Add("callback.path", "must start with /", c.Callback.Path)
	}
	if c.Callback.PublicURL != "" {
		if !isHTTPURL(c.Callback.PublicURL) {
			errs.Add("callback.publicURL", "must be an absolute http or https URL", c.Callback.PublicURL)
		}
	} else if c.Callback.BindHost != "" && !oauth.IsLoopbackHost(c.Callback.BindHost) {
		errs.Add("callback.bindHost", "must be a loopback address unless callback.publicURL is set", c.Callback.BindHost)
	}

	if c.Timeout <= 0 {
		errs.Add("timeout", "must be positive", c.Timeout)
	}
	if c.HTTPTimeout <= 0 {
		errs.Add("httpTimeout", "must be positive", c.HTTPTimeout)
	}
	if c.RegistrationCacheTTL < 0 {
		errs.Add("registrationCacheTTL", "must not be negative", c.RegistrationCacheTTL)
	}

	if c.LogLevel != "" {
		if _, err := logging.ParseLevel(c.LogLevel); err != nil {
			errs.Add("logLevel", err.Error(), c.LogLevel)
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
