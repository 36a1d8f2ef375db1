package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"canvamcp/internal/config"
	"canvamcp/internal/oauth"
	"canvamcp/pkg/logging"
	pkgoauth "canvamcp/pkg/oauth"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// errNoAccessToken is returned when a command needs a token that was not supplied.
var errNoAccessToken = errors.New("no access token, run 'canvamcp auth login' first")

// loadConfig loads the .env file and the config file, applies the config's
// log level unless one was given on the command line, and validates.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	if err := config.LoadEnvFile(envFilePath); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Config{}, err
	}

	if !debugFlag && !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" {
		if level, err := logging.ParseLevel(cfg.LogLevel); err == nil {
			logging.InitForCLI(level, cmd.ErrOrStderr())
		}
	}

	return cfg, nil
}

// authenticatorConfig maps the configuration onto the Authenticator.
func authenticatorConfig(cfg config.Config) oauth.AuthenticatorConfig {
	return oauth.AuthenticatorConfig{
		ServerURL:             cfg.Server.URL,
		AuthorizationEndpoint: cfg.Server.ResolveEndpoint(cfg.Server.AuthorizationEndpoint),
		TokenEndpoint:         cfg.Server.ResolveEndpoint(cfg.Server.TokenEndpoint),
		RegistrationEndpoint:  cfg.Server.ResolveEndpoint(cfg.Server.RegistrationEndpoint),
		Discovery:             cfg.Server.Discovery,
		ClientID:              cfg.Client.ID,
		ClientSecret:          cfg.Client.Secret,
		Scopes:                cfg.Scopes,
		CallbackPort:          cfg.Callback.Port,
		BindHost:              cfg.Callback.BindHost,
		CallbackPath:          cfg.Callback.Path,
		PublicCallbackURL:     cfg.Callback.PublicURL,
		OpenBrowser:           cfg.OpenBrowser,
		Timeout:               cfg.Timeout,
		HTTPClient:            &http.Client{Timeout: cfg.HTTPTimeout},
		RegistrationCache:     oauth.NewRegistrationCache(cfg.RegistrationCacheTTL),
		Logger:                logging.Logger("OAuth"),
	}
}

func newAuthenticator(cfg config.Config) (*oauth.Authenticator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return oauth.NewAuthenticator(authenticatorConfig(cfg))
}

// tokenOutput is the JSON shape handed to the host. expiry_timestamp is in
// unix milliseconds.
type tokenOutput struct {
	AccessToken     string   `json:"access_token"`
	RefreshToken    string   `json:"refresh_token,omitempty"`
	ExpiresIn       int64    `json:"expires_in"`
	TokenType       string   `json:"token_type,omitempty"`
	Scope           string   `json:"scope,omitempty"`
	Scopes          []string `json:"scopes,omitempty"`
	ExpiryTimestamp int64    `json:"expiry_timestamp,omitempty"`
	ClientID        string   `json:"client_id,omitempty"`
}

func newTokenOutput(bundle *pkgoauth.TokenBundle) tokenOutput {
	return tokenOutput{
		AccessToken:     bundle.AccessToken,
		RefreshToken:    bundle.RefreshToken,
		ExpiresIn:       bundle.ExpiresIn,
		TokenType:       bundle.TokenType,
		Scope:           bundle.Scope,
		Scopes:          bundle.Scopes(),
		ExpiryTimestamp: bundle.ExpiryTimestamp(),
		ClientID:        bundle.ClientID,
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printToken writes the token in the selected output format.
func printToken(w io.Writer, bundle *pkgoauth.TokenBundle) error {
	if outputFormat == OutputFormatJSON {
		return writeJSON(w, newTokenOutput(bundle))
	}

	fmt.Fprintf(w, "Access token:  %s\n", bundle.AccessToken)
	if bundle.RefreshToken != "" {
		fmt.Fprintf(w, "Refresh token: %s\n", bundle.RefreshToken)
	}
	if bundle.Scope != "" {
		fmt.Fprintf(w, "Scope:         %s\n", bundle.Scope)
	}
	if !bundle.ExpiresAt.IsZero() {
		fmt.Fprintf(w, "Expires:       %s (%s)\n", bundle.ExpiresAt.Format(time.RFC3339), formatExpiryWithDirection(bundle.ExpiresAt, time.Now()))
	}
	if bundle.ClientID != "" {
		fmt.Fprintf(w, "Client ID:     %s\n", bundle.ClientID)
	}
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "expired"
	}
	if d < time.Minute {
		return "< 1 minute"
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

// formatExpiryWithDirection formats a time as "in X" or "expired X ago".
func formatExpiryWithDirection(expiresAt, now time.Time) string {
	remaining := expiresAt.Sub(now)
	if remaining > 0 {
		return "in " + formatDuration(remaining)
	}
	return text.FgYellow.Sprintf("expired %s ago", formatDuration(-remaining))
}
