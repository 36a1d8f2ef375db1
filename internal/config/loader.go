package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"canvamcp/pkg/logging"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/canvamcp"
	configFileName = "config.yaml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "CANVA_MCP_"
)

// osUserHomeDir is replaced in tests.
var osUserHomeDir = os.UserHomeDir

// GetDefaultConfigPath returns ~/.config/canvamcp/config.yaml.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

// LoadConfig loads the configuration file at configPath on top of the
// defaults and applies environment overrides. An empty configPath means the
// default location; a missing file is not an error.
func LoadConfig(configPath string) (Config, error) {
	if configPath == "" {
		defaultPath, err := GetDefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		configPath = defaultPath
	}

	config := GetDefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configPath)
	case err != nil:
		return Config{}, &ConfigurationError{FilePath: configPath, ErrorType: "io", Message: err.Error(), Err: err}
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, &ConfigurationError{FilePath: configPath, ErrorType: "parse", Message: err.Error(), Err: err}
		}
		logging.Debug("ConfigLoader", "Loaded configuration from %s", configPath)
	}

	if err := ApplyEnv(&config); err != nil {
		return Config{}, err
	}

	return config, nil
}

// LoadEnvFile loads variables from a .env file into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return &ConfigurationError{FilePath: path, ErrorType: "parse", Message: err.Error(), Err: err}
	}
	logging.Debug("ConfigLoader", "Loaded environment from %s", path)
	return nil
}

// ApplyEnv overrides config with CANVA_MCP_* environment variables.
func ApplyEnv(config *Config) error {
	stringVars := map[string]*string{
		"SERVER_URL":             &config.Server.URL,
		"AUTHORIZATION_ENDPOINT": &config.Server.AuthorizationEndpoint,
		"TOKEN_ENDPOINT":         &config.Server.TokenEndpoint,
		"REGISTRATION_ENDPOINT":  &config.Server.RegistrationEndpoint,
		"CLIENT_ID":              &config.Client.ID,
		"CLIENT_SECRET":          &config.Client.Secret,
		"BIND_HOST":              &config.Callback.BindHost,
		"CALLBACK_PATH":          &config.Callback.Path,
		"PUBLIC_CALLBACK_URL":    &config.Callback.PublicURL,
		"ACCESS_TOKEN":           &config.Token.AccessToken,
		"REFRESH_TOKEN":          &config.Token.RefreshToken,
		"TOKEN_CLIENT_ID":        &config.Token.ClientID,
		"LOG_LEVEL":              &config.LogLevel,
	}
	for name, target := range stringVars {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*target = v
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "SCOPES"); ok {
		config.Scopes = strings.Fields(strings.ReplaceAll(v, ",", " "))
	}

	if v, ok := os.LookupEnv(EnvPrefix + "CALLBACK_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return ValidationError{Field: EnvPrefix + "CALLBACK_PORT", Value: v, Message: "must be an integer"}
		}
		config.Callback.Port = port
	}

	if v, ok := os.LookupEnv(EnvPrefix + "TOKEN_EXPIRY"); ok {
		expiry, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return ValidationError{Field: EnvPrefix + "TOKEN_EXPIRY", Value: v, Message: "must be unix milliseconds"}
		}
		config.Token.Expiry = expiry
	}

	for name, target := range map[string]*bool{
		"OPEN_BROWSER": &config.OpenBrowser,
		"DISCOVERY":    &config.Server.Discovery,
	} {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return ValidationError{Field: EnvPrefix + name, Value: v, Message: "must be a boolean"}
			}
			*target = b
		}
	}

	return nil
}
