package config

import "fmt"

// ConfigurationError represents an error reading or parsing a configuration file.
type ConfigurationError struct {
	FilePath  string // Full path to the file that caused the error
	ErrorType string // Type of error (parse, io)
	Message   string // Human-readable error message
	Err       error
}

// Error implements the error interface
func (ce *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s error in %s: %s", ce.ErrorType, ce.FilePath, ce.Message)
}

func (ce *ConfigurationError) Unwrap() error {
	return ce.Err
}
