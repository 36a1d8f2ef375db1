package cmd

import (
	"errors"
	"fmt"
	"os"

	"canvamcp/internal/oauth"
	"canvamcp/pkg/logging"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (invalid configuration, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates no usable token or client is available.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the OAuth flow failed.
	ExitCodeAuthFailed = 3
)

// Output formats accepted by --output.
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Global flags
var (
	configPath   string
	envFilePath  string
	logLevelFlag string
	debugFlag    bool
	outputFormat string
	quietFlag    bool
)

// rootCmd represents the base command for the canvamcp application.
var rootCmd = &cobra.Command{
	Use:   "canvamcp",
	Short: "Authenticate to the Canva MCP server",
	Long: `canvamcp obtains and refreshes OAuth access tokens for the Canva MCP server.

It runs the OAuth 2.0 Authorization Code flow with PKCE through a local
callback listener, registering a client dynamically when no client ID is
configured. Tokens are printed, never stored; the host keeps them.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging()
	},
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "canvamcp version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	if errors.Is(err, oauth.ErrNoRefreshToken) ||
		errors.Is(err, oauth.ErrNoClientCredentials) ||
		errors.Is(err, errNoAccessToken) {
		return ExitCodeAuthRequired
	}

	if oauth.IsAuthFlowError(err) {
		return ExitCodeAuthFailed
	}

	// Default to general error
	return ExitCodeError
}

func initLogging() error {
	level := logLevelFlag
	if debugFlag {
		level = "debug"
	}
	parsed, err := logging.ParseLevel(level)
	if err != nil {
		return err
	}
	logging.InitForCLI(parsed, os.Stderr)
	return nil
}

func validateOutputFormat() error {
	switch outputFormat {
	case OutputFormatText, OutputFormatJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (use %s or %s)", outputFormat, OutputFormatText, OutputFormatJSON)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is $HOME/.config/canvamcp/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFilePath, "env-file", ".env", "file with CANVA_MCP_* environment variables")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", OutputFormatText, "output format (text, json)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress progress messages")
}
