package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// authCmd represents the auth command group
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Obtain and inspect OAuth tokens",
	Long: `Obtain, refresh and inspect OAuth tokens for the Canva MCP server.

Examples:
  canvamcp auth login                      # Authorize in the browser and print the token
  canvamcp auth login --no-browser         # Print the authorization URL only
  canvamcp auth login -o json              # Print the token as JSON for the host
  canvamcp auth refresh --refresh-token rt # Exchange a refresh token
  canvamcp auth info                       # Show expiry of the configured token`,
}

// authPrint prints output only if the --quiet flag is not set.
// Use this for progress messages and non-essential output.
func authPrint(w io.Writer, format string, args ...interface{}) {
	if !quietFlag {
		fmt.Fprintf(w, format, args...)
	}
}

// authPrintln prints a line only if the --quiet flag is not set.
func authPrintln(w io.Writer, a ...interface{}) {
	if !quietFlag {
		fmt.Fprintln(w, a...)
	}
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authRefreshCmd)
	authCmd.AddCommand(authInfoCmd)
}
