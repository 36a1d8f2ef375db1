package cmd

import (
	"time"

	"canvamcp/internal/config"
	"canvamcp/pkg/logging"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// Login-specific flags
var (
	loginServer    string
	loginClientID  string
	loginPort      int
	loginPublicURL string
	loginNoBrowser bool
	loginTimeout   time.Duration
)

// authLoginCmd represents the auth login command
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize in the browser and print the issued token",
	Long: `Run the OAuth authorization code flow with PKCE.

A local listener receives the redirect from the authorization server. Unless
a client ID is configured, a public client is registered dynamically for the
callback URL first. The browser is opened on the authorization URL; the URL
is printed as well in case that fails.

Examples:
  canvamcp auth login                       # Default Canva server and port 29865
  canvamcp auth login --port 0              # Use an ephemeral callback port
  canvamcp auth login --no-browser          # Only print the authorization URL
  canvamcp auth login --public-url https://auth.example.com/oauth/callback`,
	RunE: runAuthLogin,
}

func init() {
	authLoginCmd.Flags().StringVar(&loginServer, "server", "", "authorization server URL (overrides config)")
	authLoginCmd.Flags().StringVar(&loginClientID, "client-id", "", "static OAuth client ID (skips dynamic registration)")
	authLoginCmd.Flags().IntVar(&loginPort, "port", 0, "loopback callback port (0 picks a free port)")
	authLoginCmd.Flags().StringVar(&loginPublicURL, "public-url", "", "public callback URL, used instead of the loopback listener URL")
	authLoginCmd.Flags().BoolVar(&loginNoBrowser, "no-browser", false, "do not open the browser")
	authLoginCmd.Flags().DurationVar(&loginTimeout, "timeout", 0, "how long to wait for the redirect (default from config, 5m)")
}

// applyLoginFlags overrides cfg with the flags that were set.
func applyLoginFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.Server.URL = loginServer
	}
	if flags.Changed("client-id") {
		cfg.Client.ID = loginClientID
		cfg.Client.Secret = ""
	}
	if flags.Changed("port") {
		cfg.Callback.Port = loginPort
	}
	if flags.Changed("public-url") {
		cfg.Callback.PublicURL = loginPublicURL
	}
	if loginNoBrowser {
		cfg.OpenBrowser = false
	}
	if flags.Changed("timeout") {
		cfg.Timeout = loginTimeout
	}
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	if err := validateOutputFormat(); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyLoginFlags(cmd, &cfg)

	auth, err := newAuthenticator(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	attempt, err := auth.Begin(ctx)
	if err != nil {
		return err
	}
	defer attempt.Cancel()

	logging.Debug("CLI", "Authorization attempt %s listening on port %d", attempt.ID, attempt.Port())

	stderr := cmd.ErrOrStderr()
	authPrintln(stderr, "Open the following URL to authorize canvamcp:")
	// The URL is essential even in quiet mode when no browser is opened.
	if !quietFlag || !cfg.OpenBrowser {
		cmd.PrintErrln("  " + attempt.AuthURL)
	}
	authPrintln(stderr)

	var s *spinner.Spinner
	if !quietFlag {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(stderr))
		s.Suffix = " Waiting for authorization..."
		s.Start()
	}

	bundle, err := attempt.Wait(ctx)
	if s != nil {
		if err != nil {
			s.FinalMSG = text.FgRed.Sprint("Authorization failed") + "\n"
		} else {
			s.FinalMSG = text.FgGreen.Sprint("✓") + " Authorization successful\n"
		}
		s.Stop()
	}
	if err != nil {
		return err
	}

	return printToken(cmd.OutOrStdout(), bundle)
}
