package cmd

import (
	"fmt"
	"io"
	"time"

	"canvamcp/internal/config"
	pkgoauth "canvamcp/pkg/oauth"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// Info-specific flags
var (
	infoAccessToken string
	infoExpiry      int64
)

// authInfoCmd represents the auth info command
var authInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show whether a token is present and when it expires",
	Long: `Show information about an access token without contacting the server.

The token and its expiry (unix milliseconds) come from flags,
CANVA_MCP_ACCESS_TOKEN / CANVA_MCP_TOKEN_EXPIRY or the config file.

Examples:
  canvamcp auth info
  canvamcp auth info --access-token <token> --expiry 1767225600000 -o json`,
	RunE: runAuthInfo,
}

func init() {
	authInfoCmd.Flags().StringVar(&infoAccessToken, "access-token", "", "access token to inspect")
	authInfoCmd.Flags().Int64Var(&infoExpiry, "expiry", 0, "token expiry in unix milliseconds")
}

func runAuthInfo(cmd *cobra.Command, args []string) error {
	if err := validateOutputFormat(); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	accessToken, expiry := cfg.Token.AccessToken, cfg.Token.Expiry
	if cmd.Flags().Changed("access-token") {
		accessToken = infoAccessToken
	}
	if cmd.Flags().Changed("expiry") {
		expiry = infoExpiry
	}

	info, err := tokenInfoFor(cfg, accessToken, expiry)
	if err != nil {
		return err
	}

	if outputFormat == OutputFormatJSON {
		if err := writeJSON(cmd.OutOrStdout(), info); err != nil {
			return err
		}
	} else {
		renderTokenInfo(cmd.OutOrStdout(), info)
	}

	if !info.HasAccessToken {
		return errNoAccessToken
	}
	return nil
}

// tokenInfoFor summarizes accessToken and its expiry (unix milliseconds)
// through the authenticator built from cfg.
func tokenInfoFor(cfg config.Config, accessToken string, expiry int64) (pkgoauth.TokenInfo, error) {
	auth, err := newAuthenticator(cfg)
	if err != nil {
		return pkgoauth.TokenInfo{}, err
	}
	return auth.TokenInfo(accessToken, pkgoauth.ExpiryFromUnixMilli(expiry)), nil
}

// renderTokenInfo prints info as a key/value table.
func renderTokenInfo(w io.Writer, info pkgoauth.TokenInfo) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{text.FgHiCyan.Sprint("KEY"), text.FgHiCyan.Sprint("VALUE")})

	t.AppendRow(table.Row{"Access token", formatPresence(info.HasAccessToken, info.AccessTokenLength)})
	if info.TokenExpiry > 0 {
		expiresAt := time.UnixMilli(info.TokenExpiry)
		t.AppendRow(table.Row{"Expires", expiresAt.Format(time.RFC3339)})
		t.AppendRow(table.Row{"Status", formatTokenStatus(info)})
	} else {
		t.AppendRow(table.Row{"Expires", text.FgHiBlack.Sprint("unknown")})
	}
	t.AppendRow(table.Row{"Message", info.Message})

	t.Render()
}

func formatPresence(present bool, length int) string {
	if !present {
		return text.FgYellow.Sprint("Not present")
	}
	return text.FgGreen.Sprintf("Present (%d characters)", length)
}

func formatTokenStatus(info pkgoauth.TokenInfo) string {
	if info.IsExpired {
		return text.FgRed.Sprint("Expired")
	}
	return text.FgGreen.Sprint("Valid") + fmt.Sprintf(" (expires in %s)", formatDuration(time.Duration(info.TimeUntilExpirySeconds)*time.Second))
}
