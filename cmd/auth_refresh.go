package cmd

import (
	"canvamcp/internal/oauth"

	"github.com/spf13/cobra"
)

// Refresh-specific flags
var (
	refreshToken    string
	refreshClientID string
)

// authRefreshCmd represents the auth refresh command
var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange a refresh token for a new access token",
	Long: `Exchange a refresh token for a new access token.

The refresh token comes from --refresh-token, CANVA_MCP_REFRESH_TOKEN or the
token section of the config file. The client is the configured static client,
else the client ID recorded with the token (--client-id, token.clientID).
When the server does not issue a new refresh token, the old one is kept.

Examples:
  canvamcp auth refresh --refresh-token <token> --client-id <id>
  CANVA_MCP_REFRESH_TOKEN=<token> canvamcp auth refresh -o json`,
	RunE: runAuthRefresh,
}

func init() {
	authRefreshCmd.Flags().StringVar(&refreshToken, "refresh-token", "", "refresh token to exchange")
	authRefreshCmd.Flags().StringVar(&refreshClientID, "client-id", "", "client ID that obtained the token")
}

func runAuthRefresh(cmd *cobra.Command, args []string) error {
	if err := validateOutputFormat(); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	auth, err := newAuthenticator(cfg)
	if err != nil {
		return err
	}

	req := oauth.RefreshRequest{
		RefreshToken: cfg.Token.RefreshToken,
		ClientID:     cfg.Token.ClientID,
	}
	if cmd.Flags().Changed("refresh-token") {
		req.RefreshToken = refreshToken
	}
	if cmd.Flags().Changed("client-id") {
		req.ClientID = refreshClientID
	}

	authPrint(cmd.ErrOrStderr(), "Refreshing access token at %s...\n", auth.ServerURL())

	bundle, err := auth.Refresh(cmd.Context(), req)
	if err != nil {
		return err
	}

	return printToken(cmd.OutOrStdout(), bundle)
}
