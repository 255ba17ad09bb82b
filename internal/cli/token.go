package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/biens/internal/auth"
)

func newTokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <email>",
		Short: "Issue a bearer token",
		Long:  "Sign a bearer token for email with the configured jwt secret.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return fmt.Errorf("no jwt secret configured (set jwt_secret or BIENS_JWT_SECRET)")
			}

			issuer, err := auth.NewTokenIssuer(cfg.JWTSecret)
			if err != nil {
				return err
			}
			tok, err := issuer.Issue(args[0], ttl)
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"token":      tok,
					"expires_at": time.Now().Add(ttl).UTC(),
				})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	return cmd
}
