package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
)

type tokenOptions struct {
	subject string
	ttl     time.Duration
}

// NewTokenCommand mints credentials for the admin API.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint API tokens",
	}

	opts := &tokenOptions{}
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Mint an admin JWT signed with STOREFRONT_JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadJWT()
			if err != nil {
				return err
			}
			if opts.ttl > 0 {
				cfg.ExpirationMinutes = int(opts.ttl.Minutes())
			}
			token, err := pkgAuth.MintAdminToken(cfg, time.Now(), pkgAuth.AdminTokenPayload{Subject: opts.subject})
			if err != nil {
				return fmt.Errorf("minting admin token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	admin.Flags().StringVar(&opts.subject, "subject", "", "operator the token is issued to")
	admin.Flags().DurationVar(&opts.ttl, "ttl", 0, "token lifetime (default STOREFRONT_JWT_EXPIRATION_MINUTES)")
	_ = admin.MarkFlagRequired("subject")

	cmd.AddCommand(admin)
	return cmd
}
