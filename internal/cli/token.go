package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"gopherai-docqa/internal/config"
	"gopherai-docqa/internal/pkg/jwtutil"
)

func newTokenCmd(opts *options) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API token for the tenant, signed with auth.jwt_secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(opts.configPath)
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = time.Duration(cfg.Auth.JWTExpireMinute) * time.Minute
			}
			token, err := jwtutil.GenerateToken(cfg.Auth.JWTSecret, ttl, opts.tenantID, subject)
			if err != nil {
				return err
			}
			return opts.render(cmd.OutOrStdout(), map[string]string{"token": token}, func(w io.Writer) {
				fmt.Fprintln(w, token)
			})
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "ragctl", "Subject recorded in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default auth.jwt_expire_minute)")
	return cmd
}
