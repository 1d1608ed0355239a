// Command token mints bearer tokens for calling the upload and posts
// endpoints during local development. It signs with JWT_SECRET, read the same
// way the API server reads it.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/postboard/service/internal/auth"
	"github.com/postboard/service/internal/config"
)

type tokenOptions struct {
	userID   string
	username string
	ttl      time.Duration
}

func newRootCommand() *cobra.Command {
	o := &tokenOptions{}

	cmd := &cobra.Command{
		Use:           "token --user-id ID [--username NAME] [--ttl DURATION]",
		Short:         "Mint a bearer token for local testing",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if cfg.IsProduction() {
				return fmt.Errorf("refusing to mint tokens with APP_ENV=production")
			}

			token, err := auth.NewIssuer(cfg.JWTSecret, o.ttl).Issue(o.userID, o.username)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&o.userID, "user-id", "", "subject of the token")
	cmd.Flags().StringVar(&o.username, "username", "", "username claim")
	cmd.Flags().DurationVar(&o.ttl, "ttl", auth.DefaultTTL, "token lifetime")
	_ = cmd.MarkFlagRequired("user-id")

	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
