package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/domain"
)

var devTokenCmd = &cobra.Command{
	Use:   "dev-token <user-id> <role>",
	Short: "Sign a bearer token for local testing (disabled in production)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cfg.App.Env == "production" {
			return fmt.Errorf("dev-token is disabled when APP_ENV=production")
		}
		role := domain.Role(args[1])
		if !role.Valid() {
			return fmt.Errorf("unknown role %q", args[1])
		}
		tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
		token, expiresAt, err := tokens.GenerateToken(args[0], role)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format("2006-01-02T15:04:05Z07:00"))
		return nil
	},
}
