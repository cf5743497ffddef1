package main

import (
	"fmt"
	"time"

	"expense-ingest/pkg/auth"
	"expense-ingest/pkg/config"

	"github.com/spf13/cobra"
)

func newTokenCommand() *cobra.Command {
	var ownerID int64
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ownerID <= 0 {
				return fmt.Errorf("--owner must be positive")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			token, err := auth.NewJWTManager(cfg.JWT.SecretKey).GenerateToken(ownerID, ttl)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().Int64Var(&ownerID, "owner", 0, "owner id (required)")
	_ = cmd.MarkFlagRequired("owner")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	return cmd
}
