package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	mw "github.com/kiranshivaraju/backoffice/internal/api/middleware"
	"github.com/kiranshivaraju/backoffice/internal/config"
	"github.com/kiranshivaraju/backoffice/internal/store"
	"github.com/spf13/cobra"
)

// adminScopes are granted to the bootstrap token of a new merchant.
var adminScopes = []string{"admin"}

func createMerchantCmd() *cobra.Command {
	var (
		name    string
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "create-merchant",
		Short: "Provision a merchant and print a bootstrap admin token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name = strings.TrimSpace(name)
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			if ttl <= 0 {
				return fmt.Errorf("--token-ttl must be positive")
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return createMerchant(cmd.Context(), cfg, cmd.OutOrStdout(), name, subject, ttl)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name of the merchant.")
	cmd.Flags().StringVar(&subject, "subject", "bootstrap", "Subject claim of the issued token.")
	cmd.Flags().DurationVar(&ttl, "token-ttl", 24*time.Hour, "Lifetime of the issued token.")
	return cmd
}

func createMerchant(ctx context.Context, cfg *config.Config, out io.Writer, name, subject string, ttl time.Duration) error {
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := store.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	m, err := store.NewPostgresStore(pool).CreateMerchant(ctx, name)
	if err != nil {
		return err
	}

	auth := mw.NewAuth(nil, cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	token, err := auth.SignToken(m.ID, subject, adminScopes, ttl)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}

	fmt.Fprintf(out, "merchant_id=%d\n", m.ID)
	fmt.Fprintf(out, "token=%s\n", token)
	return nil
}
