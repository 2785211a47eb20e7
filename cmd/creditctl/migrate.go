package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"credit_analysis/pkg/core/store"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres tables used by the postgres store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			dbURL := viper.GetString("database.url")
			if dbURL == "" {
				return errors.New("migrate requires --database-url or CREDIT_DATABASE_URL")
			}
			if err := store.InitDB(ctx, dbURL); err != nil {
				return err
			}
			defer store.Close()

			if err := store.EnsureSchema(ctx, store.GetPool()); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}

			logger.Info().Msg("schema up to date")
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
