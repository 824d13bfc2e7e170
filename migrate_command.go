package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes for the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.ensure()
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close(context.WithoutCancel(cmd.Context()))

			if err := a.migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate %s: %w", cfg.StoreBackend, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", cfg.StoreBackend)
			return nil
		},
	}
}
