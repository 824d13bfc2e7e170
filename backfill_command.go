package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newBackfillCommand(ctx *commandContext) *cobra.Command {
	var batch int

	cmd := &cobra.Command{
		Use:   "backfill-slugs",
		Short: "Assign slugs to questions that have none",
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

			result, err := a.newService(nil).BackfillSlugs(cmd.Context(), batch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scanned %d, assigned %d, failed %d\n",
				result.Scanned, result.Assigned, result.Failed)
			return nil
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 100, "Questions per batch")
	return cmd
}
