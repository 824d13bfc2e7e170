package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"qbank/resolver"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var heal bool

	cmd := &cobra.Command{
		Use:   "resolve <category> <identifier>",
		Short: "Resolve an identifier and print the strategy trace",
		Args:  cobra.ExactArgs(2),
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

			category, err := a.store.FindCategoryByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var pending []resolver.HealRequest
			r := a.newResolver(resolver.HealerFunc(func(req resolver.HealRequest) {
				pending = append(pending, req)
			}))
			res, resolveErr := r.Resolve(cmd.Context(), category.ID, args[1])

			out := cmd.OutOrStdout()
			if res != nil {
				fmt.Fprintln(out, renderTrace(res.Trace))
			}
			if resolveErr != nil {
				return resolveErr
			}
			fmt.Fprintf(out, "%s  %s\n%s\n", res.Question.ID, displaySlug(res.Question.Slug), res.Question.Text)

			for _, req := range pending {
				if !heal {
					fmt.Fprintln(out, "slug needs healing; rerun with --heal to apply")
					continue
				}
				assigned, err := a.guard.Heal(cmd.Context(), req)
				if err != nil {
					return fmt.Errorf("heal slug: %w", err)
				}
				fmt.Fprintf(out, "slug healed: %s\n", assigned)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&heal, "heal", false, "Apply the slug correction when a fallback strategy matched")
	return cmd
}

func displaySlug(s string) string {
	if s == "" {
		return "(no slug)"
	}
	return s
}

func renderTrace(trace []resolver.Attempt) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Strategy", "Verdict", "Candidates", "Duration"})
	for i, at := range trace {
		tw.AppendRow(table.Row{
			strconv.Itoa(i + 1),
			at.Strategy,
			at.Verdict.String(),
			strconv.Itoa(at.Candidates),
			at.Duration.Round(time.Microsecond).String(),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
