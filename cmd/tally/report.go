package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/tally/internal/aggregate"
	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

func listCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return common.NewUserError("--limit cannot be negative", nil)
			}
			return withApp(cmd.Context(), func(a *app) error {
				txns := a.ledger.All()
				if limit > 0 && limit < len(txns) {
					txns = txns[:limit]
				}
				return cli.RenderTransactions(cmd.OutOrStdout(), txns, a.registry)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most this many transactions (0 for all)")
	return cmd
}

func summaryCmd() *cobra.Command {
	var window string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show spending for today, this week and this month",
		Long: `Show expense totals and per-category breakdowns. Income is never counted
as spending. Without --window all three windows are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			windows := model.AllWindows()
			if window != "" {
				w, err := model.ParseWindow(window)
				if err != nil {
					return common.NewUserError("--window must be daily, weekly or monthly", err)
				}
				windows = []model.Window{w}
			}

			return withApp(cmd.Context(), func(a *app) error {
				out := cmd.OutOrStdout()
				src := aggregate.Transactions(a.ledger.All())
				now := time.Now()
				for i, w := range windows {
					s, err := a.engine.Summarize(src, w, now)
					if err != nil {
						return fmt.Errorf("failed to summarize %s: %w", w, err)
					}
					if i > 0 {
						fmt.Fprintln(out)
					}
					if err := cli.RenderSummary(out, s, a.engine.Breakdown(s)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&window, "window", "w", "", "daily, weekly or monthly")
	return cmd
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show total income, expenses and balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				totals := aggregate.Balance(aggregate.Transactions(a.ledger.All()))
				return cli.RenderBalance(cmd.OutOrStdout(), totals)
			})
		},
	}
}
