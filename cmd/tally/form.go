package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/tui"
	"github.com/Veraticus/tally/internal/tui/themes"
)

func formCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "form",
		Short: "Enter a transaction in an interactive form",
		Long: `Open a form for a new transaction. While you type an expense description,
a category suggestion appears; press Ctrl+A to take it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				opts := []tui.Option{tui.WithTheme(themes.ByName(viper.GetString("tui.theme")))}
				if width := viper.GetInt("tui.width"); width > 0 {
					opts = append(opts, tui.WithWidth(width))
				}
				if a.enableSuggestions() {
					opts = append(opts, tui.WithSuggestions(a.newSession()))
				}

				txn, saved, err := tui.Run(ctx, a.ledger, a.registry, opts...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !saved {
					fmt.Fprintln(out, cli.FormatInfo("Nothing recorded"))
					return nil
				}
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Recorded %s %s on %s",
					txn.Description, cli.SignedAmount(txn), txn.Date.Format(dateLayout))))
				return nil
			})
		},
	}
	cmd.Flags().String("theme", "default", "color theme (default, catppuccin)")
	_ = viper.BindPFlag("tui.theme", cmd.Flags().Lookup("theme"))
	return cmd
}
