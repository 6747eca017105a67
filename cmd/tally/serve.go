package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/tally/internal/api"
	"github.com/Veraticus/tally/internal/cli"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over a JSON HTTP API",
		Long: `Start an HTTP server exposing categories, transactions, summaries, the
balance and category suggestions as JSON. Stops cleanly on Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			addr := viper.GetString("server.addr")

			return withApp(ctx, func(a *app) error {
				opts := []api.Option{api.WithLogger(a.logger), api.WithMinLength(a.settings.MinLength)}
				if a.enableSuggestions() {
					opts = append(opts, api.WithSuggester(a.suggester))
				}

				server := api.NewServer(a.registry, a.ledger, a.engine, opts...)
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Listening on "+addr))
				return server.ListenAndServe(ctx, addr)
			})
		},
	}
	cmd.Flags().String("addr", ":8080", "address to listen on")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}
