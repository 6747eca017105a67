package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/tally/internal/aggregate"
	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/config"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger",
	}
	cmd.AddCommand(exportSheetsCmd())
	return cmd
}

func exportSheetsCmd() *cobra.Command {
	var auth bool
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Export transactions and summaries to Google Sheets",
		Long: `Write a Transactions sheet (newest first) and a Summary sheet (today, this
week, this month and the overall balance) to a Google spreadsheet.

Authenticate once with --auth using an OAuth client id and secret; the refresh
token is saved to sheets.token_file. A service account key file works too.`,
		Example: `  tally export sheets --auth
  tally export sheets`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if auth {
				if err := authorizeSheets(ctx, out); err != nil {
					return err
				}
			}

			cfg, err := config.LoadSheetsConfig(viper.GetViper())
			if err != nil {
				return common.NewUserError("Google Sheets is not configured (run 'tally export sheets --auth')", err)
			}

			return withApp(ctx, func(a *app) error {
				report, err := buildReport(a, time.Now())
				if err != nil {
					return err
				}

				writer, err := sheets.NewWriter(ctx, *cfg, a.logger)
				if err != nil {
					return err
				}
				id, err := writer.Export(ctx, report)
				if err != nil {
					return fmt.Errorf("export failed: %w", err)
				}
				fmt.Fprintln(out, cli.FormatSuccess("Exported to https://docs.google.com/spreadsheets/d/"+id))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&auth, "auth", false, "authorize access in the browser before exporting")
	return cmd
}

func authorizeSheets(ctx context.Context, out io.Writer) error {
	settings := config.SheetsSettings(viper.GetViper())
	_, err := sheets.Authorize(ctx, sheets.OAuth2Config{
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
		TokenFile:    settings.TokenFile,
		CallbackAddr: viper.GetString("sheets.callback_addr"),
	}, func(url string) {
		fmt.Fprintln(out, cli.RenderBox("Google Sheets authorization",
			"Open this URL in your browser and grant access:\n\n"+url))
	})
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}
	fmt.Fprintln(out, cli.FormatSuccess("Authorized; token saved to "+settings.TokenFile))
	return nil
}

func buildReport(a *app, now time.Time) (sheets.Report, error) {
	txns := a.ledger.All()
	src := aggregate.Transactions(txns)

	sections := make([]sheets.Section, 0, len(model.AllWindows()))
	for _, w := range model.AllWindows() {
		s, err := a.engine.Summarize(src, w, now)
		if err != nil {
			return sheets.Report{}, fmt.Errorf("failed to summarize %s: %w", w, err)
		}
		sections = append(sections, sheets.Section{Summary: s, Rows: a.engine.Breakdown(s)})
	}

	return sheets.BuildReport(sheets.ReportInput{
		GeneratedAt:  now,
		Labels:       a.registry,
		Transactions: txns,
		Sections:     sections,
		Totals:       aggregate.Balance(src),
	}), nil
}
