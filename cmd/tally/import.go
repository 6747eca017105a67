package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/ofx"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import transactions from bank statements",
	}
	cmd.AddCommand(importOFXCmd())
	return cmd
}

func importOFXCmd() *cobra.Command {
	var (
		suggest      bool
		dryRun       bool
		listAccounts bool
	)
	cmd := &cobra.Command{
		Use:   "ofx <file|directory>...",
		Short: "Import OFX/QFX statement files",
		Long: `Import transactions from OFX or QFX files exported by your bank.

Debits become expenses and credits become income. Entries are filed under
"other" unless --suggest is given and a suggestion matches a category.
Entries already imported from an earlier run are skipped, so the same file
can be imported again safely.`,
		Example: `  tally import ofx ~/Downloads/checking.qfx
  tally import ofx ~/Downloads/statements/ --suggest`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := collectOFXFiles(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no OFX/QFX files found")
			}

			out := cmd.OutOrStdout()
			parser := ofx.NewParser()
			if listAccounts {
				return printAccounts(cmd.Context(), parser, files, out)
			}

			fmt.Fprintln(out, cli.FormatTitle("Importing OFX statements"))
			var entries []ofx.Entry
			for _, file := range files {
				parsed, err := parseOFXFile(cmd.Context(), parser, file)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%s: %d entries", filepath.Base(file), len(parsed))))
				entries = append(entries, parsed...)
			}

			if dryRun {
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Dry run: %d entries parsed, nothing imported", len(entries))))
				return nil
			}

			return withApp(cmd.Context(), func(a *app) error {
				return runImport(cmd.Context(), a, entries, suggest, out)
			})
		},
	}
	cmd.Flags().BoolVar(&suggest, "suggest", false, "categorize expenses with accepted suggestions")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse files without importing")
	cmd.Flags().BoolVar(&listAccounts, "list-accounts", false, "list the accounts in each file without importing")
	return cmd
}

func runImport(ctx context.Context, a *app, entries []ofx.Entry, suggest bool, out io.Writer) error {
	handler := cli.NewInterruptHandler(out)
	ctx = handler.HandleInterrupts(ctx, "Import", true)

	bar := progressbar.NewOptions(len(entries),
		progressbar.OptionSetWriter(out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing transactions...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(out)
		}),
	)

	opts := []ofx.ImporterOption{
		ofx.WithTracker(a.store),
		ofx.WithLogger(a.logger),
		ofx.WithProgress(func(done, _ int) {
			if err := bar.Set(done); err != nil {
				slog.Warn("failed to update progress bar", "error", err)
			}
		}),
	}
	if suggest {
		if a.enableSuggestions() {
			opts = append(opts, ofx.WithSuggester(a.suggester), ofx.WithMinLength(a.settings.MinLength))
		} else {
			fmt.Fprintln(out, cli.FormatWarning("Suggestions are not configured; entries will be filed under other"))
		}
	}

	result, err := ofx.NewImporter(a.ledger, opts...).Import(ctx, entries)
	if err != nil {
		if handler.WasInterrupted() || errors.Is(err, context.Canceled) {
			fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Imported %d entries before stopping", result.Imported)))
			return nil
		}
		return fmt.Errorf("import failed: %w", err)
	}

	summary := fmt.Sprintf("Imported:   %d\nDuplicates: %d\nInvalid:    %d\nSuggested:  %d",
		result.Imported, result.Duplicates, result.Invalid, result.Suggested)
	fmt.Fprintln(out, cli.RenderBox("Import complete", summary))
	return nil
}

func printAccounts(ctx context.Context, parser *ofx.Parser, files []string, out io.Writer) error {
	for _, file := range files {
		f, err := os.Open(file) // #nosec G304 - user-supplied statement file
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", file, err)
		}
		accounts, err := parser.GetAccounts(ctx, f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("failed to read accounts from %s: %w", file, err)
		}
		fmt.Fprintln(out, cli.RenderBox(filepath.Base(file), strings.Join(accounts, "\n")))
	}
	return nil
}

func parseOFXFile(ctx context.Context, parser *ofx.Parser, path string) ([]ofx.Entry, error) {
	f, err := os.Open(path) // #nosec G304 - user-supplied statement file
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	entries, err := parser.ParseFile(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return entries, nil
}

// collectOFXFiles expands directories into the OFX/QFX files they contain.
func collectOFXFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to access %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", arg, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if isOFXFile(e.Name()) {
				files = append(files, filepath.Join(arg, e.Name()))
			}
		}
	}
	return files, nil
}

func isOFXFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".ofx" || ext == ".qfx"
}
