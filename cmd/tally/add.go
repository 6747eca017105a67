package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/tally/internal/category"
	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/ledger"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/suggest"
)

const dateLayout = "2006-01-02"

type addOptions struct {
	description      string
	amount           string
	date             string
	category         string
	kind             string
	suggest          bool
	acceptSuggestion bool
}

func addCmd() *cobra.Command {
	opts := &addOptions{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an income or expense",
		Long: `Record a transaction in the ledger.

With --suggest, tally asks the configured language model for a category and
prints it. The suggestion is only used when --accept-suggestion is given or
when you confirm it at the prompt.`,
		Example: `  tally add -d "Coffee with Sam" -a 4.50 -c food
  tally add -d "Monthly salary" -a 3000 -k income -c salary
  tally add -d "Uber to airport" -a 32.10 --suggest --accept-suggestion`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				return runAdd(cmd.Context(), a, opts, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "what the transaction was for")
	cmd.Flags().StringVarP(&opts.amount, "amount", "a", "", "positive amount, e.g. 12.50")
	cmd.Flags().StringVar(&opts.date, "date", "", "transaction date as YYYY-MM-DD (default: today)")
	cmd.Flags().StringVarP(&opts.category, "category", "c", "", "category id or label")
	cmd.Flags().StringVarP(&opts.kind, "kind", "k", string(model.KindExpense), "income or expense")
	cmd.Flags().BoolVar(&opts.suggest, "suggest", false, "ask for a category suggestion")
	cmd.Flags().BoolVar(&opts.acceptSuggestion, "accept-suggestion", false, "use the suggested category")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runAdd(ctx context.Context, a *app, opts *addOptions, in io.Reader, out io.Writer) error {
	draft, verr := parseDraft(a.registry, opts, time.Now())

	if verr.HasErrors() {
		fmt.Fprintln(out, cli.FormatValidationError(verr))
		return common.NewUserError("transaction not recorded", verr)
	}

	if opts.suggest || opts.acceptSuggestion {
		if categoryID, ok := suggestForAdd(ctx, a, opts, draft, in, out); ok {
			draft.CategoryID = categoryID
		}
	}

	txn, err := a.ledger.Append(ctx, draft)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			fmt.Fprintln(out, cli.FormatValidationError(err))
			return common.NewUserError("transaction not recorded", err)
		}
		return fmt.Errorf("failed to record transaction: %w", err)
	}

	label := txn.CategoryID
	if c, ok := a.registry.Resolve(txn.CategoryID); ok {
		label = c.Label
	}
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Recorded %s %s under %s on %s",
		txn.Kind, cli.SignedAmount(txn), label, txn.Date.Format(dateLayout))))
	return nil
}

// suggestForAdd prints a suggestion and returns its category when the user
// accepted it by flag or at the prompt.
func suggestForAdd(ctx context.Context, a *app, opts *addOptions, draft ledger.Draft, in io.Reader, out io.Writer) (string, bool) {
	if draft.Kind != model.KindExpense {
		return "", false
	}
	if !a.enableSuggestions() {
		fmt.Fprintln(out, cli.FormatWarning("Suggestions are not configured; set llm.provider and an API key"))
		return "", false
	}
	return promptSuggestion(ctx, a.suggester, a.settings.MinLength, opts, draft, in, out)
}

func promptSuggestion(ctx context.Context, suggester suggest.Suggester, minLength int, opts *addOptions, draft ledger.Draft, in io.Reader, out io.Writer) (string, bool) {
	if !suggest.LongEnough(draft.Description, minLength) {
		fmt.Fprintln(out, cli.FormatInfo("Description is too short for a category suggestion"))
		return "", false
	}

	s, ok := suggester.Suggest(ctx, draft.Description)
	if !ok {
		fmt.Fprintln(out, cli.FormatInfo("No category suggestion available"))
		return "", false
	}
	fmt.Fprintln(out, cli.FormatSuggestion(s))

	if opts.acceptSuggestion {
		return s.CategoryID, true
	}
	if draft.CategoryID != "" {
		return "", false
	}

	accepted, err := cli.Confirm(ctx, cli.NewNonBlockingReader(in), out, fmt.Sprintf("Use %s?", s.Label))
	if err != nil || !accepted {
		return "", false
	}
	return s.CategoryID, true
}

// parseDraft converts the flag values. Values that parse are left for the
// ledger to validate.
func parseDraft(registry *category.Registry, opts *addOptions, now time.Time) (ledger.Draft, *common.ValidationError) {
	verr := &common.ValidationError{}
	draft := ledger.Draft{
		Description: opts.description,
		CategoryID:  resolveCategory(registry, opts.category),
		Date:        time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
	}

	kind, err := model.ParseKind(opts.kind)
	if err != nil {
		verr.Add("kind", "must be income or expense")
	}
	draft.Kind = kind

	amount, err := decimal.NewFromString(strings.TrimSpace(opts.amount))
	if err != nil {
		verr.Add("amount", "must be a decimal number")
	} else {
		draft.Amount = amount
	}

	if raw := strings.TrimSpace(opts.date); raw != "" {
		d, err := time.ParseInLocation(dateLayout, raw, now.Location())
		if err != nil {
			verr.Add("date", "must be formatted as YYYY-MM-DD")
		} else {
			draft.Date = d
		}
	}

	return draft, verr
}

// resolveCategory accepts a category id or a label.
func resolveCategory(registry *category.Registry, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if registry.Exists(raw) {
		return raw
	}
	if c, ok := registry.MatchLabel(raw); ok {
		return c.ID
	}
	return raw
}
