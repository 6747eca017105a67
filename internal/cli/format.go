package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/tally/internal/aggregate"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

const dateLayout = "2006-01-02"

var icons = map[string]string{
	"utensils-crossed": "🍽️",
	"train-front":      "🚆",
	"popcorn":          "🍿",
	"home":             "🏠",
	"heart-pulse":      "❤️",
	"shopping-bag":     "🛍️",
	"receipt-text":     "🧾",
	"briefcase":        "💼",
	"landmark":         "🏛️",
	model.DefaultIcon:  "🔷",
}

// Icon resolves a category's symbolic icon key. Unknown keys fall back to
// the default icon.
func Icon(key string) string {
	if glyph, ok := icons[key]; ok {
		return glyph
	}
	return icons[model.DefaultIcon]
}

// FormatAmount renders an amount rounded to two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// SignedAmount renders a transaction amount with its direction, colored by kind.
func SignedAmount(t model.Transaction) string {
	if t.Kind == model.KindIncome {
		return IncomeStyle.Render("+" + FormatAmount(t.Amount))
	}
	return ExpenseStyle.Render("-" + FormatAmount(t.Amount))
}

func label(labels aggregate.LabelResolver, id string) string {
	if labels != nil {
		if c, ok := labels.Resolve(id); ok {
			return c.Label
		}
	}
	return id
}

// RenderTransactions writes transactions as a table in the order given.
func RenderTransactions(w io.Writer, txns []model.Transaction, labels aggregate.LabelResolver) error {
	if len(txns) == 0 {
		_, err := fmt.Fprintln(w, InfoStyle.Render("No transactions yet. Use 'tally add' to record one."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
		TableHeaderStyle.Render("Date"),
		TableHeaderStyle.Render("Description"),
		TableHeaderStyle.Render("Category"),
		TableHeaderStyle.Render("Amount"))
	for _, t := range txns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			t.Date.Format(dateLayout), t.Description, label(labels, t.CategoryID), SignedAmount(t))
	}
	return tw.Flush()
}

// RenderSummary writes one window's total and its category breakdown.
func RenderSummary(w io.Writer, s aggregate.Summary, rows []aggregate.CategoryTotal) error {
	title := fmt.Sprintf("%s %s spending (%s to %s)", ChartIcon, windowName(s.Window),
		s.Start.Format(dateLayout), s.End.Format(dateLayout))
	if _, err := fmt.Fprintln(w, BoldStyle.Render(title)); err != nil {
		return err
	}

	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, SubtleStyle.Render("  No spending in this period."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range rows {
		fmt.Fprintf(tw, "  %s\t%s\t%5.1f%%\n", r.Label, FormatAmount(r.Amount), r.Share*100)
	}
	fmt.Fprintf(tw, "  %s\t%s\t%s\n", BoldStyle.Render("Total"), BoldStyle.Render(FormatAmount(s.Total)),
		SubtleStyle.Render(fmt.Sprintf("%d txns", s.Count)))
	return tw.Flush()
}

// RenderBalance writes the unwindowed income, expense and balance totals.
func RenderBalance(w io.Writer, t aggregate.Totals) error {
	balance := FormatAmount(t.Balance)
	if t.Balance.IsNegative() {
		balance = ErrorStyle.Render(balance)
	} else {
		balance = SuccessStyle.Render(balance)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Income\t%s\n", IncomeStyle.Render(FormatAmount(t.Income)))
	fmt.Fprintf(tw, "Expenses\t%s\n", ExpenseStyle.Render(FormatAmount(t.Expenses)))
	fmt.Fprintf(tw, "Balance\t%s\n", balance)
	return tw.Flush()
}

// RenderCategories writes the category list with icons.
func RenderCategories(w io.Writer, cats []model.Category) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\n",
		TableHeaderStyle.Render("ID"),
		TableHeaderStyle.Render("Label"),
		TableHeaderStyle.Render("Source"))
	for _, c := range cats {
		source := "custom"
		if c.BuiltIn {
			source = SubtleStyle.Render("built-in")
		}
		fmt.Fprintf(tw, "%s\t%s %s\t%s\n", c.ID, Icon(c.Icon), c.Label, source)
	}
	return tw.Flush()
}

// FormatSuggestion renders an advisory suggestion.
func FormatSuggestion(s model.Suggestion) string {
	return InfoStyle.Render(fmt.Sprintf("%s Suggested category: %s (%.0f%% confident)", RobotIcon, s.Label, s.Confidence*100))
}

// FormatValidationError lists each invalid field on its own line. Other
// errors render as a single line.
func FormatValidationError(err error) string {
	var verr *common.ValidationError
	if !errors.As(err, &verr) {
		return FormatError(err.Error())
	}

	var b strings.Builder
	b.WriteString(FormatError("Invalid input:"))
	for _, f := range verr.Fields {
		b.WriteString("\n  ")
		b.WriteString(BoldStyle.Render(f.Field))
		b.WriteString(": ")
		b.WriteString(f.Message)
	}
	return b.String()
}

func windowName(w model.Window) string {
	switch w {
	case model.WindowDaily:
		return "Daily"
	case model.WindowWeekly:
		return "Weekly"
	case model.WindowMonthly:
		return "Monthly"
	default:
		return string(w)
	}
}
