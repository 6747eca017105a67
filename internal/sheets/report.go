package sheets

import (
	"fmt"
	"time"

	"github.com/Veraticus/tally/internal/aggregate"
	"github.com/Veraticus/tally/internal/model"
)

// Sheet titles written by Export.
const (
	TransactionsSheet = "Transactions"
	SummarySheet      = "Summary"
)

const dateLayout = "2006-01-02"

// Section is one window's summary together with its ordered breakdown.
type Section struct {
	Summary aggregate.Summary
	Rows    []aggregate.CategoryTotal
}

// ReportInput is everything needed to render a spreadsheet export.
type ReportInput struct {
	GeneratedAt  time.Time
	Labels       aggregate.LabelResolver
	Transactions []model.Transaction // ledger order, newest first
	Sections     []Section
	Totals       aggregate.Totals
}

// Report holds the cell values for each sheet, header rows included.
type Report struct {
	Transactions [][]any
	Summary      [][]any
}

// BuildReport renders the ledger and its summaries into sheet rows.
// Amounts are formatted to two decimals here and nowhere earlier.
func BuildReport(in ReportInput) Report {
	return Report{
		Transactions: transactionRows(in.Transactions, in.Labels),
		Summary:      summaryRows(in.Sections, in.Totals, in.GeneratedAt),
	}
}

// transactionRows keeps the ledger's display order, newest entry first.
func transactionRows(txns []model.Transaction, labels aggregate.LabelResolver) [][]any {
	rows := make([][]any, 0, len(txns)+1)
	rows = append(rows, []any{"Date", "Description", "Category", "Kind", "Amount"})
	for _, txn := range txns {
		rows = append(rows, []any{
			txn.Date.Format(dateLayout),
			txn.Description,
			categoryLabel(labels, txn.CategoryID),
			string(txn.Kind),
			txn.Amount.StringFixed(2),
		})
	}
	return rows
}

func summaryRows(sections []Section, totals aggregate.Totals, generatedAt time.Time) [][]any {
	rows := [][]any{
		{"Tally Summary"},
		{"Generated", generatedAt.Format("2006-01-02 15:04")},
		{},
	}

	for _, sec := range sections {
		s := sec.Summary
		rows = append(rows,
			[]any{windowTitle(s.Window), fmt.Sprintf("%s to %s", s.Start.Format(dateLayout), s.End.Format(dateLayout))},
			[]any{"Category", "Amount", "Share"},
		)
		for _, r := range sec.Rows {
			rows = append(rows, []any{r.Label, r.Amount.StringFixed(2), fmt.Sprintf("%.1f%%", r.Share*100)})
		}
		rows = append(rows,
			[]any{"Total", s.Total.StringFixed(2), fmt.Sprintf("%d transactions", s.Count)},
			[]any{},
		)
	}

	rows = append(rows,
		[]any{"Balance"},
		[]any{"Income", totals.Income.StringFixed(2)},
		[]any{"Expenses", totals.Expenses.StringFixed(2)},
		[]any{"Balance", totals.Balance.StringFixed(2)},
	)
	return rows
}

func categoryLabel(labels aggregate.LabelResolver, id string) string {
	if labels != nil {
		if c, ok := labels.Resolve(id); ok {
			return c.Label
		}
	}
	return id
}

func windowTitle(w model.Window) string {
	switch w {
	case model.WindowDaily:
		return "Today"
	case model.WindowWeekly:
		return "This week"
	case model.WindowMonthly:
		return "This month"
	default:
		return string(w)
	}
}
