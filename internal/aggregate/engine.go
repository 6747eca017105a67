// Package aggregate computes time-windowed spending summaries and the
// running balance from ledger contents. Every computation is a pure function
// of its inputs.
package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/tally/internal/model"
)

// Source provides the transactions to aggregate.
type Source interface {
	All() []model.Transaction
}

// LabelResolver maps category IDs to categories for presentation.
type LabelResolver interface {
	Resolve(id string) (model.Category, bool)
}

// Summary is the spending total and per-category breakdown for one window.
type Summary struct {
	Start      time.Time
	End        time.Time
	ByCategory map[string]decimal.Decimal // sparse: only categories with spending
	Total      decimal.Decimal
	Window     model.Window
	Count      int
}

// CategoryTotal is one row of a summary breakdown.
type CategoryTotal struct {
	CategoryID string
	Label      string
	Amount     decimal.Decimal
	Share      float64 // fraction of the window total, 0..1
}

// Totals is the unwindowed income, expense and balance over the whole ledger.
type Totals struct {
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Balance  decimal.Decimal
}

// Engine summarizes ledger contents.
type Engine struct {
	categories LabelResolver
	weekStart  time.Weekday
}

// Option configures an Engine.
type Option func(*Engine)

// WithWeekStart sets the first day of the weekly window. Defaults to Sunday.
func WithWeekStart(day time.Weekday) Option {
	return func(e *Engine) {
		e.weekStart = day
	}
}

// NewEngine creates an aggregation engine.
func NewEngine(categories LabelResolver, opts ...Option) *Engine {
	e := &Engine{
		categories: categories,
		weekStart:  time.Sunday,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WeekStart returns the configured first day of the week.
func (e *Engine) WeekStart() time.Weekday {
	return e.weekStart
}

// Summarize totals the expenses dated inside window w anchored at now.
// Income is excluded. Amounts are summed exactly; rounding is left to the
// presentation layer.
func (e *Engine) Summarize(src Source, w model.Window, now time.Time) (Summary, error) {
	start, end, err := Bounds(w, now, e.weekStart)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Window:     w,
		Start:      start,
		End:        end,
		Total:      decimal.Zero,
		ByCategory: make(map[string]decimal.Decimal),
	}

	for _, txn := range src.All() {
		if !txn.IsExpense() || !within(txn.Date, start, end) {
			continue
		}
		summary.Total = summary.Total.Add(txn.Amount)
		summary.ByCategory[txn.CategoryID] = summary.ByCategory[txn.CategoryID].Add(txn.Amount)
		summary.Count++
	}

	return summary, nil
}

// SummarizeAll summarizes every window, in display order.
func (e *Engine) SummarizeAll(src Source, now time.Time) ([]Summary, error) {
	windows := model.AllWindows()
	out := make([]Summary, 0, len(windows))
	for _, w := range windows {
		s, err := e.Summarize(src, w, now)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Breakdown turns a summary's category map into rows ordered by amount,
// largest first, with ties broken by label.
func (e *Engine) Breakdown(s Summary) []CategoryTotal {
	rows := make([]CategoryTotal, 0, len(s.ByCategory))
	for id, amount := range s.ByCategory {
		label := id
		if e.categories != nil {
			if c, ok := e.categories.Resolve(id); ok {
				label = c.Label
			}
		}

		var share float64
		if s.Total.IsPositive() {
			share = amount.Div(s.Total).InexactFloat64()
		}

		rows = append(rows, CategoryTotal{
			CategoryID: id,
			Label:      label,
			Amount:     amount,
			Share:      share,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if cmp := rows[i].Amount.Cmp(rows[j].Amount); cmp != 0 {
			return cmp > 0
		}
		return rows[i].Label < rows[j].Label
	})
	return rows
}

// Balance totals income and expenses over the entire ledger.
func Balance(src Source) Totals {
	income := decimal.Zero
	expenses := decimal.Zero

	for _, txn := range src.All() {
		switch txn.Kind {
		case model.KindIncome:
			income = income.Add(txn.Amount)
		case model.KindExpense:
			expenses = expenses.Add(txn.Amount)
		}
	}

	return Totals{
		Income:   income,
		Expenses: expenses,
		Balance:  income.Sub(expenses),
	}
}

// Transactions adapts a plain slice to Source.
type Transactions []model.Transaction

// All returns the slice itself.
func (t Transactions) All() []model.Transaction {
	return t
}
