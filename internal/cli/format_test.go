package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/tally/internal/aggregate"
	"github.com/Veraticus/tally/internal/category"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

var now = time.Date(2025, time.March, 14, 15, 30, 0, 0, time.UTC)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "19.5", want: "19.50"},
		{in: "0.1", want: "0.10"},
		{in: "2.755", want: "2.76"},
		{in: "3000", want: "3000.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestSignedAmount(t *testing.T) {
	expense := model.Transaction{Amount: decimal.RequireFromString("4.5"), Kind: model.KindExpense}
	income := model.Transaction{Amount: decimal.RequireFromString("3000"), Kind: model.KindIncome}

	assert.Contains(t, SignedAmount(expense), "-4.50")
	assert.Contains(t, SignedAmount(income), "+3000.00")
}

func TestIcon(t *testing.T) {
	assert.Equal(t, "🍽️", Icon("utensils-crossed"))
	assert.Equal(t, Icon(model.DefaultIcon), Icon("no-such-icon"))
}

func TestRenderTransactions(t *testing.T) {
	registry := category.NewRegistry()
	txns := []model.Transaction{
		{Description: "Paycheck", Amount: decimal.RequireFromString("3000"), Date: now, CategoryID: "salary", Kind: model.KindIncome},
		{Description: "Coffee", Amount: decimal.RequireFromString("4.5"), Date: now.AddDate(0, 0, -1), CategoryID: "food", Kind: model.KindExpense},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderTransactions(&buf, txns, registry))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Description")
	assert.Contains(t, lines[1], "2025-03-14")
	assert.Contains(t, lines[1], "Salary")
	assert.Contains(t, lines[1], "+3000.00")
	assert.Contains(t, lines[2], "Food")
	assert.Contains(t, lines[2], "-4.50")
}

func TestRenderTransactions_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderTransactions(&buf, nil, nil))
	assert.Contains(t, buf.String(), "No transactions yet")
}

func TestRenderSummary(t *testing.T) {
	registry := category.NewRegistry()
	engine := aggregate.NewEngine(registry)
	src := aggregate.Transactions{
		{Description: "Coffee", Amount: decimal.RequireFromString("4.50"), Date: now.Add(-time.Hour), CategoryID: "food", Kind: model.KindExpense},
		{Description: "Lunch", Amount: decimal.RequireFromString("15"), Date: now.Add(-2 * time.Hour), CategoryID: "food", Kind: model.KindExpense},
		{Description: "Bus", Amount: decimal.RequireFromString("2.75"), Date: now.Add(-3 * time.Hour), CategoryID: "transport", Kind: model.KindExpense},
	}
	s, err := engine.Summarize(src, model.WindowDaily, now)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderSummary(&buf, s, engine.Breakdown(s)))

	out := buf.String()
	assert.Contains(t, out, "Daily spending (2025-03-14 to 2025-03-14)")
	assert.Contains(t, out, "19.50")
	assert.Contains(t, out, "2.75")
	assert.Contains(t, out, "22.25")
	assert.Contains(t, out, "3 txns")
	assert.Less(t, strings.Index(out, "Food"), strings.Index(out, "Transport"))
}

func TestRenderSummary_Empty(t *testing.T) {
	s, err := aggregate.NewEngine(nil).Summarize(aggregate.Transactions{}, model.WindowWeekly, now)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderSummary(&buf, s, nil))
	assert.Contains(t, buf.String(), "No spending in this period")
}

func TestRenderBalance(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderBalance(&buf, aggregate.Totals{
		Income:   decimal.RequireFromString("100"),
		Expenses: decimal.RequireFromString("150.5"),
		Balance:  decimal.RequireFromString("-50.5"),
	}))

	out := buf.String()
	assert.Contains(t, out, "100.00")
	assert.Contains(t, out, "150.50")
	assert.Contains(t, out, "-50.50")
}

func TestRenderCategories(t *testing.T) {
	cats := []model.Category{
		{ID: "food", Label: "Food", Icon: "utensils-crossed", BuiltIn: true},
		{ID: "pets", Label: "Pets", Icon: model.DefaultIcon},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderCategories(&buf, cats))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "built-in")
	assert.Contains(t, lines[2], "custom")
}

func TestFormatSuggestion(t *testing.T) {
	out := FormatSuggestion(model.Suggestion{CategoryID: "food", Label: "Food", Confidence: 0.87})
	assert.Contains(t, out, "Suggested category: Food (87% confident)")
}

func TestFormatValidationError(t *testing.T) {
	verr := common.NewValidationError("description", "must be at least 3 characters")
	verr.Add("amount", "must be positive")

	out := FormatValidationError(verr)
	assert.Contains(t, out, "description: must be at least 3 characters")
	assert.Contains(t, out, "amount: must be positive")

	assert.Contains(t, FormatValidationError(errors.New("disk full")), "disk full")
}
