package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/tally/internal/model"
)

// Run shows the form until the user saves or cancels. It returns the saved
// transaction and true, or false when the form was canceled.
func Run(ctx context.Context, l Appender, categories Categories, opts ...Option) (model.Transaction, bool, error) {
	m := NewModel(ctx, l, categories, opts...)

	p := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return model.Transaction{}, false, fmt.Errorf("form failed: %w", err)
	}

	fm, ok := final.(Model)
	if !ok {
		return model.Transaction{}, false, fmt.Errorf("unexpected model type %T", final)
	}
	txn, saved := fm.Transaction()
	return txn, saved, nil
}
