package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/model"
)

// View renders the form.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	theme := m.config.Theme
	var b strings.Builder

	b.WriteString(theme.Title.Render(cli.LedgerIcon + " New transaction"))
	b.WriteString("\n")

	b.WriteString(m.renderRow(fieldDescription, "Description", m.inputs[fieldDescription].View(), "description"))
	b.WriteString(m.renderRow(fieldAmount, "Amount", m.inputs[fieldAmount].View(), "amount"))
	b.WriteString(m.renderRow(fieldDate, "Date", m.inputs[fieldDate].View(), "date"))
	b.WriteString(m.renderRow(fieldKind, "Kind", m.renderKind(), "kind"))
	b.WriteString(m.renderRow(fieldCategory, "Category", m.renderCategory(), "category"))

	b.WriteString("\n")
	b.WriteString(m.renderSuggestion())
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(theme.StatusError.Render(m.status))
		b.WriteString("\n")
	}

	box := theme.RoundedBox.Width(m.config.Width).Render(b.String())
	return lipgloss.JoinVertical(lipgloss.Left, box, m.help.View(m.keymap))
}

func (m Model) renderRow(f field, label, value, errKey string) string {
	labelStyle := m.config.Theme.Label
	if m.focus == f {
		labelStyle = m.config.Theme.FocusedLabel
	}

	row := labelStyle.Render(label) + " " + value + "\n"
	if msg, ok := m.errors[errKey]; ok {
		row += m.config.Theme.StatusError.Render(fmt.Sprintf("%13s %s", "", msg)) + "\n"
	}
	return row
}

func (m Model) renderKind() string {
	theme := m.config.Theme
	options := make([]string, 0, 2)
	for _, k := range []model.Kind{model.KindExpense, model.KindIncome} {
		style := theme.Normal
		if k == m.kind {
			style = theme.Selected
		}
		options = append(options, style.Render(string(k)))
	}
	return strings.Join(options, " ")
}

func (m Model) renderCategory() string {
	theme := m.config.Theme
	if len(m.categories) == 0 {
		return theme.Muted.Render("no categories")
	}
	if m.catIndex < 0 {
		return theme.Muted.Render(fmt.Sprintf("← choose one of %d →", len(m.categories)))
	}

	c := m.categories[m.catIndex]
	label := cli.Icon(c.Icon) + " " + c.Label
	return theme.Selected.Render(label) + theme.Muted.Render(fmt.Sprintf(" %d/%d", m.catIndex+1, len(m.categories)))
}

func (m Model) renderSuggestion() string {
	theme := m.config.Theme
	if m.config.Suggestions == nil {
		return ""
	}
	if m.waiting {
		return m.spinner.View() + theme.StatusPending.Render(" Finding a category...")
	}
	if s, ok := m.config.Suggestions.Pending(); ok {
		return theme.Suggestion.Render(fmt.Sprintf("Suggested: %s (%.0f%%)", s.Label, s.Confidence*100)) +
			theme.Muted.Render("  Ctrl+A to accept")
	}
	return ""
}
