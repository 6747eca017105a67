// Package tui implements the interactive add-transaction form with live
// category suggestions.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/ledger"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/suggest"
)

const dateLayout = "2006-01-02"

// field identifies a form row.
type field int

const (
	fieldDescription field = iota
	fieldAmount
	fieldDate
	fieldKind
	fieldCategory
	fieldCount
)

// Model is the bubbletea model of the entry form.
type Model struct {
	ctx        context.Context
	config     Config
	errors     map[string]string
	saved      *model.Transaction
	status     string
	kind       model.Kind
	categories []model.Category
	keymap     KeyMap
	help       help.Model
	spinner    spinner.Model
	inputs     [3]textinput.Model
	ticket     suggest.Ticket
	catIndex   int
	focus      field
	waiting    bool
	quitting   bool
	canceled   bool
}

// NewModel creates an empty form. ctx bounds every suggestion request.
func NewModel(ctx context.Context, l Appender, categories Categories, opts ...Option) Model {
	cfg := defaultConfig()
	cfg.Ledger = l
	cfg.Categories = categories
	for _, opt := range opts {
		opt(&cfg)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = cfg.Theme.Suggestion

	m := Model{
		ctx:      ctx,
		config:   cfg,
		keymap:   DefaultKeyMap(),
		help:     help.New(),
		spinner:  sp,
		errors:   make(map[string]string),
		kind:     model.KindExpense,
		catIndex: -1,
	}

	placeholders := [3]string{"What was it for?", "0.00", dateLayout}
	for i := range m.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 120
		m.inputs[i] = ti
	}
	m.inputs[fieldAmount].CharLimit = 16
	m.inputs[fieldDate].CharLimit = len(dateLayout)
	m.inputs[fieldDate].SetValue(cfg.Now().Format(dateLayout))
	m.inputs[fieldDescription].Focus()

	m.categories = categories.ForKind(m.kind)
	return m
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case suggestionMsg:
		if msg.generation == m.ticket.Generation {
			m.waiting = false
		}
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateFocusedInput(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.ForceQuit), key.Matches(msg, m.keymap.Quit):
		m.canceled = true
		m.quitting = true
		m.closeSuggestions()
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Accept):
		m.acceptSuggestion()
		return m, nil
	case key.Matches(msg, m.keymap.Submit):
		return m.submit()
	case key.Matches(msg, m.keymap.Next):
		return m, m.setFocus((m.focus + 1) % fieldCount)
	case key.Matches(msg, m.keymap.Prev):
		return m, m.setFocus((m.focus + fieldCount - 1) % fieldCount)
	}

	switch m.focus {
	case fieldKind:
		if key.Matches(msg, m.keymap.Left) || key.Matches(msg, m.keymap.Right) {
			next := model.KindIncome
			if m.kind == model.KindIncome {
				next = model.KindExpense
			}
			return m, m.setKind(next)
		}
		return m, nil
	case fieldCategory:
		if len(m.categories) == 0 {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keymap.Right):
			m.selectCategory((m.catIndex + 1) % len(m.categories))
		case key.Matches(msg, m.keymap.Left):
			idx := m.catIndex - 1
			if idx < 0 {
				idx = len(m.categories) - 1
			}
			m.selectCategory(idx)
		}
		return m, nil
	}

	return m.updateFocusedInput(msg)
}

func (m Model) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.focus > fieldDate {
		return m, nil
	}

	before := m.inputs[fieldDescription].Value()
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)

	if m.focus == fieldDescription && m.inputs[fieldDescription].Value() != before {
		delete(m.errors, "description")
		return m, tea.Batch(cmd, m.descriptionChanged())
	}
	return m, cmd
}

func (m *Model) setFocus(f field) tea.Cmd {
	if m.focus <= fieldDate {
		m.inputs[m.focus].Blur()
	}
	m.focus = f
	if f <= fieldDate {
		return m.inputs[f].Focus()
	}
	return nil
}

// descriptionChanged records an edit with the suggestion session and, when
// the new text is eligible, starts a debounced request for it.
func (m *Model) descriptionChanged() tea.Cmd {
	if m.config.Suggestions == nil {
		return nil
	}
	return m.startSuggestion(m.config.Suggestions.SetDescription(m.inputs[fieldDescription].Value()))
}

func (m *Model) setKind(kind model.Kind) tea.Cmd {
	m.kind = kind

	var selected string
	if m.catIndex >= 0 {
		selected = m.categories[m.catIndex].ID
	}
	m.categories = m.config.Categories.ForKind(kind)
	m.catIndex = indexOf(m.categories, selected)

	if m.config.Suggestions == nil {
		return nil
	}
	return m.startSuggestion(m.config.Suggestions.SetKind(kind))
}

func (m *Model) startSuggestion(t suggest.Ticket) tea.Cmd {
	m.ticket = t
	m.waiting = t.Eligible
	if !t.Eligible {
		return nil
	}
	return tea.Batch(m.suggestCmd(t), m.spinner.Tick)
}

// suggestCmd runs one debounced suggestion request off the update loop.
func (m Model) suggestCmd(t suggest.Ticket) tea.Cmd {
	session := m.config.Suggestions
	ctx := m.ctx
	return func() tea.Msg {
		s, ok := session.Run(ctx, t)
		return suggestionMsg{suggestion: s, generation: t.Generation, ok: ok}
	}
}

func (m *Model) selectCategory(idx int) {
	m.catIndex = idx
	delete(m.errors, "category")
	if m.config.Suggestions != nil {
		m.config.Suggestions.SelectCategory()
		m.ticket = suggest.Ticket{Generation: m.config.Suggestions.Generation()}
	}
	m.waiting = false
}

func (m *Model) acceptSuggestion() {
	if m.config.Suggestions == nil {
		return
	}
	s, ok := m.config.Suggestions.Accept()
	if !ok {
		return
	}
	idx := indexOf(m.categories, s.CategoryID)
	if idx < 0 {
		m.status = "Suggested category " + s.Label + " is not offered for " + string(m.kind)
		return
	}
	m.catIndex = idx
	m.status = ""
	delete(m.errors, "category")
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	m.errors = make(map[string]string)
	m.status = ""
	now := m.config.Now()

	draft := ledger.Draft{
		Description: m.inputs[fieldDescription].Value(),
		Kind:        m.kind,
	}
	if m.catIndex >= 0 {
		draft.CategoryID = m.categories[m.catIndex].ID
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(m.inputs[fieldAmount].Value()))
	if err != nil {
		m.errors["amount"] = "must be a decimal number"
	} else {
		draft.Amount = amount
	}

	date, err := time.ParseInLocation(dateLayout, strings.TrimSpace(m.inputs[fieldDate].Value()), now.Location())
	if err != nil {
		m.errors["date"] = "must be formatted as " + dateLayout
	} else {
		draft.Date = date
	}

	if len(m.errors) > 0 {
		return m, nil
	}

	txn, err := m.config.Ledger.Append(m.ctx, draft)
	if err != nil {
		var verr *common.ValidationError
		if errors.As(err, &verr) {
			for _, f := range verr.Fields {
				m.errors[f.Field] = f.Message
			}
			return m, nil
		}
		m.status = err.Error()
		return m, nil
	}

	m.saved = &txn
	m.quitting = true
	m.closeSuggestions()
	return m, tea.Quit
}

func (m *Model) closeSuggestions() {
	if m.config.Suggestions != nil {
		m.config.Suggestions.Close()
	}
}

// Transaction returns the saved transaction once the form was submitted.
func (m Model) Transaction() (model.Transaction, bool) {
	if m.saved == nil {
		return model.Transaction{}, false
	}
	return *m.saved, true
}

// Canceled reports whether the user left without saving.
func (m Model) Canceled() bool {
	return m.canceled
}

func indexOf(cats []model.Category, id string) int {
	if id == "" {
		return -1
	}
	for i, c := range cats {
		if c.ID == id {
			return i
		}
	}
	return -1
}
