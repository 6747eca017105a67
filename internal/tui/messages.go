package tui

import "github.com/Veraticus/tally/internal/model"

// suggestionMsg carries the outcome of one suggestion request.
type suggestionMsg struct {
	suggestion model.Suggestion
	generation uint64
	ok         bool
}
